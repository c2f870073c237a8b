package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Encode serializes a call into a JSON-RPC 2.0 request body.
func Encode(id uint64, method string, params []any) ([]byte, error) {
	if method == "" {
		return nil, fmt.Errorf("encode request: empty method")
	}
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(Request{
		JSONRPC: Version,
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s params: %w", method, err)
	}
	return body, nil
}

// envelope mirrors Response but keeps id raw so a missing or non-numeric id
// can be told apart from id 0.
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
}

// Decode parses a response body.
//
// It returns *MalformedResponseError when the payload is not a single JSON
// object with an id and exactly one of result/error. When the node reports an
// error object, Decode returns the response together with that *Error, so
// callers can both inspect the id and surface the error unchanged. An error
// object with a null id is accepted: nodes answer that way when they could
// not parse the request at all.
func Decode(body []byte) (*Response, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, &MalformedResponseError{Reason: "empty body"}
	}
	if body[0] != '{' {
		return nil, &MalformedResponseError{Reason: "expected a JSON object"}
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, &MalformedResponseError{Reason: "invalid JSON", Err: err}
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &MalformedResponseError{Reason: "invalid envelope", Err: err}
	}

	_, hasResult := keys["result"]
	hasError := env.Error != nil
	switch {
	case hasResult && hasError:
		return nil, &MalformedResponseError{Reason: "both result and error present"}
	case !hasResult && !hasError:
		return nil, &MalformedResponseError{Reason: "neither result nor error present"}
	}

	resp := &Response{JSONRPC: env.JSONRPC, Error: env.Error}
	id, idErr := parseID(env.ID)
	if hasError {
		if idErr == nil {
			resp.ID = id
		}
		return resp, env.Error
	}
	if idErr != nil {
		return nil, &MalformedResponseError{Reason: "bad id", Err: idErr}
	}
	resp.ID = id
	resp.Result = env.Result
	if len(resp.Result) == 0 {
		resp.Result = json.RawMessage("null")
	}
	return resp, nil
}

func parseID(raw json.RawMessage) (uint64, error) {
	s := string(bytes.TrimSpace(raw))
	if s == "" || s == "null" {
		return 0, fmt.Errorf("missing id")
	}
	// Some proxies echo numeric ids back as strings.
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %s is not an unsigned integer", string(raw))
	}
	return id, nil
}

// ParseID extracts the id from a response body without validating the rest
// of the envelope. Multiplexing transports use it to route replies.
func ParseID(body []byte) (uint64, error) {
	var env struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return 0, err
	}
	return parseID(env.ID)
}

