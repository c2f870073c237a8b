package output

import (
	"fmt"
	"time"

	"github.com/dmagro/eth-rpc-client/internal/abi"
	"github.com/dmagro/eth-rpc-client/internal/client"
)

// CallReport is the decoded result of one read-only contract call.
type CallReport struct {
	Contract abi.Address
	Function *abi.Function
	Args     []any
	Values   []any
	Latency  time.Duration
}

type jsonValue struct {
	Name  string `json:"name,omitempty"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

func namedValues(args []abi.Argument, values []any) []jsonValue {
	out := make([]jsonValue, 0, len(values))
	for i, v := range values {
		jv := jsonValue{Value: abi.FormatValue(v)}
		if i < len(args) {
			jv.Name = args[i].Name
			jv.Type = args[i].Type.String()
		}
		out = append(out, jv)
	}
	return out
}

// Call renders a CallReport.
func (p *Printer) Call(r *CallReport) error {
	outputs := namedValues(r.Function.Outputs, r.Values)
	if p.JSON() {
		return p.writeJSON(map[string]any{
			"contract":  r.Contract.Hex(),
			"function":  r.Function.Signature(),
			"args":      namedValues(r.Function.Inputs, r.Args),
			"outputs":   outputs,
			"latencyMs": millis(r.Latency),
		})
	}

	p.title(r.Function.Signature())
	p.field("Contract", r.Contract.Hex())
	fmt.Fprintln(p.w)
	tbl := p.newTable("Output", "Type", "Value")
	for i, o := range outputs {
		name := o.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		tbl.AddRow(name, o.Type, green(o.Value))
	}
	tbl.Print()
	fmt.Fprintln(p.w)
	p.field("Latency", formatDuration(r.Latency))
	fmt.Fprintln(p.w)
	return nil
}

// Views renders the results of ContractHandle.CallViews.
func (p *Printer) Views(contract abi.Address, results []client.ViewResult) error {
	if p.JSON() {
		type view struct {
			Function string      `json:"function"`
			Outputs  []jsonValue `json:"outputs,omitempty"`
			Error    string      `json:"error,omitempty"`
		}
		views := make([]view, 0, len(results))
		for _, res := range results {
			v := view{Function: res.Function.Signature()}
			if res.Err != nil {
				v.Error = res.Err.Error()
			} else {
				v.Outputs = namedValues(res.Function.Outputs, res.Values)
			}
			views = append(views, v)
		}
		return p.writeJSON(map[string]any{"contract": contract.Hex(), "views": views})
	}

	p.title("Contract State")
	p.field("Contract", contract.Hex())
	fmt.Fprintln(p.w)
	tbl := p.newTable("Function", "Value")
	for _, res := range results {
		if res.Err != nil {
			tbl.AddRow(res.Function.Name, red("✗ "+res.Err.Error()))
			continue
		}
		for i, v := range namedValues(res.Function.Outputs, res.Values) {
			label := res.Function.Name
			if i > 0 {
				label = ""
			}
			tbl.AddRow(label, v.Value)
		}
	}
	tbl.Print()
	fmt.Fprintln(p.w)
	return nil
}
