// Package config loads the CLI configuration: a YAML file with ${VAR}
// expansion, an optional .env file, and ETH_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dmagro/eth-rpc-client/internal/client"
	"github.com/dmagro/eth-rpc-client/internal/logging"
	"github.com/dmagro/eth-rpc-client/internal/metrics"
	"github.com/dmagro/eth-rpc-client/internal/signer"
)

// Environment variables that override file settings.
const (
	EnvNodeURL    = "ETH_NODE_URL"
	EnvPrivateKey = "ETH_PRIVATE_KEY"
	EnvFrom       = "ETH_FROM"
)

// Config is the root of the YAML file.
type Config struct {
	Node    Node    `yaml:"node"`
	Account Account `yaml:"account"`
	Log     Log     `yaml:"log"`
}

// Node describes the endpoint and request pacing.
type Node struct {
	URL            string        `yaml:"url" validate:"required,url"`
	Timeout        time.Duration `yaml:"timeout" validate:"gt=0"`
	PollInterval   time.Duration `yaml:"poll_interval" validate:"gt=0"`
	ReceiptTimeout time.Duration `yaml:"receipt_timeout" validate:"gtfield=PollInterval"`
	RateLimit      float64       `yaml:"rate_limit" validate:"gte=0"`
	RateBurst      int           `yaml:"rate_burst" validate:"gte=0"`
}

// Account selects the sender for send and deploy. A private key signs
// locally; otherwise From names an account unlocked in the node.
type Account struct {
	From       string `yaml:"from" validate:"omitempty,eth_addr"`
	PrivateKey string `yaml:"private_key" validate:"omitempty,hexadecimal"`
}

// Log configures the CLI logger.
type Log struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=console logfmt json"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Node: Node{
			URL:            client.DefaultEndpoint,
			Timeout:        client.DefaultTimeout,
			PollInterval:   client.DefaultPollInterval,
			ReceiptTimeout: client.DefaultReceiptTimeout,
		},
		Log: Log{Level: "info", Format: "console", Output: "stderr"},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that the node URL uses a scheme the
// client can speak.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s fails %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}

	u, err := url.Parse(c.Node.URL)
	if err != nil {
		return fmt.Errorf("config: node.url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("config: node.url scheme %q (expected http, https, ws or wss)", u.Scheme)
	}
	return nil
}

// Warnings lists suspicious but legal settings.
func (c *Config) Warnings() []string {
	const low = 500 * time.Millisecond
	const high = 2 * time.Minute

	var out []string
	if d := c.Node.Timeout; d < low {
		out = append(out, fmt.Sprintf("node.timeout is very low (%s); requests may fail under normal network jitter", d))
	} else if d > high {
		out = append(out, fmt.Sprintf("node.timeout is very high (%s); failures may take a long time to surface", d))
	}
	if c.Account.PrivateKey != "" && c.Account.From != "" {
		out = append(out, "both account.private_key and account.from are set; the private key wins")
	}
	return out
}

// Load reads path, expands ${VAR} references, applies ETH_* overrides and
// validates the result. A missing file yields the defaults (still subject to
// overrides).
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvNodeURL)); v != "" {
		c.Node.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPrivateKey)); v != "" {
		c.Account.PrivateKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFrom)); v != "" {
		c.Account.From = v
	}
}

// LoadEnv loads KEY=VALUE pairs from the given .env files (".env" when none
// are named) into the process environment. Values from the file replace
// variables already set. Missing files are skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Overload(present...); err != nil {
		return fmt.Errorf("failed to load %s: %w", strings.Join(present, ", "), err)
	}
	return nil
}

// ClientConfig maps the node section onto client settings.
func (c *Config) ClientConfig(log *zap.Logger, m *metrics.Collector) client.Config {
	return client.Config{
		Endpoint:       c.Node.URL,
		Timeout:        c.Node.Timeout,
		PollInterval:   c.Node.PollInterval,
		ReceiptTimeout: c.Node.ReceiptTimeout,
		RateLimit:      c.Node.RateLimit,
		RateBurst:      c.Node.RateBurst,
		Logger:         log,
		Metrics:        m,
	}
}

// LoggingConfig maps the log section onto logging settings.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{Format: c.Log.Format, Level: c.Log.Level, Output: c.Log.Output}
}

// ErrNoAccount is returned by Credentials when neither a private key nor a
// sender address is configured.
var ErrNoAccount = errors.New("no account configured: set account.private_key, account.from, " + EnvPrivateKey + " or " + EnvFrom)

// Credentials builds the sender for state-changing commands.
func (c *Config) Credentials() (client.Credentials, error) {
	switch {
	case c.Account.PrivateKey != "":
		key, err := signer.ParsePrivateKey(c.Account.PrivateKey)
		if err != nil {
			return nil, err
		}
		return key, nil
	case c.Account.From != "":
		acct, err := signer.NewNodeAccount(c.Account.From)
		if err != nil {
			return nil, err
		}
		return acct, nil
	}
	return nil, ErrNoAccount
}
