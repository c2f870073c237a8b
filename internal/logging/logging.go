// Package logging builds the zap logger used by the CLI.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the encoder, level and destination.
type Config struct {
	Format string // console, logfmt or json
	Level  string // debug, info, warn or error
	Output string // stderr, stdout or a file path
}

// New returns a logger for conf. Empty fields mean console, info and stderr.
func New(conf Config, extra ...zapcore.WriteSyncer) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if conf.Level != "" {
		var err error
		if level, err = zapcore.ParseLevel(conf.Level); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", conf.Level, err)
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = func(ts time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(ts.UTC().Format(time.RFC3339))
	}

	var encoder zapcore.Encoder
	switch conf.Format {
	case "logfmt":
		encoder = zaplogfmt.NewEncoder(encCfg)
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("invalid log format %q (expected console, logfmt or json)", conf.Format)
	}

	ws, err := writer(conf.Output)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(append(extra, ws)...), level)
	return zap.New(core), nil
}

func writer(output string) (zapcore.WriteSyncer, error) {
	switch output {
	case "", "stderr":
		return zapcore.Lock(os.Stderr), nil
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, fmt.Errorf("log output: %w", err)
	}
	f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("log output: %w", err)
	}
	return zapcore.Lock(f), nil
}
