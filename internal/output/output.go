// Package output renders command results either as colored terminal tables
// or as indented JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rodaine/table"
)

// Format selects how a Printer renders.
type Format string

const (
	FormatTerminal Format = "terminal"
	FormatJSON     Format = "json"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTerminal, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (expected terminal or json)", s)
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Printer writes reports to w in one format.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter returns a Printer. JSON output never carries color codes.
func NewPrinter(w io.Writer, format Format) *Printer {
	if format == FormatJSON {
		DisableColors()
	}
	return &Printer{w: w, format: format}
}

// JSON reports whether the printer emits JSON.
func (p *Printer) JSON() bool { return p.format == FormatJSON }

func (p *Printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) newTable(columns ...interface{}) table.Table {
	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	return table.New(columns...).WithHeaderFormatter(headerFmt).WithWriter(p.w)
}

func (p *Printer) title(s string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, bold(s))
	fmt.Fprintln(p.w, "═══════════════════════════════════════════════════════")
}

func (p *Printer) field(label, value string) {
	fmt.Fprintf(p.w, "  %-14s %s\n", cyan(label+":"), value)
}

// DisableColors turns off color output (for non-TTY or JSON mode).
func DisableColors() {
	color.NoColor = true
}

// IsTerminal returns true if stdout is a terminal.
func IsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func truncateHash(hash string) string {
	if len(hash) <= 14 {
		return hash
	}
	return hash[:6] + "..." + hash[len(hash)-4:]
}
