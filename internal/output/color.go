package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"

	clearLine = "\r\033[K"
)

// Printer handles colored output. It is safe for concurrent use; each
// message is written whole.
type Printer struct {
	out      io.Writer
	err      io.Writer
	useColor bool

	mu sync.Mutex
}

// NewPrinter creates a new printer with color support
func NewPrinter() *Printer {
	return &Printer{
		out:      os.Stdout,
		err:      os.Stderr,
		useColor: isTerminal(),
	}
}

// NewPrinterWithWriters creates a printer with custom writers (for testing)
func NewPrinterWithWriters(out, err io.Writer, useColor bool) *Printer {
	return &Printer{
		out:      out,
		err:      err,
		useColor: useColor,
	}
}

func (p *Printer) write(w io.Writer, s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(w, s)
}

// line renders one message with its symbol, in color when enabled
func (p *Printer) line(color, symbol, message string) string {
	if p.useColor {
		return fmt.Sprintf("%s%s%s %s%s\n", colorBold, color, symbol, message, colorReset)
	}
	return fmt.Sprintf("%s %s\n", symbol, message)
}

// Success prints a success message in green
func (p *Printer) Success(format string, args ...interface{}) {
	p.write(p.out, p.line(colorGreen, "✓", fmt.Sprintf(format, args...)))
}

// Error prints an error message in red
func (p *Printer) Error(format string, args ...interface{}) {
	p.write(p.err, p.line(colorRed, "✗", fmt.Sprintf(format, args...)))
}

// Warning prints a warning message in yellow
func (p *Printer) Warning(format string, args ...interface{}) {
	p.write(p.err, p.line(colorYellow, "⚠", fmt.Sprintf(format, args...)))
}

// Info prints an info message in cyan
func (p *Printer) Info(format string, args ...interface{}) {
	p.write(p.out, p.line(colorCyan, "→", fmt.Sprintf(format, args...)))
}

// Step prints a step message in blue
func (p *Printer) Step(format string, args ...interface{}) {
	p.write(p.out, p.line(colorBlue, "▶", fmt.Sprintf(format, args...)))
}

// Detail prints a detail message in gray
func (p *Printer) Detail(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if p.useColor {
		p.write(p.out, fmt.Sprintf("%s  %s%s\n", colorGray, message, colorReset))
	} else {
		p.write(p.out, fmt.Sprintf("  %s\n", message))
	}
}

// Print prints a plain message without color
func (p *Printer) Print(format string, args ...interface{}) {
	p.write(p.out, fmt.Sprintf(format, args...))
}

// Println prints a plain message with newline
func (p *Printer) Println(args ...interface{}) {
	p.write(p.out, fmt.Sprintln(args...))
}

// JSON prints v as indented JSON
func (p *Printer) JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	p.write(p.out, string(data)+"\n")
	return nil
}

// isTerminal checks if stdout is a terminal
func isTerminal() bool {
	// Check if NO_COLOR env var is set
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	// Check if stdout is a terminal
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
