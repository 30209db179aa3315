// Package diag carries gosed's ambient error-reporting and tracing stack:
// a zap logger for --debug tracing and color-aware diagnostic formatting
// for compile and runtime errors, modeled on the teacher's ls applet
// terminal-detection idiom (golang.org/x/term) extended with color.
package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/gosed/gosed/internal/core"
)

// Diag bundles the logger and color state threaded through compile and
// execute, mirroring how ProcessingContext is threaded through the VM:
// one owning struct, not scattered globals.
type Diag struct {
	stdio   *core.Stdio
	log     *zap.Logger
	colored bool
}

// New builds a Diag for the given stdio. debug enables zap trace-level
// logging to stderr; color is auto-detected from whether stderr is a
// terminal, matching GNU tools' convention of only colorizing TTY output.
func New(stdio *core.Stdio, debug bool) *Diag {
	d := &Diag{stdio: stdio}
	d.colored = isTerminal(stdio.Err)

	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		logger, err := cfg.Build()
		if err != nil {
			logger = zap.NewNop()
		}
		d.log = logger
	} else {
		d.log = zap.NewNop()
	}
	return d
}

// Close flushes the logger.
func (d *Diag) Close() {
	_ = d.log.Sync()
}

// Debugf logs a trace-level message, a no-op unless --debug was set.
func (d *Diag) Debugf(format string, args ...any) {
	d.log.Debug(fmt.Sprintf(format, args...))
}

// CompileError formats a compile-time error with source location,
// colorized when stderr is a terminal.
func (d *Diag) CompileError(applet string, loc Location, msg string) {
	prefix := fmt.Sprintf("%s: %s:%d:%d:", applet, loc.scriptLabel(), loc.Line, loc.Col)
	if d.colored {
		prefix = color.New(color.FgRed, color.Bold).Sprint(prefix)
	}
	d.stdio.Errorf("%s %s\n", prefix, msg)
}

// RuntimeError formats a runtime I/O or execution error.
func (d *Diag) RuntimeError(applet string, err error) {
	prefix := applet + ":"
	if d.colored {
		prefix = color.New(color.FgRed).Sprint(prefix)
	}
	d.stdio.Errorf("%s %v\n", prefix, err)
	d.log.Warn("runtime error", zap.Error(err))
}

// Location is a source position within the concatenated script text.
type Location struct {
	Script int // index of the contributing -e/-f fragment
	Line   int
	Col    int
}

func (l Location) scriptLabel() string {
	return fmt.Sprintf("script#%d", l.Script)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
