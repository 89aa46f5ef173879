package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// status is the marker and colour of one kind of console line.
type status struct {
	mark  string
	color *color.Color
}

var (
	statusOK    = status{"✓", color.New(color.FgGreen)}
	statusFail  = status{"✗", color.New(color.FgRed)}
	statusInfo  = status{"ℹ", color.New(color.FgCyan)}
	statusWarn  = status{"⚠", color.New(color.FgYellow)}
	headerColor = color.New(color.FgWhite, color.Bold)
)

// UI writes human-facing console output for the plain format.
type UI struct {
	out            io.Writer
	spinner        *spinner.Spinner
	quiet          bool
	nonInteractive bool
}

// NewUI creates a new UI helper. A quiet UI prints nothing; it is used when
// the command output is structured.
func NewUI(out io.Writer, quiet bool) *UI {
	nonInteractive := !isTerminal(out) || os.Getenv("CI") != ""
	if cfg.NoColor || os.Getenv("NO_COLOR") != "" || nonInteractive {
		color.NoColor = true
	}
	return &UI{out: out, quiet: quiet, nonInteractive: nonInteractive}
}

func (u *UI) line(s status, msg string) {
	if u.quiet {
		return
	}
	s.color.Fprintf(u.out, "%s %s\n", s.mark, msg)
}

// StartSpinner shows a spinner while a long scan runs. Nothing is shown when
// the output is not a terminal.
func (u *UI) StartSpinner(msg string) {
	if u.quiet || u.nonInteractive {
		return
	}
	u.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(u.out))
	u.spinner.Suffix = " " + msg
	u.spinner.Start()
}

// StopSpinnerMsg stops the spinner and reports how the scan ended.
func (u *UI) StopSpinnerMsg(success bool, msg string) {
	if u.spinner == nil {
		return
	}
	u.spinner.Stop()
	u.spinner = nil
	if success {
		u.line(statusOK, msg)
	} else {
		u.line(statusFail, msg)
	}
}

func (u *UI) Success(msg string) { u.line(statusOK, msg) }
func (u *UI) Error(msg string)   { u.line(statusFail, msg) }
func (u *UI) Info(msg string)    { u.line(statusInfo, msg) }
func (u *UI) Warning(msg string) { u.line(statusWarn, msg) }

// Header prints a title preceded by a blank line.
func (u *UI) Header(msg string) {
	if u.quiet {
		return
	}
	headerColor.Fprintf(u.out, "\n%s\n", msg)
}

// Item prints one numbered line of a per-file listing, such as
// "   [2/5] inbox_2.mbox  1000 messages, 3.1 MiB". Failed items get a
// second, indented line with the reason.
func (u *UI) Item(n, total int, name, detail string, err error) {
	if u.quiet {
		return
	}
	prefix := fmt.Sprintf("   [%d/%d] %s", n, total, name)
	if err != nil {
		statusFail.color.Fprintf(u.out, "%s %s\n        %v\n", prefix, statusFail.mark, err)
		return
	}
	fmt.Fprintf(u.out, "%s  %s\n", prefix, detail)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode()&os.ModeCharDevice != 0
}
