package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// progress shows an indeterminate spinner on stderr while a long conversion runs. The spinner
// stays silent when stderr is not a terminal.
type progress struct {
	spinner *spinner.Spinner
}

func newProgress(message string) *progress {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	return &progress{spinner: s}
}

func (p *progress) Start() {
	p.spinner.Start()
}

func (p *progress) Stop() {
	p.spinner.Stop()
}

// success prints a green check line
func success(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}
