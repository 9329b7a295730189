package ux

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows progress on a terminal while the engine runs. A disabled
// spinner only prints its final message.
type Spinner struct {
	s       *spinner.Spinner
	out     io.Writer
	enabled bool
}

// StartSpinner starts a spinner with message on out. It stays silent when
// enabled is false (non-terminal output, quiet mode or verbose logging).
func StartSpinner(out io.Writer, message string, enabled bool) *Spinner {
	if out == nil {
		out = os.Stderr
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.Suffix = " " + message
	_ = s.Color("cyan")

	sp := &Spinner{s: s, out: out, enabled: enabled}
	if enabled {
		s.Start()
	}
	return sp
}

// Update replaces the message shown next to the spinner.
func (sp *Spinner) Update(message string) {
	if !sp.enabled {
		return
	}
	sp.s.Lock()
	sp.s.Suffix = " " + message
	sp.s.Unlock()
}

// Stop clears the spinner line and prints final, if any.
func (sp *Spinner) Stop(final string) {
	if sp.enabled {
		sp.s.Stop()
	}
	if final != "" {
		fmt.Fprint(sp.out, EnsureNewline(final))
	}
}
