package ux

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Style applies semantic coloring to text. Without color it falls back to
// plain text wrapped in prefix and suffix.
type Style struct {
	color  *color.Color
	prefix string
	suffix string
}

// Sprint formats the arguments and returns the resulting string.
func (s Style) Sprint(a ...any) string {
	text := fmt.Sprint(a...)
	if noColor() {
		return s.prefix + text + s.suffix
	}
	return s.color.Sprint(text)
}

// Sprintf formats according to a format specifier and returns the resulting string.
func (s Style) Sprintf(format string, a ...any) string {
	return s.Sprint(fmt.Sprintf(format, a...))
}

// noColor honours NO_COLOR and fatih/color's terminal detection.
func noColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return color.NoColor
}

var (
	// Code formats runnable commands. Backticks without color.
	Code = Style{color.New(color.FgYellow), "`", "`"}

	// Path formats file paths.
	Path = Style{color.New(color.FgYellow), "", ""}

	// Success formats success marks and messages.
	Success = Style{color.New(color.FgGreen), "", ""}

	// Failure formats error marks and messages.
	Failure = Style{color.New(color.FgRed), "", ""}

	// Warning formats warnings.
	Warning = Style{color.New(color.FgYellow), "", ""}

	// Info formats hints and arrows.
	Info = Style{color.New(color.FgCyan), "", ""}

	// Muted formats secondary details. Parentheses without color.
	Muted = Style{color.New(color.FgHiBlack), "(", ")"}
)

// Marks used at the start of final messages
var (
	CheckMark = Success.Sprint("✓")
	CrossMark = Failure.Sprint("✗")
	Arrow     = Info.Sprint("→")
)
