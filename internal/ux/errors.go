package ux

import (
	stderrors "errors"
	"strings"

	"github.com/felixgeelhaar/secprops/internal/errors"
)

// FormatError renders err as a final CLI message: a cross mark with the
// message, followed by one arrow line per suggestion of a coded error.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(CrossMark + " " + errors.Message(err))

	var gwErr *errors.GatewayError
	if stderrors.As(err, &gwErr) {
		b.WriteString(" " + Muted.Sprint(string(gwErr.Code)))
		for _, s := range gwErr.Suggestions {
			b.WriteString("\n" + Arrow + " " + s)
		}
	}
	return b.String()
}

// EnsureNewline ensures the string ends with a newline character.
func EnsureNewline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}
