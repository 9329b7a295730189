package log

import (
	"strings"

	masker "github.com/goliatone/go-masker"
)

const previewMask = "preserveEnds(2,2)"

// Redacted is logged in place of values that must never reach a log sink
// (plaintexts, master passwords).
const Redacted = "[REDACTED]"

// Preview returns a masked preview of a non-secret but bulky value such as a
// ciphertext envelope. Only the two leading and trailing characters survive.
func Preview(value string) string {
	if value == "" {
		return ""
	}
	if masked, err := masker.Default.String(previewMask, value); err == nil {
		return masked
	}
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}
