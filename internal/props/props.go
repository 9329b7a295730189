// Package props parses and renders line-oriented key=value property files.
//
// Parsing is lenient: blank lines, comments (# or !) and lines without a
// usable '=' are dropped. Entry order and duplicate keys are preserved.
package props

import (
	"regexp"
	"strings"
)

// Marker prefixes every value produced by the secure properties engine.
const Marker = "![AES:"

// Entry is one key/value pair of a property set
type Entry struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// SkippedLine records a non-comment line that did not yield an entry
type SkippedLine struct {
	// Line is 1-based.
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Document is the detailed result of parsing
type Document struct {
	Entries []Entry
	Skipped []SkippedLine
}

var lineBreak = regexp.MustCompile(`\r?\n`)

// Parse returns the entries of text in source order.
func Parse(text string) []Entry {
	return ParseDetailed(text).Entries
}

// ParseDetailed parses text and also reports which lines were dropped
// for lacking a key=value form. Comments and blank lines are not reported.
func ParseDetailed(text string) Document {
	doc := Document{Entries: []Entry{}}

	for i, line := range lineBreak.Split(text, -1) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") {
			continue
		}

		idx := strings.Index(trimmed, "=")
		if idx <= 0 {
			doc.Skipped = append(doc.Skipped, SkippedLine{Line: i + 1, Text: trimmed})
			continue
		}

		doc.Entries = append(doc.Entries, Entry{
			Key:   strings.TrimSpace(trimmed[:idx]),
			Value: unquote(strings.TrimSpace(trimmed[idx+1:])),
		})
	}

	return doc
}

// unquote strips one layer of matching single or double quotes
func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if first == last && (first == '"' || first == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}

// Format renders entries as key=value lines joined by "\n". Values are
// written verbatim.
func Format(entries []Entry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Key + "=" + e.Value
	}
	return strings.Join(lines, "\n")
}

// IsEncrypted reports whether value carries the engine ciphertext marker.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, Marker)
}

// Encrypted returns the positions of entries whose value is encrypted.
func Encrypted(entries []Entry) []int {
	var idx []int
	for i, e := range entries {
		if IsEncrypted(e.Value) {
			idx = append(idx, i)
		}
	}
	return idx
}
