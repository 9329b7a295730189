package props

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Entry
	}{
		{
			name:  "simple pairs",
			input: "a=1\nb=2",
			want:  []Entry{{"a", "1"}, {"b", "2"}},
		},
		{
			name:  "comments and blank lines",
			input: "# comment\n\n   \n! bang comment\nkey=value\n",
			want:  []Entry{{"key", "value"}},
		},
		{
			name:  "double quoted value",
			input: `key="hello world"`,
			want:  []Entry{{"key", "hello world"}},
		},
		{
			name:  "single quoted value",
			input: `key='hello'`,
			want:  []Entry{{"key", "hello"}},
		},
		{
			name:  "only one layer stripped",
			input: `key=""x""`,
			want:  []Entry{{"key", `"x"`}},
		},
		{
			name:  "mismatched quotes kept",
			input: `key="x'`,
			want:  []Entry{{"key", `"x'`}},
		},
		{
			name:  "lone quote kept",
			input: `key="`,
			want:  []Entry{{"key", `"`}},
		},
		{
			name:  "split on first equals",
			input: "url=jdbc:x?a=b&c=d",
			want:  []Entry{{"url", "jdbc:x?a=b&c=d"}},
		},
		{
			name:  "whitespace trimmed",
			input: "  db.user  =  admin  ",
			want:  []Entry{{"db.user", "admin"}},
		},
		{
			name:  "empty value",
			input: "empty=",
			want:  []Entry{{"empty", ""}},
		},
		{
			name:  "CRLF line endings",
			input: "a=1\r\nb=2\r\n",
			want:  []Entry{{"a", "1"}, {"b", "2"}},
		},
		{
			name:  "duplicate keys preserved in order",
			input: "k=1\nother=x\nk=2",
			want:  []Entry{{"k", "1"}, {"other", "x"}, {"k", "2"}},
		},
		{
			name:  "malformed lines dropped",
			input: "no separator\n=novalue\nok=yes",
			want:  []Entry{{"ok", "yes"}},
		},
		{
			name:  "empty input",
			input: "",
			want:  []Entry{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input))
		})
	}
}

func TestParseDetailedReportsSkippedLines(t *testing.T) {
	doc := ParseDetailed("# header\nvalid=1\nbroken line\n\n=orphan\nnext=2")

	assert.Equal(t, []Entry{{"valid", "1"}, {"next", "2"}}, doc.Entries)
	require.Len(t, doc.Skipped, 2)
	assert.Equal(t, SkippedLine{Line: 3, Text: "broken line"}, doc.Skipped[0])
	assert.Equal(t, SkippedLine{Line: 5, Text: "=orphan"}, doc.Skipped[1])
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "a=1\nb=2", Format([]Entry{{"a", "1"}, {"b", "2"}}))
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, `k="quoted"`, Format([]Entry{{"k", `"quoted"`}}), "no re-wrapping or escaping")
}

func TestIsEncrypted(t *testing.T) {
	assert.True(t, IsEncrypted("![AES:abc]"))
	assert.True(t, IsEncrypted(Marker))
	assert.False(t, IsEncrypted("plain"))
	assert.False(t, IsEncrypted(""))
	assert.False(t, IsEncrypted(" ![AES:abc]"))
	assert.False(t, IsEncrypted("![aes:abc]"))
}

func TestEncrypted(t *testing.T) {
	entries := []Entry{
		{"a", "plain"},
		{"b", "![AES:x]"},
		{"c", ""},
		{"b", "![AES:y]"},
	}
	assert.Equal(t, []int{1, 3}, Encrypted(entries))
	assert.Empty(t, Encrypted(entries[:1]))
}
