package ux

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var escapes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestRenderTableAlignsColoredCells(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	require.NoError(t, os.Unsetenv("NO_COLOR"))
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	rows := [][]string{
		{"encrypt", Success.Sprint("ok"), "a1b2c3"},
		{"decrypt", Failure.Sprint("Invalid padding"), "d4e5f6"},
	}
	out := RenderTable([]string{"OPERATION", "RESULT", "DIGEST"}, rows)
	require.Contains(t, out, "\x1b[", "cells keep their color")

	lines := strings.Split(strings.TrimRight(escapes.ReplaceAllString(out, ""), "\n"), "\n")
	require.Len(t, lines, 3)

	col := strings.Index(lines[0], "DIGEST")
	require.Positive(t, col)
	assert.Equal(t, col, strings.Index(lines[1], "a1b2c3"))
	assert.Equal(t, col, strings.Index(lines[2], "d4e5f6"))
}
