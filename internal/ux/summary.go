package ux

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// Field is one labelled value of a summary
type Field struct {
	Label string
	Value string
}

// Outcome is one line of an itemized result
type Outcome struct {
	Key     string
	Success bool
	Detail  string
}

// RenderSummary renders a boxed title with aligned fields.
func RenderSummary(title string, fields []Field) string {
	width := 0
	for _, f := range fields {
		width = max(width, lipgloss.Width(f.Label))
	}

	lines := []string{titleStyle.Render(title)}
	for _, f := range fields {
		label := labelStyle.Render(fmt.Sprintf("%-*s", width, f.Label))
		lines = append(lines, label+"  "+f.Value)
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// RenderCounts formats succeeded and failed counts, coloring failures only
// when there are some.
func RenderCounts(total, succeeded, failed int) string {
	s := fmt.Sprintf("%d total, %s", total, okStyle.Render(fmt.Sprintf("%d succeeded", succeeded)))
	if failed > 0 {
		return s + ", " + failStyle.Render(fmt.Sprintf("%d failed", failed))
	}
	return s + ", 0 failed"
}

// RenderOutcomes lists one line per item with a check or cross mark.
func RenderOutcomes(items []Outcome) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		mark := CheckMark
		if !item.Success {
			mark = CrossMark
		}
		b.WriteString(mark + " " + item.Key)
		if item.Detail != "" {
			b.WriteString(" " + labelStyle.Render(item.Detail))
		}
	}
	return b.String()
}
