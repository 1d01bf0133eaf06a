package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Styles renders diagnostic lines and tables for one output stream.
type Styles struct {
	w      io.Writer
	info   lipgloss.Style
	warn   lipgloss.Style
	err    lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	border lipgloss.Style
}

// NewStyles creates styles for w. Colors are dropped automatically when w
// is not a terminal.
func NewStyles(w io.Writer) *Styles {
	r := lipgloss.NewRenderer(w)
	return &Styles{
		w:      w,
		info:   r.NewStyle().Foreground(lipgloss.Color("12")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("11")),
		err:    r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		header: r.NewStyle().Bold(true).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
		border: r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Stderr is the shared style set for diagnostics.
var Stderr = NewStyles(os.Stderr)

// Line styles a single diagnostic by its "Warning:" or "Error:" prefix.
func (s *Styles) Line(msg string) string {
	switch {
	case strings.HasPrefix(msg, "Error:"):
		return s.err.Render(msg)
	case strings.HasPrefix(msg, "Warning:"):
		return s.warn.Render(msg)
	default:
		return s.info.Render(msg)
	}
}

// Logf writes a styled diagnostic line.
func (s *Styles) Logf(format string, args ...any) {
	fmt.Fprintln(s.w, s.Line(fmt.Sprintf(format, args...)))
}

// Table renders rows under headers with rounded borders.
func (s *Styles) Table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}
			return s.cell
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}
