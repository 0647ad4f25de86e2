// Package ui renders command output for the terminal: titles, key/value
// summaries, tables and status lines styled with lipgloss.
package ui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleKey     = lipgloss.NewStyle().Foreground(colorGray)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
	styleBorder = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	iconSuccess = "✓"
	iconWarning = "!"
)

// Printer writes styled output to one writer.
type Printer struct {
	w io.Writer
}

// New creates a printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Title prints a heading.
func (p *Printer) Title(format string, args ...any) {
	fmt.Fprintln(p.w, StyleTitle.Render(fmt.Sprintf(format, args...)))
}

// KV prints one "key: value" line, aligned on a fixed key width.
func (p *Printer) KV(key string, value any) {
	fmt.Fprintf(p.w, "  %s %s\n", StyleKey.Render(fmt.Sprintf("%-14s", key+":")), FormatValue(value))
}

// Success prints a success line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, StyleSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

// Warning prints a warning line.
func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.w, StyleWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// Detail prints a dimmed, indented line.
func (p *Printer) Detail(format string, args ...any) {
	fmt.Fprintln(p.w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// Blank prints an empty line.
func (p *Printer) Blank() {
	fmt.Fprintln(p.w)
}

// Table prints rows under headers with a rounded border.
func (p *Printer) Table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		})
	fmt.Fprintln(p.w, t.String())
}

// FormatValue renders numbers compactly and highlighted.
func FormatValue(v any) string {
	switch x := v.(type) {
	case int:
		return StyleNumber.Render(strconv.Itoa(x))
	case float64:
		return StyleNumber.Render(FormatFloat(x))
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// FormatFloat prints v with six significant digits.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
