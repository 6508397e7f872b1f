// Package report renders the human-readable progress output of the batch
// jobs. Structured logs go through shared/logger; this is what an operator
// reads on stdout.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const ruleWidth = 80

var (
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	numericStyle = cellStyle.Align(lipgloss.Right)
	headerStyle  = cellStyle.Bold(true)
)

// Printer writes report lines to an io.Writer
type Printer struct {
	w io.Writer
}

// NewPrinter creates a printer writing to w
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Rule prints a full-width separator line
func (p *Printer) Rule() {
	fmt.Fprintln(p.w, strings.Repeat("=", ruleWidth))
}

// Section prints a title framed by separator lines
func (p *Printer) Section(title string) {
	p.Rule()
	fmt.Fprintln(p.w, title)
	p.Rule()
}

// Linef prints one formatted line
func (p *Printer) Linef(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Blank prints an empty line
func (p *Printer) Blank() {
	fmt.Fprintln(p.w)
}

// Table prints a bordered table. Columns listed in numeric are right-aligned.
func (p *Printer) Table(headers []string, rows [][]string, numeric ...int) {
	fmt.Fprintln(p.w, RenderTable(headers, rows, numeric...))
}

// RenderTable renders a bordered table to a string
func RenderTable(headers []string, rows [][]string, numeric ...int) string {
	right := make(map[int]bool, len(numeric))
	for _, col := range numeric {
		right[col] = true
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if right[col] {
				return numericStyle
			}
			return cellStyle
		})

	return t.String()
}

// Count formats an integer with thousands separators, e.g. 12,345
func Count(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
