// Package format renders broker results as aligned text, JSON or YAML.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Mode selects the output encoding.
type Mode string

const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"
	ModeYAML Mode = "yaml"
)

// ParseMode validates an output mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeText, ModeJSON, ModeYAML:
		return m, nil
	case "":
		return ModeText, nil
	default:
		return "", fmt.Errorf("invalid output format %q (want text, json or yaml)", s)
	}
}

// Printer writes results to an output stream.
type Printer struct {
	w    io.Writer
	mode Mode

	gain   lipgloss.Style
	loss   lipgloss.Style
	header lipgloss.Style
	label  lipgloss.Style
	dim    lipgloss.Style
	symbol lipgloss.Style
	cell   lipgloss.Style
}

// New returns a Printer writing to w. With color disabled all styling is
// stripped, regardless of the terminal.
func New(w io.Writer, mode Mode, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		w:      w,
		mode:   mode,
		gain:   r.NewStyle().Foreground(lipgloss.Color("10")),
		loss:   r.NewStyle().Foreground(lipgloss.Color("9")),
		header: r.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
		label:  r.NewStyle().Foreground(lipgloss.Color("245")),
		dim:    r.NewStyle().Foreground(lipgloss.Color("245")),
		symbol: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		cell:   r.NewStyle().PaddingRight(2),
	}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.w }

// emit encodes v in the structured modes and otherwise calls text.
func (p *Printer) emit(v any, text func()) error {
	switch p.mode {
	case ModeJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case ModeYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		text()
		return nil
	}
}

// Message prints a status line. Structured modes wrap it in an object.
func (p *Printer) Message(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return p.emit(map[string]string{"message": msg}, func() {
		fmt.Fprintln(p.w, msg)
	})
}

// colorize renders s in the gain or loss color according to the sign of d.
func (p *Printer) colorize(d decimal.Decimal, s string) string {
	switch d.Sign() {
	case 1:
		return p.gain.Render(s)
	case -1:
		return p.loss.Render(s)
	default:
		return s
	}
}

// change formats a signed amount in color.
func (p *Printer) change(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return p.colorize(*d, FormatChange(*d))
}

// percent formats a signed fraction as a colored percentage.
func (p *Printer) percent(d *decimal.Decimal) string {
	s := FormatPercentPtr(d)
	if d == nil {
		return s
	}
	return p.colorize(*d, s)
}

type field struct {
	label string
	value string
}

// fields prints an aligned "label: value" block under an optional title.
func (p *Printer) fields(title string, fs []field) {
	indent := ""
	if title != "" {
		fmt.Fprintln(p.w, p.symbol.Render(title))
		indent = "  "
	}
	width := 0
	for _, f := range fs {
		if len(f.label) > width {
			width = len(f.label)
		}
	}
	for _, f := range fs {
		pad := strings.Repeat(" ", width-len(f.label))
		fmt.Fprintf(p.w, "%s%s%s %s\n", indent, p.label.Render(f.label+":"), pad, f.value)
	}
}

// table prints rows under a header line without outer borders.
func (p *Printer) table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(p.w, p.dim.Render("(none)"))
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(true).
		BorderStyle(p.dim).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header.PaddingRight(2)
			}
			return p.cell
		})
	fmt.Fprintln(p.w, t.Render())
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
