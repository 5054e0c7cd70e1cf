// Package render prints API records as styled terminal text.
//
// Styles are bound to the output writer, so writing to a pipe or a buffer yields plain
// text while a terminal gets colours.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	pkgerrors "ocontest/pkg/errors"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorPass    = lipgloss.Color("#2e7d32")
	colorFail    = lipgloss.Color("#c62828")
	colorNeutral = lipgloss.Color("#616161")
	colorValue   = lipgloss.Color("#3498db")
	colorHeader  = lipgloss.Color("#5c6bc0")
)

// Printer writes views to w.
type Printer struct {
	w        io.Writer
	renderer *lipgloss.Renderer
	loc      *time.Location
	pretty   bool

	label   lipgloss.Style
	value   lipgloss.Style
	header  lipgloss.Style
	title   lipgloss.Style
	pass    lipgloss.Style
	fail    lipgloss.Style
	neutral lipgloss.Style
	errorS  lipgloss.Style
}

// Option configures a Printer.
type Option func(*Printer)

// WithLocation sets the zone used for timestamps. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(p *Printer) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithPrettyJSON indents raw JSON bodies.
func WithPrettyJSON(pretty bool) Option {
	return func(p *Printer) {
		p.pretty = pretty
	}
}

// WithRenderer overrides the lipgloss renderer, e.g. to force a colour profile.
func WithRenderer(r *lipgloss.Renderer) Option {
	return func(p *Printer) {
		if r != nil {
			p.renderer = r
		}
	}
}

func New(w io.Writer, opts ...Option) *Printer {
	p := &Printer{
		w:   w,
		loc: time.Local,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.renderer == nil {
		p.renderer = lipgloss.NewRenderer(w)
	}
	r := p.renderer
	p.label = r.NewStyle()
	p.value = r.NewStyle().Foreground(colorValue)
	p.header = r.NewStyle().Bold(true).Foreground(colorHeader)
	p.title = r.NewStyle().Bold(true).Underline(true)
	p.pass = r.NewStyle().Foreground(colorPass)
	p.fail = r.NewStyle().Foreground(colorFail)
	p.neutral = r.NewStyle().Foreground(colorNeutral)
	p.errorS = r.NewStyle().Foreground(colorFail).Bold(true)
	return p
}

// SetPrettyJSON toggles indentation of raw bodies.
func (p *Printer) SetPrettyJSON(pretty bool) {
	p.pretty = pretty
}

// Line prints a formatted line.
func (p *Printer) Line(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

// Field prints "label value" with the value highlighted.
func (p *Printer) Field(label string, value interface{}) {
	p.Line("%s %s", p.label.Render(label+":"), p.value.Render(fmt.Sprint(value)))
}

// Success prints a confirmation.
func (p *Printer) Success(format string, args ...interface{}) {
	p.Line("%s", p.pass.Render(fmt.Sprintf(format, args...)))
}

// Error prints err as the user should see it: the message only, without codes.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	if e := pkgerrors.GetError(err); e != nil {
		msg = e.Error()
	}
	p.Line("%s", p.errorS.Render("error: "+msg))
}

// Raw prints an HTTP status line and the body, indented when pretty is on and the body is JSON.
func (p *Printer) Raw(status int, duration time.Duration, body []byte) {
	p.Line("HTTP %d (%s)", status, duration.Round(time.Millisecond))
	if len(body) == 0 {
		return
	}
	if p.pretty && json.Valid(body) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err == nil {
			p.Line("%s", buf.String())
			return
		}
	}
	p.Line("%s", strings.TrimRight(string(body), "\n"))
}

// Source prints a submitted file verbatim.
func (p *Printer) Source(id string, body []byte) {
	p.Line("%s", p.title.Render("Submission id: "+id))
	p.Line("%s", strings.TrimRight(string(body), "\n"))
}

// table pads cells to column width; cells may already carry styles.
func (p *Printer) table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	styled := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = pad(p.header.Render(h), widths[i])
	}
	p.Line("%s", strings.TrimRight(strings.Join(styled, "  "), " "))
	for _, row := range rows {
		cells := make([]string, len(headers))
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = pad(cell, widths[i])
		}
		p.Line("%s", strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

func pad(cell string, width int) string {
	if gap := width - lipgloss.Width(cell); gap > 0 {
		return cell + strings.Repeat(" ", gap)
	}
	return cell
}

// truncate shortens s to max runes followed by "...".
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// capitalize upper-cases the first letter.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}
