// Package report renders the outcome of a page run for a terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joeycumines/grain/internal/grain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ColorMode controls styling of the report.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode accepts auto, always or never. An empty string is auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	default:
		return "", fmt.Errorf("invalid color mode %q: expected auto, always or never", s)
	}
}

// Summary is the outcome of one page run.
type Summary struct {
	// Page is the title, or the page ID when untitled.
	Page        string
	Ready       bool
	Modules     int
	Buffered    int
	Pending     int
	Diagnostics []grain.Diagnostic
	// Strict counts warnings as failures.
	Strict bool
}

// Count returns how many diagnostics have severity s.
func (s Summary) Count(severity grain.Severity) int {
	n := 0
	for _, d := range s.Diagnostics {
		if d.Severity == severity {
			n++
		}
	}
	return n
}

// Failed reports whether the run should exit non-zero.
func (s Summary) Failed() bool {
	if s.Count(grain.SeverityError) != 0 {
		return true
	}
	return s.Strict && s.Count(grain.SeverityWarning) != 0
}

type styles struct {
	warning lipgloss.Style
	error   lipgloss.Style
	page    lipgloss.Style
	ok      lipgloss.Style
	failed  lipgloss.Style
	faint   lipgloss.Style
}

// Printer writes diagnostics and summaries to w.
type Printer struct {
	w      io.Writer
	styles styles
}

// NewPrinter returns a printer for w. In auto mode colour is used only when w
// is a terminal.
func NewPrinter(w io.Writer, mode ColorMode) *Printer {
	r := lipgloss.NewRenderer(w)
	if useColor(w, mode) {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		w: w,
		styles: styles{
			warning: r.NewStyle().Foreground(lipgloss.Color("214")),
			error:   r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
			page:    r.NewStyle().Bold(true),
			ok:      r.NewStyle().Foreground(lipgloss.Color("42")),
			failed:  r.NewStyle().Foreground(lipgloss.Color("196")),
			faint:   r.NewStyle().Foreground(lipgloss.Color("240")),
		},
	}
}

func useColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// Diagnostic writes one diagnostic line.
func (p *Printer) Diagnostic(d grain.Diagnostic) error {
	style := p.styles.warning
	if d.Severity == grain.SeverityError {
		style = p.styles.error
	}
	_, err := fmt.Fprintln(p.w, style.Render(d.String()))
	return err
}

// Print writes every diagnostic followed by the summary line.
func (p *Printer) Print(s Summary) error {
	for _, d := range s.Diagnostics {
		if err := p.Diagnostic(d); err != nil {
			return err
		}
	}

	parts := []string{plural(s.Modules, "module") + " resolved"}
	if s.Ready {
		parts = append(parts,
			plural(s.Count(grain.SeverityWarning), "warning"),
			plural(s.Count(grain.SeverityError), "error"),
		)
	} else {
		parts = append(parts,
			p.styles.faint.Render("not ready"),
			plural(s.Buffered, "require")+" buffered",
			plural(s.Pending, "operation")+" waiting",
		)
	}

	status := p.styles.ok.Render("ok")
	if s.Failed() {
		status = p.styles.failed.Render("FAIL")
	}

	_, err := fmt.Fprintf(p.w, "%s %s: %s\n", status, p.styles.page.Render(s.Page), strings.Join(parts, ", "))
	return err
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
