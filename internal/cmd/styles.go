package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	successColor = lipgloss.Color("#10B981") // Green
	warningColor = lipgloss.Color("#F59E0B") // Amber
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	labelStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	acceptStyle  = lipgloss.NewStyle().Foreground(successColor)
	rejectStyle  = lipgloss.NewStyle().Foreground(warningColor)
)

// printer writes command output, styled only when it goes to a terminal.
type printer struct {
	w      io.Writer
	styled bool
	width  int // 0 disables truncation
}

func newPrinter(cmd *cobra.Command) *printer {
	w := cmd.OutOrStdout()
	p := &printer{w: w}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.styled = true
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			p.width = width
		}
	}
	return p
}

// fit truncates s to the terminal width, keeping escape sequences intact.
func (p *printer) fit(s string) string {
	if p.width <= 3 || lipgloss.Width(s) <= p.width {
		return s
	}
	return ansi.Truncate(s, p.width, "...")
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p *printer) heading(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.render(headingStyle, strings.ToUpper(title)))
	fmt.Fprintln(p.w, p.render(labelStyle, strings.Repeat("─", 50)))
}

func (p *printer) field(label string, value any) {
	fmt.Fprintf(p.w, "%s %v\n", p.render(labelStyle, fmt.Sprintf("%-22s", label+":")), value)
}

func (p *printer) linef(format string, args ...any) {
	fmt.Fprintln(p.w, p.fit(fmt.Sprintf(format, args...)))
}

func (p *printer) accepted(s string) string { return p.render(acceptStyle, s) }
func (p *printer) rejected(s string) string { return p.render(rejectStyle, s) }

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
