package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme bundles palette, symbols and box borders.
type Theme struct {
	Name string

	Title, Muted, Accent, Success, Pending, Error lipgloss.Style
	Selected, Done, Dragging, DropTarget          lipgloss.Style
	Help                                          lipgloss.Style

	BorderColor lipgloss.Color

	BoxUnchecked, BoxChecked string
	SymDone, SymPending      string
	SymGrip                  string
}

// Named returns the theme for a stored preference. Anything but "light"
// is dark, matching how an absent preference is read.
func Named(name string) Theme {
	if strings.EqualFold(strings.TrimSpace(name), ThemeLight) {
		return Light()
	}
	return Dark()
}

func Dark() Theme {
	return Theme{
		Name:         ThemeDark,
		Title:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")),
		Muted:        lipgloss.NewStyle().Faint(true),
		Accent:       lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Success:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Pending:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Error:        lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Selected:     lipgloss.NewStyle().Bold(true).Reverse(true),
		Done:         lipgloss.NewStyle().Faint(true).Strikethrough(true),
		Dragging:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true),
		DropTarget:   lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("12")),
		Help:         lipgloss.NewStyle().Faint(true),
		BorderColor:  lipgloss.Color("8"),
		BoxUnchecked: "☐",
		BoxChecked:   "☑",
		SymDone:      "✔",
		SymPending:   "•",
		SymGrip:      "≡",
	}
}

func Light() Theme {
	t := Dark()
	t.Name = ThemeLight
	t.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("232"))
	t.Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("25"))
	t.Success = lipgloss.NewStyle().Foreground(lipgloss.Color("28"))
	t.Pending = lipgloss.NewStyle().Foreground(lipgloss.Color("130"))
	t.Error = lipgloss.NewStyle().Foreground(lipgloss.Color("124")).Bold(true)
	t.Dragging = lipgloss.NewStyle().Foreground(lipgloss.Color("130")).Italic(true)
	t.DropTarget = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("25"))
	t.Help = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	t.BorderColor = lipgloss.Color("245")
	return t
}

// Toggled returns the other theme.
func (t Theme) Toggled() Theme {
	if t.Name == ThemeLight {
		return Dark()
	}
	return Light()
}

// Box is the checkbox glyph for a done flag.
func (t Theme) Box(done bool) string {
	if done {
		return t.Success.Render(t.BoxChecked)
	}
	return t.Muted.Render(t.BoxUnchecked)
}
