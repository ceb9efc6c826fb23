package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/Makepad-fr/waypoint/internal/ui"
)

// String draws the timeline. Line i of the output is line i of the View.
func (v View) String(t ui.Theme) string {
	lines := make([]string, 0, v.Height)
	lines = append(lines, fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		t.Title.Render(clip(v.Title, v.Width/2)),
		t.Success.Render(t.SymDone), v.Done,
		t.Pending.Render(t.SymPending), v.Pending,
		t.Accent.Render("Total"), len(v.Rows),
	))
	lines = append(lines, "")
	if len(v.Rows) == 0 && v.Panel == nil {
		lines = append(lines, t.Muted.Render("no checkpoints"))
		return strings.Join(lines, "\n")
	}

	for _, r := range v.Rows {
		lines = append(lines, drawRow(t, r, v.Width))
		if v.Panel != nil && !v.Panel.AtEnd && v.Panel.AfterID == r.ID {
			lines = append(lines, drawPanel(t, v.Panel, v.Width)...)
		}
	}
	if v.Panel != nil && v.Panel.AtEnd {
		lines = append(lines, drawPanel(t, v.Panel, v.Width)...)
	}
	return strings.Join(lines, "\n")
}

func drawRow(t ui.Theme, r Row, width int) string {
	prefix := "  "
	if r.Selected {
		prefix = t.Selected.Render("> ")
	}
	text := clip(r.Title, width-6)
	switch {
	case r.Dragging:
		text = t.Dragging.Render(t.SymGrip + " " + text)
	case r.DropTarget:
		text = t.DropTarget.Render(text)
	case r.Done:
		text = t.Done.Render(text)
	}
	return prefix + t.Box(r.Done) + " " + text
}

func drawPanel(t ui.Theme, p *PanelView, width int) []string {
	inner := width - 4
	if inner < 8 {
		inner = 8
	}
	body := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		body[i] = clip(l, inner)
	}
	box := t.Frame().Width(inner + 2).Render(strings.Join(body, "\n"))
	return strings.Split(box, "\n")
}

// String draws the board as side-by-side columns.
func (b BoardView) String(t ui.Theme) string {
	blocks := make([]string, 0, len(b.Columns))
	rows := b.Height - HeaderLines
	for _, c := range b.Columns {
		lines := make([]string, 0, rows)
		head := fmt.Sprintf("%s (%d)", c.Label, len(c.Rows))
		hs := t.Accent
		if b.DropGroup == c.Status {
			hs = t.DropTarget
		}
		lines = append(lines, hs.Render(clip(head, c.Width-1)))
		for _, r := range c.Rows {
			lines = append(lines, drawCard(t, r, c.Width-1))
		}
		for len(lines) < rows {
			lines = append(lines, "")
		}
		blocks = append(blocks, lipgloss.NewStyle().Width(c.Width).Render(strings.Join(lines, "\n")))
	}
	header := t.Title.Render(clip(b.Title, b.Width))
	return header + "\n\n" + lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

func drawCard(t ui.Theme, r Row, width int) string {
	prefix := "  "
	if r.Selected {
		prefix = t.Selected.Render("> ")
	}
	text := clip(r.Title, width-2)
	switch {
	case r.Dragging:
		text = t.Dragging.Render(text)
	case r.DropTarget:
		text = t.DropTarget.Render(text)
	case r.Done:
		text = t.Done.Render(text)
	}
	return prefix + text
}

func clip(s string, width int) string {
	if width < 1 {
		width = 1
	}
	s = strings.ReplaceAll(s, "\n", " ")
	return ansi.Truncate(s, width, "…")
}
