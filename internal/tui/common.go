// Package tui hosts the interactive terminal clients: a checkpoint
// timeline and a kanban board, both driven by a syncer.Instance.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/waypoint/internal/remote"
	"github.com/Makepad-fr/waypoint/internal/syncer"
	"github.com/Makepad-fr/waypoint/internal/ui"
)

// The whole screen is wrapped in ui.Theme.Frame: one border row on top,
// border plus one column of padding on the left.
const (
	frameTop  = 1
	frameLeft = 2
	// chrome is what the frame and the status/help lines take.
	chromeWidth = 4
)

// ThemeStore persists the theme choice.
type ThemeStore interface {
	ToggleTheme() (string, error)
}

// Options configure either program.
type Options struct {
	Title string
	Theme string
	Prefs ThemeStore
}

// outcomeMsg carries a finished round trip back into Update.
type outcomeMsg syncer.Outcome

// send runs the network call off the event loop. The outcome is applied
// when its message comes back through Update.
func send(ctx context.Context, in *syncer.Instance, a remote.Action) tea.Cmd {
	return func() tea.Msg {
		return outcomeMsg(in.Send(ctx, a))
	}
}

// describe turns an apply error into the status line text.
func describe(err error) string {
	var rej *remote.RejectedError
	if errors.As(err, &rej) && rej.Code != "" {
		return fmt.Sprintf("%s rejected: %s", rej.Action, rej.Code)
	}
	return err.Error()
}

// status is the line under the content: errors win over progress.
type status struct {
	inflight int
	err      string
	note     string
}

func (s status) render(t ui.Theme) string {
	switch {
	case s.err != "":
		return t.Error.Render(s.err)
	case s.inflight > 0:
		return t.Muted.Render(fmt.Sprintf("saving… (%d)", s.inflight))
	case s.note != "":
		return t.Muted.Render(s.note)
	}
	return ""
}

func (s *status) sent() { s.inflight++; s.err = "" }

func (s *status) landed(err error) {
	if s.inflight > 0 {
		s.inflight--
	}
	if err != nil {
		s.err = describe(err)
	}
}

// styleHelp paints the help line in t.
func styleHelp(h *help.Model, t ui.Theme) {
	h.Styles.ShortKey = t.Help
	h.Styles.ShortDesc = t.Help
	h.Styles.FullKey = t.Help
	h.Styles.FullDesc = t.Help
}

func toggleTheme(t ui.Theme, h *help.Model, store ThemeStore) (ui.Theme, string) {
	next := t.Toggled()
	styleHelp(h, next)
	if store == nil {
		return next, ""
	}
	if _, err := store.ToggleTheme(); err != nil {
		return next, "theme not saved: " + err.Error()
	}
	return next, ""
}

type commonKeys struct {
	Theme  key.Binding
	Reload key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func newCommonKeys() commonKeys {
	return commonKeys{
		Theme:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
