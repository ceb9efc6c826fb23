package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/waypoint/internal/drag"
	"github.com/Makepad-fr/waypoint/internal/editor"
	"github.com/Makepad-fr/waypoint/internal/remote"
	"github.com/Makepad-fr/waypoint/internal/render"
	"github.com/Makepad-fr/waypoint/internal/syncer"
	"github.com/Makepad-fr/waypoint/internal/ui"
)

type timelineKeys struct {
	Up, Down key.Binding
	Open     key.Binding
	Edit     key.Binding
	Add      key.Binding
	Toggle   key.Binding
	Delete   key.Binding
	Grab     key.Binding
	Back     key.Binding
	commonKeys
}

func newTimelineKeys() timelineKeys {
	return timelineKeys{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open/drop")),
		Edit:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "done")),
		Delete:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		Grab:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		commonKeys: newCommonKeys(),
	}
}

func (k timelineKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Toggle, k.Grab, k.Help, k.Quit}
}

func (k timelineKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Back},
		{k.Add, k.Edit, k.Toggle, k.Delete},
		{k.Grab, k.Theme, k.Reload, k.Quit},
	}
}

// Timeline is the bubbletea model of an ordered checkpoint list.
type Timeline struct {
	ctx   context.Context
	in    *syncer.Instance
	title string
	theme ui.Theme
	prefs ThemeStore
	keys  timelineKeys
	help  help.Model

	selected int64
	// mouse drags run between press and release; keyboard grabs between
	// m and enter/esc.
	mouseDrag bool

	titleIn   textinput.Model
	commentIn textinput.Model
	commentOn bool

	width  int
	status status
}

func NewTimeline(ctx context.Context, in *syncer.Instance, opts Options) Timeline {
	title := opts.Title
	if title == "" {
		title = "Checkpoints"
	}
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "Checkpoint title..."
	ti.CharLimit = 255
	ci := textinput.New()
	ci.Prompt = ""
	ci.Placeholder = "Comment..."
	ci.CharLimit = 1000

	h := help.New()
	th := ui.Named(opts.Theme)
	styleHelp(&h, th)

	return Timeline{
		ctx:       ctx,
		in:        in,
		title:     title,
		theme:     th,
		prefs:     opts.Prefs,
		keys:      newTimelineKeys(),
		help:      h,
		titleIn:   ti,
		commentIn: ci,
		width:     80,
		status:    status{inflight: 1},
	}
}

// RunTimeline starts the program on the alternate screen with mouse
// tracking.
func RunTimeline(ctx context.Context, in *syncer.Instance, opts Options) error {
	p := tea.NewProgram(NewTimeline(ctx, in, opts),
		tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init loads the collection; the status already counts this request.
func (m Timeline) Init() tea.Cmd {
	return send(m.ctx, m.in, m.in.Vocabulary().Detail())
}

// dispatch stages a locally and sends it. The view shows the change before
// the response lands.
func (m *Timeline) dispatch(a remote.Action) tea.Cmd {
	if err := m.in.Stage(a); err != nil {
		m.status.err = describe(err)
		return nil
	}
	m.reselect()
	m.status.sent()
	return send(m.ctx, m.in, a)
}

// reselect moves the selection off an item that is gone.
func (m *Timeline) reselect() {
	if _, ok := m.in.Store.Get(m.selected); !ok {
		m.selected = m.view().Neighbor(m.selected, 0)
	}
}

// view is what is drawn, including the live drag preview.
func (m Timeline) view() render.View { return m.project(true) }

func (m Timeline) project(preview bool) render.View {
	st := render.State{Selected: m.selected, Width: m.width - chromeWidth}
	if m.in.Drag.Active() {
		st.DragSource = m.in.Drag.SourceID()
		if t, ok := m.in.Drag.Hover(); ok {
			st.DropTarget = t.ItemID
		}
		if preview {
			st.Order = m.in.Drag.Preview()
		}
	}
	var sess *editor.Session
	if s, ok := m.in.Editor.Session(); ok {
		sess = &s
		if s.Editing {
			st.PanelLines = m.editLines(s)
		}
	}
	return render.Timeline(m.title, m.in.Store.Items(), sess, st)
}

func (m Timeline) editLines(s editor.Session) []string {
	head := "New checkpoint"
	if !s.IsNew() {
		head = fmt.Sprintf("Checkpoint #%d", s.TargetID)
	}
	head += "  (enter save, tab field, esc cancel)"
	return []string{head, "Title: " + m.titleIn.View(), "Comment: " + m.commentIn.View()}
}

func (m Timeline) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width - chromeWidth
		return m, nil
	case outcomeMsg:
		return m.landed(syncer.Outcome(msg))
	case tea.MouseMsg:
		return m.mouse(msg)
	case tea.KeyMsg:
		if s, ok := m.in.Editor.Session(); ok && s.Editing {
			return m.editKey(msg)
		}
		return m.key(msg)
	}
	return m, nil
}

func (m Timeline) landed(o syncer.Outcome) (tea.Model, tea.Cmd) {
	err := m.in.Apply(o)
	m.status.landed(err)
	if err == nil {
		if o.Action.Kind == remote.KindCreate || o.Action.Kind == remote.KindUpdate {
			m.in.Editor.SetEditing(false)
			m.blurInputs()
		}
		m.reselect()
	}
	return m, nil
}

func (m Timeline) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	grabbing := m.in.Drag.Active() && !m.mouseDrag

	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, k.Theme):
		m.theme, m.status.note = toggleTheme(m.theme, &m.help, m.prefs)
	case key.Matches(msg, k.Reload):
		cmd := m.dispatch(m.in.Vocabulary().Detail())
		return m, cmd

	case key.Matches(msg, k.Up), key.Matches(msg, k.Down):
		delta := 1
		if key.Matches(msg, k.Up) {
			delta = -1
		}
		if grabbing {
			// steps follow the order at grab time, not the preview
			v := m.project(false)
			from := m.in.Drag.SourceID()
			if t, ok := m.in.Drag.Hover(); ok {
				from = t.ItemID
			}
			next := v.Neighbor(from, delta)
			if !m.in.Drag.Over(drag.Target{ItemID: next}) {
				m.in.Drag.Leave()
			}
			return m, nil
		}
		m.selected = m.view().Neighbor(m.selected, delta)

	case key.Matches(msg, k.Back):
		switch {
		case grabbing:
			m.in.Drag.Cancel()
			m.in.Drag.End()
		case m.in.Editor.Active():
			m.in.Editor.Close()
		}

	case key.Matches(msg, k.Open):
		if grabbing {
			return m.drop(m.in.Drag.DropOnHover())
		}
		if it, ok := m.in.Store.Get(m.selected); ok {
			m.in.Editor.Open(&it, false)
		}

	case grabbing:
		// other keys are ignored mid-gesture

	case key.Matches(msg, k.Edit):
		if s, ok := m.in.Editor.Session(); ok && (m.selected == 0 || s.TargetID == m.selected) {
			m.in.Editor.SetEditing(true)
			cmd := m.focusInputs(s.Fields)
			return m, cmd
		}
		if it, ok := m.in.Store.Get(m.selected); ok {
			m.in.Editor.Open(&it, true)
			cmd := m.focusInputs(editor.FieldsOf(it))
			return m, cmd
		}
	case key.Matches(msg, k.Add):
		m.in.Editor.Open(nil, true)
		cmd := m.focusInputs(editor.Fields{})
		return m, cmd
	case key.Matches(msg, k.Toggle):
		if s, ok := m.in.Editor.Session(); ok && !s.IsNew() {
			a, err := m.in.Editor.Toggle()
			if err != nil {
				m.status.err = err.Error()
				return m, nil
			}
			cmd := m.dispatch(a)
			return m, cmd
		}
		if it, ok := m.in.Store.Get(m.selected); ok {
			cmd := m.dispatch(m.in.Vocabulary().Toggle(it.ID, !it.IsDone))
			return m, cmd
		}
	case key.Matches(msg, k.Delete):
		if m.in.Editor.Active() {
			if a, ok := m.in.Editor.Delete(); ok {
				cmd := m.dispatch(a)
				return m, cmd
			}
			return m, nil
		}
		if m.selected != 0 {
			cmd := m.dispatch(m.in.Vocabulary().Delete(m.selected))
			return m, cmd
		}
	case key.Matches(msg, k.Grab):
		if m.selected == 0 {
			return m, nil
		}
		if err := m.in.Drag.Begin(drag.Source{ID: m.selected, Order: m.view().IDs()}); err != nil {
			m.status.err = err.Error()
		}
		m.mouseDrag = false
	}
	return m, nil
}

func (m Timeline) editKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		s, _ := m.in.Editor.Session()
		a, err := m.in.Editor.Submit(editor.Fields{
			Title:   m.titleIn.Value(),
			Comment: m.commentIn.Value(),
			IsDone:  s.Fields.IsDone,
		})
		if errors.Is(err, editor.ErrEmptyTitle) {
			m.status.err = "Title cannot be empty"
			return m, nil
		}
		if err != nil {
			m.status.err = err.Error()
			return m, nil
		}
		cmd := m.dispatch(a)
		return m, cmd
	case "esc":
		if s, _ := m.in.Editor.Session(); s.IsNew() {
			m.in.Editor.Close()
		} else {
			m.in.Editor.SetEditing(false)
		}
		m.blurInputs()
		return m, nil
	case "tab", "shift+tab":
		m.commentOn = !m.commentOn
		if m.commentOn {
			m.titleIn.Blur()
			cmd := m.commentIn.Focus()
			return m, cmd
		}
		m.commentIn.Blur()
		cmd := m.titleIn.Focus()
		return m, cmd
	}
	var cmd tea.Cmd
	if m.commentOn {
		m.commentIn, cmd = m.commentIn.Update(msg)
	} else {
		m.titleIn, cmd = m.titleIn.Update(msg)
	}
	return m, cmd
}

func (m *Timeline) focusInputs(f editor.Fields) tea.Cmd {
	m.status.err = ""
	m.titleIn.SetValue(f.Title)
	m.titleIn.CursorEnd()
	m.commentIn.SetValue(f.Comment)
	m.commentIn.CursorEnd()
	m.commentOn = false
	m.commentIn.Blur()
	return m.titleIn.Focus()
}

func (m *Timeline) blurInputs() {
	m.titleIn.Blur()
	m.commentIn.Blur()
	m.commentOn = false
}

func (m Timeline) mouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	v := m.view()
	row, onRow := v.RowAt(msg.Y - frameTop)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !onRow || m.in.Drag.Active() {
			return m, nil
		}
		m.selected = row.ID
		if err := m.in.Drag.Begin(drag.Source{ID: row.ID, Order: v.IDs()}); err == nil {
			m.mouseDrag = true
		}
	case tea.MouseActionMotion:
		if !m.mouseDrag {
			return m, nil
		}
		if onRow && row.ID == m.in.Drag.SourceID() {
			// the preview put the source under the pointer
			return m, nil
		}
		if !onRow || !m.in.Drag.Over(drag.Target{ItemID: row.ID}) {
			m.in.Drag.Leave()
		}
	case tea.MouseActionRelease:
		if !m.mouseDrag {
			return m, nil
		}
		m.mouseDrag = false
		if !onRow {
			m.in.Drag.Cancel()
			m.in.Drag.End()
			return m, nil
		}
		if row.ID == m.in.Drag.SourceID() {
			return m.drop(m.in.Drag.DropOnHover())
		}
		return m.drop(m.in.Drag.Drop(drag.Target{ItemID: row.ID}))
	}
	return m, nil
}

// drop applies and persists a finished gesture. A drop that is not a move
// (on itself, outside the list) is a silent cancel.
func (m Timeline) drop(intent drag.Intent, err error) (tea.Model, tea.Cmd) {
	defer m.in.Drag.End()
	if err != nil {
		return m, nil
	}
	cmd := m.dispatch(m.in.IntentAction(intent))
	return m, cmd
}

func (m Timeline) View() string {
	v := m.view()
	content := v.String(m.theme)
	if line := m.status.render(m.theme); line != "" {
		content += "\n" + line
	}
	content += "\n" + m.help.View(m.keys)
	return m.theme.Frame().Render(content)
}
