package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/waypoint/internal/drag"
	"github.com/Makepad-fr/waypoint/internal/model"
	"github.com/Makepad-fr/waypoint/internal/remote"
	"github.com/Makepad-fr/waypoint/internal/render"
	"github.com/Makepad-fr/waypoint/internal/syncer"
	"github.com/Makepad-fr/waypoint/internal/ui"
)

type boardKeys struct {
	Up, Down, Left, Right key.Binding
	Grab                  key.Binding
	Drop                  key.Binding
	Back                  key.Binding
	commonKeys
}

func newBoardKeys() boardKeys {
	return boardKeys{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Grab:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move")),
		Drop:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		commonKeys: newCommonKeys(),
	}
}

func (k boardKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Grab, k.Drop, k.Help, k.Quit}
}

func (k boardKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Grab, k.Drop, k.Back},
		{k.Theme, k.Reload, k.Quit},
	}
}

// Board is the bubbletea model of a kanban board. Dropping a card on a
// column reclassifies it.
type Board struct {
	ctx   context.Context
	in    *syncer.Instance
	title string
	theme ui.Theme
	prefs ThemeStore
	keys  boardKeys
	help  help.Model

	selected  int64
	mouseDrag bool

	width  int
	status status
}

func NewBoard(ctx context.Context, in *syncer.Instance, opts Options) Board {
	title := opts.Title
	if title == "" {
		title = "Board"
	}
	th := ui.Named(opts.Theme)
	h := help.New()
	styleHelp(&h, th)
	return Board{
		ctx:    ctx,
		in:     in,
		title:  title,
		theme:  th,
		prefs:  opts.Prefs,
		keys:   newBoardKeys(),
		help:   h,
		width:  80,
		status: status{inflight: 1},
	}
}

func RunBoard(ctx context.Context, in *syncer.Instance, opts Options) error {
	p := tea.NewProgram(NewBoard(ctx, in, opts),
		tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Board) Init() tea.Cmd {
	return send(m.ctx, m.in, m.in.Vocabulary().Detail())
}

// dispatch stages a locally and sends it.
func (m *Board) dispatch(a remote.Action) tea.Cmd {
	if err := m.in.Stage(a); err != nil {
		m.status.err = describe(err)
		return nil
	}
	m.status.sent()
	return send(m.ctx, m.in, a)
}

func (m Board) view() render.BoardView {
	st := render.BoardState{State: render.State{Selected: m.selected, Width: m.width - chromeWidth}}
	if m.in.Drag.Active() {
		st.DragSource = m.in.Drag.SourceID()
		if t, ok := m.in.Drag.Hover(); ok {
			st.DropGroup = t.Group
		}
	}
	return render.Board(m.title, m.in.Store.Items(), st)
}

func (m Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width - chromeWidth
	case outcomeMsg:
		err := m.in.Apply(syncer.Outcome(msg))
		m.status.landed(err)
		if _, ok := m.in.Store.Get(m.selected); !ok {
			m.selected = m.first()
		}
	case tea.MouseMsg:
		return m.mouse(msg)
	case tea.KeyMsg:
		return m.key(msg)
	}
	return m, nil
}

// first is the top card of the leftmost non-empty column.
func (m Board) first() int64 {
	for _, c := range m.view().Columns {
		if len(c.Rows) > 0 {
			return c.Rows[0].ID
		}
	}
	return 0
}

func (m Board) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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

	case key.Matches(msg, k.Left), key.Matches(msg, k.Right):
		delta := 1
		if key.Matches(msg, k.Left) {
			delta = -1
		}
		if grabbing {
			m.in.Drag.Over(drag.Target{Group: m.shiftGroup(delta)})
			return m, nil
		}
		m.selected = m.across(delta)
	case key.Matches(msg, k.Up), key.Matches(msg, k.Down):
		if grabbing {
			return m, nil
		}
		delta := 1
		if key.Matches(msg, k.Up) {
			delta = -1
		}
		m.selected = m.within(delta)

	case key.Matches(msg, k.Grab):
		it, ok := m.in.Store.Get(m.selected)
		if !ok || grabbing {
			return m, nil
		}
		if err := m.in.Drag.Begin(drag.Source{ID: it.ID, Group: it.Status}); err != nil {
			m.status.err = err.Error()
			return m, nil
		}
		m.mouseDrag = false
		m.in.Drag.Over(drag.Target{Group: it.Status})
	case key.Matches(msg, k.Drop):
		if grabbing {
			return m.drop(m.in.Drag.DropOnHover())
		}
	case key.Matches(msg, k.Back):
		if grabbing {
			m.in.Drag.Cancel()
			m.in.Drag.End()
		}
	}
	return m, nil
}

// shiftGroup is the column delta steps from the hovered one.
func (m Board) shiftGroup(delta int) model.Status {
	cur := model.StatusTodo
	if t, ok := m.in.Drag.Hover(); ok {
		cur = t.Group
	}
	return model.Statuses[clamp(indexOfStatus(cur)+delta, len(model.Statuses))]
}

// across selects the card at the same height in the neighbouring column,
// or its last card when that column is shorter.
func (m Board) across(delta int) int64 {
	v := m.view()
	col, row, ok := v.Locate(m.selected)
	if !ok {
		return m.first()
	}
	for c := col + delta; c >= 0 && c < len(v.Columns); c += delta {
		rows := v.Columns[c].Rows
		if len(rows) == 0 {
			continue
		}
		return rows[clamp(row, len(rows))].ID
	}
	return m.selected
}

func (m Board) within(delta int) int64 {
	v := m.view()
	col, row, ok := v.Locate(m.selected)
	if !ok {
		return m.first()
	}
	rows := v.Columns[col].Rows
	return rows[clamp(row+delta, len(rows))].ID
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func indexOfStatus(s model.Status) int {
	for i, v := range model.Statuses {
		if v == s {
			return i
		}
	}
	return 0
}

func (m Board) mouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	v := m.view()
	target := v.HitTest(msg.X-frameLeft, msg.Y-frameTop)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || target.ItemID == 0 || m.in.Drag.Active() {
			return m, nil
		}
		m.selected = target.ItemID
		if err := m.in.Drag.Begin(drag.Source{ID: target.ItemID, Group: target.Group}); err == nil {
			m.mouseDrag = true
		}
	case tea.MouseActionMotion:
		if m.mouseDrag && !m.in.Drag.Over(target) {
			m.in.Drag.Leave()
		}
	case tea.MouseActionRelease:
		if !m.mouseDrag {
			return m, nil
		}
		m.mouseDrag = false
		// a click without a move is a selection, not a reclassify
		if target.ItemID == m.selected {
			m.in.Drag.Cancel()
			m.in.Drag.End()
			return m, nil
		}
		return m.drop(m.in.Drag.Drop(target))
	}
	return m, nil
}

func (m Board) drop(intent drag.Intent, err error) (tea.Model, tea.Cmd) {
	defer m.in.Drag.End()
	if err != nil {
		return m, nil
	}
	cmd := m.dispatch(m.in.IntentAction(intent))
	return m, cmd
}

func (m Board) View() string {
	content := m.view().String(m.theme)
	if line := m.status.render(m.theme); line != "" {
		content += "\n" + line
	}
	content += "\n" + m.help.View(m.keys)
	return m.theme.Frame().Render(content)
}
