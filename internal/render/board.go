package render

import (
	"github.com/Makepad-fr/waypoint/internal/drag"
	"github.com/Makepad-fr/waypoint/internal/model"
)

type Column struct {
	Status model.Status
	Label  string
	Rows   []Row
	X      int
	Width  int
}

type BoardView struct {
	Title   string
	Columns []Column
	Width   int
	Height  int
	// DropGroup is the column under the pointer during a drag.
	DropGroup model.Status
}

// BoardState adds the hovered column to State.
type BoardState struct {
	State
	DropGroup model.Status
}

// Board projects items into one column per status. Each column is sorted
// by sort key; the header row of each column sits on line HeaderLines.
func Board(title string, items []model.Item, st BoardState) BoardView {
	sorted := append([]model.Item{}, items...)
	model.SortItems(sorted)

	b := BoardView{Title: title, Width: st.Width, DropGroup: st.DropGroup}
	if b.Width <= 0 {
		b.Width = defaultWidth
	}
	colWidth := b.Width / len(model.Statuses)
	if colWidth < 4 {
		colWidth = 4
	}
	tallest := 0
	for i, s := range model.Statuses {
		col := Column{Status: s, Label: s.Label(), X: i * colWidth, Width: colWidth}
		line := HeaderLines + 1
		for _, it := range sorted {
			if it.Status != s {
				continue
			}
			col.Rows = append(col.Rows, Row{
				ID:         it.ID,
				Title:      it.Title,
				Comment:    it.Comment,
				Done:       it.Status == model.StatusDone,
				Status:     it.Status,
				Line:       line,
				Selected:   it.ID == st.Selected,
				Dragging:   st.DragSource != 0 && it.ID == st.DragSource,
				DropTarget: st.DropTarget != 0 && it.ID == st.DropTarget,
			})
			line++
		}
		if len(col.Rows) > tallest {
			tallest = len(col.Rows)
		}
		b.Columns = append(b.Columns, col)
	}
	b.Height = HeaderLines + 1 + tallest
	return b
}

// HitTest maps a cell to a drop target: the card under it, else the
// column container. Outside every column it returns the zero Target.
func (b BoardView) HitTest(x, y int) drag.Target {
	for _, c := range b.Columns {
		if x < c.X || x >= c.X+c.Width {
			continue
		}
		if y < HeaderLines {
			return drag.Target{}
		}
		for _, r := range c.Rows {
			if r.Line == y {
				return drag.Target{ItemID: r.ID, Group: c.Status}
			}
		}
		return drag.Target{Group: c.Status}
	}
	return drag.Target{}
}

// Locate returns the column index and row index of id.
func (b BoardView) Locate(id int64) (col, row int, ok bool) {
	for ci, c := range b.Columns {
		for ri, r := range c.Rows {
			if r.ID == id {
				return ci, ri, true
			}
		}
	}
	return 0, 0, false
}
