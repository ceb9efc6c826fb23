// Package render projects collection state into a view.
//
// Projection is a pure function of its inputs: the same items, session and
// state always produce the same View. Line numbers in a View are the lines
// of View.String, so gesture hit tests and drawing cannot disagree.
package render

import (
	"fmt"

	"github.com/Makepad-fr/waypoint/internal/editor"
	"github.com/Makepad-fr/waypoint/internal/model"
)

const (
	// HeaderLines precede the first row: a title line and a blank line.
	HeaderLines = 2
	// PanelHeight is the editor box including its border.
	PanelHeight = 6

	defaultWidth = 60
)

// State is the presentation state that is not part of the collection.
type State struct {
	Selected   int64
	DragSource int64
	DropTarget int64
	Width      int
	// Order, when set, overrides the sort key: listed ids come first in
	// that order, the rest follow by sort key. Drags use it for the live
	// preview.
	Order []int64
	// PanelLines replaces the panel body while the user is typing.
	PanelLines []string
}

type Row struct {
	ID         int64
	Title      string
	Comment    string
	Done       bool
	Status     model.Status
	Line       int
	Selected   bool
	Dragging   bool
	DropTarget bool
}

// PanelView places the editor. AfterID is the row it hangs below; AtEnd
// means the target is not rendered and the panel sits after the last row.
type PanelView struct {
	Session editor.Session
	Line    int
	AfterID int64
	AtEnd   bool
	Lines   []string
}

type View struct {
	Title         string
	Rows          []Row
	Panel         *PanelView
	Done, Pending int
	Width         int
	Height        int
}

// Timeline projects an ordered list with an optional editor panel.
func Timeline(title string, items []model.Item, sess *editor.Session, st State) View {
	sorted := append([]model.Item{}, items...)
	model.SortItems(sorted)
	if len(st.Order) > 0 {
		sorted = arrange(sorted, st.Order)
	}

	v := View{Title: title, Width: st.Width}
	if v.Width <= 0 {
		v.Width = defaultWidth
	}

	anchorID := int64(0)
	if sess != nil && !sess.IsNew() {
		for _, it := range sorted {
			if it.ID == sess.TargetID {
				anchorID = it.ID
				break
			}
		}
	}

	line := HeaderLines
	for _, it := range sorted {
		if it.IsDone {
			v.Done++
		} else {
			v.Pending++
		}
		v.Rows = append(v.Rows, Row{
			ID:         it.ID,
			Title:      it.Title,
			Comment:    it.Comment,
			Done:       it.IsDone,
			Status:     it.Status,
			Line:       line,
			Selected:   it.ID == st.Selected,
			Dragging:   st.DragSource != 0 && it.ID == st.DragSource,
			DropTarget: st.DropTarget != 0 && it.ID == st.DropTarget,
		})
		line++
		if anchorID != 0 && it.ID == anchorID {
			v.Panel = &PanelView{Session: *sess, Line: line, AfterID: it.ID}
			line += PanelHeight
		}
	}
	if sess != nil && v.Panel == nil {
		v.Panel = &PanelView{Session: *sess, Line: line, AtEnd: true}
		line += PanelHeight
	}
	if v.Panel != nil {
		v.Panel.Lines = panelBody(v.Panel.Session, st.PanelLines)
	}
	if len(v.Rows) == 0 && v.Panel == nil {
		// the placeholder line
		line++
	}
	v.Height = line
	return v
}

// arrange puts sorted items in the given id order. Unknown ids are
// skipped; items missing from order keep their place after the listed ones.
func arrange(sorted []model.Item, order []int64) []model.Item {
	byID := make(map[int64]model.Item, len(sorted))
	for _, it := range sorted {
		byID[it.ID] = it
	}
	out := make([]model.Item, 0, len(sorted))
	for _, id := range order {
		if it, ok := byID[id]; ok {
			out = append(out, it)
			delete(byID, id)
		}
	}
	for _, it := range sorted {
		if _, ok := byID[it.ID]; ok {
			out = append(out, it)
		}
	}
	return out
}

// RowAt returns the row drawn on line, if any.
func (v View) RowAt(line int) (Row, bool) {
	for _, r := range v.Rows {
		if r.Line == line {
			return r, true
		}
	}
	return Row{}, false
}

// Row returns the row for id.
func (v View) Row(id int64) (Row, bool) {
	for _, r := range v.Rows {
		if r.ID == id {
			return r, true
		}
	}
	return Row{}, false
}

// IDs is the rendered order.
func (v View) IDs() []int64 {
	ids := make([]int64, len(v.Rows))
	for i, r := range v.Rows {
		ids[i] = r.ID
	}
	return ids
}

// Neighbor returns the id delta rows away from id, clamped to the list.
func (v View) Neighbor(id int64, delta int) int64 {
	if len(v.Rows) == 0 {
		return 0
	}
	idx := 0
	for i, r := range v.Rows {
		if r.ID == id {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(v.Rows) {
		idx = len(v.Rows) - 1
	}
	return v.Rows[idx].ID
}

func panelBody(s editor.Session, override []string) []string {
	if len(override) > 0 {
		return fit(override, PanelHeight-2)
	}
	head := "New checkpoint"
	if !s.IsNew() {
		head = fmt.Sprintf("Checkpoint #%d", s.TargetID)
	}
	if s.Editing {
		head += "  (editing)"
	}
	done := "[ ] done"
	if s.Fields.IsDone {
		done = "[x] done"
	}
	return fit([]string{
		head,
		"Title: " + s.Fields.Title,
		"Comment: " + s.Fields.Comment,
		done,
	}, PanelHeight-2)
}

func fit(lines []string, n int) []string {
	out := make([]string, n)
	copy(out, lines)
	return out
}
