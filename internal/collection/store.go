// Package collection holds the in-memory copy of one collection instance.
//
// Every mutation is local and synchronous. The caller decides when a change
// is applied; nothing here talks to the network or rolls anything back.
package collection

import (
	"github.com/Makepad-fr/waypoint/internal/model"
)

// Fields is a partial update. Nil fields are left alone.
type Fields struct {
	Title   *string
	Comment *string
	IsDone  *bool
	Status  *model.Status
}

// Store is the ordered item set of a single collection instance.
type Store struct {
	items []model.Item
}

func New(items []model.Item) *Store {
	s := &Store{}
	s.Replace(items)
	return s
}

// Replace swaps the whole collection, e.g. after a fresh snapshot.
func (s *Store) Replace(items []model.Item) {
	s.items = make([]model.Item, 0, len(items))
	for _, it := range items {
		s.items = append(s.items, clone(it))
	}
}

// Items returns a copy sorted by (order, id).
func (s *Store) Items() []model.Item {
	out := make([]model.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, clone(it))
	}
	model.SortItems(out)
	return out
}

// IDs returns item ids in sort-key order.
func (s *Store) IDs() []int64 {
	items := s.Items()
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func (s *Store) Len() int { return len(s.items) }

func (s *Store) Get(id int64) (model.Item, bool) {
	if i := s.index(id); i >= 0 {
		return clone(s.items[i]), true
	}
	return model.Item{}, false
}

// ApplyCreate appends a server-confirmed item. Other items keep their order.
func (s *Store) ApplyCreate(it model.Item) {
	s.items = append(s.items, clone(it))
}

// ApplyUpdate changes the mutable fields of id. Unknown ids are ignored.
func (s *Store) ApplyUpdate(id int64, f Fields) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	it := &s.items[i]
	if f.Title != nil {
		it.Title = *f.Title
	}
	if f.Comment != nil {
		it.Comment = *f.Comment
	}
	if f.IsDone != nil {
		it.IsDone = *f.IsDone
	}
	if f.Status != nil {
		it.Status = *f.Status
	}
	return true
}

// ApplyReclassify moves id to another group without touching its order.
func (s *Store) ApplyReclassify(id int64, status model.Status) bool {
	return s.ApplyUpdate(id, Fields{Status: &status})
}

// ApplyReorder sets order = position+1 for each id.
//
// The list is authoritative over membership: items whose id is not listed
// are dropped from the collection. Listed ids that are not in the store
// are skipped; a repeated id keeps its first position. Orders are 1..n
// over the ids that remain.
func (s *Store) ApplyReorder(ids []int64) {
	present := make(map[int64]bool, len(s.items))
	for _, it := range s.items {
		present[it.ID] = true
	}
	pos := make(map[int64]int, len(ids))
	for _, id := range ids {
		if _, seen := pos[id]; present[id] && !seen {
			pos[id] = len(pos) + 1
		}
	}
	kept := s.items[:0]
	for _, it := range s.items {
		p, ok := pos[it.ID]
		if !ok {
			continue
		}
		it.Order = model.IntPtr(p)
		kept = append(kept, it)
	}
	s.items = kept
}

// ApplyDelete removes id. Unknown ids are ignored.
func (s *Store) ApplyDelete(id int64) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

// Stats counts done and pending items.
func (s *Store) Stats() (done, pending int) {
	for _, it := range s.items {
		if it.IsDone {
			done++
		} else {
			pending++
		}
	}
	return
}

func (s *Store) index(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func clone(it model.Item) model.Item {
	if it.Order != nil {
		it.Order = model.IntPtr(*it.Order)
	}
	return it
}
