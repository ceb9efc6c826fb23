// Package editor manages the single inline edit session of a collection.
package editor

import (
	"errors"
	"strings"

	"github.com/Makepad-fr/waypoint/internal/model"
	"github.com/Makepad-fr/waypoint/internal/remote"
)

var (
	ErrNoSession  = errors.New("editor is closed")
	ErrEmptyTitle = errors.New("title cannot be empty")
	ErrUnsaved    = errors.New("item has not been saved yet")
)

// Fields are the user-editable values of an item.
type Fields struct {
	Title   string
	Comment string
	IsDone  bool
}

func FieldsOf(it model.Item) Fields {
	return Fields{Title: it.Title, Comment: it.Comment, IsDone: it.IsDone}
}

// Session is the open editor. TargetID 0 is the "new item" sentinel.
// Fields hold the last server-confirmed values, never pending input.
type Session struct {
	TargetID int64
	Fields   Fields
	// Editing is presentation only: it shows the input affordance.
	Editing bool
}

func (s Session) IsNew() bool { return s.TargetID == 0 }

// Panel owns at most one Session.
type Panel struct {
	vocab   remote.Vocabulary
	session *Session
}

func NewPanel(v remote.Vocabulary) *Panel {
	return &Panel{vocab: v}
}

// Open starts a session on it, or on a new item when it is nil. New items
// always open in edit mode.
func (p *Panel) Open(it *model.Item, edit bool) {
	if it == nil {
		p.session = &Session{Editing: true}
		return
	}
	p.session = &Session{TargetID: it.ID, Fields: FieldsOf(*it), Editing: edit}
}

func (p *Panel) Session() (Session, bool) {
	if p.session == nil {
		return Session{}, false
	}
	return *p.session, true
}

func (p *Panel) Active() bool { return p.session != nil }

func (p *Panel) SetEditing(on bool) {
	if p.session != nil {
		p.session.Editing = on
	}
}

// Close drops the session. Already dispatched mutations are not reverted.
func (p *Panel) Close() { p.session = nil }

// Submit builds the create or update action for the session target.
func (p *Panel) Submit(f Fields) (remote.Action, error) {
	if p.session == nil {
		return remote.Action{}, ErrNoSession
	}
	f.Title = strings.TrimSpace(f.Title)
	f.Comment = strings.TrimSpace(f.Comment)
	if f.Title == "" {
		return remote.Action{}, ErrEmptyTitle
	}
	if p.session.IsNew() {
		return p.vocab.Create(f.Title, f.Comment, f.IsDone), nil
	}
	return p.vocab.Update(p.session.TargetID, f.Title, f.Comment, f.IsDone), nil
}

// Toggle builds the done-toggle action for the session target.
func (p *Panel) Toggle() (remote.Action, error) {
	if p.session == nil {
		return remote.Action{}, ErrNoSession
	}
	if p.session.IsNew() {
		return remote.Action{}, ErrUnsaved
	}
	return p.vocab.Toggle(p.session.TargetID, !p.session.Fields.IsDone), nil
}

// Delete builds the delete action. With no saved target it just closes
// and reports false.
func (p *Panel) Delete() (remote.Action, bool) {
	if p.session == nil || p.session.IsNew() {
		p.Close()
		return remote.Action{}, false
	}
	return p.vocab.Delete(p.session.TargetID), true
}

// Confirm folds a successful result into the session: a created item
// becomes the target so the next submit updates it; a deleted target
// closes the session.
func (p *Panel) Confirm(a remote.Action, r remote.Result) {
	if p.session == nil || !r.OK {
		return
	}
	s := p.session
	switch a.Kind {
	case remote.KindCreate:
		if s.IsNew() && r.Checkpoint != nil {
			s.TargetID = r.Checkpoint.ID
			s.Fields = FieldsOf(*r.Checkpoint)
		}
	case remote.KindUpdate:
		if s.TargetID == a.ID {
			s.Fields = Fields{Title: a.Title, Comment: a.Comment, IsDone: a.IsDone}
		}
	case remote.KindToggle:
		if s.TargetID == a.ID {
			s.Fields.IsDone = a.IsDone
		}
	case remote.KindDelete:
		if s.TargetID == a.ID {
			p.Close()
		}
	}
}

// Sync re-reads the target from the rendered items. A target that is no
// longer present closes the session.
func (p *Panel) Sync(items []model.Item) {
	if p.session == nil || p.session.IsNew() {
		return
	}
	for _, it := range items {
		if it.ID == p.session.TargetID {
			p.session.Fields = FieldsOf(it)
			return
		}
	}
	p.Close()
}
