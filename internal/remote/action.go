package remote

import (
	"encoding/json"
	"fmt"

	"github.com/Makepad-fr/waypoint/internal/model"
)

// Kind is the generic operation an Action performs, independent of the
// wire name a particular endpoint uses for it.
type Kind string

const (
	KindDetail  Kind = "detail"
	KindCreate  Kind = "create"
	KindUpdate  Kind = "update"
	KindToggle  Kind = "toggle"
	KindDelete  Kind = "delete"
	KindReorder Kind = "reorder"
	KindChat    Kind = "chat"
	KindMove    Kind = "move"
)

// Action is one request payload. Only the fields relevant to Kind are sent.
type Action struct {
	Kind Kind
	// Name is the wire value of the "action" field. Empty for kanban moves,
	// which carry no action field at all.
	Name    string
	ID      int64
	Title   string
	Comment string
	IsDone  bool
	IDs     []int64
	Status  model.Status
	Text    string
}

// Mutating reports whether the action changes server state.
func (a Action) Mutating() bool { return a.Kind != KindDetail }

func (a Action) String() string {
	if a.Name == "" {
		return string(a.Kind)
	}
	return a.Name
}

// MarshalJSON encodes the tagged union as the flat object the endpoint expects.
func (a Action) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	if a.Name != "" {
		m["action"] = a.Name
	}
	switch a.Kind {
	case KindDetail:
	case KindCreate:
		m["title"] = a.Title
		m["comment"] = a.Comment
		m["is_done"] = a.IsDone
	case KindUpdate:
		m["id"] = a.ID
		m["title"] = a.Title
		m["comment"] = a.Comment
		m["is_done"] = a.IsDone
	case KindToggle:
		m["id"] = a.ID
		m["is_done"] = a.IsDone
	case KindDelete:
		m["id"] = a.ID
	case KindReorder:
		ids := a.IDs
		if ids == nil {
			ids = []int64{}
		}
		m["ids"] = ids
	case KindChat:
		m["text"] = a.Text
	case KindMove:
		m["id"] = a.ID
		m["status"] = a.Status
	default:
		return nil, fmt.Errorf("unknown action kind %q", a.Kind)
	}
	return json.Marshal(m)
}

// Vocabulary maps generic kinds to the action names of one endpoint.
type Vocabulary map[Kind]string

// TimelineVocabulary is spoken by the request checkpoints endpoint.
var TimelineVocabulary = Vocabulary{
	KindDetail:  "detail",
	KindCreate:  "create",
	KindUpdate:  "update",
	KindToggle:  "checkpoint_update",
	KindDelete:  "delete",
	KindReorder: "reorder",
}

// TaskPanelVocabulary is spoken by the task side panel endpoint.
var TaskPanelVocabulary = Vocabulary{
	KindDetail:  "detail",
	KindCreate:  "checkpoint_create",
	KindUpdate:  "checkpoint_update",
	KindToggle:  "checkpoint_update",
	KindDelete:  "checkpoint_delete",
	KindReorder: "checkpoint_reorder",
	KindChat:    "chat_add",
}

// BoardVocabulary loads a board; moves go through Move.
var BoardVocabulary = Vocabulary{
	KindDetail: "detail",
}

// Supports reports whether the endpoint understands k.
func (v Vocabulary) Supports(k Kind) bool {
	if k == KindMove {
		return true
	}
	_, ok := v[k]
	return ok
}

func (v Vocabulary) action(k Kind) Action { return Action{Kind: k, Name: v[k]} }

func (v Vocabulary) Detail() Action { return v.action(KindDetail) }

func (v Vocabulary) Create(title, comment string, isDone bool) Action {
	a := v.action(KindCreate)
	a.Title, a.Comment, a.IsDone = title, comment, isDone
	return a
}

func (v Vocabulary) Update(id int64, title, comment string, isDone bool) Action {
	a := v.action(KindUpdate)
	a.ID, a.Title, a.Comment, a.IsDone = id, title, comment, isDone
	return a
}

func (v Vocabulary) Toggle(id int64, isDone bool) Action {
	a := v.action(KindToggle)
	a.ID, a.IsDone = id, isDone
	return a
}

func (v Vocabulary) Delete(id int64) Action {
	a := v.action(KindDelete)
	a.ID = id
	return a
}

func (v Vocabulary) Reorder(ids []int64) Action {
	a := v.action(KindReorder)
	a.IDs = append([]int64{}, ids...)
	return a
}

func (v Vocabulary) Chat(text string) Action {
	a := v.action(KindChat)
	a.Text = text
	return a
}

// Move is the kanban reclassify payload: {id, status}.
func Move(id int64, status model.Status) Action {
	return Action{Kind: KindMove, ID: id, Status: status}
}
