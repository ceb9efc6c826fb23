// Package syncer wires one collection instance together: gestures and
// editor operations become actions, actions change the store at once and
// go through the remote channel, and results are folded back into the
// store and the editor.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Makepad-fr/waypoint/internal/collection"
	"github.com/Makepad-fr/waypoint/internal/drag"
	"github.com/Makepad-fr/waypoint/internal/editor"
	"github.com/Makepad-fr/waypoint/internal/model"
	"github.com/Makepad-fr/waypoint/internal/remote"
)

// ErrMissingCheckpoint means a create succeeded without returning the
// record; the store cannot invent an id for it.
var ErrMissingCheckpoint = errors.New("create response carries no checkpoint")

// Kind is the flavour of collection.
type Kind int

const (
	Timeline Kind = iota
	TaskPanel
	Board
)

func (k Kind) String() string {
	switch k {
	case TaskPanel:
		return "task-panel"
	case Board:
		return "board"
	}
	return "timeline"
}

// Outcome is a finished round trip, ready to be applied.
type Outcome struct {
	Action remote.Action
	Result remote.Result
	Err    error
}

func (o Outcome) OK() bool { return o.Err == nil && o.Result.OK }

// Instance is one endpoint-bound collection.
//
// Send may run off the UI loop; everything else, Stage and Apply included,
// must run on it. Responses are applied in arrival order, stale or not.
type Instance struct {
	kind           Kind
	endpoint       string
	detailEndpoint string
	vocab          remote.Vocabulary

	Store  *collection.Store
	Drag   *drag.Controller
	Editor *editor.Panel

	channel remote.Sender
	logger  *slog.Logger
	lastErr error
}

type Option func(*Instance)

func WithLogger(l *slog.Logger) Option {
	return func(in *Instance) { in.logger = l }
}

// WithItems seeds the store, e.g. from a bootstrap snapshot.
func WithItems(items []model.Item) Option {
	return func(in *Instance) { in.Store.Replace(items) }
}

func newInstance(kind Kind, ch remote.Sender, endpoint, detail string, v remote.Vocabulary, mode drag.Mode, opts []Option) *Instance {
	in := &Instance{
		kind:           kind,
		endpoint:       endpoint,
		detailEndpoint: detail,
		vocab:          v,
		Store:          collection.New(nil),
		Drag:           drag.NewController(mode),
		Editor:         editor.NewPanel(v),
		channel:        ch,
		logger:         slog.Default(),
	}
	for _, o := range opts {
		o(in)
	}
	in.logger = in.logger.With("collection", kind.String(), "endpoint", endpoint)
	return in
}

// NewTimeline binds a request's checkpoint timeline.
func NewTimeline(ch remote.Sender, requestID int64, opts ...Option) *Instance {
	p := remote.RequestCheckpointsPath(requestID)
	return newInstance(Timeline, ch, p, p, remote.TimelineVocabulary, drag.ModeReorder, opts)
}

// NewTaskPanel binds the checkpoints of a kanban task.
func NewTaskPanel(ch remote.Sender, taskID int64, opts ...Option) *Instance {
	p := remote.TaskPanelPath(taskID)
	return newInstance(TaskPanel, ch, p, p, remote.TaskPanelVocabulary, drag.ModeReorder, opts)
}

// NewBoard binds a project's kanban board. Moves go to the shared move
// endpoint; the board itself is loaded from the project endpoint.
func NewBoard(ch remote.Sender, projectID int64, opts ...Option) *Instance {
	return newInstance(Board, ch, remote.KanbanMovePath, remote.BoardPath(projectID), remote.BoardVocabulary, drag.ModeReclassify, opts)
}

func (in *Instance) Kind() Kind                    { return in.kind }
func (in *Instance) Endpoint() string              { return in.endpoint }
func (in *Instance) Vocabulary() remote.Vocabulary { return in.vocab }
func (in *Instance) Logger() *slog.Logger          { return in.logger }

// LastError is the most recent failure, cleared by the next success.
func (in *Instance) LastError() error { return in.lastErr }

// Supports reports whether this instance's endpoint accepts k. Only
// boards move.
func (in *Instance) Supports(k remote.Kind) bool {
	if k == remote.KindMove {
		return in.kind == Board
	}
	return in.vocab.Supports(k)
}

func (in *Instance) unsupported(a remote.Action) error {
	return fmt.Errorf("%s endpoint does not support %s", in.kind, a.Kind)
}

// Stage applies the local half of a mutation before it is sent. Updates,
// toggles, deletes, reorders and moves change the store immediately;
// creates wait for the id the authority assigns. A later failure does not
// roll anything back.
func (in *Instance) Stage(a remote.Action) error {
	if !in.Supports(a.Kind) {
		return in.unsupported(a)
	}
	if !a.Mutating() {
		return nil
	}
	if in.local(a) {
		in.Editor.Sync(in.Store.Items())
		in.logger.Debug("staged", "action", a.String())
	}
	return nil
}

// local applies the part of a that needs no server data.
func (in *Instance) local(a remote.Action) bool {
	switch a.Kind {
	case remote.KindUpdate:
		in.Store.ApplyUpdate(a.ID, collection.Fields{Title: &a.Title, Comment: &a.Comment, IsDone: &a.IsDone})
	case remote.KindToggle:
		in.Store.ApplyUpdate(a.ID, collection.Fields{IsDone: &a.IsDone})
	case remote.KindDelete:
		in.Store.ApplyDelete(a.ID)
	case remote.KindReorder:
		in.Store.ApplyReorder(a.IDs)
	case remote.KindMove:
		in.Store.ApplyReclassify(a.ID, a.Status)
	default:
		return false
	}
	return true
}

// Send performs the round trip only. It touches no local state.
func (in *Instance) Send(ctx context.Context, a remote.Action) Outcome {
	if !in.Supports(a.Kind) {
		return Outcome{Action: a, Err: in.unsupported(a)}
	}
	ep := in.endpoint
	if a.Kind == remote.KindDetail {
		ep = in.detailEndpoint
	}
	res, err := in.channel.Send(ctx, ep, a)
	return Outcome{Action: a, Result: res, Err: err}
}

// Apply folds an outcome into the store and editor. A successful outcome
// re-applies its local half, so responses landing out of order leave the
// last arrival in place. Failed outcomes change nothing and are returned
// as errors for the caller to surface.
func (in *Instance) Apply(o Outcome) error {
	if !o.OK() {
		err := o.Err
		if err == nil {
			err = fmt.Errorf("%s: %w", o.Action, remote.ErrRejected)
		}
		in.lastErr = err
		in.logger.Warn("mutation not applied", "action", o.Action.String(), "error", err)
		return err
	}

	a, r := o.Action, o.Result
	switch a.Kind {
	case remote.KindDetail:
		in.Store.Replace(r.Items())
	case remote.KindCreate:
		if r.Checkpoint == nil {
			in.lastErr = fmt.Errorf("%s: %w", a, ErrMissingCheckpoint)
			return in.lastErr
		}
		in.Store.ApplyCreate(*r.Checkpoint)
	default:
		// chat has no local half; the message is in the result
		in.local(a)
	}
	in.Editor.Confirm(a, r)
	in.Editor.Sync(in.Store.Items())
	in.lastErr = nil
	in.logger.Debug("applied", "action", a.String())
	return nil
}

// Do stages, sends and applies in one step.
func (in *Instance) Do(ctx context.Context, a remote.Action) (Outcome, error) {
	if err := in.Stage(a); err != nil {
		o := Outcome{Action: a, Err: err}
		return o, in.Apply(o)
	}
	o := in.Send(ctx, a)
	return o, in.Apply(o)
}

// Load replaces the store with the authority's current snapshot.
func (in *Instance) Load(ctx context.Context) (Outcome, error) {
	return in.Do(ctx, in.vocab.Detail())
}

// IntentAction turns a drop into the action that persists it.
func (in *Instance) IntentAction(i drag.Intent) remote.Action {
	if i.Mode == drag.ModeReclassify {
		return remote.Move(i.ItemID, i.Status)
	}
	return in.vocab.Reorder(i.IDs)
}
