// Package drag turns drag gestures into reorder or reclassify intents.
package drag

import (
	"errors"
	"fmt"

	"github.com/Makepad-fr/waypoint/internal/model"
)

var (
	ErrNotDragging = errors.New("no drag in progress")
	// ErrNoDrop means the gesture ended without a valid target; nothing
	// should be sent.
	ErrNoDrop = errors.New("drag ended without a valid drop target")
)

// Mode selects what a drop means.
type Mode int

const (
	// ModeReorder splices the source within one ordered list.
	ModeReorder Mode = iota
	// ModeReclassify moves the source to another group.
	ModeReclassify
)

func (m Mode) String() string {
	if m == ModeReclassify {
		return "reclassify"
	}
	return "reorder"
}

type State int

const (
	Idle State = iota
	Dragging
	Dropped
	Cancelled
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Dropped:
		return "dropped"
	case Cancelled:
		return "cancelled"
	}
	return "idle"
}

// Source describes the dragged item at drag start. Order is the rendered
// id order (reorder mode); Group is the item's current group (reclassify).
type Source struct {
	ID    int64
	Order []int64
	Group model.Status
}

// Target is what the pointer is over: an item, a group container, or both.
type Target struct {
	ItemID int64
	Group  model.Status
}

// Intent is the mutation a successful drop asks for.
type Intent struct {
	Mode   Mode
	ItemID int64
	// IDs is the full resulting order (reorder mode only).
	IDs []int64
	// Status is the new group (reclassify mode only).
	Status model.Status
}

// Controller tracks a single gesture: Idle -> Dragging -> Dropped|Cancelled -> Idle.
type Controller struct {
	mode   Mode
	state  State
	source Source
	over   *Target
}

func NewController(mode Mode) *Controller {
	return &Controller{mode: mode}
}

func (c *Controller) Mode() Mode   { return c.mode }
func (c *Controller) State() State { return c.state }

// Active reports whether a drag is in progress.
func (c *Controller) Active() bool { return c.state == Dragging }

// SourceID returns the dragged item id, or 0.
func (c *Controller) SourceID() int64 {
	if c.state != Dragging {
		return 0
	}
	return c.source.ID
}

// Hover returns the current hover target, if any.
func (c *Controller) Hover() (Target, bool) {
	if c.state != Dragging || c.over == nil {
		return Target{}, false
	}
	return *c.over, true
}

// Begin starts a drag. A finished gesture is reset implicitly; starting
// while already dragging is an error.
func (c *Controller) Begin(src Source) error {
	if c.state == Dragging {
		return fmt.Errorf("begin %d: drag of %d already in progress", src.ID, c.source.ID)
	}
	switch c.mode {
	case ModeReorder:
		if indexOf(src.Order, src.ID) < 0 {
			return fmt.Errorf("begin %d: item is not rendered", src.ID)
		}
	case ModeReclassify:
		if !src.Group.Valid() {
			return fmt.Errorf("begin %d: unknown group %q", src.ID, src.Group)
		}
	}
	c.source = Source{ID: src.ID, Order: append([]int64{}, src.Order...), Group: src.Group}
	c.over = nil
	c.state = Dragging
	return nil
}

// Over records the hover target and reports whether it accepts a move.
func (c *Controller) Over(t Target) bool {
	if c.state != Dragging {
		return false
	}
	if !c.accepts(t) {
		c.over = nil
		return false
	}
	c.over = &t
	return true
}

// Leave clears the hover target.
func (c *Controller) Leave() {
	if c.state == Dragging {
		c.over = nil
	}
}

// Drop ends the gesture on t. An unacceptable target cancels it and
// returns ErrNoDrop.
func (c *Controller) Drop(t Target) (Intent, error) {
	if c.state != Dragging {
		return Intent{}, ErrNotDragging
	}
	if !c.accepts(t) {
		c.state = Cancelled
		c.over = nil
		return Intent{}, ErrNoDrop
	}
	c.state = Dropped
	c.over = nil
	if c.mode == ModeReclassify {
		return Intent{Mode: ModeReclassify, ItemID: c.source.ID, Status: t.Group}, nil
	}
	return Intent{
		Mode:   ModeReorder,
		ItemID: c.source.ID,
		IDs:    Splice(c.source.Order, c.source.ID, t.ItemID),
	}, nil
}

// DropOnHover drops on the current hover target.
func (c *Controller) DropOnHover() (Intent, error) {
	if c.state != Dragging {
		return Intent{}, ErrNotDragging
	}
	if c.over == nil {
		c.state = Cancelled
		return Intent{}, ErrNoDrop
	}
	return c.Drop(*c.over)
}

// Cancel ends the gesture without a drop.
func (c *Controller) Cancel() {
	if c.state == Dragging {
		c.state = Cancelled
	}
	c.over = nil
}

// End returns a finished gesture to Idle.
func (c *Controller) End() {
	if c.state != Dragging {
		c.state = Idle
	}
}

// Preview is the order the list would take if dropped on the hover target.
func (c *Controller) Preview() []int64 {
	if c.state != Dragging || c.mode != ModeReorder || c.over == nil {
		return append([]int64{}, c.source.Order...)
	}
	return Splice(c.source.Order, c.source.ID, c.over.ItemID)
}

func (c *Controller) accepts(t Target) bool {
	switch c.mode {
	case ModeReclassify:
		return t.Group.Valid()
	default:
		return t.ItemID != c.source.ID && indexOf(c.source.Order, t.ItemID) >= 0
	}
}
