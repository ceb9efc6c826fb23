package drag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/waypoint/internal/model"
)

func TestSplice(t *testing.T) {
	cases := []struct {
		name        string
		order       []int64
		src, target int64
		want        []int64
	}{
		{"last before first", []int64{1, 2, 3}, 3, 1, []int64{3, 1, 2}},
		{"first after last", []int64{1, 2, 3}, 1, 3, []int64{2, 3, 1}},
		{"down by one", []int64{1, 2, 3, 4}, 2, 3, []int64{1, 3, 2, 4}},
		{"up by one", []int64{1, 2, 3, 4}, 3, 2, []int64{1, 3, 2, 4}},
		{"self", []int64{1, 2, 3}, 2, 2, []int64{1, 2, 3}},
		{"unknown target", []int64{1, 2, 3}, 2, 9, []int64{1, 2, 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := append([]int64{}, tc.order...)
			assert.Equal(t, tc.want, Splice(in, tc.src, tc.target))
			assert.Equal(t, tc.order, in, "input must not be modified")
		})
	}
}

func TestReorderDropProducesFullOrder(t *testing.T) {
	c := NewController(ModeReorder)
	require.NoError(t, c.Begin(Source{ID: 3, Order: []int64{1, 2, 3}}))
	assert.Equal(t, Dragging, c.State())

	assert.True(t, c.Over(Target{ItemID: 1}))
	assert.Equal(t, []int64{3, 1, 2}, c.Preview())

	in, err := c.Drop(Target{ItemID: 1})
	require.NoError(t, err)
	assert.Equal(t, Dropped, c.State())
	assert.Equal(t, Intent{Mode: ModeReorder, ItemID: 3, IDs: []int64{3, 1, 2}}, in)

	c.End()
	assert.Equal(t, Idle, c.State())
}

func TestReorderDropOnSelfCancels(t *testing.T) {
	c := NewController(ModeReorder)
	require.NoError(t, c.Begin(Source{ID: 2, Order: []int64{1, 2, 3}}))
	assert.False(t, c.Over(Target{ItemID: 2}))
	_, err := c.Drop(Target{ItemID: 2})
	assert.ErrorIs(t, err, ErrNoDrop)
	assert.Equal(t, Cancelled, c.State())
}

func TestDropOutsideAnyTargetCancels(t *testing.T) {
	c := NewController(ModeReorder)
	require.NoError(t, c.Begin(Source{ID: 2, Order: []int64{1, 2, 3}}))
	_, err := c.Drop(Target{})
	assert.ErrorIs(t, err, ErrNoDrop)

	c = NewController(ModeReclassify)
	require.NoError(t, c.Begin(Source{ID: 7, Group: model.StatusTodo}))
	_, err = c.DropOnHover()
	assert.ErrorIs(t, err, ErrNoDrop)
	assert.Equal(t, Cancelled, c.State())
}

func TestReclassifyDrop(t *testing.T) {
	c := NewController(ModeReclassify)
	require.NoError(t, c.Begin(Source{ID: 7, Group: model.StatusTodo}))
	assert.True(t, c.Over(Target{Group: model.StatusDone}))

	in, err := c.DropOnHover()
	require.NoError(t, err)
	assert.Equal(t, Intent{Mode: ModeReclassify, ItemID: 7, Status: model.StatusDone}, in)
	assert.Nil(t, in.IDs)
}

func TestReclassifyRejectsUnknownGroup(t *testing.T) {
	c := NewController(ModeReclassify)
	require.NoError(t, c.Begin(Source{ID: 7, Group: model.StatusTodo}))
	assert.False(t, c.Over(Target{Group: "archive"}))
	_, ok := c.Hover()
	assert.False(t, ok)
}

func TestCancelAndRestart(t *testing.T) {
	c := NewController(ModeReorder)
	require.NoError(t, c.Begin(Source{ID: 1, Order: []int64{1, 2}}))
	assert.Error(t, c.Begin(Source{ID: 2, Order: []int64{1, 2}}))

	c.Over(Target{ItemID: 2})
	c.Cancel()
	assert.Equal(t, Cancelled, c.State())
	assert.Equal(t, int64(0), c.SourceID())

	_, err := c.Drop(Target{ItemID: 2})
	assert.ErrorIs(t, err, ErrNotDragging)

	// a finished gesture does not block the next one
	require.NoError(t, c.Begin(Source{ID: 2, Order: []int64{1, 2}}))
	assert.Equal(t, int64(2), c.SourceID())
}

func TestBeginRequiresRenderedSource(t *testing.T) {
	c := NewController(ModeReorder)
	assert.Error(t, c.Begin(Source{ID: 5, Order: []int64{1, 2}}))
	assert.Equal(t, Idle, c.State())
}

func TestOrderSnapshotIsolatedFromCaller(t *testing.T) {
	order := []int64{1, 2, 3}
	c := NewController(ModeReorder)
	require.NoError(t, c.Begin(Source{ID: 1, Order: order}))
	order[0] = 99
	in, err := c.Drop(Target{ItemID: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 1}, in.IDs)
}
