package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/waypoint/internal/model"
	"github.com/Makepad-fr/waypoint/internal/remote"
)

func TestOpenNewSubmitCreatesThenUpdates(t *testing.T) {
	p := NewPanel(remote.TimelineVocabulary)
	p.Open(nil, false)

	s, ok := p.Session()
	require.True(t, ok)
	assert.True(t, s.IsNew())
	assert.True(t, s.Editing, "new items always show the edit affordance")

	a, err := p.Submit(Fields{Title: "A"})
	require.NoError(t, err)
	assert.Equal(t, remote.KindCreate, a.Kind)
	assert.Equal(t, "create", a.Name)

	p.Confirm(a, remote.Result{OK: true, Checkpoint: &model.Item{ID: 9, Title: "A", Order: model.IntPtr(4)}})
	s, _ = p.Session()
	assert.Equal(t, int64(9), s.TargetID)

	a, err = p.Submit(Fields{Title: "A2"})
	require.NoError(t, err)
	assert.Equal(t, remote.KindUpdate, a.Kind)
	assert.Equal(t, int64(9), a.ID)
}

func TestFailedCreateKeepsNewSession(t *testing.T) {
	p := NewPanel(remote.TimelineVocabulary)
	p.Open(nil, true)
	a, err := p.Submit(Fields{Title: "A"})
	require.NoError(t, err)

	p.Confirm(a, remote.Result{OK: false})
	s, _ := p.Session()
	assert.True(t, s.IsNew())
}

func TestSubmitValidation(t *testing.T) {
	p := NewPanel(remote.TimelineVocabulary)
	_, err := p.Submit(Fields{Title: "x"})
	assert.ErrorIs(t, err, ErrNoSession)

	p.Open(nil, true)
	_, err = p.Submit(Fields{Title: "   "})
	assert.ErrorIs(t, err, ErrEmptyTitle)

	a, err := p.Submit(Fields{Title: "  padded ", Comment: " c "})
	require.NoError(t, err)
	assert.Equal(t, "padded", a.Title)
	assert.Equal(t, "c", a.Comment)
}

func TestOpenExistingViewMode(t *testing.T) {
	p := NewPanel(remote.TimelineVocabulary)
	it := model.Item{ID: 3, Title: "t", Comment: "c", IsDone: true}
	p.Open(&it, false)
	s, _ := p.Session()
	assert.False(t, s.Editing)
	assert.Equal(t, Fields{Title: "t", Comment: "c", IsDone: true}, s.Fields)

	p.SetEditing(true)
	s, _ = p.Session()
	assert.True(t, s.Editing)
}

func TestSessionFieldsOnlyChangeOnConfirm(t *testing.T) {
	p := NewPanel(remote.TimelineVocabulary)
	it := model.Item{ID: 3, Title: "old"}
	p.Open(&it, true)

	a, err := p.Submit(Fields{Title: "new"})
	require.NoError(t, err)
	s, _ := p.Session()
	assert.Equal(t, "old", s.Fields.Title)

	p.Confirm(a, remote.Result{OK: true})
	s, _ = p.Session()
	assert.Equal(t, "new", s.Fields.Title)
}

func TestDelete(t *testing.T) {
	p := NewPanel(remote.TimelineVocabulary)
	p.Open(nil, true)
	_, ok := p.Delete()
	assert.False(t, ok)
	assert.False(t, p.Active())

	it := model.Item{ID: 4, Title: "x"}
	p.Open(&it, false)
	a, ok := p.Delete()
	require.True(t, ok)
	assert.Equal(t, remote.KindDelete, a.Kind)
	assert.True(t, p.Active(), "stays open until the delete is confirmed")

	p.Confirm(a, remote.Result{OK: true})
	assert.False(t, p.Active())
}

func TestToggle(t *testing.T) {
	p := NewPanel(remote.TimelineVocabulary)
	p.Open(nil, true)
	_, err := p.Toggle()
	assert.ErrorIs(t, err, ErrUnsaved)

	it := model.Item{ID: 4, Title: "x"}
	p.Open(&it, false)
	a, err := p.Toggle()
	require.NoError(t, err)
	assert.Equal(t, "checkpoint_update", a.Name)
	assert.True(t, a.IsDone)

	p.Confirm(a, remote.Result{OK: true})
	s, _ := p.Session()
	assert.True(t, s.Fields.IsDone)
}

func TestSyncFollowsStoreAndClosesOnRemoval(t *testing.T) {
	p := NewPanel(remote.TimelineVocabulary)
	it := model.Item{ID: 4, Title: "x"}
	p.Open(&it, false)

	p.Sync([]model.Item{{ID: 4, Title: "server"}})
	s, _ := p.Session()
	assert.Equal(t, "server", s.Fields.Title)

	p.Sync([]model.Item{{ID: 5}})
	assert.False(t, p.Active())
}
