package remote

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/waypoint/internal/model"
)

func encode(t *testing.T, a Action) map[string]any {
	t.Helper()
	b, err := json.Marshal(a)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestMovePayloadHasNoActionField(t *testing.T) {
	m := encode(t, Move(7, model.StatusDone))
	assert.Equal(t, map[string]any{"id": float64(7), "status": "done"}, m)
}

func TestTimelineVocabularyPayloads(t *testing.T) {
	v := TimelineVocabulary

	assert.Equal(t, map[string]any{
		"action": "create", "title": "A", "comment": "", "is_done": false,
	}, encode(t, v.Create("A", "", false)))

	assert.Equal(t, map[string]any{
		"action": "update", "id": float64(3), "title": "B", "comment": "c", "is_done": true,
	}, encode(t, v.Update(3, "B", "c", true)))

	assert.Equal(t, map[string]any{
		"action": "checkpoint_update", "id": float64(3), "is_done": true,
	}, encode(t, v.Toggle(3, true)))

	assert.Equal(t, map[string]any{"action": "delete", "id": float64(3)}, encode(t, v.Delete(3)))

	assert.Equal(t, map[string]any{
		"action": "reorder", "ids": []any{float64(3), float64(1), float64(2)},
	}, encode(t, v.Reorder([]int64{3, 1, 2})))
}

func TestReorderWithNoIDsEncodesEmptyList(t *testing.T) {
	m := encode(t, TimelineVocabulary.Reorder(nil))
	assert.Equal(t, []any{}, m["ids"])
}

func TestTaskPanelVocabularyNames(t *testing.T) {
	v := TaskPanelVocabulary
	assert.Equal(t, "checkpoint_create", v.Create("x", "", false).Name)
	assert.Equal(t, "checkpoint_reorder", v.Reorder([]int64{1}).Name)
	assert.Equal(t, "chat_add", v.Chat("hi").Name)
	assert.True(t, v.Supports(KindChat))
	assert.False(t, TimelineVocabulary.Supports(KindChat))
}

func TestReorderCopiesIDs(t *testing.T) {
	ids := []int64{1, 2}
	a := TimelineVocabulary.Reorder(ids)
	ids[0] = 99
	assert.Equal(t, []int64{1, 2}, a.IDs)
}

func TestUnknownKindFailsToEncode(t *testing.T) {
	_, err := json.Marshal(Action{Kind: "bogus"})
	assert.Error(t, err)
}
