package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/waypoint/internal/editor"
	"github.com/Makepad-fr/waypoint/internal/model"
	"github.com/Makepad-fr/waypoint/internal/remote"
	"github.com/Makepad-fr/waypoint/internal/syncer"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func startServer(t *testing.T) (*httptest.Server, *remote.Channel) {
	t.Helper()
	srv := httptest.NewServer(New(openTestDB(t), WithLogger(discard())))
	t.Cleanup(srv.Close)
	ch, err := remote.NewChannel(srv.URL, remote.WithLogger(discard()))
	require.NoError(t, err)
	return srv, ch
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var rej *remote.RejectedError
	require.ErrorAs(t, err, &rej)
	return rej.Code
}

func TestTimelineRoundTrip(t *testing.T) {
	_, ch := startServer(t)
	ctx := context.Background()
	tl := syncer.NewTimeline(ch, 1, syncer.WithLogger(discard()))

	_, err := tl.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, tl.Store.IDs())

	tl.Editor.Open(nil, true)
	a, err := tl.Editor.Submit(editor.Fields{Title: "  Retro  ", Comment: "notes"})
	require.NoError(t, err)
	_, err = tl.Do(ctx, a)
	require.NoError(t, err)
	sess, ok := tl.Editor.Session()
	require.True(t, ok)
	assert.NotZero(t, sess.TargetID)

	_, err = tl.Do(ctx, tl.Vocabulary().Reorder([]int64{sess.TargetID, 1, 2, 3, 4}))
	require.NoError(t, err)
	_, err = tl.Do(ctx, tl.Vocabulary().Toggle(2, true))
	require.NoError(t, err)
	local := tl.Store.Items()

	fresh := syncer.NewTimeline(ch, 1, syncer.WithLogger(discard()))
	_, err = fresh.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, local, fresh.Store.Items(), "confirmed local state matches the authority")
	assert.Equal(t, "Retro", fresh.Store.Items()[0].Title)
}

func TestRejections(t *testing.T) {
	_, ch := startServer(t)
	ctx := context.Background()
	ep := remote.RequestCheckpointsPath(1)
	_, err := ch.Send(ctx, ep, remote.TimelineVocabulary.Detail())
	require.NoError(t, err)

	_, err = ch.Send(ctx, ep, remote.TimelineVocabulary.Create("   ", "", false))
	assert.Equal(t, "title_required", codeOf(t, err))

	_, err = ch.Send(ctx, ep, remote.Action{Kind: remote.KindCreate, Name: "explode"})
	assert.Equal(t, "bad_action", codeOf(t, err))

	_, err = ch.Send(ctx, ep, remote.TimelineVocabulary.Delete(999))
	assert.Equal(t, "not_found", codeOf(t, err))

	_, err = ch.Send(ctx, remote.RequestCheckpointsPath(42), remote.TimelineVocabulary.Detail())
	assert.Equal(t, "not_found", codeOf(t, err))

	_, err = ch.Send(ctx, remote.KanbanMovePath, remote.Move(1, "archived"))
	assert.Equal(t, "bad_status", codeOf(t, err))
}

func TestInvalidJSON(t *testing.T) {
	srv, _ := startServer(t)
	resp, err := http.Post(srv.URL+remote.RequestCheckpointsPath(1), "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var res remote.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "invalid_json", res.Error)
}

func TestMutationsNeedCSRF(t *testing.T) {
	srv, _ := startServer(t)
	body := `{"action":"delete","id":1}`
	resp, err := http.Post(srv.URL+remote.RequestCheckpointsPath(1), "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == remote.CSRFCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "the cookie is handed out even on refusal")

	req, err := http.NewRequest(http.MethodPost, srv.URL+remote.RequestCheckpointsPath(1), strings.NewReader(body))
	require.NoError(t, err)
	req.AddCookie(cookie)
	req.Header.Set(remote.CSRFHeader, "wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err = http.NewRequest(http.MethodPost, srv.URL+remote.RequestCheckpointsPath(1), strings.NewReader(body))
	require.NoError(t, err)
	req.AddCookie(cookie)
	req.Header.Set(remote.CSRFHeader, cookie.Value)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBoardMove(t *testing.T) {
	_, ch := startServer(t)
	ctx := context.Background()
	b := syncer.NewBoard(ch, 1, syncer.WithLogger(discard()))
	_, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, b.Store.Len())

	_, err = b.Do(ctx, remote.Move(2, model.StatusReview))
	require.NoError(t, err)

	fresh := syncer.NewBoard(ch, 1, syncer.WithLogger(discard()))
	_, err = fresh.Load(ctx)
	require.NoError(t, err)
	got, ok := fresh.Store.Get(2)
	require.True(t, ok)
	assert.Equal(t, model.StatusReview, got.Status)
}

func TestTaskPanel(t *testing.T) {
	_, ch := startServer(t)
	ctx := context.Background()
	p := syncer.NewTaskPanel(ch, 1, syncer.WithLogger(discard()))
	o, err := p.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, o.Result.Task)
	assert.Equal(t, "Landing layout", o.Result.Task.Title)
	assert.Len(t, o.Result.Chat, 1)
	assert.Equal(t, []int64{5}, p.Store.IDs(), "task checkpoints follow the request ones")

	o, err = p.Do(ctx, p.Vocabulary().Chat("  ready for review "))
	require.NoError(t, err)
	require.NotNil(t, o.Result.Message)
	assert.Equal(t, "ready for review", o.Result.Message.Text)
	assert.Equal(t, "manager", o.Result.Message.Author)

	_, err = p.Do(ctx, p.Vocabulary().Chat(" "))
	assert.Equal(t, "text_required", codeOf(t, err))
}

func TestIndexSetsCookie(t *testing.T) {
	srv, _ := startServer(t)
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Cookies())
}
