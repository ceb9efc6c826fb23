package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/waypoint/internal/model"
)

type captured struct {
	mu      sync.Mutex
	bodies  []map[string]any
	headers []http.Header
}

func (c *captured) record(r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bodies = append(c.bodies, m)
	c.headers = append(c.headers, r.Header.Clone())
}

func TestSendAttachesTokenFromCookie(t *testing.T) {
	var got captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.record(r)
		http.SetCookie(w, &http.Cookie{Name: CSRFCookieName, Value: "tok123", Path: "/"})
		_, _ = io.WriteString(w, `{"ok":true,"checkpoint":{"id":9,"title":"A","comment":"","is_done":false,"order":4}}`)
	}))
	defer srv.Close()

	ch, err := NewChannel(srv.URL)
	require.NoError(t, err)

	// first call: no cookie yet, request still goes out with an empty token
	res, err := ch.Send(context.Background(), RequestCheckpointsPath(1), TimelineVocabulary.Create("A", "", false))
	require.NoError(t, err)
	require.True(t, res.OK)
	require.NotNil(t, res.Checkpoint)
	assert.Equal(t, int64(9), res.Checkpoint.ID)
	assert.Equal(t, 4, res.Checkpoint.OrderValue())

	_, err = ch.Send(context.Background(), RequestCheckpointsPath(1), TimelineVocabulary.Delete(9))
	require.NoError(t, err)

	require.Len(t, got.headers, 2)
	assert.Equal(t, "", got.headers[0].Get(CSRFHeader))
	assert.Equal(t, "tok123", got.headers[1].Get(CSRFHeader))
	assert.Equal(t, "application/json", got.headers[1].Get("Content-Type"))
	assert.NotEmpty(t, got.headers[1].Get("X-Request-ID"))
	assert.Equal(t, "delete", got.bodies[1]["action"])
}

func TestSendOverrideToken(t *testing.T) {
	var got captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.record(r)
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	ch, err := NewChannel(srv.URL, WithTokenSource(CookieTokenSource{Override: " fixed "}))
	require.NoError(t, err)
	_, err = ch.Send(context.Background(), KanbanMovePath, Move(7, model.StatusDone))
	require.NoError(t, err)
	assert.Equal(t, "fixed", got.headers[0].Get(CSRFHeader))
	assert.Equal(t, map[string]any{"id": float64(7), "status": "done"}, got.bodies[0])
}

func TestSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error":"title_required"}`)
	}))
	defer srv.Close()

	ch, err := NewChannel(srv.URL)
	require.NoError(t, err)
	res, err := ch.Send(context.Background(), "/x/", TimelineVocabulary.Create("", "", false))
	require.Error(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "title_required", res.Error)
	assert.True(t, errors.Is(err, ErrRejected))

	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, http.StatusBadRequest, rej.Status)
	assert.Equal(t, "create", rej.Action)
}

func TestSendUnparsableResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "<html>forbidden</html>")
	}))
	defer srv.Close()

	ch, err := NewChannel(srv.URL)
	require.NoError(t, err)
	res, err := ch.Send(context.Background(), "/x/", TimelineVocabulary.Delete(1))
	require.Error(t, err)
	assert.False(t, res.OK)
	assert.False(t, errors.Is(err, ErrRejected))
}

func TestSendTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	ch, err := NewChannel(url)
	require.NoError(t, err)
	res, err := ch.Send(context.Background(), "/x/", TimelineVocabulary.Delete(1))
	require.Error(t, err)
	assert.False(t, res.OK)
}

func TestNewChannelRequiresAbsoluteURL(t *testing.T) {
	_, err := NewChannel("localhost:8080")
	assert.Error(t, err)
	_, err = NewChannel("/relative")
	assert.Error(t, err)
}

func TestTimeoutAppliesToSuppliedClient(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()
	defer close(release)

	ch, err := NewChannel(srv.URL, WithTimeout(50*time.Millisecond), WithHTTPClient(&http.Client{}))
	require.NoError(t, err)
	res, err := ch.Send(context.Background(), RequestCheckpointsPath(1), TimelineVocabulary.Detail())
	require.Error(t, err)
	assert.False(t, res.OK)
}
