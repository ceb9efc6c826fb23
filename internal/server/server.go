// Package server is a small reference authority for the checkpoint and
// kanban endpoints, backed by SQLite.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Makepad-fr/waypoint/internal/model"
	"github.com/Makepad-fr/waypoint/internal/remote"
)

const maxBody = 1 << 20

// Server routes the JSON action endpoints.
type Server struct {
	db     *DB
	logger *slog.Logger
	author string
	mux    *http.ServeMux
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// WithAuthor names the user chat messages are attributed to.
func WithAuthor(name string) Option { return func(s *Server) { s.author = name } }

func New(db *DB, opts ...Option) *Server {
	s := &Server{db: db, logger: slog.Default(), author: "manager", mux: http.NewServeMux()}
	for _, o := range opts {
		o(s)
	}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /requests/{id}/checkpoints/", s.handleRequestCheckpoints)
	s.mux.HandleFunc("POST /tasks/{id}/panel/", s.handleTaskPanel)
	s.mux.HandleFunc("POST /projects/{id}/board/", s.handleBoard)
	s.mux.HandleFunc("POST "+remote.KanbanMovePath, s.handleKanbanMove)
	return s
}

// ServeHTTP makes sure every client holds a CSRF cookie before routing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(remote.CSRFCookieName); err != nil || c.Value == "" {
		http.SetCookie(w, &http.Cookie{
			Name:     remote.CSRFCookieName,
			Value:    strings.ReplaceAll(uuid.NewString(), "-", ""),
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
		})
	}
	s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "request_id", r.Header.Get("X-Request-ID"))
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// payload is the union of every action's fields. Pointers tell absent
// from empty.
type payload struct {
	Action  string          `json:"action"`
	ID      json.RawMessage `json:"id"`
	Title   *string         `json:"title"`
	Comment *string         `json:"comment"`
	IsDone  *bool           `json:"is_done"`
	IDs     json.RawMessage `json:"ids"`
	Status  string          `json:"status"`
	Text    *string         `json:"text"`
}

func decode(r *http.Request) (payload, error) {
	var p payload
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return p, err
	}
	return p, nil
}

// id accepts a JSON number or a numeric string.
func (p payload) id() (int64, bool) {
	raw := strings.Trim(strings.TrimSpace(string(p.ID)), `"`)
	n, err := strconv.ParseInt(raw, 10, 64)
	return n, err == nil
}

// ids returns the reorder list; absent or null means empty.
func (p payload) ids() ([]int64, bool) {
	if len(p.IDs) == 0 || string(p.IDs) == "null" {
		return []int64{}, true
	}
	var ids []int64
	if err := json.Unmarshal(p.IDs, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// csrfOK checks the double-submit token: the header must echo the cookie.
func csrfOK(r *http.Request) bool {
	c, err := r.Cookie(remote.CSRFCookieName)
	if err != nil || c.Value == "" {
		return false
	}
	h := r.Header.Get(remote.CSRFHeader)
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(h)) == 1
}

func pathID(r *http.Request) (int64, bool) {
	n, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return n, err == nil
}

func (s *Server) handleRequestCheckpoints(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		fail(w, http.StatusNotFound, "not_found")
		return
	}
	s.checkpoints(w, r, RequestOwner(id), checkpointVerbs{
		detail: "detail", create: "create", update: "update",
		toggle: "checkpoint_update", delete: "delete", reorder: "reorder",
	}, "")
}

func (s *Server) handleTaskPanel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		fail(w, http.StatusNotFound, "not_found")
		return
	}
	s.checkpoints(w, r, TaskOwner(id), checkpointVerbs{
		detail: "detail", create: "checkpoint_create", update: "checkpoint_update",
		delete: "checkpoint_delete", reorder: "checkpoint_reorder", chat: "chat_add",
	}, "detail")
}

// checkpointVerbs maps an endpoint's action names onto operations. An
// empty name is not served.
type checkpointVerbs struct {
	detail, create, update, toggle, delete, reorder, chat string
}

func (s *Server) checkpoints(w http.ResponseWriter, r *http.Request, o Owner, v checkpointVerbs, fallback string) {
	ctx := r.Context()
	if ok, err := s.db.OwnerExists(ctx, o); err != nil {
		s.internal(w, err)
		return
	} else if !ok {
		fail(w, http.StatusNotFound, "not_found")
		return
	}
	p, err := decode(r)
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid_json")
		return
	}
	action := p.Action
	if action == "" {
		action = fallback
	}
	if action != v.detail && !csrfOK(r) {
		fail(w, http.StatusForbidden, "csrf_failed")
		return
	}

	switch {
	case action == "":
		// answered as bad_action below
	case action == v.detail:
		s.detail(ctx, w, o)
		return
	case action == v.create:
		title := trimmed(p.Title)
		if title == "" {
			fail(w, http.StatusBadRequest, "title_required")
			return
		}
		cp, err := s.db.CreateCheckpoint(ctx, o, title, trimmed(p.Comment))
		if err != nil {
			s.internal(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "checkpoint": cp})
		return
	case action == v.update || action == v.toggle:
		id, ok := p.id()
		if !ok {
			fail(w, http.StatusNotFound, "not_found")
			return
		}
		patch := Patch{IsDone: p.IsDone}
		if p.Title != nil {
			t := trimmed(p.Title)
			patch.Title = &t
		}
		if p.Comment != nil {
			c := trimmed(p.Comment)
			patch.Comment = &c
		}
		s.done(w, s.db.UpdateCheckpoint(ctx, o, id, patch))
		return
	case action == v.delete:
		id, ok := p.id()
		if !ok {
			fail(w, http.StatusNotFound, "not_found")
			return
		}
		s.done(w, s.db.DeleteCheckpoint(ctx, o, id))
		return
	case action == v.reorder:
		ids, ok := p.ids()
		if !ok {
			fail(w, http.StatusBadRequest, "ids_list_required")
			return
		}
		s.done(w, s.db.ReorderCheckpoints(ctx, o, ids))
		return
	case action == v.chat:
		text := trimmed(p.Text)
		if text == "" {
			fail(w, http.StatusBadRequest, "text_required")
			return
		}
		m, err := s.db.AddMessage(ctx, o.ID, s.author, text)
		if err != nil {
			s.internal(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": m})
		return
	}
	fail(w, http.StatusBadRequest, "bad_action")
}

func (s *Server) detail(ctx context.Context, w http.ResponseWriter, o Owner) {
	cps, err := s.db.Checkpoints(ctx, o)
	if err != nil {
		s.internal(w, err)
		return
	}
	out := map[string]any{"ok": true, "checkpoints": cps}
	if o.Kind == OwnerTask {
		t, err := s.db.Task(ctx, o.ID)
		if err != nil {
			s.internal(w, err)
			return
		}
		chat, err := s.db.Chat(ctx, o.ID)
		if err != nil {
			s.internal(w, err)
			return
		}
		out["task"], out["chat"] = t, chat
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(r)
	if !ok {
		fail(w, http.StatusNotFound, "not_found")
		return
	}
	if ok, err := s.db.ProjectExists(ctx, id); err != nil {
		s.internal(w, err)
		return
	} else if !ok {
		fail(w, http.StatusNotFound, "not_found")
		return
	}
	p, err := decode(r)
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if p.Action != "" && p.Action != "detail" {
		fail(w, http.StatusBadRequest, "bad_action")
		return
	}
	tasks, err := s.db.Tasks(ctx, id)
	if err != nil {
		s.internal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "tasks": tasks})
}

func (s *Server) handleKanbanMove(w http.ResponseWriter, r *http.Request) {
	if !csrfOK(r) {
		fail(w, http.StatusForbidden, "csrf_failed")
		return
	}
	p, err := decode(r)
	id, ok := p.id()
	if err != nil || !ok {
		fail(w, http.StatusBadRequest, "invalid_payload")
		return
	}
	status := model.Status(p.Status)
	if !status.Valid() {
		fail(w, http.StatusBadRequest, "bad_status")
		return
	}
	s.done(w, s.db.MoveTask(r.Context(), id, status))
}

func (s *Server) done(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	case errors.Is(err, ErrNotFound):
		fail(w, http.StatusNotFound, "not_found")
	default:
		s.internal(w, err)
	}
}

func (s *Server) internal(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "error", err)
	fail(w, http.StatusInternalServerError, "internal")
}

func fail(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
