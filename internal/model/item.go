package model

import (
	"encoding/json"
	"sort"
	"time"
)

// Status is the kanban column an item belongs to.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Statuses lists the board columns left to right.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone}

// Valid reports whether s is one of the known board columns.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Label is the human-readable column header.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To do"
	case StatusInProgress:
		return "In progress"
	case StatusReview:
		return "Review"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// Item is a checkpoint on a timeline or a card on a kanban board.
// IDs are assigned by the remote authority; zero means "not saved yet".
type Item struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
	IsDone  bool   `json:"is_done"`
	Status  Status `json:"status,omitempty"`
	Order   *int   `json:"order,omitempty"`
}

// UnmarshalJSON accepts "description" as an alias of "comment"; board tasks
// carry a description rather than a comment.
func (it *Item) UnmarshalJSON(b []byte) error {
	type plain Item
	aux := struct {
		*plain
		Description *string `json:"description"`
	}{plain: (*plain)(it)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if it.Comment == "" && aux.Description != nil {
		it.Comment = *aux.Description
	}
	return nil
}

// OrderValue returns the order field, treating a missing order as 0.
func (it Item) OrderValue() int {
	if it.Order == nil {
		return 0
	}
	return *it.Order
}

// Less orders items by (order, id) ascending.
func Less(a, b Item) bool {
	oa, ob := a.OrderValue(), b.OrderValue()
	if oa != ob {
		return oa < ob
	}
	return a.ID < b.ID
}

// SortItems sorts in place by sort key.
func SortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool { return Less(items[i], items[j]) })
}

// IntPtr is a small helper for literal orders.
func IntPtr(v int) *int { return &v }

// ChatMessage is one entry of a task's discussion.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Author    string    `json:"author__username"`
}

// TaskDetail is the read-only header of the task panel.
type TaskDetail struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Status        Status  `json:"status"`
	StatusLabel   string  `json:"status_label"`
	TaskType      string  `json:"task_type"`
	TaskTypeLabel string  `json:"task_type_label"`
	StoryPoints   int     `json:"story_points"`
	Assignee      *string `json:"assignee"`
	CreatedBy     *string `json:"created_by"`
	DueDate       *string `json:"due_date"`
	ProjectID     int64   `json:"project_id"`
}
