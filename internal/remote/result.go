package remote

import "github.com/Makepad-fr/waypoint/internal/model"

// Result is the decoded response of any action. Which fields are set
// depends on the action; OK is always present.
type Result struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	Checkpoint  *model.Item         `json:"checkpoint,omitempty"`
	Checkpoints []model.Item        `json:"checkpoints,omitempty"`
	Tasks       []model.Item        `json:"tasks,omitempty"`
	Task        *model.TaskDetail   `json:"task,omitempty"`
	Chat        []model.ChatMessage `json:"chat,omitempty"`
	Message     *model.ChatMessage  `json:"message,omitempty"`
}

// Items returns whichever collection the result carries.
func (r Result) Items() []model.Item {
	if r.Tasks != nil {
		return r.Tasks
	}
	return r.Checkpoints
}
