package remote

import "fmt"

// KanbanMovePath is the single endpoint every board move is posted to.
const KanbanMovePath = "/kanban/move/"

func RequestCheckpointsPath(requestID int64) string {
	return fmt.Sprintf("/requests/%d/checkpoints/", requestID)
}

func TaskPanelPath(taskID int64) string {
	return fmt.Sprintf("/tasks/%d/panel/", taskID)
}

func BoardPath(projectID int64) string {
	return fmt.Sprintf("/projects/%d/board/", projectID)
}
