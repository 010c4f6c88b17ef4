package workflow

import "github.com/yukikurage/taskboard-api/internal/models"

// Column is one stage of the board with the tasks currently in it.
type Column struct {
	Status models.TaskStatus
	Tasks  []models.Task
}

// Board groups tasks into the stage columns, in stage order. Every stage is
// present even when empty, and tasks keep their relative input order.
func Board(tasks []models.Task) []Column {
	columns := make([]Column, len(statuses))
	for i, s := range statuses {
		columns[i] = Column{Status: s, Tasks: []models.Task{}}
	}

	for _, task := range tasks {
		i := Index(ColumnFor(task.Status))
		columns[i].Tasks = append(columns[i].Tasks, task)
	}

	return columns
}
