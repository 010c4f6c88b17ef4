// Package workflow defines the fixed set of task stages and how tasks are laid
// out on the board. The order only drives column layout and "move forward"
// hints: any permitted actor may move a task to any stage.
package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/taskboard-api/internal/models"
)

const (
	Backlog             models.TaskStatus = "Backlog"
	ReadyForDevelopment models.TaskStatus = "Ready For Development"
	InProgress          models.TaskStatus = "In Progress"
	ReadyForReview      models.TaskStatus = "Ready For Review"
	Reviewed            models.TaskStatus = "Reviewed"
	Impediments         models.TaskStatus = "Impediments"
	Done                models.TaskStatus = "Done"
)

var ErrInvalidStatus = errors.New("invalid task status")

var statuses = []models.TaskStatus{
	Backlog,
	ReadyForDevelopment,
	InProgress,
	ReadyForReview,
	Reviewed,
	Impediments,
	Done,
}

// Statuses returns the stages in board order. The slice is a copy.
func Statuses() []models.TaskStatus {
	out := make([]models.TaskStatus, len(statuses))
	copy(out, statuses)
	return out
}

// Default is the stage of a newly created task.
func Default() models.TaskStatus {
	return Backlog
}

// Index returns the board position of status, or -1 when it is not a stage.
func Index(status models.TaskStatus) int {
	for i, s := range statuses {
		if s == status {
			return i
		}
	}
	return -1
}

func IsValid(status models.TaskStatus) bool {
	return Index(status) >= 0
}

// Validate rejects anything outside the fixed stage list. Matching is exact.
func Validate(status models.TaskStatus) error {
	if !IsValid(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return nil
}

// Normalize resolves the status for a write: blank means Default, anything
// else must be a known stage.
func Normalize(status models.TaskStatus) (models.TaskStatus, error) {
	if strings.TrimSpace(string(status)) == "" {
		return Default(), nil
	}
	if err := Validate(status); err != nil {
		return "", err
	}
	return status, nil
}

// ColumnFor is the display bucket of a stored status. Rows written before
// validation existed may carry unknown values; those show up in Backlog.
func ColumnFor(status models.TaskStatus) models.TaskStatus {
	if IsValid(status) {
		return status
	}
	return Backlog
}

// Next returns the following stage, false at Done or for unknown values.
func Next(status models.TaskStatus) (models.TaskStatus, bool) {
	i := Index(status)
	if i < 0 || i == len(statuses)-1 {
		return "", false
	}
	return statuses[i+1], true
}

// Previous returns the preceding stage, false at Backlog or for unknown values.
func Previous(status models.TaskStatus) (models.TaskStatus, bool) {
	i := Index(status)
	if i <= 0 {
		return "", false
	}
	return statuses[i-1], true
}
