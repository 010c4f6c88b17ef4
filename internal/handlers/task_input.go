package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/services"
)

var errInvalidTaskBody = errors.New("invalid task body")

// taskFieldAliases maps accepted body keys to the canonical field. The
// short forms are what older clients send.
var taskFieldAliases = map[string]string{
	"title":       "title",
	"description": "description",
	"desc":        "description",
	"status":      "status",
	"due_date":    "due_date",
	"due":         "due_date",
	"dueDate":     "due_date",
	"assignee_id": "assignee_id",
	"assigneeId":  "assignee_id",
}

const dateOnlyLayout = "2006-01-02"

// parseDueDate accepts RFC 3339 timestamps and plain dates.
func parseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnlyLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: due_date must be RFC 3339 or YYYY-MM-DD", errInvalidTaskBody)
	}
	return t, nil
}

// parseAssigneeID accepts a number or a numeric string.
func parseAssigneeID(raw json.RawMessage) (uint64, error) {
	var n uint64
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64); err == nil && n > 0 {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: assignee_id must be a user id", errInvalidTaskBody)
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func decodeString(raw json.RawMessage, field string) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s must be a string", errInvalidTaskBody, field)
	}
	return s, nil
}

// parseTaskChanges turns a JSON object into a partial update, keeping track
// of which fields were sent and which were explicitly null. Unknown keys are
// ignored.
func parseTaskChanges(body map[string]json.RawMessage) (services.TaskChanges, error) {
	var changes services.TaskChanges

	for key, raw := range body {
		field, known := taskFieldAliases[key]
		if !known {
			continue
		}

		switch field {
		case "title":
			s, err := decodeString(raw, field)
			if err != nil {
				return changes, err
			}
			changes.Title = &s
		case "description":
			if isNull(raw) {
				empty := ""
				changes.Description = &empty
				continue
			}
			s, err := decodeString(raw, field)
			if err != nil {
				return changes, err
			}
			changes.Description = &s
		case "status":
			s, err := decodeString(raw, field)
			if err != nil {
				return changes, err
			}
			status := models.TaskStatus(s)
			changes.Status = &status
		case "due_date":
			if isNull(raw) {
				changes.ClearDueDate = true
				continue
			}
			s, err := decodeString(raw, field)
			if err != nil {
				return changes, err
			}
			if strings.TrimSpace(s) == "" {
				changes.ClearDueDate = true
				continue
			}
			due, err := parseDueDate(s)
			if err != nil {
				return changes, err
			}
			changes.DueDate = &due
		case "assignee_id":
			if isNull(raw) || strings.TrimSpace(string(raw)) == `""` {
				changes.ClearAssignee = true
				continue
			}
			id, err := parseAssigneeID(raw)
			if err != nil {
				return changes, err
			}
			changes.AssigneeID = &id
		}
	}

	return changes, nil
}

// toCreateInput reuses the partial-update parser for creation. Clearing
// fields means leaving them empty.
func toCreateInput(changes services.TaskChanges) services.CreateTaskInput {
	input := services.CreateTaskInput{
		DueDate:    changes.DueDate,
		AssigneeID: changes.AssigneeID,
	}
	if changes.Title != nil {
		input.Title = *changes.Title
	}
	if changes.Description != nil {
		input.Description = *changes.Description
	}
	if changes.Status != nil {
		input.Status = *changes.Status
	}
	return input
}
