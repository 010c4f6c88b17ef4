package dto

import (
	"time"

	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/policy"
	"github.com/yukikurage/taskboard-api/internal/utils"
	"github.com/yukikurage/taskboard-api/internal/workflow"
)

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID        uint64    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  uint64    `json:"author_id"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	DueDate     *time.Time          `json:"due_date"`
	AssigneeID  *uint64             `json:"assignee_id"`
	Assignee    *UserSummaryDTO     `json:"assignee,omitempty"`
	CreatedBy   uint64              `json:"created_by"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Comments    []CommentDTO        `json:"comments"`
	Permissions *policy.Permissions `json:"permissions,omitempty"`
	NextStatus  *models.TaskStatus  `json:"next_status,omitempty"`
	PrevStatus  *models.TaskStatus  `json:"previous_status,omitempty"`
}

// TaskListItemDTO represents a task in list responses (no comments)
type TaskListItemDTO struct {
	ID          uint64            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      models.TaskStatus `json:"status"`
	DueDate     *time.Time        `json:"due_date"`
	AssigneeID  *uint64           `json:"assignee_id"`
	Assignee    *UserSummaryDTO   `json:"assignee,omitempty"`
	CreatedBy   uint64            `json:"created_by"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskListItemDTO        `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// BoardColumnDTO is one workflow column of the board
type BoardColumnDTO struct {
	Status models.TaskStatus `json:"status"`
	Tasks  []TaskListItemDTO `json:"tasks"`
}

func toCommentDTOs(comments []models.Comment) []CommentDTO {
	out := make([]CommentDTO, len(comments))
	for i, c := range comments {
		out[i] = CommentDTO{
			ID:        c.ID,
			Text:      c.Text,
			AuthorID:  c.AuthorID,
			Author:    c.AuthorName,
			Timestamp: c.CreatedAt,
		}
	}
	return out
}

func assigneeOf(task models.Task) *UserSummaryDTO {
	if task.Assignee == nil || task.Assignee.ID == 0 {
		return nil
	}
	summary := ToUserSummaryDTO(*task.Assignee)
	return &summary
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		DueDate:     task.DueDate,
		AssigneeID:  task.AssigneeID,
		Assignee:    assigneeOf(task),
		CreatedBy:   task.CreatedBy,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		Comments:    toCommentDTOs(task.Comments),
	}
}

// ToTaskDetailDTO adds the caller's permissions so clients can show or hide
// actions. The server still enforces every operation.
func ToTaskDetailDTO(task models.Task, caller policy.Caller) TaskDTO {
	out := ToTaskDTO(task)
	perms := policy.Evaluate(caller, task.AssigneeID)
	out.Permissions = &perms
	if perms.ChangeStatus {
		if next, ok := workflow.Next(task.Status); ok {
			out.NextStatus = &next
		}
		if prev, ok := workflow.Previous(task.Status); ok {
			out.PrevStatus = &prev
		}
	}
	return out
}

// ToTaskListItemDTO converts a Task model to TaskListItemDTO
func ToTaskListItemDTO(task models.Task) TaskListItemDTO {
	return TaskListItemDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		DueDate:     task.DueDate,
		AssigneeID:  task.AssigneeID,
		Assignee:    assigneeOf(task),
		CreatedBy:   task.CreatedBy,
		CreatedAt:   task.CreatedAt,
	}
}

func toTaskListItems(tasks []models.Task) []TaskListItemDTO {
	items := make([]TaskListItemDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskListItemDTO(task)
	}
	return items
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, totalCount int64) TaskListResponse {
	return TaskListResponse{
		Tasks:      toTaskListItems(tasks),
		Pagination: utils.NewPaginationResponse(params, totalCount),
	}
}

// ToBoardDTO converts workflow columns, keeping their order
func ToBoardDTO(columns []workflow.Column) []BoardColumnDTO {
	out := make([]BoardColumnDTO, len(columns))
	for i, col := range columns {
		out[i] = BoardColumnDTO{
			Status: col.Status,
			Tasks:  toTaskListItems(col.Tasks),
		}
	}
	return out
}
