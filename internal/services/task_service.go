package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/policy"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/workflow"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTitleRequired          = errors.New("title is required")
	ErrTitleEmpty             = errors.New("title cannot be empty")
	ErrCommentTextRequired    = errors.New("comment text is required")
	ErrAssigneeNotFound       = errors.New("assignee does not exist")
	ErrNoChanges              = errors.New("no fields to update")
	ErrDraftTextRequired      = errors.New("text is required")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
	ErrAIGenerationFailed     = errors.New("failed to generate tasks")
)

// taskDetail is what a single task response carries.
var taskDetail = []string{"Assignee", "Comments"}

// TaskService handles task business logic. Every mutation re-reads the
// stored task and asks the policy engine before writing.
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	drafter  TaskDrafter
	now      func() time.Time
}

// NewTaskService creates a new TaskService. drafter may be nil when AI
// drafting is not configured.
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, drafter TaskDrafter) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		drafter:  drafter,
		now:      time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status        *models.TaskStatus
	AssigneeID    *uint64
	Unassigned    bool
	Search        string
	Overdue       bool
	SortByDueDate bool
	Page          int
	PageSize      int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	DueDate     *time.Time
	AssigneeID  *uint64
}

// TaskChanges holds a partial update. Nil fields are left as stored; the
// Clear flags write NULL.
type TaskChanges struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	DueDate       *time.Time
	ClearDueDate  bool
	AssigneeID    *uint64
	ClearAssignee bool
}

func (c TaskChanges) touchesEditFields() bool {
	return c.Title != nil || c.Description != nil ||
		c.DueDate != nil || c.ClearDueDate ||
		c.AssigneeID != nil || c.ClearAssignee
}

// Empty reports whether the changes would leave the task untouched.
func (c TaskChanges) Empty() bool {
	return c.Status == nil && !c.touchesEditFields()
}

// RequiredOperation is the permission needed to apply the changes. A change
// of status alone is a move on the board; anything else is a full edit.
func (c TaskChanges) RequiredOperation() policy.Operation {
	if c.Status != nil && !c.touchesEditFields() {
		return policy.OpChangeStatus
	}
	return policy.OpEdit
}

// StatusTotal is the number of visible tasks in one workflow column.
type StatusTotal struct {
	Status models.TaskStatus `json:"status"`
	Count  int64             `json:"count"`
}

// AssigneeTotal is the number of visible tasks held by one assignee; a nil
// AssigneeID is the unassigned bucket.
type AssigneeTotal struct {
	AssigneeID *uint64 `json:"assignee_id"`
	Name       string  `json:"name"`
	Count      int64   `json:"count"`
}

// TaskStats summarises the tasks a caller can see.
type TaskStats struct {
	Total      int64           `json:"total"`
	ByStatus   []StatusTotal   `json:"by_status"`
	ByAssignee []AssigneeTotal `json:"by_assignee"`
}

// visibility scopes a filter to what caller may view.
func visibility(caller policy.Caller, filter repository.TaskFilter) (repository.TaskFilter, error) {
	if !caller.Authenticated {
		return filter, policy.ErrUnauthenticated
	}
	if !policy.SeesAllTasks(caller) {
		id := caller.ID
		filter.VisibleTo = &id
	}
	return filter, nil
}

func (s *TaskService) startOfToday() time.Time {
	now := s.now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// ListTasks retrieves the tasks visible to caller
func (s *TaskService) ListTasks(caller policy.Caller, input ListTasksInput) ([]models.Task, int64, error) {
	if input.Status != nil {
		if err := workflow.Validate(*input.Status); err != nil {
			return nil, 0, err
		}
	}

	filter := repository.TaskFilter{
		Status:        input.Status,
		AssigneeID:    input.AssigneeID,
		Unassigned:    input.Unassigned,
		Search:        strings.TrimSpace(input.Search),
		SortByDueDate: input.SortByDueDate,
		Page:          input.Page,
		PageSize:      input.PageSize,
	}
	if input.Overdue {
		today := s.startOfToday()
		filter.DueBefore = &today
	}

	filter, err := visibility(caller, filter)
	if err != nil {
		return nil, 0, err
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// Board groups the tasks visible to caller into workflow columns
func (s *TaskService) Board(caller policy.Caller) ([]workflow.Column, error) {
	filter, err := visibility(caller, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}

	tasks, _, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return workflow.Board(policy.FilterVisible(caller, tasks)), nil
}

// Stats counts the tasks visible to caller per column and per assignee
func (s *TaskService) Stats(caller policy.Caller) (*TaskStats, error) {
	filter, err := visibility(caller, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}

	statusCounts, err := s.taskRepo.CountByStatus(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by status: %w", err)
	}

	perColumn := make(map[models.TaskStatus]int64, len(statusCounts))
	stats := &TaskStats{}
	for _, sc := range statusCounts {
		perColumn[workflow.ColumnFor(sc.Status)] += sc.Count
		stats.Total += sc.Count
	}
	for _, status := range workflow.Statuses() {
		stats.ByStatus = append(stats.ByStatus, StatusTotal{Status: status, Count: perColumn[status]})
	}

	assigneeCounts, err := s.taskRepo.CountByAssignee(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by assignee: %w", err)
	}

	users, err := s.userRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	names := make(map[uint64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	stats.ByAssignee = make([]AssigneeTotal, 0, len(assigneeCounts))
	for _, ac := range assigneeCounts {
		total := AssigneeTotal{AssigneeID: ac.AssigneeID, Count: ac.Count}
		if ac.AssigneeID == nil {
			total.Name = "Unassigned"
		} else if name, ok := names[*ac.AssigneeID]; ok {
			total.Name = name
		} else {
			total.Name = fmt.Sprintf("User #%d", *ac.AssigneeID)
		}
		stats.ByAssignee = append(stats.ByAssignee, total)
	}

	return stats, nil
}

func (s *TaskService) findTask(id uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(id, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// GetTask retrieves a task with its assignee and comments
func (s *TaskService) GetTask(id uint64) (*models.Task, error) {
	return s.findTask(id, taskDetail...)
}

// GetTaskForCaller retrieves a task and checks that caller may view it
func (s *TaskService) GetTaskForCaller(caller policy.Caller, id uint64) (*models.Task, error) {
	if !caller.Authenticated {
		return nil, policy.ErrUnauthenticated
	}
	task, err := s.GetTask(id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(caller, policy.OpView, task.AssigneeID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) ensureAssignee(id *uint64) error {
	if id == nil {
		return nil
	}
	if _, err := s.userRepo.FindByID(*id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssigneeNotFound
		}
		return fmt.Errorf("failed to find assignee: %w", err)
	}
	return nil
}

// CreateTask creates a task owned by caller
func (s *TaskService) CreateTask(caller policy.Caller, input CreateTaskInput) (*models.Task, error) {
	if err := policy.Authorize(caller, policy.OpCreate, nil); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	status, err := workflow.Normalize(input.Status)
	if err != nil {
		return nil, err
	}

	if err := s.ensureAssignee(input.AssigneeID); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		Status:      status,
		DueDate:     input.DueDate,
		AssigneeID:  input.AssigneeID,
		CreatedBy:   caller.ID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.GetTask(task.ID)
}

// ReplaceTask applies a full edit. Any change through it needs edit rights,
// even one that only touches the status.
func (s *TaskService) ReplaceTask(caller policy.Caller, id uint64, changes TaskChanges) (*models.Task, error) {
	return s.applyChanges(caller, id, changes, policy.OpEdit)
}

// PatchTask applies a partial update. A status-only body is a board move and
// needs the status permission; anything else needs edit rights.
func (s *TaskService) PatchTask(caller policy.Caller, id uint64, changes TaskChanges) (*models.Task, error) {
	return s.applyChanges(caller, id, changes, changes.RequiredOperation())
}

func (s *TaskService) applyChanges(caller policy.Caller, id uint64, changes TaskChanges, op policy.Operation) (*models.Task, error) {
	if !caller.Authenticated {
		return nil, policy.ErrUnauthenticated
	}

	task, err := s.findTask(id)
	if err != nil {
		return nil, err
	}

	// The stored assignee decides, never the one in the request.
	if err := policy.Authorize(caller, op, task.AssigneeID); err != nil {
		return nil, err
	}

	if changes.Empty() {
		return nil, ErrNoChanges
	}

	if changes.Title != nil {
		title := strings.TrimSpace(*changes.Title)
		if title == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = title
	}
	if changes.Description != nil {
		task.Description = *changes.Description
	}
	if changes.Status != nil {
		if err := workflow.Validate(*changes.Status); err != nil {
			return nil, err
		}
		task.Status = *changes.Status
	}
	if changes.ClearDueDate {
		task.DueDate = nil
	} else if changes.DueDate != nil {
		task.DueDate = changes.DueDate
	}
	if changes.ClearAssignee {
		task.AssigneeID = nil
	} else if changes.AssigneeID != nil {
		if err := s.ensureAssignee(changes.AssigneeID); err != nil {
			return nil, err
		}
		task.AssigneeID = changes.AssigneeID
	}

	if err := s.taskRepo.Update(task); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.GetTask(task.ID)
}

// DeleteTask soft deletes a task
func (s *TaskService) DeleteTask(caller policy.Caller, id uint64) error {
	if !caller.Authenticated {
		return policy.ErrUnauthenticated
	}

	task, err := s.findTask(id)
	if err != nil {
		return err
	}

	if err := policy.Authorize(caller, policy.OpDelete, task.AssigneeID); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// AddComment appends a comment and returns the task with every comment.
// The author name is taken from the caller's credential at write time.
func (s *TaskService) AddComment(caller policy.Caller, taskID uint64, text string) (*models.Task, error) {
	if !caller.Authenticated {
		return nil, policy.ErrUnauthenticated
	}

	task, err := s.findTask(taskID, "Assignee")
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(caller, policy.OpComment, task.AssigneeID); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentTextRequired
	}

	comment := &models.Comment{
		TaskID:     task.ID,
		Text:       text,
		AuthorID:   caller.ID,
		AuthorName: caller.Name,
	}
	if err := s.taskRepo.AddComment(comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	task.Comments, err = s.taskRepo.ListComments(task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return task, nil
}

// GenerateDrafts uses AI to turn free text into task drafts. Nothing is
// stored; the client creates the drafts it keeps.
func (s *TaskService) GenerateDrafts(ctx context.Context, caller policy.Caller, text string) ([]GeneratedTask, error) {
	if err := policy.Authorize(caller, policy.OpCreate, nil); err != nil {
		return nil, err
	}

	if s.drafter == nil {
		return nil, ErrAIServiceNotConfigured
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrDraftTextRequired
	}

	aiTasks, err := s.drafter.GenerateTasksFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" {
			continue
		}

		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}
