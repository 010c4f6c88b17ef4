package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/dto"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/middleware"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/services"
	"github.com/yukikurage/taskboard-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the tasks visible to the current user.
// Supports status, assignee_id (or "none"), search, overdue and sort=due_date.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	input := services.ListTasksInput{
		Search:        c.Query("search"),
		SortByDueDate: c.Query("sort") == "due_date",
		Page:          params.Page,
		PageSize:      params.Limit,
	}

	if status := c.Query("status"); status != "" {
		st := models.TaskStatus(status)
		input.Status = &st
	}

	if assignee := c.Query("assignee_id"); assignee != "" {
		if assignee == "none" || assignee == "unassigned" {
			input.Unassigned = true
		} else {
			id, err := strconv.ParseUint(assignee, 10, 64)
			if err != nil {
				apierrors.BadRequest(c, "Invalid assignee_id")
				return
			}
			input.AssigneeID = &id
		}
	}

	if overdue := c.Query("overdue"); overdue != "" {
		v, err := strconv.ParseBool(overdue)
		if err != nil {
			apierrors.BadRequest(c, "Invalid overdue flag")
			return
		}
		input.Overdue = v
	}

	tasks, total, err := h.taskService.ListTasks(middleware.GetCaller(c), input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}

// Board returns the visible tasks grouped into workflow columns
func (h *TaskHandler) Board(c *gin.Context) {
	columns, err := h.taskService.Board(middleware.GetCaller(c))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"columns": dto.ToBoardDTO(columns)})
}

// Stats returns task counts per status and per assignee
func (h *TaskHandler) Stats(c *gin.Context) {
	stats, err := h.taskService.Stats(middleware.GetCaller(c))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetTask returns a specific task by ID
// Task is already loaded and access-checked by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		respondInternal(c, errors.New("task missing from context"))
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDetailDTO(*task, middleware.GetCaller(c)))
}

func bindTaskBody(c *gin.Context) (services.TaskChanges, bool) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return services.TaskChanges{}, false
	}

	changes, err := parseTaskChanges(body)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return services.TaskChanges{}, false
	}
	return changes, true
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	changes, ok := bindTaskBody(c)
	if !ok {
		return
	}

	task, err := h.taskService.CreateTask(middleware.GetCaller(c), toCreateInput(changes))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDetailDTO(*task, middleware.GetCaller(c)))
}

func (h *TaskHandler) taskID(c *gin.Context) (uint64, bool) {
	if task, ok := middleware.GetTask(c); ok {
		return task.ID, true
	}
	return parseIDParam(c, "id", "task")
}

// ReplaceTask is the full edit used by the task editor
func (h *TaskHandler) ReplaceTask(c *gin.Context) {
	id, ok := h.taskID(c)
	if !ok {
		return
	}
	changes, ok := bindTaskBody(c)
	if !ok {
		return
	}

	task, err := h.taskService.ReplaceTask(middleware.GetCaller(c), id, changes)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDetailDTO(*task, middleware.GetCaller(c)))
}

// PatchTask updates only the provided fields. Moving a card on the board
// sends the status alone.
func (h *TaskHandler) PatchTask(c *gin.Context) {
	id, ok := h.taskID(c)
	if !ok {
		return
	}
	changes, ok := bindTaskBody(c)
	if !ok {
		return
	}

	task, err := h.taskService.PatchTask(middleware.GetCaller(c), id, changes)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDetailDTO(*task, middleware.GetCaller(c)))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := h.taskID(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(middleware.GetCaller(c), id); err != nil {
		respondTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddComment appends a comment and returns the task with all comments
func (h *TaskHandler) AddComment(c *gin.Context) {
	id, ok := h.taskID(c)
	if !ok {
		return
	}

	type CommentRequest struct {
		Text string `json:"text"`
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.AddComment(middleware.GetCaller(c), id, req.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDetailDTO(*task, middleware.GetCaller(c)))
}

// GenerateTasks uses AI to draft tasks from free text. Drafts are not saved.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	drafts, err := h.taskService.GenerateDrafts(c.Request.Context(), middleware.GetCaller(c), req.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": drafts,
	})
}

func respondTaskError(c *gin.Context, err error) {
	if respondCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleEmpty),
		errors.Is(err, services.ErrCommentTextRequired),
		errors.Is(err, services.ErrAssigneeNotFound),
		errors.Is(err, services.ErrNoChanges),
		errors.Is(err, services.ErrDraftTextRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Set OPENAI_API_KEY to enable it.")
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.RespondWithError(c, http.StatusUnprocessableEntity, apierrors.NewAPIError(apierrors.ErrCodeOperationFailed, err.Error()))
	case errors.Is(err, services.ErrAIGenerationFailed):
		slog.Warn("AI task generation failed", "error", err, "request_id", middleware.GetRequestID(c))
		apierrors.RespondWithError(c, http.StatusBadGateway, apierrors.NewAPIError(apierrors.ErrCodeOperationFailed, "Failed to generate tasks"))
	default:
		respondInternal(c, err)
	}
}
