package middleware

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/constants"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/policy"
	"github.com/yukikurage/taskboard-api/internal/services"
)

// TaskLoader loads a stored task on behalf of a caller.
type TaskLoader interface {
	GetTaskForCaller(caller policy.Caller, id uint64) (*models.Task, error)
}

// RequireTaskAccess loads the task named by the :id parameter and checks the
// caller may view it. Developers get 403 for tasks not assigned to them.
func RequireTaskAccess(loader TaskLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		task, err := loader.GetTaskForCaller(GetCaller(c), taskID)
		if err != nil {
			switch {
			case errors.Is(err, policy.ErrUnauthenticated):
				apierrors.Unauthorized(c, "")
			case errors.Is(err, services.ErrTaskNotFound):
				apierrors.NotFound(c, "Task not found")
			case errors.Is(err, policy.ErrForbidden):
				apierrors.Forbidden(c, "You do not have access to this task")
			default:
				slog.Error("Failed to load task", "task_id", taskID, "error", err, "request_id", GetRequestID(c))
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// GetTask retrieves the task loaded by RequireTaskAccess
func GetTask(c *gin.Context) (*models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}
	task, ok := value.(*models.Task)
	return task, ok
}
