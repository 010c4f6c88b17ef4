package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/constants"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/middleware"
	"github.com/yukikurage/taskboard-api/internal/policy"
	"github.com/yukikurage/taskboard-api/internal/services"
	"github.com/yukikurage/taskboard-api/internal/workflow"
)

// respondInternal logs the cause and answers with a generic 500.
func respondInternal(c *gin.Context, err error) {
	slog.Error("Request failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"request_id", middleware.GetRequestID(c),
		"error", err,
	)
	apierrors.InternalError(c, "")
}

// respondCommonError handles errors shared by every resource. It reports
// whether a response was written.
func respondCommonError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, policy.ErrUnauthenticated):
		apierrors.Unauthorized(c, "")
	case errors.Is(err, policy.ErrForbidden):
		apierrors.Forbidden(c, "You do not have permission to perform this action")
	case errors.Is(err, workflow.ErrInvalidStatus):
		apierrors.BadRequestWithDetails(c, "Invalid status", gin.H{"allowed": workflow.Statuses()})
	case errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrEmailRequired),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrPasswordRequired),
		errors.Is(err, services.ErrInvalidRole):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrPasswordTooLong):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at most %d bytes", constants.MaxPasswordLength))
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, err.Error())
	default:
		return false
	}
	return true
}

// parseIDParam reads a numeric path parameter, answering 400 when malformed.
func parseIDParam(c *gin.Context, name, label string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+label+" ID")
		return 0, false
	}
	return id, true
}
