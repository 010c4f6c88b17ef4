package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/dto"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/services"
)

type RegistrationHandler struct {
	registrationService *services.RegistrationService
}

func NewRegistrationHandler(registrationService *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: registrationService,
	}
}

// Submit records a public sign-up request for later approval
func (h *RegistrationHandler) Submit(c *gin.Context) {
	type SubmitRequest struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Name, email and password are required")
		return
	}

	reg, err := h.registrationService.Submit(services.SubmitInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondRegistrationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"message":      "Registration submitted and awaiting approval",
		"registration": dto.ToRegistrationDTO(*reg),
	})
}

// ListRegistrations returns pending registrations
func (h *RegistrationHandler) ListRegistrations(c *gin.Context) {
	regs, err := h.registrationService.List()
	if err != nil {
		respondRegistrationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRegistrationDTOs(regs))
}

// Approve turns a registration into an account. The body is optional.
func (h *RegistrationHandler) Approve(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "registration")
	if !ok {
		return
	}

	type ApproveRequest struct {
		Role models.Role `json:"role"`
	}

	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.registrationService.Approve(id, req.Role)
	if err != nil {
		respondRegistrationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Registration approved",
		"user":    dto.ToUserDTO(*user),
	})
}

// Decline discards a registration
func (h *RegistrationHandler) Decline(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "registration")
	if !ok {
		return
	}

	if err := h.registrationService.Decline(id); err != nil {
		respondRegistrationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Registration declined",
	})
}

func respondRegistrationError(c *gin.Context, err error) {
	if respondCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrRegistrationNotFound):
		apierrors.NotFound(c, "Registration not found")
	case errors.Is(err, services.ErrRegistrationPending):
		apierrors.Conflict(c, err.Error())
	default:
		respondInternal(c, err)
	}
}
