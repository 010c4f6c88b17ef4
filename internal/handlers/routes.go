package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/auth"
	"github.com/yukikurage/taskboard-api/internal/middleware"
	"github.com/yukikurage/taskboard-api/internal/models"
)

// Router bundles what RegisterRoutes needs.
type Router struct {
	Issuer       *auth.TokenIssuer
	TaskLoader   middleware.TaskLoader
	Auth         *AuthHandler
	Users        *UserHandler
	Registration *RegistrationHandler
	Tasks        *TaskHandler
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Task Board API is running",
	})
}

// RegisterRoutes mounts every endpoint on r. Session middleware must already
// be installed.
func RegisterRoutes(r *gin.Engine, h Router) {
	requireAuth := middleware.RequireAuth(h.Issuer)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	managers := middleware.RequireRole(models.RoleAdmin, models.RoleProductOwner)
	taskAccess := middleware.RequireTaskAccess(h.TaskLoader)

	r.GET("/health", Health)

	users := r.Group("/users")
	{
		users.POST("/login", h.Auth.Login)
		users.POST("/logout", h.Auth.Logout)
		users.POST("/register", requireAuth, adminOnly, h.Auth.Register)
		users.POST("/verify-token", requireAuth, h.Auth.VerifyToken)

		users.GET("", requireAuth, adminOnly, h.Users.ListUsers)
		users.GET("/assignable", requireAuth, managers, h.Users.ListAssignable)
		users.POST("", requireAuth, adminOnly, h.Users.CreateUser)
		users.PUT("/:id", requireAuth, h.Users.UpdateUser)
		users.DELETE("/:id", requireAuth, adminOnly, h.Users.DeleteUser)
	}

	tasks := r.Group("/tasks")
	tasks.Use(requireAuth)
	{
		tasks.GET("", h.Tasks.ListTasks)
		tasks.GET("/board", h.Tasks.Board)
		tasks.GET("/stats", h.Tasks.Stats)
		tasks.POST("", h.Tasks.CreateTask)
		tasks.POST("/generate", managers, h.Tasks.GenerateTasks)
		tasks.GET("/:id", taskAccess, h.Tasks.GetTask)
		tasks.PUT("/:id", taskAccess, h.Tasks.ReplaceTask)
		tasks.PATCH("/:id", taskAccess, h.Tasks.PatchTask)
		tasks.DELETE("/:id", taskAccess, h.Tasks.DeleteTask)
		tasks.POST("/:id/comments", taskAccess, h.Tasks.AddComment)
	}

	registrations := r.Group("/registrations")
	{
		registrations.POST("", h.Registration.Submit)
		registrations.GET("", requireAuth, adminOnly, h.Registration.ListRegistrations)
		registrations.POST("/:id/approve", requireAuth, adminOnly, h.Registration.Approve)
		registrations.DELETE("/:id", requireAuth, adminOnly, h.Registration.Decline)
	}
}
