package repository

import (
	"errors"
	"time"

	"github.com/yukikurage/taskboard-api/internal/models"
)

var (
	// ErrDuplicateEmail is returned when a write would break email uniqueness.
	ErrDuplicateEmail = errors.New("repository: email already in use")
	// ErrCreateUser is returned when creating the account fails inside the approval transaction.
	ErrCreateUser = errors.New("repository: create user failed")
	// ErrDeleteRegistration is returned when removing the registration fails inside the approval transaction.
	ErrDeleteRegistration = errors.New("repository: delete registration failed")
)

// UserRepository defines the interface for account data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by normalised email
	FindByEmail(email string) (*models.User, error)

	// EmailTakenByOther reports whether another user already uses email
	EmailTakenByOther(email string, excludeID uint64) (bool, error)

	// List returns all users ordered by creation
	List() ([]models.User, error)

	// ListByRoles returns users holding one of roles
	ListByRoles(roles ...models.Role) ([]models.User, error)

	// Update saves profile fields of a user
	Update(user *models.User) error

	// Delete removes a user and clears the assignee of their tasks
	Delete(id uint64) error
}

// RegistrationRepository defines the interface for pending sign-ups
type RegistrationRepository interface {
	// Create stores a new pending registration
	Create(reg *models.Registration) error

	// FindByID finds a registration by ID
	FindByID(id uint64) (*models.Registration, error)

	// FindByEmail finds a registration by normalised email
	FindByEmail(email string) (*models.Registration, error)

	// List returns pending registrations, oldest first
	List() ([]models.Registration, error)

	// Delete removes a registration
	Delete(id uint64) error

	// Promote turns a registration into a user with role, atomically
	Promote(id uint64, role models.Role) (*models.User, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and optional pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update writes the editable columns of a task
	Update(task *models.Task) error

	// Delete soft deletes a task
	Delete(id uint64) error

	// AddComment appends one comment to a task
	AddComment(comment *models.Comment) error

	// ListComments returns the comments of a task in write order
	ListComments(taskID uint64) ([]models.Comment, error)

	// CountByStatus groups matching tasks by stored status
	CountByStatus(filter TaskFilter) ([]StatusCount, error)

	// CountByAssignee groups matching tasks by assignee
	CountByAssignee(filter TaskFilter) ([]AssigneeCount, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	// VisibleTo restricts results to tasks assigned to this user. Set for
	// callers who may not see every task.
	VisibleTo     *uint64
	Status        *models.TaskStatus
	AssigneeID    *uint64
	Unassigned    bool
	Search        string
	DueBefore     *time.Time
	SortByDueDate bool
	Page          int
	PageSize      int
}

type StatusCount struct {
	Status models.TaskStatus
	Count  int64
}

type AssigneeCount struct {
	AssigneeID *uint64
	Count      int64
}
