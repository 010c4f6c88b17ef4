package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/policy"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrNameRequired        = errors.New("name is required")
	ErrEmailRequired       = errors.New("email is required")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrPasswordRequired    = errors.New("password is required")
	ErrPasswordTooShort    = errors.New("password too short")
	ErrPasswordTooLong     = errors.New("password too long")
	ErrInvalidRole         = errors.New("invalid role specified")
	ErrEmailTaken          = errors.New("user with this email already exists")
	ErrCannotDeleteSelf    = errors.New("cannot delete your own account")
	ErrRoleChangeDenied    = errors.New("only administrators can change roles")
	ErrProfileAccessDenied = errors.New("access denied")
)

// UserService manages accounts.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// CreateUserInput represents the data needed to create an account.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

// UpdateUserInput holds optional profile changes. Nil fields are untouched.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *models.Role
}

// parseRole applies the developer default and rejects unknown roles.
func parseRole(role models.Role) (models.Role, error) {
	if strings.TrimSpace(string(role)) == "" {
		return models.RoleDeveloper, nil
	}
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

// validateSignup checks the fields shared by account creation and public
// registration and returns the normalised name and email.
// checkPasswordLength bounds a password in bytes, the unit bcrypt counts in.
func checkPasswordLength(password string) error {
	if len(password) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > constants.MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

func validateSignup(name, email, password string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", ErrNameRequired
	}
	email = NormalizeEmail(email)
	if email == "" {
		return "", "", ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return "", "", ErrInvalidEmail
	}
	if password == "" {
		return "", "", ErrPasswordRequired
	}
	if err := checkPasswordLength(password); err != nil {
		return "", "", err
	}
	return name, email, nil
}

// Create adds an account directly, bypassing registration.
func (s *UserService) Create(input CreateUserInput) (*models.User, error) {
	name, email, err := validateSignup(input.Name, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	role, err := parseRole(input.Role)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// List returns every account.
func (s *UserService) List() ([]models.User, error) {
	users, err := s.userRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ListAssignable returns the accounts tasks can be assigned to.
func (s *UserService) ListAssignable() ([]models.User, error) {
	users, err := s.userRepo.ListByRoles(models.Roles...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update changes a profile. Admins may edit anyone; everyone else only
// themselves, and only admins may change a role.
func (s *UserService) Update(actor policy.Caller, id uint64, input UpdateUserInput) (*models.User, error) {
	if !actor.Authenticated {
		return nil, policy.ErrUnauthenticated
	}
	isAdmin := actor.Role == models.RoleAdmin
	if !isAdmin && !policy.SameIdentity(actor.ID, id) {
		return nil, ErrProfileAccessDenied
	}
	if input.Role != nil && !isAdmin {
		return nil, ErrRoleChangeDenied
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		user.Name = name
	}

	if input.Email != nil {
		email := NormalizeEmail(*input.Email)
		if !emailPattern.MatchString(email) {
			return nil, ErrInvalidEmail
		}
		taken, err := s.userRepo.EmailTakenByOther(email, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return nil, ErrEmailTaken
		}
		user.Email = email
	}

	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, ErrInvalidRole
		}
		user.Role = *input.Role
	}

	if input.Password != nil {
		if err := checkPasswordLength(*input.Password); err != nil {
			return nil, err
		}
		hashed, err := hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}

	if err := s.userRepo.Update(user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	return user, nil
}

// Delete removes an account. Administrators cannot delete themselves.
func (s *UserService) Delete(actor policy.Caller, id uint64) error {
	if err := policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	if policy.SameIdentity(actor.ID, id) {
		return ErrCannotDeleteSelf
	}

	if err := s.userRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// EnsureAdmin creates the bootstrap administrator when no account uses
// email yet. An empty email disables the bootstrap.
func (s *UserService) EnsureAdmin(name, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, nil
	}

	existing, err := s.userRepo.FindByEmail(NormalizeEmail(email))
	if err == nil {
		if existing.Role != models.RoleAdmin {
			slog.Warn("Bootstrap admin email belongs to a non-admin account", "email", existing.Email, "role", existing.Role)
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check bootstrap admin: %w", err)
	}

	user, err := s.Create(CreateUserInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Bootstrap administrator created", "email", user.Email)
	return user, nil
}
