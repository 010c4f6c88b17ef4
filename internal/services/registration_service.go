package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrRegistrationPending  = errors.New("registration already pending for this email")
)

// RegistrationService handles self sign-up and its approval.
type RegistrationService struct {
	regRepo  repository.RegistrationRepository
	userRepo repository.UserRepository
}

// NewRegistrationService creates a new RegistrationService.
func NewRegistrationService(regRepo repository.RegistrationRepository, userRepo repository.UserRepository) *RegistrationService {
	return &RegistrationService{
		regRepo:  regRepo,
		userRepo: userRepo,
	}
}

// SubmitInput represents a public sign-up request.
type SubmitInput struct {
	Name     string
	Email    string
	Password string
}

// Submit records a pending registration. The password is hashed before it
// is stored.
func (s *RegistrationService) Submit(input SubmitInput) (*models.Registration, error) {
	name, email, err := validateSignup(input.Name, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if _, err := s.regRepo.FindByEmail(email); err == nil {
		return nil, ErrRegistrationPending
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check registrations: %w", err)
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	reg := &models.Registration{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Status:       models.RegistrationStatusPending,
	}

	if err := s.regRepo.Create(reg); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrRegistrationPending
		}
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	return reg, nil
}

// List returns pending registrations, oldest first.
func (s *RegistrationService) List() ([]models.Registration, error) {
	regs, err := s.regRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return regs, nil
}

// Approve promotes a registration to an account with role, developer when
// blank. The registration is consumed only if the account was created, so
// a second approval of the same id reports ErrRegistrationNotFound.
func (s *RegistrationService) Approve(id uint64, role models.Role) (*models.User, error) {
	role, err := parseRole(models.Role(strings.TrimSpace(string(role))))
	if err != nil {
		return nil, err
	}

	user, err := s.regRepo.Promote(id, role)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrRegistrationNotFound
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		default:
			return nil, fmt.Errorf("failed to approve registration: %w", err)
		}
	}

	return user, nil
}

// Decline discards a pending registration.
func (s *RegistrationService) Decline(id uint64) error {
	if err := s.regRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to decline registration: %w", err)
	}
	return nil
}
