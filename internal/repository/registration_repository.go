package repository

import (
	"errors"
	"fmt"

	"github.com/yukikurage/taskboard-api/internal/models"
	"gorm.io/gorm"
)

// GormRegistrationRepository is a GORM implementation of RegistrationRepository
type GormRegistrationRepository struct {
	db *gorm.DB
}

// NewRegistrationRepository creates a new RegistrationRepository
func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &GormRegistrationRepository{db: db}
}

// Create stores a new pending registration
func (r *GormRegistrationRepository) Create(reg *models.Registration) error {
	if err := r.db.Create(reg).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// FindByID finds a registration by ID
func (r *GormRegistrationRepository) FindByID(id uint64) (*models.Registration, error) {
	var reg models.Registration
	if err := r.db.First(&reg, id).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

// FindByEmail finds a registration by email
func (r *GormRegistrationRepository) FindByEmail(email string) (*models.Registration, error) {
	var reg models.Registration
	if err := r.db.Where("email = ?", email).First(&reg).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

// List returns pending registrations, oldest first
func (r *GormRegistrationRepository) List() ([]models.Registration, error) {
	var regs []models.Registration
	if err := r.db.Order("created_at ASC, id ASC").Find(&regs).Error; err != nil {
		return nil, err
	}
	return regs, nil
}

// Delete removes a registration; gorm.ErrRecordNotFound when absent
func (r *GormRegistrationRepository) Delete(id uint64) error {
	res := r.db.Delete(&models.Registration{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Promote creates the account and then removes the registration in one
// transaction. Any failure rolls back, leaving the registration pending.
func (r *GormRegistrationRepository) Promote(id uint64, role models.Role) (*models.User, error) {
	var created *models.User

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var reg models.Registration
		if err := tx.First(&reg, id).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", reg.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}
		if count > 0 {
			return ErrDuplicateEmail
		}

		user := &models.User{
			Name:         reg.Name,
			Email:        reg.Email,
			PasswordHash: reg.PasswordHash,
			Role:         role,
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}

		res := tx.Delete(&models.Registration{}, reg.ID)
		if res.Error != nil {
			return fmt.Errorf("%w: %v", ErrDeleteRegistration, res.Error)
		}
		// Another approval consumed it first.
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}
