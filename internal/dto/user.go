package dto

import (
	"time"

	"github.com/yukikurage/taskboard-api/internal/models"
)

// UserDTO represents an account in API responses
type UserDTO struct {
	ID        uint64      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// UserSummaryDTO is the minimal account shape used for assignees and pickers
type UserSummaryDTO struct {
	ID   uint64      `json:"id"`
	Name string      `json:"name"`
	Role models.Role `json:"role"`
}

// RegistrationDTO represents a pending sign-up
type RegistrationDTO struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = ToUserDTO(u)
	}
	return out
}

func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:   user.ID,
		Name: user.Name,
		Role: user.Role,
	}
}

func ToUserSummaryDTOs(users []models.User) []UserSummaryDTO {
	out := make([]UserSummaryDTO, len(users))
	for i, u := range users {
		out[i] = ToUserSummaryDTO(u)
	}
	return out
}

// ToRegistrationDTO converts a Registration model; the password hash never leaves the store
func ToRegistrationDTO(reg models.Registration) RegistrationDTO {
	return RegistrationDTO{
		ID:        reg.ID,
		Name:      reg.Name,
		Email:     reg.Email,
		Status:    reg.Status,
		CreatedAt: reg.CreatedAt,
	}
}

func ToRegistrationDTOs(regs []models.Registration) []RegistrationDTO {
	out := make([]RegistrationDTO, len(regs))
	for i, r := range regs {
		out[i] = ToRegistrationDTO(r)
	}
	return out
}
