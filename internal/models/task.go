package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

type Task struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Status      TaskStatus     `gorm:"type:varchar(40);not null;default:'Backlog';index" json:"status"`
	DueDate     *time.Time     `gorm:"index" json:"due_date"`
	AssigneeID  *uint64        `gorm:"index" json:"assignee_id"`
	CreatedBy   uint64         `gorm:"not null;index" json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Assignee *User     `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Creator  *User     `gorm:"foreignKey:CreatedBy" json:"-"`
	Comments []Comment `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
}
