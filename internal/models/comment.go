package models

import "time"

// Comment is immutable once written. Every append is its own row so
// concurrent writers never overwrite each other.
type Comment struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	TaskID     uint64    `gorm:"not null;index" json:"task_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	AuthorID   uint64    `gorm:"not null" json:"author_id"`
	AuthorName string    `gorm:"type:varchar(255)" json:"author_name"`
	CreatedAt  time.Time `json:"timestamp"`
}

func (Comment) TableName() string {
	return "task_comments"
}
