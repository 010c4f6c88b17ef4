package repository

import (
	"github.com/yukikurage/taskboard-api/internal/database"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/utils"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

func commentsInWriteOrder(db *gorm.DB) *gorm.DB {
	return db.Order("task_comments.created_at ASC, task_comments.id ASC")
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Omit("Assignee", "Creator", "Comments").Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	// Apply preloading if specified
	for _, p := range preload {
		if p == "Comments" {
			query = query.Preload(p, commentsInWriteOrder)
			continue
		}
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

func (r *GormTaskRepository) filtered(filter TaskFilter) *gorm.DB {
	query := r.db.Model(&models.Task{})

	if filter.VisibleTo != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.VisibleTo)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.AssigneeID)
	} else if filter.Unassigned {
		query = query.Where("tasks.assignee_id IS NULL")
	}
	if filter.DueBefore != nil {
		query = query.Where("tasks.due_date IS NOT NULL AND tasks.due_date < ?", *filter.DueBefore)
	}

	return query.Scopes(database.Search(filter.Search))
}

// List retrieves tasks with filtering and pagination. A zero page size
// returns every match.
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.filtered(filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := r.filtered(filter)
	if filter.SortByDueDate {
		listQuery = listQuery.Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, tasks.due_date ASC, tasks.id ASC")
	} else {
		listQuery = listQuery.Order("tasks.created_at ASC, tasks.id ASC")
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Page:   filter.Page,
			Limit:  filter.PageSize,
			Offset: (filter.Page - 1) * filter.PageSize,
		}))
	}

	if err := listQuery.Preload("Assignee").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update writes the editable columns. Concurrent edits are last-write-wins.
func (r *GormTaskRepository) Update(task *models.Task) error {
	res := r.db.Model(&models.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"status":      task.Status,
			"due_date":    task.DueDate,
			"assignee_id": task.AssigneeID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(id uint64) error {
	res := r.db.Delete(&models.Task{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddComment inserts a single comment row. Appends never rewrite the task,
// so concurrent comments cannot overwrite each other.
func (r *GormTaskRepository) AddComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// ListComments returns the comments of a task in write order
func (r *GormTaskRepository) ListComments(taskID uint64) ([]models.Comment, error) {
	var comments []models.Comment
	if err := commentsInWriteOrder(r.db.Where("task_id = ?", taskID)).
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// CountByStatus groups matching tasks by stored status
func (r *GormTaskRepository) CountByStatus(filter TaskFilter) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.filtered(filter).
		Select("tasks.status AS status, COUNT(*) AS count").
		Group("tasks.status").
		Scan(&counts).Error
	return counts, err
}

// CountByAssignee groups matching tasks by assignee; NULL is unassigned
func (r *GormTaskRepository) CountByAssignee(filter TaskFilter) ([]AssigneeCount, error) {
	var counts []AssigneeCount
	err := r.filtered(filter).
		Select("tasks.assignee_id AS assignee_id, COUNT(*) AS count").
		Group("tasks.assignee_id").
		Scan(&counts).Error
	return counts, err
}
