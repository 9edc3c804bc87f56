package repository

import (
	"context"

	activitydomain "zuzuplan-backend/internal/activity/domain"
	"zuzuplan-backend/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListFilter struct {
	ProjectID string
	TaskID    string
	UserID    string
	Offset    int
	Limit     int
}

// ActivityRepository appends and lists activity entries. Entries are never
// updated; they go away only together with their project.
type ActivityRepository interface {
	Create(ctx context.Context, log *activitydomain.ActivityLog) error
	FindByID(ctx context.Context, id string) (*activitydomain.ActivityLog, error)
	List(ctx context.Context, filter ListFilter) ([]activitydomain.ActivityLog, int64, error)
	DeleteByProject(ctx context.Context, projectID string) error
}

type gormActivityRepository struct {
	db *gorm.DB
}

func NewGormActivityRepository(db *gorm.DB) ActivityRepository {
	return &gormActivityRepository{db: db}
}

// taskRow reads task titles without depending on the task package.
type taskRow struct {
	ID    string
	Title string
}

func (taskRow) TableName() string { return "tasks" }

func (r *gormActivityRepository) Create(ctx context.Context, log *activitydomain.ActivityLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	return database.Conn(ctx, r.db).Omit("User").Create(log).Error
}

func (r *gormActivityRepository) FindByID(ctx context.Context, id string) (*activitydomain.ActivityLog, error) {
	var logs []activitydomain.ActivityLog
	if err := database.Conn(ctx, r.db).Preload("User").Where("id = ?", id).Limit(1).Find(&logs).Error; err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, nil
	}
	if err := r.attachTasks(ctx, logs); err != nil {
		return nil, err
	}
	return &logs[0], nil
}

// List returns entries newest first.
func (r *gormActivityRepository) List(ctx context.Context, filter ListFilter) ([]activitydomain.ActivityLog, int64, error) {
	db := database.Conn(ctx, r.db)
	scope := func() *gorm.DB {
		q := db.Model(&activitydomain.ActivityLog{}).Where("project_id = ?", filter.ProjectID)
		if filter.TaskID != "" {
			q = q.Where("task_id = ?", filter.TaskID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []activitydomain.ActivityLog
	err := scope().
		Preload("User").
		Order("created_at DESC").
		Order("id DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachTasks(ctx, logs); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// attachTasks resolves the task titles of a page in one query.
func (r *gormActivityRepository) attachTasks(ctx context.Context, logs []activitydomain.ActivityLog) error {
	var ids []string
	for _, l := range logs {
		if l.TaskID != nil {
			ids = append(ids, *l.TaskID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var rows []taskRow
	if err := database.Conn(ctx, r.db).Select("id", "title").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return err
	}
	titles := make(map[string]string, len(rows))
	for _, row := range rows {
		titles[row.ID] = row.Title
	}
	for i := range logs {
		if logs[i].TaskID == nil {
			continue
		}
		if title, ok := titles[*logs[i].TaskID]; ok {
			logs[i].Task = &activitydomain.TaskRef{ID: *logs[i].TaskID, Title: title}
		}
	}
	return nil
}

func (r *gormActivityRepository) DeleteByProject(ctx context.Context, projectID string) error {
	return database.Conn(ctx, r.db).Where("project_id = ?", projectID).Delete(&activitydomain.ActivityLog{}).Error
}
