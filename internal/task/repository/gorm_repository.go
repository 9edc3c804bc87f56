package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	authrepo "zuzuplan-backend/internal/auth/repository"
	projectdomain "zuzuplan-backend/internal/project/domain"
	"zuzuplan-backend/internal/task/domain"
	"zuzuplan-backend/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// triageOrder sorts by priority, then due date with undated tasks last,
// then newest first.
const triageOrder = "CASE priority WHEN 'URGENT' THEN 4 WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 WHEN 'LOW' THEN 1 ELSE 0 END DESC, " +
	"CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date ASC, created_at DESC"

// gormTaskRepository implements TaskRepository using GORM
type gormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GORM-based TaskRepository
func NewGormTaskRepository(db *gorm.DB) TaskRepository {
	return &gormTaskRepository{db: db}
}

func (r *gormTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Version == 0 {
		task.Version = 1
	}
	return database.Conn(ctx, r.db).
		Omit("Assignee", "Subtasks", "TaskLabels", "Comments", "Attachments").
		Create(task).Error
}

func (r *gormTaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *gormTaskRepository) FindDetailed(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	err := database.Conn(ctx, r.db).
		Preload("Assignee").
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("TaskLabels.Label").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Comments.User").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Attachments.Uploader").
		Where("id = ?", id).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if task.Subtasks == nil {
		task.Subtasks = []domain.Subtask{}
	}
	if task.TaskLabels == nil {
		task.TaskLabels = []domain.TaskLabel{}
	}
	if task.Comments == nil {
		task.Comments = []domain.Comment{}
	}
	if task.Attachments == nil {
		task.Attachments = []domain.Attachment{}
	}
	return &task, nil
}

func (r *gormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]domain.Task, int64, error) {
	db := database.Conn(ctx, r.db)
	scope := func() *gorm.DB {
		query := db.Model(&domain.Task{}).Where("project_id = ?", filter.ProjectID)
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.Priority != "" {
			query = query.Where("priority = ?", filter.Priority)
		}
		if filter.AssigneeID != "" {
			query = query.Where("assignee_id = ?", filter.AssigneeID)
		}
		if filter.LabelID != "" {
			labelled := db.Session(&gorm.Session{NewDB: true}).
				Model(&domain.TaskLabel{}).
				Select("task_id").
				Where("label_id = ?", filter.LabelID)
			query = query.Where("id IN (?)", labelled)
		}
		if search := strings.TrimSpace(filter.Search); search != "" {
			pattern := "%" + authrepo.EscapeLike(strings.ToLower(search)) + "%"
			query = query.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\\')", pattern, pattern)
		}
		if filter.DueBefore != nil {
			query = query.Where("due_date <= ?", *filter.DueBefore)
		}
		if filter.DueAfter != nil {
			query = query.Where("due_date >= ?", *filter.DueAfter)
		}
		return query
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []domain.Task
	err := scope().
		Preload("Assignee").
		Preload("TaskLabels.Label").
		Order(triageOrder).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachCounts(ctx, tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

type childCount struct {
	TaskID string
	N      int64
}

// attachCounts fills Count with one grouped query per child table.
func (r *gormTaskRepository) attachCounts(ctx context.Context, tasks []domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]string, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
		tasks[i].Count = &domain.TaskCounts{}
	}
	index := make(map[string]*domain.TaskCounts, len(tasks))
	for i := range tasks {
		index[tasks[i].ID] = tasks[i].Count
	}

	count := func(model interface{}, set func(c *domain.TaskCounts, n int64)) error {
		var rows []childCount
		err := database.Conn(ctx, r.db).Model(model).
			Select("task_id, COUNT(*) AS n").
			Where("task_id IN ?", ids).
			Group("task_id").
			Scan(&rows).Error
		if err != nil {
			return err
		}
		for _, row := range rows {
			if c, ok := index[row.TaskID]; ok {
				set(c, row.N)
			}
		}
		return nil
	}

	if err := count(&domain.Subtask{}, func(c *domain.TaskCounts, n int64) { c.Subtasks = n }); err != nil {
		return err
	}
	if err := count(&domain.Comment{}, func(c *domain.TaskCounts, n int64) { c.Comments = n }); err != nil {
		return err
	}
	return count(&domain.Attachment{}, func(c *domain.TaskCounts, n int64) { c.Attachments = n })
}

func (r *gormTaskRepository) Update(ctx context.Context, id string, fields map[string]interface{}, expectedVersion int) (int64, error) {
	values := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		values[k] = v
	}
	values["version"] = gorm.Expr("version + 1")

	query := database.Conn(ctx, r.db).Model(&domain.Task{}).Where("id = ?", id)
	if expectedVersion > 0 {
		query = query.Where("version = ?", expectedVersion)
	}
	result := query.Updates(values)
	return result.RowsAffected, result.Error
}

func (r *gormTaskRepository) Delete(ctx context.Context, id string) error {
	db := database.Conn(ctx, r.db)
	for _, child := range []interface{}{&domain.TaskLabel{}, &domain.Subtask{}, &domain.Comment{}, &domain.Attachment{}} {
		if err := db.Where("task_id = ?", id).Delete(child).Error; err != nil {
			return err
		}
	}
	return db.Where("id = ?", id).Delete(&domain.Task{}).Error
}

func (r *gormTaskRepository) ReplaceLabels(ctx context.Context, taskID string, labelIDs []string) error {
	db := database.Conn(ctx, r.db)
	if err := db.Where("task_id = ?", taskID).Delete(&domain.TaskLabel{}).Error; err != nil {
		return err
	}

	links := make([]domain.TaskLabel, 0, len(labelIDs))
	seen := make(map[string]bool, len(labelIDs))
	for _, id := range labelIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		links = append(links, domain.TaskLabel{TaskID: taskID, LabelID: id})
	}
	if len(links) == 0 {
		return nil
	}
	return db.Omit("Label").Create(&links).Error
}

func (r *gormTaskRepository) CountTasks(ctx context.Context, projectID string, now time.Time) (projectdomain.TaskCounts, error) {
	var row struct {
		Total      int64
		Done       int64
		InProgress int64
		Overdue    int64
	}
	err := database.Conn(ctx, r.db).Model(&domain.Task{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS done,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS in_progress,
			COALESCE(SUM(CASE WHEN due_date < ? AND status <> ? THEN 1 ELSE 0 END), 0) AS overdue`,
			domain.StatusDone, domain.StatusInProgress, now, domain.StatusDone).
		Where("project_id = ?", projectID).
		Scan(&row).Error
	if err != nil {
		return projectdomain.TaskCounts{}, err
	}
	return projectdomain.TaskCounts{
		Total:      row.Total,
		Done:       row.Done,
		InProgress: row.InProgress,
		Overdue:    row.Overdue,
	}, nil
}

func (r *gormTaskRepository) CountLabels(ctx context.Context, projectID string) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&domain.Label{}).Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}

// DeleteByProject deletes children before parents so it also works where
// foreign keys are enforced.
func (r *gormTaskRepository) DeleteByProject(ctx context.Context, projectID string) error {
	db := database.Conn(ctx, r.db)
	projectTasks := func() *gorm.DB {
		return db.Session(&gorm.Session{NewDB: true}).
			Model(&domain.Task{}).
			Select("id").
			Where("project_id = ?", projectID)
	}
	projectLabels := func() *gorm.DB {
		return db.Session(&gorm.Session{NewDB: true}).
			Model(&domain.Label{}).
			Select("id").
			Where("project_id = ?", projectID)
	}

	if err := db.Where("task_id IN (?) OR label_id IN (?)", projectTasks(), projectLabels()).
		Delete(&domain.TaskLabel{}).Error; err != nil {
		return err
	}
	for _, child := range []interface{}{&domain.Subtask{}, &domain.Comment{}, &domain.Attachment{}} {
		if err := db.Where("task_id IN (?)", projectTasks()).Delete(child).Error; err != nil {
			return err
		}
	}
	if err := db.Where("project_id = ?", projectID).Delete(&domain.Task{}).Error; err != nil {
		return err
	}
	return db.Where("project_id = ?", projectID).Delete(&domain.Label{}).Error
}

func (r *gormTaskRepository) FindDueForReminder(ctx context.Context, kind ReminderKind, now time.Time, window time.Duration, limit int) ([]domain.Task, error) {
	query := database.Conn(ctx, r.db).
		Where("assignee_id IS NOT NULL AND due_date IS NOT NULL").
		Where("status NOT IN ?", []domain.Status{domain.StatusDone, domain.StatusCancelled})

	switch kind {
	case ReminderOverdue:
		query = query.Where("due_date <= ? AND reminded_overdue_at IS NULL", now)
	default:
		query = query.Where("due_date > ? AND due_date <= ? AND reminded_due_soon_at IS NULL", now, now.Add(window))
	}

	var tasks []domain.Task
	err := query.Order("due_date ASC").Limit(limit).Find(&tasks).Error
	return tasks, err
}

func (r *gormTaskRepository) MarkReminded(ctx context.Context, id string, kind ReminderKind, at time.Time) error {
	column := "reminded_due_soon_at"
	if kind == ReminderOverdue {
		column = "reminded_overdue_at"
	}
	// UpdateColumn leaves updated_at and version alone.
	return database.Conn(ctx, r.db).Model(&domain.Task{}).Where("id = ?", id).UpdateColumn(column, at).Error
}

func (r *gormTaskRepository) CreateSubtask(ctx context.Context, subtask *domain.Subtask) error {
	if subtask.ID == "" {
		subtask.ID = uuid.New().String()
	}
	return database.Conn(ctx, r.db).Create(subtask).Error
}

func (r *gormTaskRepository) FindSubtask(ctx context.Context, id string) (*domain.Subtask, error) {
	var subtask domain.Subtask
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&subtask).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subtask, nil
}

func (r *gormTaskRepository) UpdateSubtask(ctx context.Context, id string, fields map[string]interface{}) error {
	return database.Conn(ctx, r.db).Model(&domain.Subtask{}).Where("id = ?", id).Updates(fields).Error
}

func (r *gormTaskRepository) DeleteSubtask(ctx context.Context, id string) error {
	return database.Conn(ctx, r.db).Where("id = ?", id).Delete(&domain.Subtask{}).Error
}
