package repository

import (
	"context"
	"time"

	projectdomain "zuzuplan-backend/internal/project/domain"
	"zuzuplan-backend/internal/task/domain"
)

// TaskFilter narrows a project's task listing. Empty fields do not filter.
type TaskFilter struct {
	ProjectID  string
	Status     domain.Status
	Priority   domain.Priority
	AssigneeID string
	LabelID    string
	Search     string
	DueBefore  *time.Time
	DueAfter   *time.Time
	Offset     int
	Limit      int
}

// ReminderKind selects which reminder column a scan or mark applies to.
type ReminderKind int

const (
	ReminderDueSoon ReminderKind = iota
	ReminderOverdue
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error

	// FindByID loads the task row without children.
	FindByID(ctx context.Context, id string) (*domain.Task, error)

	// FindDetailed loads the task with assignee, subtasks, labels,
	// comments (oldest first) and attachments (newest first).
	FindDetailed(ctx context.Context, id string) (*domain.Task, error)

	// List returns one page in triage order: priority high to low, due
	// date ascending with undated tasks last, then newest first.
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, int64, error)

	// Update applies fields and bumps the version. When expectedVersion
	// is positive the row only changes if its version still matches; the
	// returned count is zero otherwise.
	Update(ctx context.Context, id string, fields map[string]interface{}, expectedVersion int) (int64, error)

	// Delete removes the task and its label links, subtasks, comments
	// and attachments.
	Delete(ctx context.Context, id string) error

	// ReplaceLabels makes labelIDs the task's complete label set.
	ReplaceLabels(ctx context.Context, taskID string, labelIDs []string) error

	CountTasks(ctx context.Context, projectID string, now time.Time) (projectdomain.TaskCounts, error)
	CountLabels(ctx context.Context, projectID string) (int64, error)

	// DeleteByProject removes every task and label of a project.
	DeleteByProject(ctx context.Context, projectID string) error

	// FindDueForReminder returns assigned open tasks whose reminder of
	// the given kind is due at now and has not been sent.
	FindDueForReminder(ctx context.Context, kind ReminderKind, now time.Time, window time.Duration, limit int) ([]domain.Task, error)
	MarkReminded(ctx context.Context, id string, kind ReminderKind, at time.Time) error

	CreateSubtask(ctx context.Context, subtask *domain.Subtask) error
	FindSubtask(ctx context.Context, id string) (*domain.Subtask, error)
	UpdateSubtask(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteSubtask(ctx context.Context, id string) error
}

type LabelRepository interface {
	Create(ctx context.Context, label *domain.Label) error
	FindByID(ctx context.Context, id string) (*domain.Label, error)
	// ListByProject returns the project's labels sorted by name.
	ListByProject(ctx context.Context, projectID string) ([]domain.Label, error)
	// CountInProject counts how many of ids are labels of the project.
	CountInProject(ctx context.Context, projectID string, ids []string) (int64, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	// Delete removes the label and detaches it from every task.
	Delete(ctx context.Context, id string) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	FindByID(ctx context.Context, id string) (*domain.Comment, error)
	// ListByTask returns one page of comments, oldest first.
	ListByTask(ctx context.Context, taskID string, offset, limit int) ([]domain.Comment, int64, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	FindByID(ctx context.Context, id string) (*domain.Attachment, error)
	// ListByTask returns the task's attachments, newest first.
	ListByTask(ctx context.Context, taskID string) ([]domain.Attachment, error)
	Delete(ctx context.Context, id string) error
}
