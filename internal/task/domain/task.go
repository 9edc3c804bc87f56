package domain

import (
	"time"

	authdomain "zuzuplan-backend/internal/auth/domain"
)

// Priority represents task priority level
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Status represents the current state of a task
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusInReview   Status = "IN_REVIEW"
	StatusDone       Status = "DONE"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// Task belongs to a project. Version increases on every update and backs
// optimistic concurrency checks.
type Task struct {
	ID          string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string           `json:"title" gorm:"not null"`
	Description *string          `json:"description"`
	ProjectID   string           `json:"projectId" gorm:"type:varchar(36);index;not null"`
	AssigneeID  *string          `json:"assigneeId" gorm:"type:varchar(36);index"`
	Assignee    *authdomain.User `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID"`
	DueDate     *time.Time       `json:"dueDate" gorm:"index"`
	Priority    Priority         `json:"priority" gorm:"type:varchar(16);not null;default:MEDIUM"`
	Status      Status           `json:"status" gorm:"type:varchar(16);index;not null;default:TODO"`
	Version     int              `json:"version" gorm:"not null;default:1"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`

	// When the due-soon and overdue reminders went out. Reset when the
	// due date changes.
	RemindedDueSoonAt *time.Time `json:"-"`
	RemindedOverdueAt *time.Time `json:"-"`

	Subtasks    []Subtask    `json:"subtasks" gorm:"foreignKey:TaskID"`
	TaskLabels  []TaskLabel  `json:"taskLabels" gorm:"foreignKey:TaskID"`
	Comments    []Comment    `json:"comments" gorm:"foreignKey:TaskID"`
	Attachments []Attachment `json:"attachments" gorm:"foreignKey:TaskID"`

	Count *TaskCounts `json:"_count,omitempty" gorm:"-"`
}

// TaskCounts is attached to tasks in listings.
type TaskCounts struct {
	Subtasks    int64 `json:"subtasks"`
	Comments    int64 `json:"comments"`
	Attachments int64 `json:"attachments"`
}

type Subtask struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TaskID    string    `json:"taskId" gorm:"type:varchar(36);index;not null"`
	Title     string    `json:"title" gorm:"not null"`
	Completed bool      `json:"completed" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Label struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProjectID string    `json:"projectId" gorm:"type:varchar(36);index;not null"`
	Name      string    `json:"name" gorm:"not null"`
	Color     string    `json:"color" gorm:"type:varchar(16);not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TaskLabel joins tasks and labels; (TaskID, LabelID) is the primary key.
type TaskLabel struct {
	TaskID    string    `json:"taskId" gorm:"primaryKey;type:varchar(36)"`
	LabelID   string    `json:"labelId" gorm:"primaryKey;type:varchar(36);index"`
	Label     *Label    `json:"label,omitempty" gorm:"foreignKey:LabelID"`
	CreatedAt time.Time `json:"createdAt"`
}

type Comment struct {
	ID        string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TaskID    string           `json:"taskId" gorm:"type:varchar(36);index;not null"`
	UserID    string           `json:"userId" gorm:"type:varchar(36);index;not null"`
	User      *authdomain.User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Content   string           `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Attachment holds metadata only; the file lives in external storage.
type Attachment struct {
	ID         string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TaskID     string           `json:"taskId" gorm:"type:varchar(36);index;not null"`
	FileName   string           `json:"fileName" gorm:"not null"`
	FileURL    string           `json:"fileUrl" gorm:"not null"`
	FileType   string           `json:"fileType"`
	FileSize   int64            `json:"fileSize"`
	UploadedBy string           `json:"uploadedBy" gorm:"type:varchar(36);index;not null"`
	Uploader   *authdomain.User `json:"uploader,omitempty" gorm:"foreignKey:UploadedBy"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// LabelIDs returns the ids of the task's labels.
func (t *Task) LabelIDs() []string {
	ids := make([]string, 0, len(t.TaskLabels))
	for _, tl := range t.TaskLabels {
		ids = append(ids, tl.LabelID)
	}
	return ids
}
