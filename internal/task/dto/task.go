package dto

import (
	"time"

	"zuzuplan-backend/internal/task/domain"
	"zuzuplan-backend/pkg/patch"
)

type CreateTaskRequest struct {
	Title       string          `json:"title" binding:"required,min=1,max=300"`
	Description *string         `json:"description"`
	AssigneeID  *string         `json:"assigneeId"`
	DueDate     *time.Time      `json:"dueDate"`
	Priority    domain.Priority `json:"priority"`
	Status      domain.Status   `json:"status"`
	LabelIDs    []string        `json:"labelIds"`
}

// UpdateTaskRequest is a partial update. Absent fields are left alone;
// an explicit null clears description, assignee and due date. LabelIDs,
// when present, replaces the whole label set ([] or null clears it).
// Version, when given, must match the stored version.
type UpdateTaskRequest struct {
	Title       *string                `json:"title" binding:"omitempty,min=1,max=300"`
	Description patch.Field[string]    `json:"description"`
	AssigneeID  patch.Field[string]    `json:"assigneeId"`
	DueDate     patch.Field[time.Time] `json:"dueDate"`
	Priority    *domain.Priority       `json:"priority"`
	Status      *domain.Status         `json:"status"`
	LabelIDs    patch.Field[[]string]  `json:"labelIds"`
	Version     *int                   `json:"version"`
}

// TaskQuery is bound from the task listing's query string.
type TaskQuery struct {
	Status     domain.Status   `form:"status"`
	Priority   domain.Priority `form:"priority"`
	AssigneeID string          `form:"assigneeId"`
	LabelID    string          `form:"labelId"`
	Search     string          `form:"search"`
	DueBefore  *time.Time      `form:"dueBefore" time_format:"2006-01-02T15:04:05Z07:00"`
	DueAfter   *time.Time      `form:"dueAfter" time_format:"2006-01-02T15:04:05Z07:00"`
}

type CreateSubtaskRequest struct {
	Title string `json:"title" binding:"required,min=1,max=300"`
}

type UpdateSubtaskRequest struct {
	Title     *string `json:"title" binding:"omitempty,min=1,max=300"`
	Completed *bool   `json:"completed"`
}

type CreateLabelRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=50"`
	Color string `json:"color" binding:"required,hexcolor"`
}

type UpdateLabelRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=50"`
	Color *string `json:"color" binding:"omitempty,hexcolor"`
}

type CommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

type CreateAttachmentRequest struct {
	FileName string `json:"fileName" binding:"required,max=255"`
	FileURL  string `json:"fileUrl" binding:"required,url"`
	FileType string `json:"fileType" binding:"omitempty,max=100"`
	FileSize int64  `json:"fileSize" binding:"gte=0"`
}
