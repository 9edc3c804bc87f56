package usecase

import (
	"context"
	"time"

	"zuzuplan-backend/internal/task/domain"
	"zuzuplan-backend/internal/task/dto"
	"zuzuplan-backend/pkg/response"
)

// TaskFilter is the caller-facing listing filter.
type TaskFilter struct {
	dto.TaskQuery
	Page response.Page
}

// TaskUsecase defines the business logic for tasks and their subtasks.
type TaskUsecase interface {
	CreateTask(ctx context.Context, projectID, userID string, req *dto.CreateTaskRequest) (*domain.Task, error)
	GetTasks(ctx context.Context, projectID, userID string, filter TaskFilter) ([]domain.Task, int64, error)
	GetTaskByID(ctx context.Context, taskID, userID string) (*domain.Task, error)
	UpdateTask(ctx context.Context, taskID, userID string, req *dto.UpdateTaskRequest) (*domain.Task, error)
	DeleteTask(ctx context.Context, taskID, userID string) error

	AddSubtask(ctx context.Context, taskID, userID string, req *dto.CreateSubtaskRequest) (*domain.Subtask, error)
	UpdateSubtask(ctx context.Context, taskID, subtaskID, userID string, req *dto.UpdateSubtaskRequest) (*domain.Subtask, error)
	DeleteSubtask(ctx context.Context, taskID, subtaskID, userID string) error
}

type LabelUsecase interface {
	ListLabels(ctx context.Context, projectID, userID string) ([]domain.Label, error)
	CreateLabel(ctx context.Context, projectID, userID string, req *dto.CreateLabelRequest) (*domain.Label, error)
	UpdateLabel(ctx context.Context, labelID, userID string, req *dto.UpdateLabelRequest) (*domain.Label, error)
	DeleteLabel(ctx context.Context, labelID, userID string) error
}

type CommentUsecase interface {
	ListComments(ctx context.Context, taskID, userID string, page response.Page) ([]domain.Comment, int64, error)
	CreateComment(ctx context.Context, taskID, userID, content string) (*domain.Comment, error)
	UpdateComment(ctx context.Context, commentID, userID, content string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, commentID, userID string) error
}

type AttachmentUsecase interface {
	ListAttachments(ctx context.Context, taskID, userID string) ([]domain.Attachment, error)
	CreateAttachment(ctx context.Context, taskID, userID string, req *dto.CreateAttachmentRequest) (*domain.Attachment, error)
	DeleteAttachment(ctx context.Context, attachmentID, userID string) error
}

// TaskNotifier delivers the notifications task changes cause.
type TaskNotifier interface {
	NotifyTaskAssignment(ctx context.Context, assigneeID, taskID, taskTitle, projectName string) error
	NotifyComment(ctx context.Context, userID, taskID, taskTitle, authorName string) error
}

// ReminderNotifier tells an assignee a task is due soon or overdue.
type ReminderNotifier interface {
	NotifyDueDate(ctx context.Context, userID, taskID, taskTitle string, dueDate time.Time) error
}
