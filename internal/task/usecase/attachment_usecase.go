package usecase

import (
	"context"
	"strings"

	"zuzuplan-backend/internal/access"
	activitydomain "zuzuplan-backend/internal/activity/domain"
	activityusecase "zuzuplan-backend/internal/activity/usecase"
	projectdomain "zuzuplan-backend/internal/project/domain"
	"zuzuplan-backend/internal/task/domain"
	"zuzuplan-backend/internal/task/dto"
	"zuzuplan-backend/internal/task/repository"
	"zuzuplan-backend/pkg/apperror"
	"zuzuplan-backend/pkg/database"
)

type attachmentUsecase struct {
	repo     repository.AttachmentRepository
	tasks    repository.TaskRepository
	access   *access.Evaluator
	tx       database.Transactor
	activity activityusecase.ActivityUsecase
}

func NewAttachmentUsecase(
	repo repository.AttachmentRepository,
	tasks repository.TaskRepository,
	evaluator *access.Evaluator,
	tx database.Transactor,
	activity activityusecase.ActivityUsecase,
) AttachmentUsecase {
	return &attachmentUsecase{
		repo:     repo,
		tasks:    tasks,
		access:   evaluator,
		tx:       tx,
		activity: activity,
	}
}

func (u *attachmentUsecase) ListAttachments(ctx context.Context, taskID, userID string) ([]domain.Attachment, error) {
	if _, _, err := loadTask(ctx, u.tasks, u.access, taskID, userID, projectdomain.RoleViewer); err != nil {
		return nil, err
	}
	return u.repo.ListByTask(ctx, taskID)
}

func (u *attachmentUsecase) CreateAttachment(ctx context.Context, taskID, userID string, req *dto.CreateAttachmentRequest) (*domain.Attachment, error) {
	task, _, err := loadTask(ctx, u.tasks, u.access, taskID, userID, projectdomain.RoleMember)
	if err != nil {
		return nil, err
	}
	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		return nil, apperror.Validation("File name is required")
	}
	if req.FileSize < 0 {
		return nil, apperror.Validation("File size cannot be negative")
	}

	attachment := &domain.Attachment{
		TaskID:     taskID,
		FileName:   fileName,
		FileURL:    req.FileURL,
		FileType:   req.FileType,
		FileSize:   req.FileSize,
		UploadedBy: userID,
	}
	var entry *activitydomain.ActivityLog
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.repo.Create(ctx, attachment); err != nil {
			return err
		}
		var err error
		entry, err = u.activity.Log(ctx, activityusecase.Entry{
			ProjectID: task.ProjectID,
			TaskID:    taskID,
			UserID:    userID,
			Action:    activitydomain.ActionAttachmentAdded,
			Details: activitydomain.AttachmentAdded{
				AttachmentID: attachment.ID,
				FileName:     fileName,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	u.activity.Publish(ctx, entry)
	return u.repo.FindByID(ctx, attachment.ID)
}

// DeleteAttachment lets the uploader or an Admin and above delete.
func (u *attachmentUsecase) DeleteAttachment(ctx context.Context, attachmentID, userID string) error {
	attachment, err := u.repo.FindByID(ctx, attachmentID)
	if err != nil {
		return err
	}
	if attachment == nil {
		return apperror.NotFound("Attachment not found")
	}
	task, a, err := loadTask(ctx, u.tasks, u.access, attachment.TaskID, userID, projectdomain.RoleViewer)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return apperror.NotFound("Attachment not found")
		}
		return err
	}
	if attachment.UploadedBy != userID && !a.Role.AtLeast(projectdomain.RoleAdmin) {
		return apperror.AccessDenied("You can only delete your own attachments")
	}

	var entry *activitydomain.ActivityLog
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.repo.Delete(ctx, attachmentID); err != nil {
			return err
		}
		var err error
		entry, err = u.activity.Log(ctx, activityusecase.Entry{
			ProjectID: task.ProjectID,
			TaskID:    task.ID,
			UserID:    userID,
			Action:    activitydomain.ActionDeleted,
			Details: activitydomain.AttachmentDeleted{
				AttachmentID: attachmentID,
				FileName:     attachment.FileName,
			},
		})
		return err
	})
	if err != nil {
		return err
	}
	u.activity.Publish(ctx, entry)
	return nil
}
