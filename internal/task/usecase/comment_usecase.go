package usecase

import (
	"context"
	"strings"

	"zuzuplan-backend/internal/access"
	activitydomain "zuzuplan-backend/internal/activity/domain"
	activityusecase "zuzuplan-backend/internal/activity/usecase"
	projectdomain "zuzuplan-backend/internal/project/domain"
	"zuzuplan-backend/internal/task/domain"
	"zuzuplan-backend/internal/task/repository"
	"zuzuplan-backend/pkg/apperror"
	"zuzuplan-backend/pkg/database"
	"zuzuplan-backend/pkg/realtime"
	"zuzuplan-backend/pkg/response"

	"go.uber.org/zap"
)

type commentUsecase struct {
	repo     repository.CommentRepository
	tasks    repository.TaskRepository
	access   *access.Evaluator
	tx       database.Transactor
	activity activityusecase.ActivityUsecase
	notifier TaskNotifier
	sink     realtime.Sink
	logger   *zap.Logger
}

func NewCommentUsecase(
	repo repository.CommentRepository,
	tasks repository.TaskRepository,
	evaluator *access.Evaluator,
	tx database.Transactor,
	activity activityusecase.ActivityUsecase,
	notifier TaskNotifier,
	sink realtime.Sink,
	logger *zap.Logger,
) CommentUsecase {
	return &commentUsecase{
		repo:     repo,
		tasks:    tasks,
		access:   evaluator,
		tx:       tx,
		activity: activity,
		notifier: notifier,
		sink:     sink,
		logger:   logger,
	}
}

func (u *commentUsecase) ListComments(ctx context.Context, taskID, userID string, page response.Page) ([]domain.Comment, int64, error) {
	if _, _, err := loadTask(ctx, u.tasks, u.access, taskID, userID, projectdomain.RoleViewer); err != nil {
		return nil, 0, err
	}
	return u.repo.ListByTask(ctx, taskID, page.Offset(), page.Limit)
}

// CreateComment stores the comment and logs COMMENT_ADDED together, then
// pushes it and tells the assignee.
func (u *commentUsecase) CreateComment(ctx context.Context, taskID, userID, content string) (*domain.Comment, error) {
	task, _, err := loadTask(ctx, u.tasks, u.access, taskID, userID, projectdomain.RoleMember)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.Validation("Comment content is required")
	}

	comment := &domain.Comment{TaskID: taskID, UserID: userID, Content: content}
	var entry *activitydomain.ActivityLog
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.repo.Create(ctx, comment); err != nil {
			return err
		}
		var err error
		entry, err = u.activity.Log(ctx, activityusecase.Entry{
			ProjectID: task.ProjectID,
			TaskID:    taskID,
			UserID:    userID,
			Action:    activitydomain.ActionCommentAdded,
			Details: activitydomain.CommentAdded{
				CommentID: comment.ID,
				Excerpt:   excerpt(content, 100),
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	u.activity.Publish(ctx, entry)
	created, err := u.repo.FindByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, apperror.NotFound("Comment not found")
	}
	publish(ctx, u.sink, u.logger, realtime.CommentPath(task.ProjectID, taskID, comment.ID), taskEvent{Event: "created", TaskID: taskID, Data: created})

	if task.AssigneeID != nil && *task.AssigneeID != userID {
		author := "Someone"
		if created.User != nil {
			author = created.User.Name
		}
		if err := u.notifier.NotifyComment(ctx, *task.AssigneeID, taskID, task.Title, author); err != nil {
			u.logger.Warn("failed to send comment notification", zap.String("task_id", taskID), zap.Error(err))
		}
	}
	return created, nil
}

// UpdateComment lets only the author edit.
func (u *commentUsecase) UpdateComment(ctx context.Context, commentID, userID, content string) (*domain.Comment, error) {
	comment, task, _, err := u.load(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, apperror.AccessDenied("You can only edit your own comments")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.Validation("Comment content is required")
	}

	if content == comment.Content {
		return comment, nil
	}

	entry, err := u.logChange(ctx, task, userID, activitydomain.ActionUpdated, activitydomain.CommentChanged{
		Change:    "updated",
		CommentID: commentID,
		Excerpt:   excerpt(content, 100),
	}, func(ctx context.Context) error {
		return u.repo.UpdateContent(ctx, commentID, content)
	})
	if err != nil {
		return nil, err
	}
	u.activity.Publish(ctx, entry)

	updated, err := u.repo.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperror.NotFound("Comment not found")
	}
	publish(ctx, u.sink, u.logger, realtime.CommentPath(task.ProjectID, task.ID, commentID), taskEvent{Event: "updated", TaskID: task.ID, Data: updated})
	return updated, nil
}

// DeleteComment lets the author or an Admin and above delete.
func (u *commentUsecase) DeleteComment(ctx context.Context, commentID, userID string) error {
	comment, task, a, err := u.load(ctx, commentID, userID)
	if err != nil {
		return err
	}
	if comment.UserID != userID && !a.Role.AtLeast(projectdomain.RoleAdmin) {
		return apperror.AccessDenied("You can only delete your own comments")
	}

	entry, err := u.logChange(ctx, task, userID, activitydomain.ActionDeleted, activitydomain.CommentChanged{
		Change:    "deleted",
		CommentID: commentID,
		Excerpt:   excerpt(comment.Content, 100),
	}, func(ctx context.Context) error {
		return u.repo.Delete(ctx, commentID)
	})
	if err != nil {
		return err
	}
	u.activity.Publish(ctx, entry)
	publish(ctx, u.sink, u.logger, realtime.CommentPath(task.ProjectID, task.ID, commentID), taskEvent{Event: "deleted", TaskID: task.ID})
	return nil
}

// logChange applies mutate and records the entry in one transaction.
func (u *commentUsecase) logChange(
	ctx context.Context,
	task *domain.Task,
	userID string,
	action activitydomain.Action,
	details activitydomain.Details,
	mutate func(ctx context.Context) error,
) (*activitydomain.ActivityLog, error) {
	var entry *activitydomain.ActivityLog
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := mutate(ctx); err != nil {
			return err
		}
		var err error
		entry, err = u.activity.Log(ctx, activityusecase.Entry{
			ProjectID: task.ProjectID,
			TaskID:    task.ID,
			UserID:    userID,
			Action:    action,
			Details:   details,
		})
		return err
	})
	return entry, err
}

func (u *commentUsecase) load(ctx context.Context, commentID, userID string) (*domain.Comment, *domain.Task, *access.Access, error) {
	comment, err := u.repo.FindByID(ctx, commentID)
	if err != nil {
		return nil, nil, nil, err
	}
	if comment == nil {
		return nil, nil, nil, apperror.NotFound("Comment not found")
	}
	task, a, err := loadTask(ctx, u.tasks, u.access, comment.TaskID, userID, projectdomain.RoleViewer)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, nil, nil, apperror.NotFound("Comment not found")
		}
		return nil, nil, nil, err
	}
	return comment, task, a, nil
}
