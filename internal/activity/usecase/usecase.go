package usecase

import (
	"context"
	"fmt"

	"zuzuplan-backend/internal/access"
	activitydomain "zuzuplan-backend/internal/activity/domain"
	"zuzuplan-backend/internal/activity/repository"
	projectdomain "zuzuplan-backend/internal/project/domain"
	"zuzuplan-backend/pkg/metrics"
	"zuzuplan-backend/pkg/realtime"
	"zuzuplan-backend/pkg/response"

	"go.uber.org/zap"
)

// Entry is one activity to record.
type Entry struct {
	ProjectID string
	TaskID    string
	UserID    string
	Action    activitydomain.Action
	Details   activitydomain.Details
}

// ListFilter narrows the activity feed of a project.
type ListFilter struct {
	TaskID string
	UserID string
	Page   response.Page
}

type ActivityUsecase interface {
	// Log writes an entry in the caller's transaction. Its error must
	// fail the mutation being logged.
	Log(ctx context.Context, entry Entry) (*activitydomain.ActivityLog, error)
	// Publish pushes committed entries to the project's realtime path.
	Publish(ctx context.Context, logs ...*activitydomain.ActivityLog)
	List(ctx context.Context, projectID, userID string, filter ListFilter) ([]activitydomain.ActivityLog, int64, error)
}

type activityUsecase struct {
	repo   repository.ActivityRepository
	access *access.Evaluator
	sink   realtime.Sink
	logger *zap.Logger
}

func NewActivityUsecase(repo repository.ActivityRepository, evaluator *access.Evaluator, sink realtime.Sink, logger *zap.Logger) ActivityUsecase {
	return &activityUsecase{
		repo:   repo,
		access: evaluator,
		sink:   sink,
		logger: logger,
	}
}

func (u *activityUsecase) Log(ctx context.Context, entry Entry) (*activitydomain.ActivityLog, error) {
	details, err := activitydomain.EncodeDetails(entry.Details)
	if err != nil {
		return nil, fmt.Errorf("encode activity details: %w", err)
	}

	log := &activitydomain.ActivityLog{
		ProjectID: entry.ProjectID,
		UserID:    entry.UserID,
		Action:    entry.Action,
		Details:   details,
	}
	if entry.TaskID != "" {
		taskID := entry.TaskID
		log.TaskID = &taskID
	}
	if err := u.repo.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("write activity log: %w", err)
	}

	metrics.IncrementActivity(string(entry.Action))
	return log, nil
}

func (u *activityUsecase) Publish(ctx context.Context, logs ...*activitydomain.ActivityLog) {
	for _, l := range logs {
		if l == nil {
			continue
		}
		payload := l
		// Reload to include the actor and task title.
		if full, err := u.repo.FindByID(ctx, l.ID); err == nil && full != nil {
			payload = full
		}
		if err := u.sink.Publish(ctx, realtime.ProjectActivityPath(l.ProjectID), payload); err != nil {
			u.logger.Warn("failed to publish activity",
				zap.String("project_id", l.ProjectID),
				zap.String("activity_id", l.ID),
				zap.Error(err),
			)
		}
	}
}

func (u *activityUsecase) List(ctx context.Context, projectID, userID string, filter ListFilter) ([]activitydomain.ActivityLog, int64, error) {
	if _, err := u.access.Require(ctx, projectID, userID, projectdomain.RoleViewer); err != nil {
		return nil, 0, err
	}
	return u.repo.List(ctx, repository.ListFilter{
		ProjectID: projectID,
		TaskID:    filter.TaskID,
		UserID:    filter.UserID,
		Offset:    filter.Page.Offset(),
		Limit:     filter.Page.Limit,
	})
}
