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

type labelUsecase struct {
	repo     repository.LabelRepository
	access   *access.Evaluator
	tx       database.Transactor
	activity activityusecase.ActivityUsecase
}

func NewLabelUsecase(
	repo repository.LabelRepository,
	evaluator *access.Evaluator,
	tx database.Transactor,
	activity activityusecase.ActivityUsecase,
) LabelUsecase {
	return &labelUsecase{repo: repo, access: evaluator, tx: tx, activity: activity}
}

func (u *labelUsecase) ListLabels(ctx context.Context, projectID, userID string) ([]domain.Label, error) {
	if _, err := u.access.Require(ctx, projectID, userID, projectdomain.RoleViewer); err != nil {
		return nil, err
	}
	return u.repo.ListByProject(ctx, projectID)
}

func (u *labelUsecase) CreateLabel(ctx context.Context, projectID, userID string, req *dto.CreateLabelRequest) (*domain.Label, error) {
	if _, err := u.access.Require(ctx, projectID, userID, projectdomain.RoleMember); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Label name is required")
	}

	label := &domain.Label{ProjectID: projectID, Name: name, Color: req.Color}
	err := u.withActivity(ctx, projectID, userID, activitydomain.ActionCreated, func(ctx context.Context) (*activitydomain.LabelChanged, error) {
		if err := u.repo.Create(ctx, label); err != nil {
			return nil, err
		}
		return &activitydomain.LabelChanged{Change: "created", LabelID: label.ID, Name: label.Name}, nil
	})
	if err != nil {
		return nil, err
	}
	return label, nil
}

func (u *labelUsecase) UpdateLabel(ctx context.Context, labelID, userID string, req *dto.UpdateLabelRequest) (*domain.Label, error) {
	label, err := u.load(ctx, labelID, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	changes := map[string]activitydomain.Change{}
	name := label.Name
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("Label name cannot be empty")
		}
		if name != label.Name {
			fields["name"] = name
			changes["name"] = activitydomain.Change{Old: label.Name, New: name}
		}
	}
	if req.Color != nil && *req.Color != label.Color {
		fields["color"] = *req.Color
		changes["color"] = activitydomain.Change{Old: label.Color, New: *req.Color}
	}
	if len(fields) == 0 {
		return label, nil
	}

	err = u.withActivity(ctx, label.ProjectID, userID, activitydomain.ActionUpdated, func(ctx context.Context) (*activitydomain.LabelChanged, error) {
		if err := u.repo.Update(ctx, labelID, fields); err != nil {
			return nil, err
		}
		return &activitydomain.LabelChanged{Change: "updated", LabelID: labelID, Name: name, Changes: changes}, nil
	})
	if err != nil {
		return nil, err
	}
	return u.repo.FindByID(ctx, labelID)
}

func (u *labelUsecase) DeleteLabel(ctx context.Context, labelID, userID string) error {
	label, err := u.load(ctx, labelID, userID)
	if err != nil {
		return err
	}
	return u.withActivity(ctx, label.ProjectID, userID, activitydomain.ActionDeleted, func(ctx context.Context) (*activitydomain.LabelChanged, error) {
		if err := u.repo.Delete(ctx, labelID); err != nil {
			return nil, err
		}
		return &activitydomain.LabelChanged{Change: "deleted", LabelID: labelID, Name: label.Name}, nil
	})
}

// withActivity runs mutate and logs its result against the project in one
// transaction, then publishes the entry.
func (u *labelUsecase) withActivity(
	ctx context.Context,
	projectID, userID string,
	action activitydomain.Action,
	mutate func(ctx context.Context) (*activitydomain.LabelChanged, error),
) error {
	var entry *activitydomain.ActivityLog
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		details, err := mutate(ctx)
		if err != nil {
			return err
		}
		entry, err = u.activity.Log(ctx, activityusecase.Entry{
			ProjectID: projectID,
			UserID:    userID,
			Action:    action,
			Details:   details,
		})
		return err
	})
	if err != nil {
		return err
	}
	u.activity.Publish(ctx, entry)
	return nil
}

// load finds the label and requires Member in its project.
func (u *labelUsecase) load(ctx context.Context, labelID, userID string) (*domain.Label, error) {
	label, err := u.repo.FindByID(ctx, labelID)
	if err != nil {
		return nil, err
	}
	if label == nil {
		return nil, apperror.NotFound("Label not found")
	}
	if _, err := u.access.Require(ctx, label.ProjectID, userID, projectdomain.RoleMember); err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.NotFound("Label not found")
		}
		return nil, err
	}
	return label, nil
}
