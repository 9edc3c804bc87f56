package usecase

import (
	"context"
	"strings"
	"time"

	"zuzuplan-backend/internal/access"
	activitydomain "zuzuplan-backend/internal/activity/domain"
	activityusecase "zuzuplan-backend/internal/activity/usecase"
	authdomain "zuzuplan-backend/internal/auth/domain"
	authrepo "zuzuplan-backend/internal/auth/repository"
	projectdomain "zuzuplan-backend/internal/project/domain"
	projectdto "zuzuplan-backend/internal/project/dto"
	"zuzuplan-backend/internal/project/repository"
	"zuzuplan-backend/pkg/apperror"
	"zuzuplan-backend/pkg/database"
	"zuzuplan-backend/pkg/metrics"
	"zuzuplan-backend/pkg/response"

	"go.uber.org/zap"
)

type projectUsecase struct {
	repo     repository.ProjectRepository
	userRepo authrepo.UserRepository
	access   *access.Evaluator
	tx       database.Transactor
	activity activityusecase.ActivityUsecase
	tasks    TaskStatsReader
	cleaners []ProjectCleaner
	notifier InviteNotifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewProjectUsecase(
	repo repository.ProjectRepository,
	userRepo authrepo.UserRepository,
	evaluator *access.Evaluator,
	tx database.Transactor,
	activity activityusecase.ActivityUsecase,
	tasks TaskStatsReader,
	notifier InviteNotifier,
	logger *zap.Logger,
	cleaners ...ProjectCleaner,
) ProjectUsecase {
	return &projectUsecase{
		repo:     repo,
		userRepo: userRepo,
		access:   evaluator,
		tx:       tx,
		activity: activity,
		tasks:    tasks,
		cleaners: cleaners,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateProject makes the caller owner. The owner also gets an Owner
// membership row so member listings include them.
func (u *projectUsecase) CreateProject(ctx context.Context, userID string, req *projectdto.CreateProjectRequest) (*projectdomain.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Project name is required")
	}

	project := &projectdomain.Project{
		Name:        name,
		Description: req.Description,
		OwnerID:     userID,
	}

	var entry *activitydomain.ActivityLog
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.repo.Create(ctx, project); err != nil {
			return err
		}
		if err := u.repo.AddMember(ctx, &projectdomain.ProjectMember{
			ProjectID: project.ID,
			UserID:    userID,
			Role:      projectdomain.RoleOwner,
		}); err != nil {
			return err
		}

		var err error
		entry, err = u.activity.Log(ctx, activityusecase.Entry{
			ProjectID: project.ID,
			UserID:    userID,
			Action:    activitydomain.ActionCreated,
			Details:   activitydomain.ProjectCreated{Name: project.Name},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	u.activity.Publish(ctx, entry)
	return u.repo.FindDetailed(ctx, project.ID)
}

func (u *projectUsecase) ListProjects(ctx context.Context, userID, search string, page response.Page) ([]projectdomain.Project, int64, error) {
	return u.repo.ListForUser(ctx, repository.ProjectFilter{
		UserID: userID,
		Search: search,
		Offset: page.Offset(),
		Limit:  page.Limit,
	})
}

func (u *projectUsecase) GetProject(ctx context.Context, projectID, userID string) (*projectdomain.Project, error) {
	if _, err := u.access.Require(ctx, projectID, userID, projectdomain.RoleViewer); err != nil {
		return nil, err
	}

	project, err := u.repo.FindDetailed(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, access.ErrProjectNotFound()
	}

	counts, err := u.tasks.CountTasks(ctx, projectID, u.now())
	if err != nil {
		return nil, err
	}
	labels, err := u.tasks.CountLabels(ctx, projectID)
	if err != nil {
		return nil, err
	}
	project.Count = &projectdomain.ProjectCounts{Tasks: counts.Total, Labels: labels}
	return project, nil
}

func (u *projectUsecase) UpdateProject(ctx context.Context, projectID, userID string, req *projectdto.UpdateProjectRequest) (*projectdomain.Project, error) {
	a, err := u.access.Require(ctx, projectID, userID, projectdomain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	current := a.Project

	fields := map[string]interface{}{}
	changes := map[string]activitydomain.Change{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("Project name cannot be empty")
		}
		if name != current.Name {
			fields["name"] = name
			changes["name"] = activitydomain.Change{Old: current.Name, New: name}
		}
	}
	if req.Description.Set {
		next := req.Description.Ptr()
		if !equalStringPtr(current.Description, next) {
			fields["description"] = next
			changes["description"] = activitydomain.Change{Old: current.Description, New: next}
		}
	}

	if len(fields) == 0 {
		return u.repo.FindDetailed(ctx, projectID)
	}

	var entry *activitydomain.ActivityLog
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.repo.Update(ctx, projectID, fields); err != nil {
			return err
		}
		var err error
		entry, err = u.activity.Log(ctx, activityusecase.Entry{
			ProjectID: projectID,
			UserID:    userID,
			Action:    activitydomain.ActionUpdated,
			Details:   activitydomain.ProjectUpdated{Changes: changes},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	u.activity.Publish(ctx, entry)
	return u.repo.FindDetailed(ctx, projectID)
}

// DeleteProject removes the project and everything scoped to it in one
// transaction. Only the owner may do this.
func (u *projectUsecase) DeleteProject(ctx context.Context, projectID, userID string) error {
	if _, err := u.access.Require(ctx, projectID, userID, projectdomain.RoleOwner); err != nil {
		return err
	}

	return u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, c := range u.cleaners {
			if err := c.DeleteByProject(ctx, projectID); err != nil {
				return err
			}
		}
		if err := u.repo.DeleteMembers(ctx, projectID); err != nil {
			return err
		}
		return u.repo.Delete(ctx, projectID)
	})
}

func (u *projectUsecase) ListMembers(ctx context.Context, projectID, userID string) ([]projectdomain.ProjectMember, error) {
	if _, err := u.access.Require(ctx, projectID, userID, projectdomain.RoleViewer); err != nil {
		return nil, err
	}
	return u.repo.ListMembers(ctx, projectID)
}

func (u *projectUsecase) AddMember(ctx context.Context, projectID, userID string, req *projectdto.AddMemberRequest) (*projectdomain.ProjectMember, error) {
	a, err := u.access.Require(ctx, projectID, userID, projectdomain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = projectdomain.RoleMember
	}
	if !role.Assignable() {
		return nil, apperror.Validation("Role must be one of Admin, Member, Viewer")
	}

	target, err := u.findInvitee(ctx, req)
	if err != nil {
		return nil, err
	}

	existing, err := u.repo.FindMember(ctx, projectID, target.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil || target.ID == a.Project.OwnerID {
		return nil, apperror.Conflict("User is already a member of this project")
	}

	member := &projectdomain.ProjectMember{
		ProjectID: projectID,
		UserID:    target.ID,
		Role:      role,
	}
	var entry *activitydomain.ActivityLog
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.repo.AddMember(ctx, member); err != nil {
			if apperror.From(err).Kind == apperror.KindConflict {
				return apperror.Conflict("User is already a member of this project")
			}
			return err
		}
		var err error
		entry, err = u.activity.Log(ctx, activityusecase.Entry{
			ProjectID: projectID,
			UserID:    userID,
			Action:    activitydomain.ActionMemberAdded,
			Details: activitydomain.MemberAdded{
				MemberID:   target.ID,
				MemberName: target.Name,
				Role:       string(role),
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	u.activity.Publish(ctx, entry)
	if err := u.notifier.NotifyProjectInvite(ctx, target.ID, projectID, a.Project.Name, string(role)); err != nil {
		u.logger.Warn("failed to send project invite notification",
			zap.String("project_id", projectID),
			zap.String("user_id", target.ID),
			zap.Error(err),
		)
	}

	member.User = target
	return member, nil
}

func (u *projectUsecase) findInvitee(ctx context.Context, req *projectdto.AddMemberRequest) (*authdomain.User, error) {
	var (
		target *authdomain.User
		err    error
	)
	switch {
	case req.UserID != "":
		target, err = u.userRepo.FindByID(ctx, req.UserID)
	case req.Email != "":
		target, err = u.userRepo.FindByEmail(ctx, req.Email)
	default:
		return nil, apperror.Validation("userId or email is required")
	}
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, apperror.NotFound("User not found")
	}
	return target, nil
}

// UpdateMemberRole is owner-only and never touches the owner's own row.
func (u *projectUsecase) UpdateMemberRole(ctx context.Context, projectID, userID, memberUserID string, role projectdomain.Role) (*projectdomain.ProjectMember, error) {
	a, err := u.access.Require(ctx, projectID, userID, projectdomain.RoleOwner)
	if err != nil {
		return nil, err
	}
	if memberUserID == a.Project.OwnerID {
		return nil, apperror.Validation("Cannot change owner role")
	}
	if !role.Assignable() {
		return nil, apperror.Validation("Role must be one of Admin, Member, Viewer")
	}

	member, err := u.repo.FindMember(ctx, projectID, memberUserID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apperror.NotFound("Member not found")
	}
	if member.Role == role {
		return member, nil
	}

	oldRole := member.Role
	var entry *activitydomain.ActivityLog
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.repo.UpdateMemberRole(ctx, projectID, memberUserID, role); err != nil {
			return err
		}
		var err error
		entry, err = u.activity.Log(ctx, activityusecase.Entry{
			ProjectID: projectID,
			UserID:    userID,
			Action:    activitydomain.ActionRoleChanged,
			Details: activitydomain.RoleChanged{
				MemberID: memberUserID,
				OldRole:  string(oldRole),
				NewRole:  string(role),
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	u.activity.Publish(ctx, entry)
	member.Role = role
	return member, nil
}

func (u *projectUsecase) RemoveMember(ctx context.Context, projectID, userID, memberUserID string) error {
	a, err := u.access.Require(ctx, projectID, userID, projectdomain.RoleAdmin)
	if err != nil {
		return err
	}
	if memberUserID == a.Project.OwnerID {
		return apperror.Validation("Cannot remove project owner")
	}

	member, err := u.repo.FindMember(ctx, projectID, memberUserID)
	if err != nil {
		return err
	}
	if member == nil {
		return apperror.NotFound("Member not found")
	}

	memberName := ""
	if member.User != nil {
		memberName = member.User.Name
	}

	var entry *activitydomain.ActivityLog
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.repo.RemoveMember(ctx, projectID, memberUserID); err != nil {
			return err
		}
		var err error
		entry, err = u.activity.Log(ctx, activityusecase.Entry{
			ProjectID: projectID,
			UserID:    userID,
			Action:    activitydomain.ActionMemberRemoved,
			Details: activitydomain.MemberRemoved{
				MemberID:   memberUserID,
				MemberName: memberName,
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

func (u *projectUsecase) CalculateProgress(ctx context.Context, projectID string) (float64, error) {
	counts, err := u.tasks.CountTasks(ctx, projectID, u.now())
	if err != nil {
		return 0, err
	}
	progress := projectdomain.CalculateProgress(counts.Done, counts.Total)
	if err := u.repo.UpdateProgress(ctx, projectID, progress); err != nil {
		return 0, err
	}
	metrics.IncrementProgressRecalculation()
	return progress, nil
}

func (u *projectUsecase) GetProjectStats(ctx context.Context, projectID, userID string) (*projectdomain.ProjectStats, error) {
	if _, err := u.access.Require(ctx, projectID, userID, projectdomain.RoleViewer); err != nil {
		return nil, err
	}

	counts, err := u.tasks.CountTasks(ctx, projectID, u.now())
	if err != nil {
		return nil, err
	}
	project, err := u.repo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, access.ErrProjectNotFound()
	}

	return &projectdomain.ProjectStats{
		TotalTasks:      counts.Total,
		CompletedTasks:  counts.Done,
		InProgressTasks: counts.InProgress,
		OverdueTasks:    counts.Overdue,
		Progress:        project.Progress,
	}, nil
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
