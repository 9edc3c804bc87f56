package usecase

import (
	"context"
	"time"

	projectdomain "zuzuplan-backend/internal/project/domain"
	projectdto "zuzuplan-backend/internal/project/dto"
	"zuzuplan-backend/pkg/response"
)

type ProjectUsecase interface {
	CreateProject(ctx context.Context, userID string, req *projectdto.CreateProjectRequest) (*projectdomain.Project, error)
	ListProjects(ctx context.Context, userID, search string, page response.Page) ([]projectdomain.Project, int64, error)
	GetProject(ctx context.Context, projectID, userID string) (*projectdomain.Project, error)
	UpdateProject(ctx context.Context, projectID, userID string, req *projectdto.UpdateProjectRequest) (*projectdomain.Project, error)
	DeleteProject(ctx context.Context, projectID, userID string) error

	ListMembers(ctx context.Context, projectID, userID string) ([]projectdomain.ProjectMember, error)
	AddMember(ctx context.Context, projectID, userID string, req *projectdto.AddMemberRequest) (*projectdomain.ProjectMember, error)
	UpdateMemberRole(ctx context.Context, projectID, userID, memberUserID string, role projectdomain.Role) (*projectdomain.ProjectMember, error)
	RemoveMember(ctx context.Context, projectID, userID, memberUserID string) error

	GetProjectStats(ctx context.Context, projectID, userID string) (*projectdomain.ProjectStats, error)
	ProgressCalculator
}

// ProgressCalculator recomputes and stores a project's progress. Task
// mutations call it inside their transaction.
type ProgressCalculator interface {
	CalculateProgress(ctx context.Context, projectID string) (float64, error)
}

// TaskStatsReader counts a project's tasks and labels.
type TaskStatsReader interface {
	CountTasks(ctx context.Context, projectID string, now time.Time) (projectdomain.TaskCounts, error)
	CountLabels(ctx context.Context, projectID string) (int64, error)
}

// ProjectCleaner deletes a feature's rows that belong to a project. Every
// store holding project-scoped rows registers one so deletion leaves no
// orphans.
type ProjectCleaner interface {
	DeleteByProject(ctx context.Context, projectID string) error
}

// InviteNotifier tells a user they were added to a project.
type InviteNotifier interface {
	NotifyProjectInvite(ctx context.Context, userID, projectID, projectName, role string) error
}
