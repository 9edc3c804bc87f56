package repository

import (
	"context"

	projectdomain "zuzuplan-backend/internal/project/domain"
)

// ProjectFilter narrows a project listing.
type ProjectFilter struct {
	UserID string
	Search string
	Offset int
	Limit  int
}

// ProjectRepository persists projects and memberships. Finders return
// (nil, nil) when no row matches.
type ProjectRepository interface {
	Create(ctx context.Context, project *projectdomain.Project) error
	FindByID(ctx context.Context, id string) (*projectdomain.Project, error)
	// FindDetailed loads the owner and the members with their users.
	FindDetailed(ctx context.Context, id string) (*projectdomain.Project, error)
	ListForUser(ctx context.Context, filter ProjectFilter) ([]projectdomain.Project, int64, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	UpdateProgress(ctx context.Context, id string, progress float64) error
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, member *projectdomain.ProjectMember) error
	FindMember(ctx context.Context, projectID, userID string) (*projectdomain.ProjectMember, error)
	ListMembers(ctx context.Context, projectID string) ([]projectdomain.ProjectMember, error)
	UpdateMemberRole(ctx context.Context, projectID, userID string, role projectdomain.Role) error
	RemoveMember(ctx context.Context, projectID, userID string) error
	DeleteMembers(ctx context.Context, projectID string) error
	ProjectIDsForUser(ctx context.Context, userID string) ([]string, error)
}
