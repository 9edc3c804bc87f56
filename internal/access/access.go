// Package access decides what a user may do inside a project.
//
// A user's role in a project is Owner when the project's owner_id is the
// user, otherwise the role of their membership row. Users without any
// relation to the project get the same "Project not found" answer as for a
// project that does not exist; members below the required level get 403.
package access

import (
	"context"

	projectdomain "zuzuplan-backend/internal/project/domain"
	"zuzuplan-backend/pkg/apperror"
)

// ProjectReader is the slice of the project store the evaluator needs.
type ProjectReader interface {
	FindByID(ctx context.Context, id string) (*projectdomain.Project, error)
	FindMember(ctx context.Context, projectID, userID string) (*projectdomain.ProjectMember, error)
}

// Access is a resolved (user, project, role) triple.
type Access struct {
	UserID  string
	Project *projectdomain.Project
	Role    projectdomain.Role
}

func (a *Access) IsOwner() bool {
	return a.Project.OwnerID == a.UserID
}

type Evaluator struct {
	projects ProjectReader
}

func NewEvaluator(projects ProjectReader) *Evaluator {
	return &Evaluator{projects: projects}
}

func ErrProjectNotFound() error {
	return apperror.NotFound("Project not found")
}

// ResolveRole loads the project and the user's effective role in it.
func (e *Evaluator) ResolveRole(ctx context.Context, projectID, userID string) (*Access, error) {
	project, err := e.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound()
	}

	if project.OwnerID == userID {
		return &Access{UserID: userID, Project: project, Role: projectdomain.RoleOwner}, nil
	}

	member, err := e.projects.FindMember(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil || !member.Role.Valid() {
		return nil, ErrProjectNotFound()
	}

	role := member.Role
	// Ownership comes from owner_id alone.
	if role == projectdomain.RoleOwner {
		role = projectdomain.RoleAdmin
	}
	return &Access{UserID: userID, Project: project, Role: role}, nil
}

// Require resolves the user's role and checks it against min. A resolution
// already attached to ctx for the same user and project is reused.
func (e *Evaluator) Require(ctx context.Context, projectID, userID string, min projectdomain.Role) (*Access, error) {
	a, ok := FromContext(ctx)
	if !ok || a.UserID != userID || a.Project.ID != projectID {
		var err error
		a, err = e.ResolveRole(ctx, projectID, userID)
		if err != nil {
			return nil, err
		}
	}

	if !a.Role.AtLeast(min) {
		if min == projectdomain.RoleOwner {
			return nil, apperror.AccessDenied("Only the project owner can perform this action")
		}
		return nil, apperror.AccessDenied("Insufficient permissions for this project")
	}
	return a, nil
}

type accessKey struct{}

// WithAccess attaches a resolved role to ctx.
func WithAccess(ctx context.Context, a *Access) context.Context {
	return context.WithValue(ctx, accessKey{}, a)
}

func FromContext(ctx context.Context) (*Access, bool) {
	a, ok := ctx.Value(accessKey{}).(*Access)
	return a, ok && a != nil
}
