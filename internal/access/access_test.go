package access

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	projectdomain "zuzuplan-backend/internal/project/domain"
	"zuzuplan-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProjects struct {
	project *projectdomain.Project
	members map[string]projectdomain.Role
	lookups int
}

func (s *stubProjects) FindByID(_ context.Context, id string) (*projectdomain.Project, error) {
	s.lookups++
	if s.project == nil || s.project.ID != id {
		return nil, nil
	}
	return s.project, nil
}

func (s *stubProjects) FindMember(_ context.Context, projectID, userID string) (*projectdomain.ProjectMember, error) {
	role, ok := s.members[userID]
	if !ok {
		return nil, nil
	}
	return &projectdomain.ProjectMember{ProjectID: projectID, UserID: userID, Role: role}, nil
}

func newStub() *stubProjects {
	return &stubProjects{
		project: &projectdomain.Project{ID: "p1", Name: "Website Redesign", OwnerID: "owner"},
		members: map[string]projectdomain.Role{
			"owner":  projectdomain.RoleOwner,
			"admin":  projectdomain.RoleAdmin,
			"member": projectdomain.RoleMember,
			"viewer": projectdomain.RoleViewer,
			// A stale Owner row for someone who no longer owns the project.
			"former": projectdomain.RoleOwner,
		},
	}
}

func TestResolveRole(t *testing.T) {
	e := NewEvaluator(newStub())
	ctx := context.Background()

	tests := []struct {
		user string
		want projectdomain.Role
	}{
		{"owner", projectdomain.RoleOwner},
		{"admin", projectdomain.RoleAdmin},
		{"member", projectdomain.RoleMember},
		{"viewer", projectdomain.RoleViewer},
		{"former", projectdomain.RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			a, err := e.ResolveRole(ctx, "p1", tt.user)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Role)
			assert.Equal(t, tt.user == "owner", a.IsOwner())
		})
	}
}

func TestResolveRole_HidesProjectFromStrangers(t *testing.T) {
	e := NewEvaluator(newStub())
	ctx := context.Background()

	_, err := e.ResolveRole(ctx, "p1", "stranger")
	assert.Equal(t, apperror.KindNotFound, apperror.From(err).Kind)
	assert.Equal(t, "Project not found", apperror.From(err).Message)

	_, err = e.ResolveRole(ctx, "missing", "owner")
	assert.Equal(t, apperror.KindNotFound, apperror.From(err).Kind)
}

func TestRequire(t *testing.T) {
	e := NewEvaluator(newStub())
	ctx := context.Background()

	levels := []projectdomain.Role{projectdomain.RoleViewer, projectdomain.RoleMember, projectdomain.RoleAdmin, projectdomain.RoleOwner}
	users := []string{"viewer", "member", "admin", "owner"}
	for ui, user := range users {
		for li, min := range levels {
			_, err := e.Require(ctx, "p1", user, min)
			if li <= ui {
				assert.NoError(t, err, "%s should pass %s", user, min)
			} else {
				assert.Equal(t, apperror.KindAccessDenied, apperror.From(err).Kind, "%s should fail %s", user, min)
			}
		}
	}

	_, err := e.Require(ctx, "p1", "stranger", projectdomain.RoleViewer)
	assert.Equal(t, apperror.KindNotFound, apperror.From(err).Kind)
}

func TestRequire_ReusesAccessFromContext(t *testing.T) {
	stub := newStub()
	e := NewEvaluator(stub)

	a, err := e.ResolveRole(context.Background(), "p1", "member")
	require.NoError(t, err)
	ctx := WithAccess(context.Background(), a)
	lookups := stub.lookups

	_, err = e.Require(ctx, "p1", "member", projectdomain.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, lookups, stub.lookups)

	// A different user resolves afresh.
	_, err = e.Require(ctx, "p1", "viewer", projectdomain.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, lookups+1, stub.lookups)
}

func TestRequireProjectRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := NewEvaluator(newStub())

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", c.GetHeader("X-User"))
		c.Next()
	})
	router.DELETE("/projects/:id", e.RequireProjectRole("id", projectdomain.RoleAdmin), func(c *gin.Context) {
		a, ok := FromContext(c.Request.Context())
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"role": c.GetString("projectRole"), "user": a.UserID})
	})

	tests := []struct {
		user string
		code int
	}{
		{"admin", http.StatusOK},
		{"owner", http.StatusOK},
		{"member", http.StatusForbidden},
		{"stranger", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/projects/p1", nil)
			req.Header.Set("X-User", tt.user)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}
