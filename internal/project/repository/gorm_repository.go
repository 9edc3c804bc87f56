package repository

import (
	"context"
	"errors"
	"strings"

	authrepo "zuzuplan-backend/internal/auth/repository"
	projectdomain "zuzuplan-backend/internal/project/domain"
	"zuzuplan-backend/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormProjectRepository struct {
	db *gorm.DB
}

func NewGormProjectRepository(db *gorm.DB) ProjectRepository {
	return &gormProjectRepository{db: db}
}

func (r *gormProjectRepository) Create(ctx context.Context, project *projectdomain.Project) error {
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	return database.Conn(ctx, r.db).Omit("Owner", "Members").Create(project).Error
}

func (r *gormProjectRepository) FindByID(ctx context.Context, id string) (*projectdomain.Project, error) {
	var project projectdomain.Project
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}

func (r *gormProjectRepository) FindDetailed(ctx context.Context, id string) (*projectdomain.Project, error) {
	var project projectdomain.Project
	err := database.Conn(ctx, r.db).
		Preload("Owner").
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Members.User").
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}

// ListForUser returns projects the user owns or belongs to, most recently
// updated first. Members are preloaded with one query per association.
func (r *gormProjectRepository) ListForUser(ctx context.Context, filter ProjectFilter) ([]projectdomain.Project, int64, error) {
	db := database.Conn(ctx, r.db)
	scope := func() *gorm.DB {
		memberOf := db.Session(&gorm.Session{NewDB: true}).
			Model(&projectdomain.ProjectMember{}).
			Select("project_id").
			Where("user_id = ?", filter.UserID)
		query := db.Model(&projectdomain.Project{}).
			Where("owner_id = ? OR id IN (?)", filter.UserID, memberOf)
		if search := strings.TrimSpace(filter.Search); search != "" {
			pattern := "%" + authrepo.EscapeLike(strings.ToLower(search)) + "%"
			query = query.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\\')", pattern, pattern)
		}
		return query
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []projectdomain.Project
	err := scope().
		Preload("Owner").
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Members.User").
		Order("updated_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (r *gormProjectRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return database.Conn(ctx, r.db).Model(&projectdomain.Project{}).Where("id = ?", id).Updates(fields).Error
}

func (r *gormProjectRepository) UpdateProgress(ctx context.Context, id string, progress float64) error {
	// UpdateColumn keeps updated_at, so recomputation does not reorder listings.
	return database.Conn(ctx, r.db).Model(&projectdomain.Project{}).Where("id = ?", id).UpdateColumn("progress", progress).Error
}

func (r *gormProjectRepository) Delete(ctx context.Context, id string) error {
	return database.Conn(ctx, r.db).Where("id = ?", id).Delete(&projectdomain.Project{}).Error
}

func (r *gormProjectRepository) AddMember(ctx context.Context, member *projectdomain.ProjectMember) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	return database.Conn(ctx, r.db).Omit("User").Create(member).Error
}

func (r *gormProjectRepository) FindMember(ctx context.Context, projectID, userID string) (*projectdomain.ProjectMember, error) {
	var member projectdomain.ProjectMember
	err := database.Conn(ctx, r.db).
		Preload("User").
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *gormProjectRepository) ListMembers(ctx context.Context, projectID string) ([]projectdomain.ProjectMember, error) {
	var members []projectdomain.ProjectMember
	err := database.Conn(ctx, r.db).
		Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *gormProjectRepository) UpdateMemberRole(ctx context.Context, projectID, userID string, role projectdomain.Role) error {
	return database.Conn(ctx, r.db).Model(&projectdomain.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Update("role", role).Error
}

func (r *gormProjectRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	return database.Conn(ctx, r.db).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&projectdomain.ProjectMember{}).Error
}

func (r *gormProjectRepository) DeleteMembers(ctx context.Context, projectID string) error {
	return database.Conn(ctx, r.db).Where("project_id = ?", projectID).Delete(&projectdomain.ProjectMember{}).Error
}

func (r *gormProjectRepository) ProjectIDsForUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := database.Conn(ctx, r.db).Model(&projectdomain.ProjectMember{}).
		Where("user_id = ?", userID).
		Pluck("project_id", &ids).Error
	return ids, err
}
