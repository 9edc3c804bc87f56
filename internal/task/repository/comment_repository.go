package repository

import (
	"context"
	"errors"

	"zuzuplan-backend/internal/task/domain"
	"zuzuplan-backend/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormCommentRepository struct {
	db *gorm.DB
}

func NewGormCommentRepository(db *gorm.DB) CommentRepository {
	return &gormCommentRepository{db: db}
}

func (r *gormCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	return database.Conn(ctx, r.db).Omit("User").Create(comment).Error
}

func (r *gormCommentRepository) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	err := database.Conn(ctx, r.db).Preload("User").Where("id = ?", id).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

func (r *gormCommentRepository) ListByTask(ctx context.Context, taskID string, offset, limit int) ([]domain.Comment, int64, error) {
	db := database.Conn(ctx, r.db)

	var total int64
	if err := db.Model(&domain.Comment{}).Where("task_id = ?", taskID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	comments := []domain.Comment{}
	err := db.Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&comments).Error
	return comments, total, err
}

func (r *gormCommentRepository) UpdateContent(ctx context.Context, id, content string) error {
	return database.Conn(ctx, r.db).Model(&domain.Comment{}).Where("id = ?", id).Update("content", content).Error
}

func (r *gormCommentRepository) Delete(ctx context.Context, id string) error {
	return database.Conn(ctx, r.db).Where("id = ?", id).Delete(&domain.Comment{}).Error
}
