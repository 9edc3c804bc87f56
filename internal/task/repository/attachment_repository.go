package repository

import (
	"context"
	"errors"

	"zuzuplan-backend/internal/task/domain"
	"zuzuplan-backend/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormAttachmentRepository struct {
	db *gorm.DB
}

func NewGormAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &gormAttachmentRepository{db: db}
}

func (r *gormAttachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	if attachment.ID == "" {
		attachment.ID = uuid.New().String()
	}
	return database.Conn(ctx, r.db).Omit("Uploader").Create(attachment).Error
}

func (r *gormAttachmentRepository) FindByID(ctx context.Context, id string) (*domain.Attachment, error) {
	var attachment domain.Attachment
	err := database.Conn(ctx, r.db).Preload("Uploader").Where("id = ?", id).First(&attachment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attachment, nil
}

func (r *gormAttachmentRepository) ListByTask(ctx context.Context, taskID string) ([]domain.Attachment, error) {
	attachments := []domain.Attachment{}
	err := database.Conn(ctx, r.db).
		Preload("Uploader").
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&attachments).Error
	return attachments, err
}

func (r *gormAttachmentRepository) Delete(ctx context.Context, id string) error {
	return database.Conn(ctx, r.db).Where("id = ?", id).Delete(&domain.Attachment{}).Error
}
