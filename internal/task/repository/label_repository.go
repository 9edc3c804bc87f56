package repository

import (
	"context"
	"errors"

	"zuzuplan-backend/internal/task/domain"
	"zuzuplan-backend/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormLabelRepository struct {
	db *gorm.DB
}

func NewGormLabelRepository(db *gorm.DB) LabelRepository {
	return &gormLabelRepository{db: db}
}

func (r *gormLabelRepository) Create(ctx context.Context, label *domain.Label) error {
	if label.ID == "" {
		label.ID = uuid.New().String()
	}
	return database.Conn(ctx, r.db).Create(label).Error
}

func (r *gormLabelRepository) FindByID(ctx context.Context, id string) (*domain.Label, error) {
	var label domain.Label
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&label).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &label, nil
}

func (r *gormLabelRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Label, error) {
	labels := []domain.Label{}
	err := database.Conn(ctx, r.db).Where("project_id = ?", projectID).Order("name ASC").Find(&labels).Error
	return labels, err
}

func (r *gormLabelRepository) CountInProject(ctx context.Context, projectID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := database.Conn(ctx, r.db).Model(&domain.Label{}).
		Where("project_id = ? AND id IN ?", projectID, ids).
		Count(&count).Error
	return count, err
}

func (r *gormLabelRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return database.Conn(ctx, r.db).Model(&domain.Label{}).Where("id = ?", id).Updates(fields).Error
}

func (r *gormLabelRepository) Delete(ctx context.Context, id string) error {
	db := database.Conn(ctx, r.db)
	if err := db.Where("label_id = ?", id).Delete(&domain.TaskLabel{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&domain.Label{}).Error
}
