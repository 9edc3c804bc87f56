package repository

import (
	"context"
	"errors"

	notificationdomain "zuzuplan-backend/internal/notification/domain"
	"zuzuplan-backend/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListFilter struct {
	UserID string
	Read   *bool
	Offset int
	Limit  int
}

type NotificationRepository interface {
	Create(ctx context.Context, n *notificationdomain.Notification) error
	FindByID(ctx context.Context, id string) (*notificationdomain.Notification, error)
	List(ctx context.Context, filter ListFilter) ([]notificationdomain.Notification, int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type gormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) NotificationRepository {
	return &gormNotificationRepository{db: db}
}

func (r *gormNotificationRepository) Create(ctx context.Context, n *notificationdomain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return database.Conn(ctx, r.db).Create(n).Error
}

func (r *gormNotificationRepository) FindByID(ctx context.Context, id string) (*notificationdomain.Notification, error) {
	var n notificationdomain.Notification
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// List returns the user's notifications newest first.
func (r *gormNotificationRepository) List(ctx context.Context, filter ListFilter) ([]notificationdomain.Notification, int64, error) {
	db := database.Conn(ctx, r.db)
	scope := func() *gorm.DB {
		q := db.Model(&notificationdomain.Notification{}).Where("user_id = ?", filter.UserID)
		if filter.Read != nil {
			q = q.Where("read = ?", *filter.Read)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []notificationdomain.Notification
	err := scope().
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *gormNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&notificationdomain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *gormNotificationRepository) MarkRead(ctx context.Context, id string) error {
	return database.Conn(ctx, r.db).Model(&notificationdomain.Notification{}).
		Where("id = ?", id).
		Update("read", true).Error
}

func (r *gormNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := database.Conn(ctx, r.db).Model(&notificationdomain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}
