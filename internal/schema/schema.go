// Package schema lists every persisted model for migrations.
package schema

import (
	activitydomain "zuzuplan-backend/internal/activity/domain"
	authdomain "zuzuplan-backend/internal/auth/domain"
	notificationdomain "zuzuplan-backend/internal/notification/domain"
	projectdomain "zuzuplan-backend/internal/project/domain"
	taskdomain "zuzuplan-backend/internal/task/domain"

	"gorm.io/gorm"
)

// Models returns the models in dependency order.
func Models() []interface{} {
	return []interface{}{
		&authdomain.User{},
		&authdomain.RefreshToken{},
		&authdomain.FCMToken{},
		&projectdomain.Project{},
		&projectdomain.ProjectMember{},
		&taskdomain.Task{},
		&taskdomain.Subtask{},
		&taskdomain.Label{},
		&taskdomain.TaskLabel{},
		&taskdomain.Comment{},
		&taskdomain.Attachment{},
		&activitydomain.ActivityLog{},
		&notificationdomain.Notification{},
	}
}

// Migrate creates or alters tables to match the models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
