package domain

import "time"

const (
	TypeTaskAssigned  = "TASK_ASSIGNED"
	TypeTaskDueSoon   = "TASK_DUE_SOON"
	TypeTaskOverdue   = "TASK_OVERDUE"
	TypeProjectInvite = "PROJECT_INVITE"
	TypeCommentAdded  = "COMMENT_ADDED"
)

// Notification is addressed to one user. Only Read ever changes.
type Notification struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);index;not null"`
	Type      string    `json:"type" gorm:"type:varchar(32);not null"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	Read      bool      `json:"read" gorm:"index;not null;default:false"`
	RelatedID *string   `json:"relatedId"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}
