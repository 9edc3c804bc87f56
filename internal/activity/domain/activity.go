package domain

import (
	"time"

	authdomain "zuzuplan-backend/internal/auth/domain"
)

type Action string

const (
	ActionCreated         Action = "CREATED"
	ActionUpdated         Action = "UPDATED"
	ActionDeleted         Action = "DELETED"
	ActionStatusChanged   Action = "STATUS_CHANGED"
	ActionMemberAdded     Action = "MEMBER_ADDED"
	ActionMemberRemoved   Action = "MEMBER_REMOVED"
	ActionRoleChanged     Action = "ROLE_CHANGED"
	ActionCommentAdded    Action = "COMMENT_ADDED"
	ActionAttachmentAdded Action = "ATTACHMENT_ADDED"
)

// ActivityLog is an append-only audit entry. Details holds the JSON
// encoding of one of the Details variants.
type ActivityLog struct {
	ID        string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProjectID string           `json:"projectId" gorm:"type:varchar(36);index;not null"`
	TaskID    *string          `json:"taskId" gorm:"type:varchar(36);index"`
	UserID    string           `json:"userId" gorm:"type:varchar(36);index;not null"`
	Action    Action           `json:"action" gorm:"type:varchar(32);not null"`
	Details   string           `json:"details" gorm:"type:text"`
	CreatedAt time.Time        `json:"createdAt" gorm:"index"`
	User      *authdomain.User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Task      *TaskRef         `json:"task,omitempty" gorm:"-"`
}

// TaskRef names the task an entry refers to. It is nil once the task is gone.
type TaskRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
