package domain

import (
	"math"
	"time"

	authdomain "zuzuplan-backend/internal/auth/domain"
)

type Project struct {
	ID          string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string           `json:"name" gorm:"not null"`
	Description *string          `json:"description"`
	OwnerID     string           `json:"ownerId" gorm:"type:varchar(36);index;not null"`
	Owner       *authdomain.User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Progress    float64          `json:"progress" gorm:"not null;default:0"`
	Members     []ProjectMember  `json:"members,omitempty" gorm:"foreignKey:ProjectID"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`

	Count *ProjectCounts `json:"_count,omitempty" gorm:"-"`
}

// ProjectCounts is attached to a single-project read.
type ProjectCounts struct {
	Tasks  int64 `json:"tasks"`
	Labels int64 `json:"labels"`
}

// ProjectMember grants a user a role in a project. (ProjectID, UserID) is unique.
type ProjectMember struct {
	ID        string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProjectID string           `json:"projectId" gorm:"type:varchar(36);uniqueIndex:idx_project_member;not null"`
	UserID    string           `json:"userId" gorm:"type:varchar(36);uniqueIndex:idx_project_member;index;not null"`
	Role      Role             `json:"role" gorm:"type:varchar(16);not null"`
	User      *authdomain.User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// ProjectStats summarizes a project's tasks.
type ProjectStats struct {
	TotalTasks      int64   `json:"totalTasks"`
	CompletedTasks  int64   `json:"completedTasks"`
	InProgressTasks int64   `json:"inProgressTasks"`
	OverdueTasks    int64   `json:"overdueTasks"`
	Progress        float64 `json:"progress"`
}

// CalculateProgress returns the percentage of done tasks rounded to two
// decimals, or 0 for a project without tasks.
func CalculateProgress(done, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(done)*100/float64(total)*100) / 100
}
