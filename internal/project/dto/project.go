package dto

import (
	projectdomain "zuzuplan-backend/internal/project/domain"
	"zuzuplan-backend/pkg/patch"
)

type CreateProjectRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// UpdateProjectRequest is a partial update. An explicit null description
// clears it.
type UpdateProjectRequest struct {
	Name        *string             `json:"name" binding:"omitempty,min=1,max=200"`
	Description patch.Field[string] `json:"description"`
}

// AddMemberRequest identifies the invitee by id or by email.
type AddMemberRequest struct {
	UserID string             `json:"userId"`
	Email  string             `json:"email" binding:"omitempty,email"`
	Role   projectdomain.Role `json:"role"`
}

type UpdateMemberRoleRequest struct {
	Role projectdomain.Role `json:"role" binding:"required"`
}
