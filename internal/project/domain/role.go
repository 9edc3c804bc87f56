package domain

// Role is a member's level within a project.
type Role string

const (
	RoleOwner  Role = "Owner"
	RoleAdmin  Role = "Admin"
	RoleMember Role = "Member"
	RoleViewer Role = "Viewer"
)

var roleLevels = map[Role]int{
	RoleOwner:  4,
	RoleAdmin:  3,
	RoleMember: 2,
	RoleViewer: 1,
}

// Level orders roles; unknown roles are 0.
func (r Role) Level() int {
	return roleLevels[r]
}

// AtLeast reports whether r grants everything min grants.
func (r Role) AtLeast(min Role) bool {
	return r.Level() > 0 && r.Level() >= min.Level()
}

func (r Role) Valid() bool {
	return r.Level() > 0
}

// Assignable reports whether r may be given through invite or role change.
// Ownership only comes from creating the project.
func (r Role) Assignable() bool {
	return r.Valid() && r != RoleOwner
}
