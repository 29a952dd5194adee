package domain

// UserWorkplaceRole defines the role an actor holds within a workplace (tenant).
type UserWorkplaceRole string

const (
	RoleAdmin    UserWorkplaceRole = "ADMIN"
	RoleMember   UserWorkplaceRole = "MEMBER"
	RoleReadOnly UserWorkplaceRole = "READONLY" // Users with read-only access to workplace data
	RoleRemoved  UserWorkplaceRole = "REMOVED"  // For users who have been removed from the workplace
)

// CanPost reports whether an actor with this role may submit documents for posting.
func (r UserWorkplaceRole) CanPost() bool {
	return r == RoleAdmin || r == RoleMember
}
