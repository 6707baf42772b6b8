package model

// Role is a named bundle of permission strings stored in the 'roles'
// collection.  A permission value of "*" grants every permission.
// Roles are seeded at process start when the collection is empty and
// are treated as immutable afterwards.
type Role struct {
	Name        string   `bson:"name" json:"name"`
	Permissions []string `bson:"permissions" json:"permissions"`
}

// PermWildcard grants every permission when present in a role.
const PermWildcard = "*"

// Permission names used across route guards.
const (
	PermRead          = "read"
	PermCreate        = "create"
	PermUpdate        = "update"
	PermDelete        = "delete"
	PermReadTraining  = "read_training"
	PermManageBooking = "manage_booking"
)

// SeedRoles returns the two fixed roles installed on first start.
func SeedRoles() []Role {
	return []Role{
		{Name: "admin", Permissions: []string{PermRead, PermCreate, PermUpdate, PermDelete, PermReadTraining, PermManageBooking}},
		{Name: "user", Permissions: []string{PermReadTraining, PermManageBooking}},
	}
}
