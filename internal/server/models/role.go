package models

// Role is a named role owning a set of permissions.
type Role struct {
	ID   int64
	Name string
}

// RoleGrant is the resolved role and permission set for one identity,
// recomputed from the role→permission join on every token issuance.
type RoleGrant struct {
	Role        string
	Permissions []string
}
