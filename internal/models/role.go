package models

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleProductOwner Role = "product_owner"
	RoleDeveloper    Role = "developer"
)

// Roles lists every role an account may hold.
var Roles = []Role{RoleAdmin, RoleProductOwner, RoleDeveloper}

// IsValid reports whether r is one of the known account roles.
func (r Role) IsValid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
