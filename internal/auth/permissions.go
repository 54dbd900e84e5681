package auth

import "fmt"

// Role is the coarse identity carried in a token.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleViewer, RoleOperator:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Permission represents a named capability.
type Permission string

const (
	PermReadingsRead   Permission = "readings:read"
	PermSelectionRead  Permission = "selection:read"
	PermSelectionWrite Permission = "selection:write"
	PermStreamConnect  Permission = "stream:connect"
)

// rolePermissions is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermReadingsRead,
		PermSelectionRead,
		PermStreamConnect,
	},
	RoleOperator: {
		PermReadingsRead,
		PermSelectionRead,
		PermSelectionWrite,
		PermStreamConnect,
	},
}

// HasPermission returns true if role grants perm.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns a copy of the permissions granted to role, or
// nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	result := make([]Permission, len(perms))
	copy(result, perms)
	return result
}
