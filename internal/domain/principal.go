package domain

import (
	"slices"

	"github.com/google/uuid"
)

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID uuid.UUID
	Roles  []string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return slices.Contains(p.Roles, RoleAdmin)
}

// CanAccess is the single authorization rule for owned resources:
// the owner or an admin may read or modify it.
func (p Principal) CanAccess(ownerID uuid.UUID) bool {
	if p.UserID == uuid.Nil {
		return false
	}
	return p.UserID == ownerID || p.IsAdmin()
}
