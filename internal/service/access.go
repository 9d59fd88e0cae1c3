package service

import (
	"fmt"

	"expohall/internal/apperrors"
	"expohall/internal/models"
)

// Principal is the resolved caller identity: the auth middleware maps
// the opaque request credentials to (userID, role) and the workflow
// trusts that resolution, enforcing ownership and role checks itself.
type Principal struct {
	UserID int64
	Role   string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// requireOwner is the single capability check used by every workflow
// operation: the principal must either be an admin or hold the required
// role AND own the resource identified by ownerID.
func requireOwner(p Principal, ownerID int64, role string) error {
	if p.IsAdmin() {
		return nil
	}
	if p.Role == role && p.UserID == ownerID {
		return nil
	}
	return fmt.Errorf("user %d (role %s) may not manage resource owned by %d: %w",
		p.UserID, p.Role, ownerID, apperrors.ErrForbidden)
}

// requireRole passes for admins or any principal holding one of the
// given roles, regardless of ownership.
func requireRole(p Principal, roles ...string) error {
	if p.IsAdmin() {
		return nil
	}
	for _, role := range roles {
		if p.Role == role {
			return nil
		}
	}
	return fmt.Errorf("user %d (role %s) lacks required role: %w",
		p.UserID, p.Role, apperrors.ErrForbidden)
}
