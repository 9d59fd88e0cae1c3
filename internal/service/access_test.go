package service

import (
	"testing"

	"expohall/internal/apperrors"
	"expohall/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRequireOwner(t *testing.T) {
	owner := Principal{UserID: 5, Role: models.RoleExhibitor}

	assert.NoError(t, requireOwner(owner, 5, models.RoleExhibitor))
	assert.ErrorIs(t, requireOwner(owner, 6, models.RoleExhibitor), apperrors.ErrForbidden)
	assert.ErrorIs(t, requireOwner(owner, 5, models.RoleOrganizer), apperrors.ErrForbidden)

	// Admins bypass ownership entirely.
	assert.NoError(t, requireOwner(admin, 6, models.RoleExhibitor))
}

func TestRequireRole(t *testing.T) {
	assert.NoError(t, requireRole(organizer, models.RoleOrganizer))
	assert.NoError(t, requireRole(organizer, models.RoleExhibitor, models.RoleOrganizer))
	assert.ErrorIs(t, requireRole(exhibitor, models.RoleOrganizer), apperrors.ErrForbidden)
	assert.NoError(t, requireRole(admin, models.RoleOrganizer))
}
