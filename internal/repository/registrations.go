package repository

import (
	"context"
	"database/sql"
	"fmt"

	"expohall/internal/apperrors"
	"expohall/internal/database"
	"expohall/internal/models"
)

type RegistrationRepository struct {
	db *database.DB
}

func NewRegistrationRepository(db *database.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `
	id, exhibitor_id, event_id, status, note,
	stand_selection_complete, equipment_selection_complete,
	approval_date, rejection_date, rejection_reason, reviewed_by,
	cancelled_by, cancelled_role, cancellation_reason, cancellation_date,
	created_at, updated_at`

func scanRegistration(row interface{ Scan(...interface{}) error }, reg *models.Registration) error {
	return row.Scan(
		&reg.ID,
		&reg.ExhibitorID,
		&reg.EventID,
		&reg.Status,
		&reg.Note,
		&reg.StandSelectionComplete,
		&reg.EquipmentSelectionComplete,
		&reg.ApprovalDate,
		&reg.RejectionDate,
		&reg.RejectionReason,
		&reg.ReviewedBy,
		&reg.CancelledBy,
		&reg.CancelledRole,
		&reg.CancellationReason,
		&reg.CancellationDate,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
}

// Create inserts a new Pending registration. The partial unique index on
// (exhibitor_id, event_id) WHERE status <> 'CANCELLED' turns a duplicate
// live registration into ErrConflict.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (exhibitor_id, event_id, status, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		reg.ExhibitorID,
		reg.EventID,
		reg.Status,
		reg.Note,
	).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)

	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("exhibitor %d already has an active registration for event %d: %w",
			reg.ExhibitorID, reg.EventID, apperrors.ErrConflict)
	}

	return err
}

func (r *RegistrationRepository) GetByID(ctx context.Context, id int64) (*models.Registration, error) {
	reg := &models.Registration{}
	query := `SELECT` + registrationColumns + ` FROM registrations WHERE id = $1`

	err := scanRegistration(r.db.QueryRowContext(ctx, query, id), reg)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return reg, err
}

func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID int64, status string) ([]models.Registration, error) {
	query := `SELECT` + registrationColumns + ` FROM registrations WHERE event_id = $1`
	args := []interface{}{eventID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	return r.queryRegistrations(ctx, query, args...)
}

func (r *RegistrationRepository) ListByExhibitor(ctx context.Context, exhibitorID int64, status string) ([]models.Registration, error) {
	query := `SELECT` + registrationColumns + ` FROM registrations WHERE exhibitor_id = $1`
	args := []interface{}{exhibitorID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	return r.queryRegistrations(ctx, query, args...)
}

func (r *RegistrationRepository) queryRegistrations(ctx context.Context, query string, args ...interface{}) ([]models.Registration, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := scanRegistration(rows, &reg); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}

	return regs, rows.Err()
}

// MarkApproved stamps the approval date and reviewer. Guarded on the
// Pending status so a concurrent review cannot double-apply.
func (r *RegistrationRepository) MarkApproved(ctx context.Context, id, reviewerID int64) error {
	query := `
		UPDATE registrations
		SET status = 'APPROVED', approval_date = NOW(), reviewed_by = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'`

	return r.guardedUpdate(ctx, id, query, id, reviewerID)
}

// MarkRejected stamps the rejection date, reviewer and reason.
func (r *RegistrationRepository) MarkRejected(ctx context.Context, id, reviewerID int64, reason string) error {
	query := `
		UPDATE registrations
		SET status = 'REJECTED', rejection_date = NOW(), rejection_reason = $3,
		    reviewed_by = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'`

	return r.guardedUpdate(ctx, id, query, id, reviewerID, reason)
}

// MarkCancelled stores the cancellation record and clears both
// selection-completion flags. Guarded against terminal states.
func (r *RegistrationRepository) MarkCancelled(ctx context.Context, id, actorID int64, role string, reason *string) error {
	query := `
		UPDATE registrations
		SET status = 'CANCELLED', cancelled_by = $2, cancelled_role = $3,
		    cancellation_reason = $4, cancellation_date = NOW(),
		    stand_selection_complete = FALSE, equipment_selection_complete = FALSE,
		    updated_at = NOW()
		WHERE id = $1 AND status IN ('PENDING', 'APPROVED', 'COMPLETED')`

	return r.guardedUpdate(ctx, id, query, id, actorID, role, reason)
}

// MarkCompleted transitions an Approved registration to Completed.
func (r *RegistrationRepository) MarkCompleted(ctx context.Context, id int64) error {
	query := `
		UPDATE registrations
		SET status = 'COMPLETED', updated_at = NOW()
		WHERE id = $1 AND status = 'APPROVED'`

	return r.guardedUpdate(ctx, id, query, id)
}

func (r *RegistrationRepository) guardedUpdate(ctx context.Context, id int64, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("registration %d: %w", id, apperrors.ErrInvalidState)
	}

	return nil
}

// SetSelectionFlags updates one or both completion flags; nil leaves a
// flag untouched.
func (r *RegistrationRepository) SetSelectionFlags(ctx context.Context, id int64, standComplete, equipmentComplete *bool) error {
	query := `
		UPDATE registrations
		SET stand_selection_complete = COALESCE($2, stand_selection_complete),
		    equipment_selection_complete = COALESCE($3, equipment_selection_complete),
		    updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, standComplete, equipmentComplete)
	return err
}

// Delete removes the registration irrecoverably; link rows cascade.
func (r *RegistrationRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("registration %d: %w", id, apperrors.ErrNotFound)
	}

	return nil
}
