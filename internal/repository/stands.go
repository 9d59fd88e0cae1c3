package repository

import (
	"context"
	"database/sql"
	"fmt"

	"expohall/internal/apperrors"
	"expohall/internal/database"
	"expohall/internal/models"

	"github.com/lib/pq"
)

type StandRepository struct {
	db *database.DB
}

func NewStandRepository(db *database.DB) *StandRepository {
	return &StandRepository{db: db}
}

func (r *StandRepository) Create(ctx context.Context, stand *models.Stand) error {
	query := `
		INSERT INTO stands (plan_id, number, type, price, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		stand.PlanID,
		stand.Number,
		stand.Type,
		stand.Price,
		models.StandAvailable,
	).Scan(&stand.ID, &stand.CreatedAt, &stand.UpdatedAt)

	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("stand %d already exists on plan %d: %w",
			stand.Number, stand.PlanID, apperrors.ErrConflict)
	}

	return err
}

func (r *StandRepository) GetByID(ctx context.Context, id int64) (*models.Stand, error) {
	stand := &models.Stand{}
	query := `
		SELECT id, plan_id, number, type, price, status, registration_id, created_at, updated_at
		FROM stands
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&stand.ID,
		&stand.PlanID,
		&stand.Number,
		&stand.Type,
		&stand.Price,
		&stand.Status,
		&stand.RegistrationID,
		&stand.CreatedAt,
		&stand.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return stand, err
}

func (r *StandRepository) ListByPlan(ctx context.Context, planID int64) ([]models.Stand, error) {
	query := `
		SELECT id, plan_id, number, type, price, status, registration_id, created_at, updated_at
		FROM stands
		WHERE plan_id = $1
		ORDER BY number`

	return r.queryStands(ctx, query, planID)
}

func (r *StandRepository) ListAvailableByEvent(ctx context.Context, eventID int64) ([]models.Stand, error) {
	query := `
		SELECT s.id, s.plan_id, s.number, s.type, s.price, s.status, s.registration_id,
		       s.created_at, s.updated_at
		FROM stands s
		JOIN plans p ON p.id = s.plan_id
		WHERE p.event_id = $1 AND s.status = 'AVAILABLE'
		ORDER BY s.plan_id, s.number`

	return r.queryStands(ctx, query, eventID)
}

// ListByRegistration returns the stands currently linked to a registration.
func (r *StandRepository) ListByRegistration(ctx context.Context, registrationID int64) ([]models.Stand, error) {
	query := `
		SELECT s.id, s.plan_id, s.number, s.type, s.price, s.status, s.registration_id,
		       s.created_at, s.updated_at
		FROM stands s
		JOIN registration_stands rs ON rs.stand_id = s.id
		WHERE rs.registration_id = $1
		ORDER BY s.plan_id, s.number`

	return r.queryStands(ctx, query, registrationID)
}

func (r *StandRepository) queryStands(ctx context.Context, query string, args ...interface{}) ([]models.Stand, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stands []models.Stand
	for rows.Next() {
		var stand models.Stand
		err := rows.Scan(
			&stand.ID,
			&stand.PlanID,
			&stand.Number,
			&stand.Type,
			&stand.Price,
			&stand.Status,
			&stand.RegistrationID,
			&stand.CreatedAt,
			&stand.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		stands = append(stands, stand)
	}

	return stands, rows.Err()
}

// Reserve marks a stand RESERVED for a registration. The status check
// and the update are one conditional statement, so of two concurrent
// callers exactly one sees RowsAffected == 1; the loser gets
// ErrNotAvailable, never a silent overwrite. The status change and the
// link row commit in one transaction so a stand is never RESERVED
// without its back-link.
func (r *StandRepository) Reserve(ctx context.Context, standID, registrationID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE stands
		SET status = 'RESERVED', registration_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'AVAILABLE'`, standID, registrationID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		var status string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM stands WHERE id = $1`, standID).Scan(&status)
		if err == sql.ErrNoRows {
			return fmt.Errorf("stand %d: %w", standID, apperrors.ErrNotFound)
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("stand %d: %w", standID, apperrors.ErrNotAvailable)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO registration_stands (registration_id, stand_id) VALUES ($1, $2)
		 ON CONFLICT (registration_id, stand_id) DO NOTHING`, registrationID, standID); err != nil {
		return err
	}

	return tx.Commit()
}

// Free releases a stand back to AVAILABLE. Idempotent: freeing an
// already-available stand is a no-op.
func (r *StandRepository) Free(ctx context.Context, standID int64) error {
	query := `
		UPDATE stands
		SET status = 'AVAILABLE', registration_id = NULL, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, standID); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `DELETE FROM registration_stands WHERE stand_id = $1`, standID)
	return err
}

// ReplaceSelection atomically replaces a registration's stand set.
// All requested stands are validated first; any stand that is neither
// available nor already held by this registration aborts the whole call
// with nothing committed. Stands dropped from the selection keep their
// RESERVED status and back-reference: release happens only through
// cancellation, administrative free, or reconciliation.
func (r *StandRepository) ReplaceSelection(ctx context.Context, registrationID int64, standIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Current holdings are exempt from the availability check so that
	// re-submitting the same selection is idempotent.
	held := make(map[int64]bool)
	rows, err := tx.QueryContext(ctx,
		`SELECT stand_id FROM registration_stands WHERE registration_id = $1`, registrationID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		held[id] = true
	}
	if err := rows.Close(); err != nil {
		return err
	}

	found := make(map[int64]string)
	rows, err = tx.QueryContext(ctx,
		`SELECT id, status FROM stands WHERE id = ANY($1) FOR UPDATE`, pq.Array(standIDs))
	if err != nil {
		return err
	}
	for rows.Next() {
		var id int64
		var status string
		if err := rows.Scan(&id, &status); err != nil {
			rows.Close()
			return err
		}
		found[id] = status
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for _, standID := range standIDs {
		status, ok := found[standID]
		if !ok {
			return fmt.Errorf("stand %d: %w", standID, apperrors.ErrNotFound)
		}
		if held[standID] {
			continue
		}
		if status != models.StandAvailable {
			return fmt.Errorf("stand %d: %w", standID, apperrors.ErrNotAvailable)
		}
	}

	for _, standID := range standIDs {
		if held[standID] {
			continue
		}
		result, err := tx.ExecContext(ctx,
			`UPDATE stands SET status = 'RESERVED', registration_id = $2, updated_at = NOW()
			 WHERE id = $1 AND status = 'AVAILABLE'`, standID, registrationID)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("stand %d: %w", standID, apperrors.ErrNotAvailable)
		}
	}

	// Replace the link set wholesale. Dropped stands are NOT freed here.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM registration_stands WHERE registration_id = $1 AND stand_id <> ALL($2)`,
		registrationID, pq.Array(standIDs)); err != nil {
		return err
	}

	for _, standID := range standIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO registration_stands (registration_id, stand_id) VALUES ($1, $2)
			 ON CONFLICT (registration_id, stand_id) DO NOTHING`, registrationID, standID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListOrphaned returns stands still RESERVED whose back-reference
// points at a cancelled or deleted registration. Used by the
// reconciliation job.
func (r *StandRepository) ListOrphaned(ctx context.Context) ([]models.Stand, error) {
	query := `
		SELECT s.id, s.plan_id, s.number, s.type, s.price, s.status, s.registration_id,
		       s.created_at, s.updated_at
		FROM stands s
		LEFT JOIN registrations reg ON reg.id = s.registration_id
		WHERE s.status = 'RESERVED'
		  AND (reg.id IS NULL OR reg.status = 'CANCELLED')`

	return r.queryStands(ctx, query)
}
