package repository

import (
	"context"
	"database/sql"

	"expohall/internal/database"
	"expohall/internal/models"
)

type PlanRepository struct {
	db *database.DB
}

func NewPlanRepository(db *database.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	query := `
		INSERT INTO plans (event_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query, plan.EventID, plan.Name).
		Scan(&plan.ID, &plan.CreatedAt)
}

func (r *PlanRepository) GetByID(ctx context.Context, id int64) (*models.Plan, error) {
	plan := &models.Plan{}
	query := `SELECT id, event_id, name, created_at FROM plans WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&plan.ID,
		&plan.EventID,
		&plan.Name,
		&plan.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return plan, err
}

func (r *PlanRepository) ListByEvent(ctx context.Context, eventID int64) ([]models.Plan, error) {
	var plans []models.Plan
	query := `SELECT id, event_id, name, created_at FROM plans WHERE event_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var plan models.Plan
		if err := rows.Scan(&plan.ID, &plan.EventID, &plan.Name, &plan.CreatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	return plans, rows.Err()
}
