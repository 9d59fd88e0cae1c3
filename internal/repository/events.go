package repository

import (
	"context"
	"database/sql"
	"fmt"

	"expohall/internal/database"
	"expohall/internal/models"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (organizer_id, title, description, status, start_date, registration_deadline)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		event.OrganizerID,
		event.Title,
		event.Description,
		event.Status,
		event.StartDate,
		event.RegistrationDeadline,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	event := &models.Event{}
	query := `
		SELECT id, organizer_id, title, description, status, start_date,
		       registration_deadline, created_at, updated_at
		FROM events
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Title,
		&event.Description,
		&event.Status,
		&event.StartDate,
		&event.RegistrationDeadline,
		&event.CreatedAt,
		&event.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return event, err
}

func (r *EventRepository) List(ctx context.Context, status string, page, pageSize int) ([]models.Event, error) {
	var events []models.Event
	var args []interface{}
	argIndex := 1

	query := `
		SELECT id, organizer_id, title, description, status, start_date,
		       registration_deadline, created_at, updated_at
		FROM events`

	if status != "" {
		query += fmt.Sprintf(" WHERE status = $%d", argIndex)
		args = append(args, status)
		argIndex++
	}

	query += " ORDER BY start_date"

	if page > 0 && pageSize > 0 {
		offset := (page - 1) * pageSize
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, pageSize, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID,
			&event.OrganizerID,
			&event.Title,
			&event.Description,
			&event.Status,
			&event.StartDate,
			&event.RegistrationDeadline,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func (r *EventRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}
