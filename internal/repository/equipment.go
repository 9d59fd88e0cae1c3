package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"expohall/internal/apperrors"
	"expohall/internal/database"
	"expohall/internal/models"
)

type EquipmentRepository struct {
	db *database.DB
}

func NewEquipmentRepository(db *database.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

func (r *EquipmentRepository) Create(ctx context.Context, equipment *models.Equipment) error {
	query := `
		INSERT INTO equipment (name, price, quantity)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		equipment.Name,
		equipment.Price,
		equipment.Quantity,
	).Scan(&equipment.ID, &equipment.CreatedAt)
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id int64) (*models.Equipment, error) {
	equipment := &models.Equipment{}
	query := `SELECT id, name, price, quantity, created_at FROM equipment WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&equipment.ID,
		&equipment.Name,
		&equipment.Price,
		&equipment.Quantity,
		&equipment.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return equipment, err
}

// Associate links a SKU to an event with an event-scoped quantity cap
// and optional price override. Re-associating updates the override.
func (r *EquipmentRepository) Associate(ctx context.Context, assoc *models.EventEquipment) error {
	query := `
		INSERT INTO event_equipment (event_id, equipment_id, total_quantity, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, equipment_id)
		DO UPDATE SET total_quantity = EXCLUDED.total_quantity, price = EXCLUDED.price`

	_, err := r.db.ExecContext(ctx, query,
		assoc.EventID,
		assoc.EquipmentID,
		assoc.TotalQuantity,
		assoc.Price,
	)
	return err
}

func (r *EquipmentRepository) Dissociate(ctx context.Context, eventID, equipmentID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM event_equipment WHERE event_id = $1 AND equipment_id = $2`,
		eventID, equipmentID)
	return err
}

// GetAssociation returns the event-scoped cap and override for a SKU,
// or nil when the SKU is not offered at the event.
func (r *EquipmentRepository) GetAssociation(ctx context.Context, eventID, equipmentID int64) (*models.EventEquipment, error) {
	assoc := &models.EventEquipment{}
	query := `
		SELECT event_id, equipment_id, total_quantity, price
		FROM event_equipment
		WHERE event_id = $1 AND equipment_id = $2`

	err := r.db.QueryRowContext(ctx, query, eventID, equipmentID).Scan(
		&assoc.EventID,
		&assoc.EquipmentID,
		&assoc.TotalQuantity,
		&assoc.Price,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return assoc, err
}

// allocatedQuery sums the quantities claimed by non-cancelled
// registrations for one (equipment, event) pair, optionally excluding
// one registration (its own allocation is being replaced).
const allocatedQuery = `
	SELECT COALESCE(SUM(re.quantity), 0)
	FROM registration_equipment re
	JOIN registrations reg ON reg.id = re.registration_id
	WHERE re.equipment_id = $1
	  AND reg.event_id = $2
	  AND reg.status <> 'CANCELLED'
	  AND reg.id <> $3`

// AvailableQuantity computes eventCap − Σ(allocated across non-cancelled
// registrations). Read-only projection; the authoritative check happens
// inside ReplaceAllocations' transaction.
func (r *EquipmentRepository) AvailableQuantity(ctx context.Context, equipmentID, eventID int64) (int, error) {
	assoc, err := r.GetAssociation(ctx, eventID, equipmentID)
	if err != nil {
		return 0, err
	}
	if assoc == nil {
		return 0, fmt.Errorf("equipment %d is not offered at event %d: %w",
			equipmentID, eventID, apperrors.ErrNotFound)
	}

	var allocated int
	if err := r.db.QueryRowContext(ctx, allocatedQuery, equipmentID, eventID, int64(0)).Scan(&allocated); err != nil {
		return 0, err
	}

	return assoc.TotalQuantity - allocated, nil
}

// ListAvailabilityByEvent returns every SKU offered at an event with its
// effective price, cap and remaining quantity.
func (r *EquipmentRepository) ListAvailabilityByEvent(ctx context.Context, eventID int64) ([]models.EquipmentAvailabilityResponseItem, error) {
	query := `
		SELECT e.id, e.name, COALESCE(ee.price, e.price), ee.total_quantity,
		       ee.total_quantity - COALESCE((
		           SELECT SUM(re.quantity)
		           FROM registration_equipment re
		           JOIN registrations reg ON reg.id = re.registration_id
		           WHERE re.equipment_id = e.id
		             AND reg.event_id = ee.event_id
		             AND reg.status <> 'CANCELLED'
		       ), 0)
		FROM event_equipment ee
		JOIN equipment e ON e.id = ee.equipment_id
		WHERE ee.event_id = $1
		ORDER BY e.name`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.EquipmentAvailabilityResponseItem
	for rows.Next() {
		var item models.EquipmentAvailabilityResponseItem
		var price int64
		if err := rows.Scan(&item.EquipmentID, &item.Name, &price, &item.Total, &item.Available); err != nil {
			return nil, err
		}
		item.Price = fmt.Sprintf("%.2f", float64(price)/100.0)
		items = append(items, item)
	}

	return items, rows.Err()
}

// ListByRegistration returns the registration's equipment allocations in
// insertion order.
func (r *EquipmentRepository) ListByRegistration(ctx context.Context, registrationID int64) ([]models.RegistrationEquipment, error) {
	query := `
		SELECT id, registration_id, equipment_id, quantity
		FROM registration_equipment
		WHERE registration_id = $1
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, registrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []models.RegistrationEquipment
	for rows.Next() {
		var alloc models.RegistrationEquipment
		if err := rows.Scan(&alloc.ID, &alloc.RegistrationID, &alloc.EquipmentID, &alloc.Quantity); err != nil {
			return nil, err
		}
		allocations = append(allocations, alloc)
	}

	return allocations, rows.Err()
}

// ReplaceAllocations atomically replaces a registration's equipment
// allocations. Each touched event_equipment row is locked FOR UPDATE in
// equipment-id order, which serializes concurrent allocation attempts
// per (equipment, event) key and keeps Σ(allocated) ≤ cap. A request
// exceeding the remaining capacity fails with
// *apperrors.InsufficientInventoryError and nothing is committed.
func (r *EquipmentRepository) ReplaceAllocations(ctx context.Context, registrationID, eventID int64, allocations []models.RegistrationEquipment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ordered := make([]models.RegistrationEquipment, len(allocations))
	copy(ordered, allocations)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].EquipmentID < ordered[j].EquipmentID })

	for _, alloc := range ordered {
		var total int
		err := tx.QueryRowContext(ctx,
			`SELECT total_quantity FROM event_equipment
			 WHERE event_id = $1 AND equipment_id = $2 FOR UPDATE`,
			eventID, alloc.EquipmentID).Scan(&total)
		if err == sql.ErrNoRows {
			return fmt.Errorf("equipment %d is not offered at event %d: %w",
				alloc.EquipmentID, eventID, apperrors.ErrNotFound)
		}
		if err != nil {
			return err
		}

		var allocated int
		if err := tx.QueryRowContext(ctx, allocatedQuery,
			alloc.EquipmentID, eventID, registrationID).Scan(&allocated); err != nil {
			return err
		}

		if available := total - allocated; alloc.Quantity > available {
			return &apperrors.InsufficientInventoryError{
				EquipmentID: alloc.EquipmentID,
				Requested:   alloc.Quantity,
				Available:   available,
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM registration_equipment WHERE registration_id = $1`, registrationID); err != nil {
		return err
	}

	for _, alloc := range allocations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO registration_equipment (registration_id, equipment_id, quantity)
			 VALUES ($1, $2, $3)`, registrationID, alloc.EquipmentID, alloc.Quantity); err != nil {
			return err
		}
	}

	return tx.Commit()
}
