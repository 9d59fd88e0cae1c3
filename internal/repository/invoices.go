package repository

import (
	"context"
	"database/sql"

	"expohall/internal/database"
	"expohall/internal/models"
)

type InvoiceRepository struct {
	db *database.DB
}

func NewInvoiceRepository(db *database.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create persists the invoice and its line items in one transaction.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO invoices (number, registration_id, subtotal, tax_rate, tax_amount, total, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		invoice.Number,
		invoice.RegistrationID,
		invoice.Subtotal,
		invoice.TaxRate,
		invoice.TaxAmount,
		invoice.Total,
		invoice.Status,
	).Scan(&invoice.ID, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range invoice.Items {
		item := &invoice.Items[i]
		item.InvoiceID = invoice.ID
		err := tx.QueryRowContext(ctx,
			`INSERT INTO invoice_items (invoice_id, item_type, name, unit_price, quantity)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			item.InvoiceID, item.ItemType, item.Name, item.UnitPrice, item.Quantity,
		).Scan(&item.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*models.Invoice, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *InvoiceRepository) GetByRegistrationID(ctx context.Context, registrationID int64) (*models.Invoice, error) {
	return r.getOne(ctx, `WHERE registration_id = $1`, registrationID)
}

func (r *InvoiceRepository) GetByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	return r.getOne(ctx, `WHERE number = $1`, number)
}

func (r *InvoiceRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	query := `
		SELECT id, number, registration_id, subtotal, tax_rate, tax_amount, total, status,
		       created_at, updated_at
		FROM invoices ` + where

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&invoice.ID,
		&invoice.Number,
		&invoice.RegistrationID,
		&invoice.Subtotal,
		&invoice.TaxRate,
		&invoice.TaxAmount,
		&invoice.Total,
		&invoice.Status,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := r.getItems(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	invoice.Items = items

	return invoice, nil
}

func (r *InvoiceRepository) getItems(ctx context.Context, invoiceID int64) ([]models.InvoiceItem, error) {
	query := `
		SELECT id, invoice_id, item_type, name, unit_price, quantity
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.InvoiceItem
	for rows.Next() {
		var item models.InvoiceItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.ItemType, &item.Name, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// UpdateStatus is invoked only by the payment webhook flow.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE invoices SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}
