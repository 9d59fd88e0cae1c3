package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createEventsTable,
		createPlansTable,
		createStandsTable,
		createEquipmentTable,
		createEventEquipmentTable,
		createRegistrationsTable,
		createRegistrationStandsTable,
		createRegistrationEquipmentTable,
		createInvoicesTable,
		createInvoiceItemsTable,
		createActiveRegistrationIndex,
		createStandsStatusIndex,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL,
    full_name VARCHAR(255) NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'exhibitor',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    registered_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (role IN ('exhibitor', 'organizer', 'admin'))
);`

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id SERIAL PRIMARY KEY,
    organizer_id INTEGER NOT NULL REFERENCES users(id),
    title VARCHAR(500) NOT NULL,
    description TEXT,
    status VARCHAR(20) NOT NULL DEFAULT 'DRAFT',
    start_date TIMESTAMP NOT NULL,
    registration_deadline TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('DRAFT', 'PUBLISHED', 'CLOSED'))
);`

const createPlansTable = `
CREATE TABLE IF NOT EXISTS plans (
    id SERIAL PRIMARY KEY,
    event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    name VARCHAR(255) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createStandsTable = `
CREATE TABLE IF NOT EXISTS stands (
    id SERIAL PRIMARY KEY,
    plan_id INTEGER NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
    number INTEGER NOT NULL,
    type VARCHAR(50) NOT NULL DEFAULT 'standard',
    price BIGINT NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'AVAILABLE',
    registration_id INTEGER,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    UNIQUE(plan_id, number),
    CHECK (status IN ('AVAILABLE', 'RESERVED'))
);`

const createEquipmentTable = `
CREATE TABLE IF NOT EXISTS equipment (
    id SERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    price BIGINT NOT NULL DEFAULT 0,
    quantity INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (quantity >= 0)
);`

const createEventEquipmentTable = `
CREATE TABLE IF NOT EXISTS event_equipment (
    event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    equipment_id INTEGER NOT NULL REFERENCES equipment(id) ON DELETE CASCADE,
    total_quantity INTEGER NOT NULL,
    price BIGINT,

    PRIMARY KEY (event_id, equipment_id),
    CHECK (total_quantity >= 0)
);`

const createRegistrationsTable = `
CREATE TABLE IF NOT EXISTS registrations (
    id SERIAL PRIMARY KEY,
    exhibitor_id INTEGER NOT NULL REFERENCES users(id),
    event_id INTEGER NOT NULL REFERENCES events(id),
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    note TEXT,
    stand_selection_complete BOOLEAN NOT NULL DEFAULT FALSE,
    equipment_selection_complete BOOLEAN NOT NULL DEFAULT FALSE,
    approval_date TIMESTAMP,
    rejection_date TIMESTAMP,
    rejection_reason TEXT,
    reviewed_by INTEGER REFERENCES users(id),
    cancelled_by INTEGER REFERENCES users(id),
    cancelled_role VARCHAR(20),
    cancellation_reason TEXT,
    cancellation_date TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('PENDING', 'APPROVED', 'REJECTED', 'COMPLETED', 'CANCELLED'))
);`

const createRegistrationStandsTable = `
CREATE TABLE IF NOT EXISTS registration_stands (
    id SERIAL PRIMARY KEY,
    registration_id INTEGER NOT NULL REFERENCES registrations(id) ON DELETE CASCADE,
    stand_id INTEGER NOT NULL REFERENCES stands(id) ON DELETE CASCADE,
    reserved_at TIMESTAMP NOT NULL DEFAULT NOW(),

    UNIQUE(registration_id, stand_id)
);`

const createRegistrationEquipmentTable = `
CREATE TABLE IF NOT EXISTS registration_equipment (
    id SERIAL PRIMARY KEY,
    registration_id INTEGER NOT NULL REFERENCES registrations(id) ON DELETE CASCADE,
    equipment_id INTEGER NOT NULL REFERENCES equipment(id) ON DELETE CASCADE,
    quantity INTEGER NOT NULL,

    UNIQUE(registration_id, equipment_id),
    CHECK (quantity >= 1)
);`

const createInvoicesTable = `
CREATE TABLE IF NOT EXISTS invoices (
    id SERIAL PRIMARY KEY,
    number VARCHAR(50) UNIQUE NOT NULL,
    registration_id INTEGER UNIQUE NOT NULL REFERENCES registrations(id),
    subtotal BIGINT NOT NULL,
    tax_rate DOUBLE PRECISION NOT NULL,
    tax_amount BIGINT NOT NULL,
    total BIGINT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('PENDING', 'PAID', 'CANCELLED'))
);`

const createInvoiceItemsTable = `
CREATE TABLE IF NOT EXISTS invoice_items (
    id SERIAL PRIMARY KEY,
    invoice_id INTEGER NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
    item_type VARCHAR(20) NOT NULL,
    name VARCHAR(255) NOT NULL,
    unit_price BIGINT NOT NULL,
    quantity INTEGER NOT NULL,

    CHECK (item_type IN ('stand', 'equipment')),
    CHECK (quantity >= 1)
);`

// One live registration per exhibitor per event; cancelled ones do not count.
const createActiveRegistrationIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS registrations_active_exhibitor_event_idx
ON registrations (exhibitor_id, event_id)
WHERE status <> 'CANCELLED';`

const createStandsStatusIndex = `
CREATE INDEX IF NOT EXISTS stands_plan_status_idx
ON stands (plan_id, status);`
