package models

import (
	"time"
)

// Roles resolved by the auth middleware.
const (
	RoleExhibitor = "exhibitor"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

// Registration statuses.
const (
	RegistrationPending   = "PENDING"
	RegistrationApproved  = "APPROVED"
	RegistrationRejected  = "REJECTED"
	RegistrationCompleted = "COMPLETED"
	RegistrationCancelled = "CANCELLED"
)

// Stand statuses.
const (
	StandAvailable = "AVAILABLE"
	StandReserved  = "RESERVED"
)

// Event statuses.
const (
	EventDraft     = "DRAFT"
	EventPublished = "PUBLISHED"
	EventClosed    = "CLOSED"
)

// Invoice statuses, mutated only by the payment collaborator.
const (
	InvoicePending   = "PENDING"
	InvoicePaid      = "PAID"
	InvoiceCancelled = "CANCELLED"
)

// User represents an account in the system (exhibitor, organizer or admin)
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"full_name" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// Event represents an exhibition event owned by an organizer
type Event struct {
	ID                   int64     `json:"id" db:"id"`
	OrganizerID          int64     `json:"organizer_id" db:"organizer_id"`
	Title                string    `json:"title" db:"title"`
	Description          *string   `json:"description" db:"description"`
	Status               string    `json:"status" db:"status"`
	StartDate            time.Time `json:"start_date" db:"start_date"`
	RegistrationDeadline time.Time `json:"registration_deadline" db:"registration_deadline"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// Plan represents a floor plan of an event
type Plan struct {
	ID        int64     `json:"id" db:"id"`
	EventID   int64     `json:"event_id" db:"event_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Stand represents a numbered physical stand on a floor plan. A stand
// is reserved by at most one registration; RegistrationID is the
// back-reference, present iff status is RESERVED.
type Stand struct {
	ID             int64     `json:"id" db:"id"`
	PlanID         int64     `json:"plan_id" db:"plan_id"`
	Number         int       `json:"number" db:"number"`
	Type           string    `json:"type" db:"type"`
	Price          int64     `json:"price" db:"price"`
	Status         string    `json:"status" db:"status"`
	RegistrationID *int64    `json:"registration_id" db:"registration_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Equipment represents a catalog SKU with base price and global quantity
type Equipment struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Price     int64     `json:"price" db:"price"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// EventEquipment is the per-event association of an equipment SKU with
// an event-scoped quantity cap and optional price override.
type EventEquipment struct {
	EventID       int64  `json:"event_id" db:"event_id"`
	EquipmentID   int64  `json:"equipment_id" db:"equipment_id"`
	TotalQuantity int    `json:"total_quantity" db:"total_quantity"`
	Price         *int64 `json:"price" db:"price"`
}

// Registration is the central workflow entity: an exhibitor's intent to
// participate in one event, with its allocated resources.
type Registration struct {
	ID                         int64      `json:"id" db:"id"`
	ExhibitorID                int64      `json:"exhibitor_id" db:"exhibitor_id"`
	EventID                    int64      `json:"event_id" db:"event_id"`
	Status                     string     `json:"status" db:"status"`
	Note                       *string    `json:"note" db:"note"`
	StandSelectionComplete     bool       `json:"stand_selection_complete" db:"stand_selection_complete"`
	EquipmentSelectionComplete bool       `json:"equipment_selection_complete" db:"equipment_selection_complete"`
	ApprovalDate               *time.Time `json:"approval_date" db:"approval_date"`
	RejectionDate              *time.Time `json:"rejection_date" db:"rejection_date"`
	RejectionReason            *string    `json:"rejection_reason" db:"rejection_reason"`
	ReviewedBy                 *int64     `json:"reviewed_by" db:"reviewed_by"`
	CancelledBy                *int64     `json:"cancelled_by" db:"cancelled_by"`
	CancelledRole              *string    `json:"cancelled_role" db:"cancelled_role"`
	CancellationReason         *string    `json:"cancellation_reason" db:"cancellation_reason"`
	CancellationDate           *time.Time `json:"cancellation_date" db:"cancellation_date"`
	CreatedAt                  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt                  time.Time  `json:"updated_at" db:"updated_at"`

	Stands    []Stand                 `json:"stands,omitempty"`    // Not from DB, filled separately
	Equipment []RegistrationEquipment `json:"equipment,omitempty"` // Not from DB, filled separately
}

// IsTerminal reports whether no further transitions are possible.
func (r *Registration) IsTerminal() bool {
	return r.Status == RegistrationRejected || r.Status == RegistrationCancelled
}

// RegistrationEquipment is one (equipment, quantity) allocation claimed
// by a registration.
type RegistrationEquipment struct {
	ID             int64 `json:"id" db:"id"`
	RegistrationID int64 `json:"registration_id" db:"registration_id"`
	EquipmentID    int64 `json:"equipment_id" db:"equipment_id"`
	Quantity       int   `json:"quantity" db:"quantity"`
}

// Invoice is the immutable billing document derived once from a
// Completed registration. Monetary amounts are in cents.
type Invoice struct {
	ID             int64         `json:"id" db:"id"`
	Number         string        `json:"number" db:"number"`
	RegistrationID int64         `json:"registration_id" db:"registration_id"`
	Subtotal       int64         `json:"subtotal" db:"subtotal"`
	TaxRate        float64       `json:"tax_rate" db:"tax_rate"`
	TaxAmount      int64         `json:"tax_amount" db:"tax_amount"`
	Total          int64         `json:"total" db:"total"`
	Status         string        `json:"status" db:"status"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
	Items          []InvoiceItem `json:"items,omitempty"` // Not from DB, filled separately
}

// InvoiceItem is a priced line snapshotted at generation time.
type InvoiceItem struct {
	ID        int64  `json:"id" db:"id"`
	InvoiceID int64  `json:"invoice_id" db:"invoice_id"`
	ItemType  string `json:"item_type" db:"item_type"`
	Name      string `json:"name" db:"name"`
	UnitPrice int64  `json:"unit_price" db:"unit_price"`
	Quantity  int    `json:"quantity" db:"quantity"`
}
