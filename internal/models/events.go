package models

import "time"

// NATS Event Types
const (
	EventRegistrationCreated   = "registration.created"
	EventRegistrationApproved  = "registration.approved"
	EventRegistrationRejected  = "registration.rejected"
	EventRegistrationCompleted = "registration.completed"
	EventRegistrationCancelled = "registration.cancelled"
	EventStandReserved         = "stand.reserved"
	EventStandReleased         = "stand.released"
	EventInvoiceGenerated      = "invoice.generated"
)

// RegistrationCreatedEvent represents a registration creation event
type RegistrationCreatedEvent struct {
	RegistrationID int64     `json:"registration_id"`
	ExhibitorID    int64     `json:"exhibitor_id"`
	EventID        int64     `json:"event_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// RegistrationReviewedEvent represents an approval or rejection
type RegistrationReviewedEvent struct {
	RegistrationID int64     `json:"registration_id"`
	ExhibitorID    int64     `json:"exhibitor_id"`
	EventID        int64     `json:"event_id"`
	Decision       string    `json:"decision"`
	Reason         string    `json:"reason,omitempty"`
	ReviewedBy     int64     `json:"reviewed_by"`
	Timestamp      time.Time `json:"timestamp"`
}

// RegistrationCompletedEvent represents the completion transition
type RegistrationCompletedEvent struct {
	RegistrationID int64     `json:"registration_id"`
	ExhibitorID    int64     `json:"exhibitor_id"`
	EventID        int64     `json:"event_id"`
	InvoiceNumber  string    `json:"invoice_number,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// RegistrationCancelledEvent represents a cancellation event
type RegistrationCancelledEvent struct {
	RegistrationID int64     `json:"registration_id"`
	ExhibitorID    int64     `json:"exhibitor_id"`
	EventID        int64     `json:"event_id"`
	CancelledBy    int64     `json:"cancelled_by"`
	Role           string    `json:"role"`
	Reason         string    `json:"reason,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// StandReservedEvent represents a stand reservation
type StandReservedEvent struct {
	StandID        int64     `json:"stand_id"`
	RegistrationID int64     `json:"registration_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// StandReleasedEvent represents a stand release
type StandReleasedEvent struct {
	StandID   int64     `json:"stand_id"`
	Timestamp time.Time `json:"timestamp"`
}

// InvoiceGeneratedEvent represents invoice creation for a completed registration
type InvoiceGeneratedEvent struct {
	InvoiceID      int64     `json:"invoice_id"`
	InvoiceNumber  string    `json:"invoice_number"`
	RegistrationID int64     `json:"registration_id"`
	Total          int64     `json:"total"`
	Timestamp      time.Time `json:"timestamp"`
}
