package service

import (
	"context"

	"expohall/internal/models"
)

// The workflow services depend on these narrow store interfaces rather
// than the concrete repositories, so the state-machine rules can be
// tested against in-memory doubles.

type RegistrationStore interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id int64) (*models.Registration, error)
	ListByEvent(ctx context.Context, eventID int64, status string) ([]models.Registration, error)
	ListByExhibitor(ctx context.Context, exhibitorID int64, status string) ([]models.Registration, error)
	MarkApproved(ctx context.Context, id, reviewerID int64) error
	MarkRejected(ctx context.Context, id, reviewerID int64, reason string) error
	MarkCancelled(ctx context.Context, id, actorID int64, role string, reason *string) error
	MarkCompleted(ctx context.Context, id int64) error
	SetSelectionFlags(ctx context.Context, id int64, standComplete, equipmentComplete *bool) error
	Delete(ctx context.Context, id int64) error
}

type StandStore interface {
	GetByID(ctx context.Context, id int64) (*models.Stand, error)
	ListByRegistration(ctx context.Context, registrationID int64) ([]models.Stand, error)
	ReplaceSelection(ctx context.Context, registrationID int64, standIDs []int64) error
	Free(ctx context.Context, standID int64) error
}

type EquipmentStore interface {
	GetByID(ctx context.Context, id int64) (*models.Equipment, error)
	GetAssociation(ctx context.Context, eventID, equipmentID int64) (*models.EventEquipment, error)
	ListByRegistration(ctx context.Context, registrationID int64) ([]models.RegistrationEquipment, error)
	ReplaceAllocations(ctx context.Context, registrationID, eventID int64, allocations []models.RegistrationEquipment) error
}

type EventStore interface {
	GetByID(ctx context.Context, id int64) (*models.Event, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type InvoiceStore interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id int64) (*models.Invoice, error)
	GetByRegistrationID(ctx context.Context, registrationID int64) (*models.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*models.Invoice, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// Publisher is the best-effort domain event sink; the NATS client
// satisfies it. Publish failures are logged, never propagated.
type Publisher interface {
	Publish(subject string, data interface{}) error
}
