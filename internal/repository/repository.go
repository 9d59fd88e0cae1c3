package repository

import (
	"expohall/internal/database"

	"github.com/lib/pq"
)

type Repositories struct {
	Users         *UserRepository
	Events        *EventRepository
	Plans         *PlanRepository
	Stands        *StandRepository
	Equipment     *EquipmentRepository
	Registrations *RegistrationRepository
	Invoices      *InvoiceRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(db),
		Events:        NewEventRepository(db),
		Plans:         NewPlanRepository(db),
		Stands:        NewStandRepository(db),
		Equipment:     NewEquipmentRepository(db),
		Registrations: NewRegistrationRepository(db),
		Invoices:      NewInvoiceRepository(db),
	}
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (duplicate stand number, duplicate active registration, ...).
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
