package service

import (
	"expohall/internal/cache"
	"expohall/internal/metrics"
	"expohall/internal/repository"
	"expohall/internal/search"
)

// Services bundles the workflow services for handler wiring.
type Services struct {
	Registrations *RegistrationService
	Invoices      *InvoiceService
	Stands        *StandService
	Equipment     *EquipmentService
	Events        *EventService
}

// NewServices wires the services onto the repositories and the shared
// infrastructure clients. The cache and search clients may be nil; the
// services degrade to database-only operation without them.
func NewServices(repos *repository.Repositories, publisher Publisher,
	valkey *cache.ValkeyClient, es *search.ElasticsearchClient, m *metrics.Metrics) *Services {

	invoices := NewInvoiceService(repos.Invoices, repos.Registrations, repos.Stands,
		repos.Equipment, repos.Events, repos.Users, publisher, m)

	registrations := NewRegistrationService(repos.Registrations, repos.Stands,
		repos.Equipment, repos.Events, invoices, publisher, m)

	return &Services{
		Registrations: registrations,
		Invoices:      invoices,
		Stands:        NewStandService(repos.Stands, repos.Plans, repos.Events, valkey, publisher, m),
		Equipment:     NewEquipmentService(repos.Equipment, repos.Events),
		Events:        NewEventService(repos.Events, es),
	}
}
