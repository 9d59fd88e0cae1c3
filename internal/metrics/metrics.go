package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus counters for the registration workflow
type Metrics struct {
	RegistrationsCreated   prometheus.Counter
	RegistrationsCompleted prometheus.Counter
	RegistrationsCancelled prometheus.Counter
	StandsReserved         prometheus.Counter
	InvoicesGenerated      prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		RegistrationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "expohall_registrations_created_total",
			Help: "Total number of registrations created",
		}),
		RegistrationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "expohall_registrations_completed_total",
			Help: "Total number of registrations that reached the Completed state",
		}),
		RegistrationsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "expohall_registrations_cancelled_total",
			Help: "Total number of registrations cancelled",
		}),
		StandsReserved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "expohall_stands_reserved_total",
			Help: "Total number of successful stand reservations",
		}),
		InvoicesGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "expohall_invoices_generated_total",
			Help: "Total number of invoices generated",
		}),
	}
}
