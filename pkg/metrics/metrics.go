package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	AppointmentsCreated  prometheus.Counter
	AppointmentsUpdated  prometheus.Counter
	SchedulingConflicts  *prometheus.CounterVec
	StatusTransitions    *prometheus.CounterVec
	ConfirmationEmails   *prometheus.CounterVec
	DirectoryDeactivates *prometheus.CounterVec
}

// NewMetrics creates all application metrics and registers them on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AppointmentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_created_total",
			Help:      "Total number of appointments booked",
		}),
		AppointmentsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_updated_total",
			Help:      "Total number of appointment edits applied",
		}),
		SchedulingConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduling_conflicts_total",
			Help:      "Bookings rejected by the 30-minute conflict window",
		}, []string{"party"}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_status_transitions_total",
			Help:      "Appointment status transitions applied",
		}, []string{"to"}),
		ConfirmationEmails: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmation_emails_total",
			Help:      "Confirmation email outcomes recorded in email history",
		}, []string{"status"}),
		DirectoryDeactivates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_deactivations_total",
			Help:      "Patient/doctor deactivation attempts by outcome",
		}, []string{"entity", "outcome"}),
	}
}
