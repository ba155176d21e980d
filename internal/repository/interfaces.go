package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sanvicente/scheduling-api/internal/model"
)

// PatientRepository is the record store for patients.
type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	// GetWithAppointments resolves the patient's appointment collection,
	// used by detail views and the deactivation gate.
	GetWithAppointments(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	// Update matches on (id, expected updated_at); a stale or vanished row
	// surfaces as Conflict or NotFound respectively.
	Update(ctx context.Context, patient *model.Patient) error
	List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	// DocumentExists checks uniqueness across active and inactive records.
	// excludeID skips the row being edited; uuid.Nil excludes nothing.
	DocumentExists(ctx context.Context, document string, excludeID uuid.UUID) (bool, error)
}

// DoctorRepository is the record store for doctors.
type DoctorRepository interface {
	Create(ctx context.Context, doctor *model.Doctor) error
	Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	GetWithAppointments(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	Update(ctx context.Context, doctor *model.Doctor) error
	List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error)
	DocumentExists(ctx context.Context, document string, excludeID uuid.UUID) (bool, error)
	// ListSpecialties returns the distinct specialties within one
	// active/inactive partition, sorted ascending.
	ListSpecialties(ctx context.Context, showInactive bool) ([]string, error)
}

// ConflictQuery describes a ±window lookup for scheduled appointments on one
// date. Exactly one of DoctorID/PatientID is set per call.
type ConflictQuery struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      time.Time
	From      model.TimeOfDay
	To        model.TimeOfDay
	ExcludeID uuid.UUID
}

// AppointmentRepository is the record store for appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	Update(ctx context.Context, appointment *model.Appointment) error
	// List orders by date descending, then time ascending.
	List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	// HasConflict reports whether any scheduled appointment matches q.
	HasConflict(ctx context.Context, q ConflictQuery) (bool, error)
}

// EmailHistoryRepository is the record store for confirmation outcomes.
type EmailHistoryRepository interface {
	Create(ctx context.Context, history *model.EmailHistory) error
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.EmailHistory, error)
}
