package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Valid reports whether s is one of the three known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted
}

type Appointment struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	PatientID       uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID        uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	AppointmentDate time.Time         `db:"appointment_date" json:"appointment_date"`
	AppointmentTime TimeOfDay         `db:"appointment_time" json:"appointment_time"`
	Status          AppointmentStatus `db:"status" json:"status"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`

	// Loaded on detail views only.
	Patient      *Patient      `db:"-" json:"patient,omitempty"`
	Doctor       *Doctor       `db:"-" json:"doctor,omitempty"`
	EmailHistory *EmailHistory `db:"-" json:"email_history,omitempty"`
}

type CreateAppointmentRequest struct {
	PatientID       uuid.UUID `json:"patient_id" binding:"required"`
	DoctorID        uuid.UUID `json:"doctor_id" binding:"required"`
	AppointmentDate time.Time `json:"appointment_date" binding:"required"`
	AppointmentTime TimeOfDay `json:"appointment_time" binding:"required"`
}

type UpdateAppointmentRequest struct {
	PatientID       uuid.UUID         `json:"patient_id" binding:"required"`
	DoctorID        uuid.UUID         `json:"doctor_id" binding:"required"`
	AppointmentDate time.Time         `json:"appointment_date" binding:"required"`
	AppointmentTime TimeOfDay         `json:"appointment_time" binding:"required"`
	Status          AppointmentStatus `json:"status" binding:"required,oneof=scheduled cancelled completed"`
}

type AppointmentFilters struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
}

// NormalizeDate strips the time-of-day component and pins the date to UTC
// midnight, so date comparisons ignore wall-clock time and zone.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
