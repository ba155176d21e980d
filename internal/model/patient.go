package model

import (
	"time"

	"github.com/google/uuid"
)

// EntityStatus is the activation state shared by patients and doctors.
// Deactivation is logical; records are never physically removed.
type EntityStatus string

const (
	EntityStatusActive   EntityStatus = "active"
	EntityStatusInactive EntityStatus = "inactive"
)

type Patient struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	FullName       string       `db:"full_name" json:"full_name"`
	DocumentNumber string       `db:"document_number" json:"document_number"`
	Age            int          `db:"age" json:"age"`
	Phone          string       `db:"phone" json:"phone"`
	Email          string       `db:"email" json:"email"`
	Status         EntityStatus `db:"status" json:"status"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`

	// Loaded on detail views only.
	Appointments []*Appointment `db:"-" json:"appointments,omitempty"`
}

func (p *Patient) Active() bool { return p.Status == EntityStatusActive }

type CreatePatientRequest struct {
	FullName       string `json:"full_name" binding:"required,max=100"`
	DocumentNumber string `json:"document_number" binding:"required,max=20"`
	Age            int    `json:"age" binding:"required,min=1,max=120"`
	Phone          string `json:"phone" binding:"required,max=20"`
	Email          string `json:"email" binding:"required,email,max=100"`
}

type UpdatePatientRequest struct {
	FullName       string `json:"full_name" binding:"required,max=100"`
	DocumentNumber string `json:"document_number" binding:"required,max=20"`
	Age            int    `json:"age" binding:"required,min=1,max=120"`
	Phone          string `json:"phone" binding:"required,max=20"`
	Email          string `json:"email" binding:"required,email,max=100"`
}

type PatientFilters struct {
	ShowInactive bool
}
