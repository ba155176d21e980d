package model

import (
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	FullName       string       `db:"full_name" json:"full_name"`
	DocumentNumber string       `db:"document_number" json:"document_number"`
	Specialty      string       `db:"specialty" json:"specialty"`
	Phone          string       `db:"phone" json:"phone"`
	Email          string       `db:"email" json:"email"`
	Status         EntityStatus `db:"status" json:"status"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`

	Appointments []*Appointment `db:"-" json:"appointments,omitempty"`
}

func (d *Doctor) Active() bool { return d.Status == EntityStatusActive }

type CreateDoctorRequest struct {
	FullName       string `json:"full_name" binding:"required,max=100"`
	DocumentNumber string `json:"document_number" binding:"required,max=20"`
	Specialty      string `json:"specialty" binding:"required,max=100"`
	Phone          string `json:"phone" binding:"required,max=20"`
	Email          string `json:"email" binding:"required,email,max=100"`
}

type UpdateDoctorRequest struct {
	FullName       string `json:"full_name" binding:"required,max=100"`
	DocumentNumber string `json:"document_number" binding:"required,max=20"`
	Specialty      string `json:"specialty" binding:"required,max=100"`
	Phone          string `json:"phone" binding:"required,max=20"`
	Email          string `json:"email" binding:"required,email,max=100"`
}

// DoctorFilters partitions strictly by status: ShowInactive selects only
// inactive doctors, never both. Specialty is an exact match applied after
// the partition.
type DoctorFilters struct {
	Specialty    string
	ShowInactive bool
}
