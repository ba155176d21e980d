package model

import (
	"time"

	"github.com/google/uuid"
)

type EmailStatus string

const (
	EmailStatusSent   EmailStatus = "sent"
	EmailStatusFailed EmailStatus = "failed"
)

// EmailHistory records the outcome of the confirmation email sent when an
// appointment is created. One row per creation attempt; never re-created on
// edit. ErrorMessage is set only when Status is failed.
type EmailHistory struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	AppointmentID uuid.UUID   `db:"appointment_id" json:"appointment_id"`
	SentAt        time.Time   `db:"sent_at" json:"sent_at"`
	Status        EmailStatus `db:"status" json:"status"`
	ErrorMessage  *string     `db:"error_message" json:"error_message,omitempty"`
}
