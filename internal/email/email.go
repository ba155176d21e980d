package email

import (
	"context"

	"github.com/sanvicente/scheduling-api/internal/model"
)

// Outcome is the notifier result recorded verbatim into email history.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Service sends booking confirmations. Implementations never return an
// error: every failure, including a context deadline, is captured in the
// Outcome so the committed appointment is unaffected.
type Service interface {
	SendConfirmation(ctx context.Context, appointment *model.Appointment) Outcome
}
