package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sanvicente/scheduling-api/internal/model"
	apperrors "github.com/sanvicente/scheduling-api/pkg/errors"
)

func (r *emailHistoryRepository) Create(ctx context.Context, history *model.EmailHistory) error {
	query := `
		INSERT INTO email_histories (
			id, appointment_id, sent_at, status, error_message
		) VALUES ($1, $2, $3, $4, $5)
	`
	history.ID = uuid.New()

	_, err := r.db.ExecContext(ctx, query,
		history.ID,
		history.AppointmentID,
		history.SentAt,
		history.Status,
		history.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to create email history: %w", err)
	}
	return nil
}

func (r *emailHistoryRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.EmailHistory, error) {
	query := `
		SELECT id, appointment_id, sent_at, status, error_message
		FROM email_histories
		WHERE appointment_id = $1
	`
	var history model.EmailHistory
	if err := r.db.GetContext(ctx, &history, query, appointmentID); err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("email history")
		}
		return nil, fmt.Errorf("failed to get email history: %w", err)
	}
	return &history, nil
}
