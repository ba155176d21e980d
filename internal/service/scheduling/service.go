package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sanvicente/scheduling-api/internal/email"
	"github.com/sanvicente/scheduling-api/internal/model"
	"github.com/sanvicente/scheduling-api/internal/repository"
	apperrors "github.com/sanvicente/scheduling-api/pkg/errors"
	"github.com/sanvicente/scheduling-api/pkg/metrics"
)

// ConflictWindow is the closed interval around a proposed time within which
// no other scheduled appointment may exist for the same doctor or patient
// on the same date.
const ConflictWindow = 30 * time.Minute

const defaultNotifierTimeout = 10 * time.Second

type Service struct {
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	doctors      repository.DoctorRepository
	history      repository.EmailHistoryRepository
	notifier     email.Service
	metrics      *metrics.Metrics

	notifierTimeout time.Duration

	// now is injectable so past-date and window checks are deterministic
	// in tests.
	now func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithNotifierTimeout(d time.Duration) Option {
	return func(s *Service) { s.notifierTimeout = d }
}

func NewService(
	appointments repository.AppointmentRepository,
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	history repository.EmailHistoryRepository,
	notifier email.Service,
	m *metrics.Metrics,
	opts ...Option,
) *Service {
	s := &Service{
		appointments:    appointments,
		patients:        patients,
		doctors:         doctors,
		history:         history,
		notifier:        notifier,
		metrics:         m,
		notifierTimeout: defaultNotifierTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateResult carries the booked appointment together with the notifier
// outcome, so the caller can distinguish "created, email sent" from
// "created, email failed".
type CreateResult struct {
	Appointment *model.Appointment `json:"appointment"`
	Email       email.Outcome      `json:"email"`
}

// Create validates and books a new appointment. Every violated rule is
// collected before rejecting; nothing is persisted on failure. On success
// the confirmation email is attempted under a deadline and exactly one
// email-history row records its outcome.
func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest) (*CreateResult, error) {
	date := model.NormalizeDate(req.AppointmentDate)

	violations := apperrors.ValidationErrors{}

	if date.Before(model.NormalizeDate(s.now())) {
		violations.Add("appointment_date", "the appointment date cannot be in the past")
	}

	if err := s.checkConflicts(ctx, req.DoctorID, req.PatientID, date, req.AppointmentTime, uuid.Nil, violations); err != nil {
		return nil, err
	}

	patient, doctor, err := s.checkParticipants(ctx, req.PatientID, req.DoctorID, violations)
	if err != nil {
		return nil, err
	}

	if !violations.Empty() {
		return nil, violations
	}

	appointment := &model.Appointment{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		AppointmentDate: date,
		AppointmentTime: req.AppointmentTime,
		Status:          model.AppointmentStatusScheduled,
	}

	if err := s.appointments.Create(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	s.metrics.AppointmentsCreated.Inc()

	// Resolve relations for the confirmation message.
	appointment.Patient = patient
	appointment.Doctor = doctor

	notifyCtx, cancel := context.WithTimeout(ctx, s.notifierTimeout)
	defer cancel()
	outcome := s.notifier.SendConfirmation(notifyCtx, appointment)

	appointment.EmailHistory = s.recordOutcome(ctx, appointment.ID, outcome)

	return &CreateResult{Appointment: appointment, Email: outcome}, nil
}

// recordOutcome persists the email-history row for a booking. The write is
// best-effort: the appointment is already committed, so a store failure here
// is logged and the create still succeeds with no history attached.
func (s *Service) recordOutcome(ctx context.Context, appointmentID uuid.UUID, outcome email.Outcome) *model.EmailHistory {
	history := &model.EmailHistory{
		AppointmentID: appointmentID,
		SentAt:        s.now().UTC(),
		Status:        model.EmailStatusSent,
	}
	if !outcome.Success {
		history.Status = model.EmailStatusFailed
		msg := outcome.Message
		history.ErrorMessage = &msg
	}

	s.metrics.ConfirmationEmails.WithLabelValues(string(history.Status)).Inc()

	if err := s.history.Create(ctx, history); err != nil {
		log.Error().Err(err).
			Str("appointment_id", appointmentID.String()).
			Msg("failed to record email history")
		return nil
	}
	return history
}

// Update re-validates and applies an edit. Conflict queries exclude the row
// being edited; the past-date check only applies while the appointment stays
// scheduled. No new email history is written on edit.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	existing, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.Status.Terminal() && req.Status != existing.Status {
		return nil, apperrors.InvalidTransition(
			fmt.Sprintf("a %s appointment cannot change status", existing.Status))
	}

	date := model.NormalizeDate(req.AppointmentDate)

	violations := apperrors.ValidationErrors{}

	if req.Status == model.AppointmentStatusScheduled && date.Before(model.NormalizeDate(s.now())) {
		violations.Add("appointment_date", "the appointment date cannot be in the past")
	}

	if err := s.checkConflicts(ctx, req.DoctorID, req.PatientID, date, req.AppointmentTime, id, violations); err != nil {
		return nil, err
	}

	if _, _, err := s.checkParticipants(ctx, req.PatientID, req.DoctorID, violations); err != nil {
		return nil, err
	}

	if !violations.Empty() {
		return nil, violations
	}

	existing.PatientID = req.PatientID
	existing.DoctorID = req.DoctorID
	existing.AppointmentDate = date
	existing.AppointmentTime = req.AppointmentTime
	existing.Status = req.Status

	if err := s.appointments.Update(ctx, existing); err != nil {
		return nil, err
	}
	s.metrics.AppointmentsUpdated.Inc()

	return existing, nil
}

// Cancel transitions a scheduled appointment to cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, model.AppointmentStatusCancelled)
}

// Complete transitions a scheduled appointment to completed.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, model.AppointmentStatusCompleted)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to model.AppointmentStatus) (*model.Appointment, error) {
	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if appointment.Status != model.AppointmentStatusScheduled {
		return nil, apperrors.InvalidTransition(
			fmt.Sprintf("only scheduled appointments can be %s", to))
	}

	appointment.Status = to
	if err := s.appointments.Update(ctx, appointment); err != nil {
		return nil, err
	}
	s.metrics.StatusTransitions.WithLabelValues(string(to)).Inc()

	return appointment, nil
}

// Get loads an appointment with its patient, doctor and email history
// resolved.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if appointment.Patient, err = s.patients.Get(ctx, appointment.PatientID); err != nil {
		return nil, err
	}
	if appointment.Doctor, err = s.doctors.Get(ctx, appointment.DoctorID); err != nil {
		return nil, err
	}

	history, err := s.history.GetByAppointment(ctx, id)
	if err != nil && apperrors.Code(err) != apperrors.ErrNotFound {
		return nil, err
	}
	appointment.EmailHistory = history

	return appointment, nil
}

// List returns appointments ordered by date descending then time ascending,
// optionally restricted to one patient or doctor.
func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.appointments.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (s *Service) checkConflicts(
	ctx context.Context,
	doctorID, patientID uuid.UUID,
	date time.Time,
	at model.TimeOfDay,
	excludeID uuid.UUID,
	violations apperrors.ValidationErrors,
) error {
	from, to := at.Window(ConflictWindow)

	conflict, err := s.appointments.HasConflict(ctx, repository.ConflictQuery{
		DoctorID:  doctorID,
		Date:      date,
		From:      from,
		To:        to,
		ExcludeID: excludeID,
	})
	if err != nil {
		return fmt.Errorf("failed to check doctor conflicts: %w", err)
	}
	if conflict {
		violations.Add("doctor_conflict", "the doctor already has an appointment within 30 minutes of this time")
		s.metrics.SchedulingConflicts.WithLabelValues("doctor").Inc()
	}

	conflict, err = s.appointments.HasConflict(ctx, repository.ConflictQuery{
		PatientID: patientID,
		Date:      date,
		From:      from,
		To:        to,
		ExcludeID: excludeID,
	})
	if err != nil {
		return fmt.Errorf("failed to check patient conflicts: %w", err)
	}
	if conflict {
		violations.Add("patient_conflict", "the patient already has an appointment within 30 minutes of this time")
		s.metrics.SchedulingConflicts.WithLabelValues("patient").Inc()
	}

	return nil
}

// checkParticipants verifies both references exist and are active. Missing
// or inactive references are recorded as violations, not hard failures, so
// they aggregate with the other rules.
func (s *Service) checkParticipants(
	ctx context.Context,
	patientID, doctorID uuid.UUID,
	violations apperrors.ValidationErrors,
) (*model.Patient, *model.Doctor, error) {
	patient, err := s.patients.Get(ctx, patientID)
	switch {
	case err == nil && !patient.Active():
		violations.Add("patient_id", "the selected patient is inactive")
	case err != nil && apperrors.Code(err) == apperrors.ErrNotFound:
		violations.Add("patient_id", "patient not found")
	case err != nil:
		return nil, nil, fmt.Errorf("failed to load patient: %w", err)
	}

	doctor, err := s.doctors.Get(ctx, doctorID)
	switch {
	case err == nil && !doctor.Active():
		violations.Add("doctor_id", "the selected doctor is inactive")
	case err != nil && apperrors.Code(err) == apperrors.ErrNotFound:
		violations.Add("doctor_id", "doctor not found")
	case err != nil:
		return nil, nil, fmt.Errorf("failed to load doctor: %w", err)
	}

	return patient, doctor, nil
}
