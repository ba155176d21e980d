package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sanvicente/scheduling-api/internal/model"
	apperrors "github.com/sanvicente/scheduling-api/pkg/errors"
)

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, full_name, document_number, specialty, phone, email, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	doctor.ID = uuid.New()
	doctor.CreatedAt = time.Now().UTC()
	doctor.UpdatedAt = doctor.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.FullName,
		doctor.DocumentNumber,
		doctor.Specialty,
		doctor.Phone,
		doctor.Email,
		doctor.Status,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ValidationErrors{"document_number": "a doctor with this document already exists"}
		}
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `
		SELECT id, full_name, document_number, specialty, phone, email, status,
			   created_at, updated_at
		FROM doctors
		WHERE id = $1
	`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("doctor")
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) GetWithAppointments(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, patient_id, doctor_id, appointment_date, appointment_time,
			   status, created_at, updated_at
		FROM appointments
		WHERE doctor_id = $1
		ORDER BY appointment_date DESC, appointment_time ASC
	`
	if err := r.db.SelectContext(ctx, &doctor.Appointments, query, id); err != nil {
		return nil, fmt.Errorf("failed to load doctor appointments: %w", err)
	}
	return doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors
		SET full_name = $1, document_number = $2, specialty = $3, phone = $4,
			email = $5, status = $6, updated_at = $7
		WHERE id = $8 AND updated_at = $9
	`
	expected := doctor.UpdatedAt
	doctor.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		doctor.FullName,
		doctor.DocumentNumber,
		doctor.Specialty,
		doctor.Phone,
		doctor.Email,
		doctor.Status,
		doctor.UpdatedAt,
		doctor.ID,
		expected,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ValidationErrors{"document_number": "a doctor with this document already exists"}
		}
		return fmt.Errorf("failed to update doctor: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM doctors WHERE id = $1)`, doctor.ID); err != nil {
			return fmt.Errorf("failed to check doctor existence: %w", err)
		}
		if !exists {
			return apperrors.NotFound("doctor")
		}
		return apperrors.Conflict("doctor")
	}
	return nil
}

func (r *doctorRepository) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	status := model.EntityStatusActive
	specialty := ""
	if filters != nil {
		if filters.ShowInactive {
			status = model.EntityStatusInactive
		}
		specialty = filters.Specialty
	}

	query := `
		SELECT id, full_name, document_number, specialty, phone, email, status,
			   created_at, updated_at
		FROM doctors
		WHERE status = $1
	`
	args := []interface{}{status}

	if specialty != "" {
		query += " AND specialty = $2"
		args = append(args, specialty)
	}

	query += " ORDER BY full_name ASC"

	doctors := []*model.Doctor{}
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) DocumentExists(ctx context.Context, document string, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM doctors
			WHERE document_number = $1 AND id != $2
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, document, excludeID); err != nil {
		return false, fmt.Errorf("failed to check doctor document: %w", err)
	}
	return exists, nil
}

func (r *doctorRepository) ListSpecialties(ctx context.Context, showInactive bool) ([]string, error) {
	status := model.EntityStatusActive
	if showInactive {
		status = model.EntityStatusInactive
	}

	query := `
		SELECT DISTINCT specialty
		FROM doctors
		WHERE status = $1
		ORDER BY specialty ASC
	`
	specialties := []string{}
	if err := r.db.SelectContext(ctx, &specialties, query, status); err != nil {
		return nil, fmt.Errorf("failed to list specialties: %w", err)
	}
	return specialties, nil
}
