package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sanvicente/scheduling-api/internal/model"
	apperrors "github.com/sanvicente/scheduling-api/pkg/errors"
)

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			id, full_name, document_number, age, phone, email, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	patient.ID = uuid.New()
	patient.CreatedAt = time.Now().UTC()
	patient.UpdatedAt = patient.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.FullName,
		patient.DocumentNumber,
		patient.Age,
		patient.Phone,
		patient.Email,
		patient.Status,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ValidationErrors{"document_number": "a patient with this document already exists"}
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `
		SELECT id, full_name, document_number, age, phone, email, status,
			   created_at, updated_at
		FROM patients
		WHERE id = $1
	`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) GetWithAppointments(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, patient_id, doctor_id, appointment_date, appointment_time,
			   status, created_at, updated_at
		FROM appointments
		WHERE patient_id = $1
		ORDER BY appointment_date DESC, appointment_time ASC
	`
	if err := r.db.SelectContext(ctx, &patient.Appointments, query, id); err != nil {
		return nil, fmt.Errorf("failed to load patient appointments: %w", err)
	}
	return patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET full_name = $1, document_number = $2, age = $3, phone = $4,
			email = $5, status = $6, updated_at = $7
		WHERE id = $8 AND updated_at = $9
	`
	expected := patient.UpdatedAt
	patient.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		patient.FullName,
		patient.DocumentNumber,
		patient.Age,
		patient.Phone,
		patient.Email,
		patient.Status,
		patient.UpdatedAt,
		patient.ID,
		expected,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ValidationErrors{"document_number": "a patient with this document already exists"}
		}
		return fmt.Errorf("failed to update patient: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Either the row vanished or someone saved after our load.
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, patient.ID); err != nil {
			return fmt.Errorf("failed to check patient existence: %w", err)
		}
		if !exists {
			return apperrors.NotFound("patient")
		}
		return apperrors.Conflict("patient")
	}
	return nil
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	status := model.EntityStatusActive
	if filters != nil && filters.ShowInactive {
		status = model.EntityStatusInactive
	}

	query := `
		SELECT id, full_name, document_number, age, phone, email, status,
			   created_at, updated_at
		FROM patients
		WHERE status = $1
		ORDER BY full_name ASC
	`
	patients := []*model.Patient{}
	if err := r.db.SelectContext(ctx, &patients, query, status); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) DocumentExists(ctx context.Context, document string, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM patients
			WHERE document_number = $1 AND id != $2
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, document, excludeID); err != nil {
		return false, fmt.Errorf("failed to check patient document: %w", err)
	}
	return exists, nil
}
