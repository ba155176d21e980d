package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/sanvicente/scheduling-api/internal/model"
	"github.com/sanvicente/scheduling-api/internal/repository"
	apperrors "github.com/sanvicente/scheduling-api/pkg/errors"
	"github.com/sanvicente/scheduling-api/pkg/metrics"
)

const (
	specialtyCacheTTL     = time.Minute
	specialtyCacheCleanup = 5 * time.Minute
)

// Service applies patient/doctor lifecycle rules: document uniqueness across
// active and inactive records, and the no-deactivation-while-scheduled gate.
type Service struct {
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
	metrics  *metrics.Metrics

	// Specialty dropdown values are read on every doctor list render and
	// change only when doctors are written, so a short TTL cache is enough.
	specialties *gocache.Cache
}

func NewService(patients repository.PatientRepository, doctors repository.DoctorRepository, m *metrics.Metrics) *Service {
	return &Service{
		patients:    patients,
		doctors:     doctors,
		metrics:     m,
		specialties: gocache.New(specialtyCacheTTL, specialtyCacheCleanup),
	}
}

func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	violations := apperrors.ValidationErrors{}
	exists, err := s.patients.DocumentExists(ctx, req.DocumentNumber, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check patient document: %w", err)
	}
	if exists {
		violations.Add("document_number", "a patient with this document already exists")
	}
	if !violations.Empty() {
		return nil, violations
	}

	patient := &model.Patient{
		FullName:       req.FullName,
		DocumentNumber: req.DocumentNumber,
		Age:            req.Age,
		Phone:          req.Phone,
		Email:          req.Email,
		Status:         model.EntityStatusActive,
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	violations := apperrors.ValidationErrors{}
	exists, err := s.patients.DocumentExists(ctx, req.DocumentNumber, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check patient document: %w", err)
	}
	if exists {
		violations.Add("document_number", "another patient already has this document")
	}
	if !violations.Empty() {
		return nil, violations
	}

	patient.FullName = req.FullName
	patient.DocumentNumber = req.DocumentNumber
	patient.Age = req.Age
	patient.Phone = req.Phone
	patient.Email = req.Email

	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

// DeactivatePatient marks a patient inactive. Blocked while any of the
// patient's appointments is still scheduled; those must be cancelled or
// completed first.
func (s *Service) DeactivatePatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.patients.GetWithAppointments(ctx, id)
	if err != nil {
		s.metrics.DirectoryDeactivates.WithLabelValues("patient", "not_found").Inc()
		return nil, err
	}

	if !patient.Active() {
		s.metrics.DirectoryDeactivates.WithLabelValues("patient", "already_inactive").Inc()
		return nil, apperrors.AlreadyInactive("patient")
	}

	if hasScheduled(patient.Appointments) {
		s.metrics.DirectoryDeactivates.WithLabelValues("patient", "blocked").Inc()
		return nil, apperrors.HasScheduledAppointments("patient")
	}

	patient.Status = model.EntityStatusInactive
	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, err
	}
	s.metrics.DirectoryDeactivates.WithLabelValues("patient", "deactivated").Inc()
	return patient, nil
}

// ReactivatePatient is unconditional apart from the already-active check.
func (s *Service) ReactivatePatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patient.Active() {
		return nil, apperrors.AlreadyActive("patient")
	}

	patient.Status = model.EntityStatusActive
	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.patients.GetWithAppointments(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	return s.patients.List(ctx, filters)
}

func (s *Service) CreateDoctor(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	violations := apperrors.ValidationErrors{}
	exists, err := s.doctors.DocumentExists(ctx, req.DocumentNumber, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check doctor document: %w", err)
	}
	if exists {
		violations.Add("document_number", "a doctor with this document already exists")
	}
	if !violations.Empty() {
		return nil, violations
	}

	doctor := &model.Doctor{
		FullName:       req.FullName,
		DocumentNumber: req.DocumentNumber,
		Specialty:      req.Specialty,
		Phone:          req.Phone,
		Email:          req.Email,
		Status:         model.EntityStatusActive,
	}
	if err := s.doctors.Create(ctx, doctor); err != nil {
		return nil, err
	}
	s.specialties.Flush()
	return doctor, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	violations := apperrors.ValidationErrors{}
	exists, err := s.doctors.DocumentExists(ctx, req.DocumentNumber, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check doctor document: %w", err)
	}
	if exists {
		violations.Add("document_number", "another doctor already has this document")
	}
	if !violations.Empty() {
		return nil, violations
	}

	doctor.FullName = req.FullName
	doctor.DocumentNumber = req.DocumentNumber
	doctor.Specialty = req.Specialty
	doctor.Phone = req.Phone
	doctor.Email = req.Email

	if err := s.doctors.Update(ctx, doctor); err != nil {
		return nil, err
	}
	s.specialties.Flush()
	return doctor, nil
}

func (s *Service) DeactivateDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.doctors.GetWithAppointments(ctx, id)
	if err != nil {
		s.metrics.DirectoryDeactivates.WithLabelValues("doctor", "not_found").Inc()
		return nil, err
	}

	if !doctor.Active() {
		s.metrics.DirectoryDeactivates.WithLabelValues("doctor", "already_inactive").Inc()
		return nil, apperrors.AlreadyInactive("doctor")
	}

	if hasScheduled(doctor.Appointments) {
		s.metrics.DirectoryDeactivates.WithLabelValues("doctor", "blocked").Inc()
		return nil, apperrors.HasScheduledAppointments("doctor")
	}

	doctor.Status = model.EntityStatusInactive
	if err := s.doctors.Update(ctx, doctor); err != nil {
		return nil, err
	}
	s.metrics.DirectoryDeactivates.WithLabelValues("doctor", "deactivated").Inc()
	s.specialties.Flush()
	return doctor, nil
}

func (s *Service) ReactivateDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if doctor.Active() {
		return nil, apperrors.AlreadyActive("doctor")
	}

	doctor.Status = model.EntityStatusActive
	if err := s.doctors.Update(ctx, doctor); err != nil {
		return nil, err
	}
	s.specialties.Flush()
	return doctor, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.doctors.GetWithAppointments(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	return s.doctors.List(ctx, filters)
}

// DoctorSpecialties returns the distinct specialties within one
// active/inactive partition, matching the partition the doctor list itself
// renders from.
func (s *Service) DoctorSpecialties(ctx context.Context, showInactive bool) ([]string, error) {
	key := "active"
	if showInactive {
		key = "inactive"
	}
	if cached, ok := s.specialties.Get(key); ok {
		return cached.([]string), nil
	}

	specialties, err := s.doctors.ListSpecialties(ctx, showInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list specialties: %w", err)
	}
	s.specialties.Set(key, specialties, gocache.DefaultExpiration)
	return specialties, nil
}

func hasScheduled(appointments []*model.Appointment) bool {
	for _, a := range appointments {
		if a.Status == model.AppointmentStatusScheduled {
			return true
		}
	}
	return false
}
