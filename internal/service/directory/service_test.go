package directory

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanvicente/scheduling-api/internal/model"
	apperrors "github.com/sanvicente/scheduling-api/pkg/errors"
	"github.com/sanvicente/scheduling-api/pkg/metrics"
)

type fakePatientRepo struct {
	patients     map[uuid.UUID]*model.Patient
	appointments map[uuid.UUID][]*model.Appointment
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{
		patients:     make(map[uuid.UUID]*model.Patient),
		appointments: make(map[uuid.UUID][]*model.Appointment),
	}
}

func (r *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	p.ID = uuid.New()
	stored := *p
	r.patients[p.ID] = &stored
	return nil
}

func (r *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient")
	}
	copy := *p
	return &copy, nil
}

func (r *fakePatientRepo) GetWithAppointments(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Appointments = r.appointments[id]
	return p, nil
}

func (r *fakePatientRepo) Update(_ context.Context, p *model.Patient) error {
	if _, ok := r.patients[p.ID]; !ok {
		return apperrors.NotFound("patient")
	}
	stored := *p
	r.patients[p.ID] = &stored
	return nil
}

func (r *fakePatientRepo) List(_ context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	want := model.EntityStatusActive
	if filters != nil && filters.ShowInactive {
		want = model.EntityStatusInactive
	}
	var out []*model.Patient
	for _, p := range r.patients {
		if p.Status != want {
			continue
		}
		copy := *p
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (r *fakePatientRepo) DocumentExists(_ context.Context, document string, excludeID uuid.UUID) (bool, error) {
	for _, p := range r.patients {
		if p.ID != excludeID && p.DocumentNumber == document {
			return true, nil
		}
	}
	return false, nil
}

type fakeDoctorRepo struct {
	doctors          map[uuid.UUID]*model.Doctor
	appointments     map[uuid.UUID][]*model.Appointment
	specialtyLookups int
}

func newFakeDoctorRepo() *fakeDoctorRepo {
	return &fakeDoctorRepo{
		doctors:      make(map[uuid.UUID]*model.Doctor),
		appointments: make(map[uuid.UUID][]*model.Appointment),
	}
}

func (r *fakeDoctorRepo) Create(_ context.Context, d *model.Doctor) error {
	d.ID = uuid.New()
	stored := *d
	r.doctors[d.ID] = &stored
	return nil
}

func (r *fakeDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, ok := r.doctors[id]
	if !ok {
		return nil, apperrors.NotFound("doctor")
	}
	copy := *d
	return &copy, nil
}

func (r *fakeDoctorRepo) GetWithAppointments(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Appointments = r.appointments[id]
	return d, nil
}

func (r *fakeDoctorRepo) Update(_ context.Context, d *model.Doctor) error {
	if _, ok := r.doctors[d.ID]; !ok {
		return apperrors.NotFound("doctor")
	}
	stored := *d
	r.doctors[d.ID] = &stored
	return nil
}

func (r *fakeDoctorRepo) List(_ context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	want := model.EntityStatusActive
	if filters != nil && filters.ShowInactive {
		want = model.EntityStatusInactive
	}
	var out []*model.Doctor
	for _, d := range r.doctors {
		if d.Status != want {
			continue
		}
		if filters != nil && filters.Specialty != "" && d.Specialty != filters.Specialty {
			continue
		}
		copy := *d
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (r *fakeDoctorRepo) DocumentExists(_ context.Context, document string, excludeID uuid.UUID) (bool, error) {
	for _, d := range r.doctors {
		if d.ID != excludeID && d.DocumentNumber == document {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeDoctorRepo) ListSpecialties(_ context.Context, showInactive bool) ([]string, error) {
	r.specialtyLookups++
	want := model.EntityStatusActive
	if showInactive {
		want = model.EntityStatusInactive
	}
	seen := make(map[string]bool)
	for _, d := range r.doctors {
		if d.Status == want {
			seen[d.Specialty] = true
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

type fixture struct {
	svc      *Service
	patients *fakePatientRepo
	doctors  *fakeDoctorRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		patients: newFakePatientRepo(),
		doctors:  newFakeDoctorRepo(),
	}
	f.svc = NewService(f.patients, f.doctors, metrics.NewMetrics("test", prometheus.NewRegistry()))
	return f
}

func (f *fixture) addPatient(t *testing.T, name, document string, status model.EntityStatus) *model.Patient {
	t.Helper()
	p := &model.Patient{FullName: name, DocumentNumber: document, Age: 30, Status: status}
	require.NoError(t, f.patients.Create(context.Background(), p))
	return p
}

func (f *fixture) addDoctor(t *testing.T, name, document, specialty string, status model.EntityStatus) *model.Doctor {
	t.Helper()
	d := &model.Doctor{FullName: name, DocumentNumber: document, Specialty: specialty, Status: status}
	require.NoError(t, f.doctors.Create(context.Background(), d))
	return d
}

func TestCreatePatient(t *testing.T) {
	f := newFixture(t)

	patient, err := f.svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		FullName:       "Ana Morales",
		DocumentNumber: "CC-1001",
		Age:            34,
		Email:          "ana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, model.EntityStatusActive, patient.Status, "new records always start active")
	assert.NotEqual(t, uuid.Nil, patient.ID)
}

func TestCreatePatientDuplicateDocument(t *testing.T) {
	f := newFixture(t)
	f.addPatient(t, "Ana Morales", "CC-1001", model.EntityStatusActive)

	_, err := f.svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		FullName:       "Otra Persona",
		DocumentNumber: "CC-1001",
		Age:            50,
	})
	violations, ok := apperrors.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, violations, "document_number")
}

func TestCreatePatientDocumentReservedByInactive(t *testing.T) {
	f := newFixture(t)
	f.addPatient(t, "Ana Morales", "CC-1001", model.EntityStatusInactive)

	// Uniqueness spans both partitions; deactivating does not free the
	// document.
	_, err := f.svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		FullName:       "Otra Persona",
		DocumentNumber: "CC-1001",
		Age:            50,
	})
	_, ok := apperrors.AsValidation(err)
	assert.True(t, ok)
}

func TestUpdatePatientKeepsOwnDocument(t *testing.T) {
	f := newFixture(t)
	p := f.addPatient(t, "Ana Morales", "CC-1001", model.EntityStatusActive)

	updated, err := f.svc.UpdatePatient(context.Background(), p.ID, &model.UpdatePatientRequest{
		FullName:       "Ana Morales Vega",
		DocumentNumber: "CC-1001",
		Age:            35,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Morales Vega", updated.FullName)
}

func TestUpdatePatientDocumentTaken(t *testing.T) {
	f := newFixture(t)
	f.addPatient(t, "Ana Morales", "CC-1001", model.EntityStatusActive)
	p := f.addPatient(t, "Jorge Rivas", "CC-1002", model.EntityStatusActive)

	_, err := f.svc.UpdatePatient(context.Background(), p.ID, &model.UpdatePatientRequest{
		FullName:       "Jorge Rivas",
		DocumentNumber: "CC-1001",
		Age:            40,
	})
	violations, ok := apperrors.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, violations, "document_number")
}

func TestDeactivatePatient(t *testing.T) {
	f := newFixture(t)
	p := f.addPatient(t, "Ana Morales", "CC-1001", model.EntityStatusActive)
	f.patients.appointments[p.ID] = []*model.Appointment{
		{Status: model.AppointmentStatusCancelled},
		{Status: model.AppointmentStatusCompleted},
	}

	deactivated, err := f.svc.DeactivatePatient(context.Background(), p.ID)
	require.NoError(t, err, "terminal appointments do not block deactivation")
	assert.Equal(t, model.EntityStatusInactive, deactivated.Status)
}

func TestDeactivatePatientBlockedByScheduled(t *testing.T) {
	f := newFixture(t)
	p := f.addPatient(t, "Ana Morales", "CC-1001", model.EntityStatusActive)
	f.patients.appointments[p.ID] = []*model.Appointment{
		{Status: model.AppointmentStatusCompleted},
		{Status: model.AppointmentStatusScheduled},
	}

	_, err := f.svc.DeactivatePatient(context.Background(), p.ID)
	assert.Equal(t, apperrors.ErrHasScheduledAppointments, apperrors.Code(err))

	stored, err := f.patients.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntityStatusActive, stored.Status)
}

func TestDeactivatePatientAlreadyInactive(t *testing.T) {
	f := newFixture(t)
	p := f.addPatient(t, "Ana Morales", "CC-1001", model.EntityStatusInactive)

	_, err := f.svc.DeactivatePatient(context.Background(), p.ID)
	assert.Equal(t, apperrors.ErrAlreadyInactive, apperrors.Code(err))
}

func TestReactivatePatient(t *testing.T) {
	f := newFixture(t)
	p := f.addPatient(t, "Ana Morales", "CC-1001", model.EntityStatusInactive)

	reactivated, err := f.svc.ReactivatePatient(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EntityStatusActive, reactivated.Status)

	_, err = f.svc.ReactivatePatient(context.Background(), p.ID)
	assert.Equal(t, apperrors.ErrAlreadyActive, apperrors.Code(err))
}

func TestListPatientsPartition(t *testing.T) {
	f := newFixture(t)
	f.addPatient(t, "Ana Morales", "CC-1001", model.EntityStatusActive)
	f.addPatient(t, "Jorge Rivas", "CC-1002", model.EntityStatusInactive)

	active, err := f.svc.ListPatients(context.Background(), &model.PatientFilters{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Ana Morales", active[0].FullName)

	inactive, err := f.svc.ListPatients(context.Background(), &model.PatientFilters{ShowInactive: true})
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, "Jorge Rivas", inactive[0].FullName)
}

func TestDeactivateDoctorBlockedByScheduled(t *testing.T) {
	f := newFixture(t)
	d := f.addDoctor(t, "Luis Herrera", "CC-2001", "Cardiology", model.EntityStatusActive)
	f.doctors.appointments[d.ID] = []*model.Appointment{
		{Status: model.AppointmentStatusScheduled},
	}

	_, err := f.svc.DeactivateDoctor(context.Background(), d.ID)
	assert.Equal(t, apperrors.ErrHasScheduledAppointments, apperrors.Code(err))
}

func TestCreateDoctorDuplicateDocument(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Luis Herrera", "CC-2001", "Cardiology", model.EntityStatusActive)

	_, err := f.svc.CreateDoctor(context.Background(), &model.CreateDoctorRequest{
		FullName:       "Otro Medico",
		DocumentNumber: "CC-2001",
		Specialty:      "Dermatology",
	})
	violations, ok := apperrors.AsValidation(err)
	require.True(t, ok)
	assert.True(t, strings.Contains(violations["document_number"], "document"))
}

func TestListDoctorsBySpecialty(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Luis Herrera", "CC-2001", "Cardiology", model.EntityStatusActive)
	f.addDoctor(t, "Marta Diaz", "CC-2002", "Dermatology", model.EntityStatusActive)
	f.addDoctor(t, "Pedro Gil", "CC-2003", "Cardiology", model.EntityStatusInactive)

	doctors, err := f.svc.ListDoctors(context.Background(), &model.DoctorFilters{Specialty: "Cardiology"})
	require.NoError(t, err)
	require.Len(t, doctors, 1, "the specialty filter applies within the active partition")
	assert.Equal(t, "Luis Herrera", doctors[0].FullName)
}

func TestDoctorSpecialtiesFollowPartition(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Luis Herrera", "CC-2001", "Cardiology", model.EntityStatusActive)
	f.addDoctor(t, "Marta Diaz", "CC-2002", "Dermatology", model.EntityStatusActive)
	f.addDoctor(t, "Pedro Gil", "CC-2003", "Neurology", model.EntityStatusInactive)

	active, err := f.svc.DoctorSpecialties(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cardiology", "Dermatology"}, active)

	inactive, err := f.svc.DoctorSpecialties(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Neurology"}, inactive)
}

func TestDoctorSpecialtiesCached(t *testing.T) {
	f := newFixture(t)
	f.addDoctor(t, "Luis Herrera", "CC-2001", "Cardiology", model.EntityStatusActive)

	_, err := f.svc.DoctorSpecialties(context.Background(), false)
	require.NoError(t, err)
	_, err = f.svc.DoctorSpecialties(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.doctors.specialtyLookups)

	// Any doctor write invalidates the cache.
	_, err = f.svc.CreateDoctor(context.Background(), &model.CreateDoctorRequest{
		FullName:       "Marta Diaz",
		DocumentNumber: "CC-2002",
		Specialty:      "Dermatology",
	})
	require.NoError(t, err)

	specialties, err := f.svc.DoctorSpecialties(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, f.doctors.specialtyLookups)
	assert.Equal(t, []string{"Cardiology", "Dermatology"}, specialties)
}
