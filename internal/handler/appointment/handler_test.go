package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanvicente/scheduling-api/internal/email"
	"github.com/sanvicente/scheduling-api/internal/model"
	"github.com/sanvicente/scheduling-api/internal/repository"
	"github.com/sanvicente/scheduling-api/internal/service/scheduling"
	apperrors "github.com/sanvicente/scheduling-api/pkg/errors"
	"github.com/sanvicente/scheduling-api/pkg/httputil"
	"github.com/sanvicente/scheduling-api/pkg/metrics"
)

var testNow = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

type memAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func (r *memAppointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	a.ID = uuid.New()
	r.appointments[a.ID] = a
	return nil
}

func (r *memAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment")
	}
	copy := *a
	return &copy, nil
}

func (r *memAppointmentRepo) Update(_ context.Context, a *model.Appointment) error {
	if _, ok := r.appointments[a.ID]; !ok {
		return apperrors.NotFound("appointment")
	}
	r.appointments[a.ID] = a
	return nil
}

func (r *memAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range r.appointments {
		out = append(out, a)
	}
	return out, nil
}

func (r *memAppointmentRepo) HasConflict(_ context.Context, q repository.ConflictQuery) (bool, error) {
	for _, a := range r.appointments {
		if a.ID == q.ExcludeID || a.Status != model.AppointmentStatusScheduled {
			continue
		}
		if !a.AppointmentDate.Equal(q.Date) {
			continue
		}
		if q.DoctorID != uuid.Nil && a.DoctorID != q.DoctorID {
			continue
		}
		if q.PatientID != uuid.Nil && a.PatientID != q.PatientID {
			continue
		}
		if a.AppointmentTime.Minutes >= q.From.Minutes && a.AppointmentTime.Minutes <= q.To.Minutes {
			return true, nil
		}
	}
	return false, nil
}

type memPatientRepo struct{ patient *model.Patient }

func (r *memPatientRepo) Create(_ context.Context, _ *model.Patient) error { return nil }
func (r *memPatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	if r.patient == nil || r.patient.ID != id {
		return nil, apperrors.NotFound("patient")
	}
	return r.patient, nil
}
func (r *memPatientRepo) GetWithAppointments(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return r.Get(ctx, id)
}
func (r *memPatientRepo) Update(_ context.Context, _ *model.Patient) error { return nil }
func (r *memPatientRepo) List(_ context.Context, _ *model.PatientFilters) ([]*model.Patient, error) {
	return nil, nil
}
func (r *memPatientRepo) DocumentExists(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
	return false, nil
}

type memDoctorRepo struct{ doctor *model.Doctor }

func (r *memDoctorRepo) Create(_ context.Context, _ *model.Doctor) error { return nil }
func (r *memDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	if r.doctor == nil || r.doctor.ID != id {
		return nil, apperrors.NotFound("doctor")
	}
	return r.doctor, nil
}
func (r *memDoctorRepo) GetWithAppointments(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return r.Get(ctx, id)
}
func (r *memDoctorRepo) Update(_ context.Context, _ *model.Doctor) error { return nil }
func (r *memDoctorRepo) List(_ context.Context, _ *model.DoctorFilters) ([]*model.Doctor, error) {
	return nil, nil
}
func (r *memDoctorRepo) DocumentExists(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
	return false, nil
}
func (r *memDoctorRepo) ListSpecialties(_ context.Context, _ bool) ([]string, error) {
	return nil, nil
}

type memHistoryRepo struct{ histories map[uuid.UUID]*model.EmailHistory }

func (r *memHistoryRepo) Create(_ context.Context, h *model.EmailHistory) error {
	h.ID = uuid.New()
	r.histories[h.AppointmentID] = h
	return nil
}
func (r *memHistoryRepo) GetByAppointment(_ context.Context, id uuid.UUID) (*model.EmailHistory, error) {
	h, ok := r.histories[id]
	if !ok {
		return nil, apperrors.NotFound("email history")
	}
	return h, nil
}

type stubNotifier struct{ outcome email.Outcome }

func (n *stubNotifier) SendConfirmation(_ context.Context, _ *model.Appointment) email.Outcome {
	return n.outcome
}

type testServer struct {
	router   *gin.Engine
	repo     *memAppointmentRepo
	notifier *stubNotifier
	patient  *model.Patient
	doctor   *model.Doctor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		repo:     &memAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)},
		notifier: &stubNotifier{outcome: email.Outcome{Success: true, Message: "confirmation email sent to ana@example.com"}},
		patient: &model.Patient{
			ID: uuid.New(), FullName: "Ana Morales", DocumentNumber: "CC-1001",
			Age: 34, Email: "ana@example.com", Status: model.EntityStatusActive,
		},
		doctor: &model.Doctor{
			ID: uuid.New(), FullName: "Luis Herrera", DocumentNumber: "CC-2001",
			Specialty: "Cardiology", Status: model.EntityStatusActive,
		},
	}

	svc := scheduling.NewService(
		ts.repo,
		&memPatientRepo{patient: ts.patient},
		&memDoctorRepo{doctor: ts.doctor},
		&memHistoryRepo{histories: make(map[uuid.UUID]*model.EmailHistory)},
		ts.notifier,
		metrics.NewMetrics("test", prometheus.NewRegistry()),
		scheduling.WithClock(func() time.Time { return testNow }),
	)

	ts.router = gin.New()
	NewHandler(svc).RegisterRoutes(ts.router.Group("/api/v1"))
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, httputil.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func (ts *testServer) createBody(daysFromNow int, at string) gin.H {
	return gin.H{
		"patient_id":       ts.patient.ID,
		"doctor_id":        ts.doctor.ID,
		"appointment_date": testNow.AddDate(0, 0, daysFromNow).Format(time.RFC3339),
		"appointment_time": at,
	}
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w, resp := ts.do(t, http.MethodPost, "/api/v1/appointments", ts.createBody(1, "10:00"))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "appointment created; confirmation email sent to ana@example.com", resp.Message)
}

func TestCreateAppointmentEndpointEmailCaveat(t *testing.T) {
	ts := newTestServer(t)
	ts.notifier.outcome = email.Outcome{Success: false, Message: "failed to send email: connection refused"}

	w, resp := ts.do(t, http.MethodPost, "/api/v1/appointments", ts.createBody(1, "10:00"))
	assert.Equal(t, http.StatusCreated, w.Code, "a failed email never fails the request")
	assert.Contains(t, resp.Message, "confirmation email failed")
}

func TestCreateAppointmentEndpointValidation(t *testing.T) {
	ts := newTestServer(t)

	w, resp := ts.do(t, http.MethodPost, "/api/v1/appointments", ts.createBody(-1, "10:00"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Errors, "appointment_date")
}

func TestCreateAppointmentEndpointConflict(t *testing.T) {
	ts := newTestServer(t)
	w, _ := ts.do(t, http.MethodPost, "/api/v1/appointments", ts.createBody(1, "10:00"))
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := ts.do(t, http.MethodPost, "/api/v1/appointments", ts.createBody(1, "10:20"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, resp.Errors, "doctor_conflict")
	assert.Contains(t, resp.Errors, "patient_conflict")
}

func TestCreateAppointmentEndpointBadBody(t *testing.T) {
	ts := newTestServer(t)

	w, resp := ts.do(t, http.MethodPost, "/api/v1/appointments", gin.H{"patient_id": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", resp.Status)
}

func TestCancelAppointmentEndpoint(t *testing.T) {
	ts := newTestServer(t)
	_, resp := ts.do(t, http.MethodPost, "/api/v1/appointments", ts.createBody(1, "10:00"))

	var created struct {
		Appointment model.Appointment `json:"appointment"`
	}
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &created))
	id := created.Appointment.ID

	w, _ := ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/appointments/%s/cancel", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Cancelling again is an invalid transition, reported as a conflict.
	w, resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/appointments/%s/cancel", id), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "error", resp.Status)
}

func TestGetAppointmentEndpointNotFound(t *testing.T) {
	ts := newTestServer(t)

	w, resp := ts.do(t, http.MethodGet, "/api/v1/appointments/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "appointment not found", resp.Message)
}

func TestGetAppointmentEndpointBadID(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodGet, "/api/v1/appointments/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
