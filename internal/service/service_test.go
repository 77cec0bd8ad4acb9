package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/repository"
	"github.com/clinicdesk/clinicdesk/pkg/database"
	"github.com/clinicdesk/clinicdesk/pkg/metrics"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db        *gorm.DB
	apptSvc   *AppointmentService
	ratingSvc *RatingService
	apptRepo  appointment.Repository
	docRepo   doctor.Repository
	clock     *fakeClock
}

// fakeClock replaces the service clock so tests control "now".
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))

	log := zap.NewNop()
	collector := metrics.NewCollector("clinicdesk", prometheus.NewRegistry())

	apptRepo := repository.NewAppointmentRepository(db)
	docRepo := repository.NewDoctorRepository(db)
	patRepo := repository.NewPatientRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditSvc := NewAuditService(auditRepo, collector, log)
	t.Cleanup(auditSvc.Shutdown)

	apptSvc := NewAppointmentService(apptRepo, docRepo, patRepo, auditSvc, collector, log)
	ratingSvc := NewRatingService(apptRepo, docRepo, auditSvc, collector, log)

	clock := &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	apptSvc.now = clock.Now
	ratingSvc.now = clock.Now

	return &testEnv{
		db:        db,
		apptSvc:   apptSvc,
		ratingSvc: ratingSvc,
		apptRepo:  apptRepo,
		docRepo:   docRepo,
		clock:     clock,
	}
}

func (e *testEnv) seedDoctor(t *testing.T) *doctor.Doctor {
	t.Helper()

	d := &doctor.Doctor{
		FirstName: "Asha",
		LastName:  "Rao",
		Specialty: "cardiology",
		Status:    doctor.StatusActive,
		CreatedBy: uuid.New(),
	}
	require.NoError(t, e.db.Create(d).Error)
	return d
}

func (e *testEnv) seedPatient(t *testing.T) *patient.Patient {
	t.Helper()

	p := &patient.Patient{
		FirstName:   "Jon",
		LastName:    "Doe",
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:      patient.GenderMale,
		Status:      patient.StatusActive,
		CreatedBy:   uuid.New(),
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) seedAppointment(t *testing.T, doctorID, patientID uuid.UUID, status appointment.Status, scheduledAt time.Time) *appointment.Appointment {
	t.Helper()

	a := &appointment.Appointment{
		DoctorID:     doctorID,
		PatientID:    patientID,
		ScheduledAt:  scheduledAt,
		DurationMins: 30,
		Status:       status,
		CreatedBy:    uuid.New(),
	}
	require.NoError(t, e.db.Create(a).Error)
	return a
}
