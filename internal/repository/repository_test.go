package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/pkg/database"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))

	return db
}

func seedDoctor(t *testing.T, db *gorm.DB) *doctor.Doctor {
	t.Helper()

	d := &doctor.Doctor{
		FirstName: "Asha",
		LastName:  "Rao",
		Specialty: "cardiology",
		Status:    doctor.StatusActive,
		CreatedBy: uuid.New(),
	}
	require.NoError(t, db.Create(d).Error)
	return d
}

func seedPatient(t *testing.T, db *gorm.DB) *patient.Patient {
	t.Helper()

	p := &patient.Patient{
		FirstName:   "Jon",
		LastName:    "Doe",
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:      patient.GenderMale,
		Status:      patient.StatusActive,
		CreatedBy:   uuid.New(),
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedAppointment(t *testing.T, db *gorm.DB, doctorID, patientID uuid.UUID, status appointment.Status, scheduledAt time.Time) *appointment.Appointment {
	t.Helper()

	a := &appointment.Appointment{
		DoctorID:     doctorID,
		PatientID:    patientID,
		ScheduledAt:  scheduledAt,
		DurationMins: 30,
		Status:       status,
		CreatedBy:    uuid.New(),
	}
	require.NoError(t, db.Create(a).Error)
	return a
}
