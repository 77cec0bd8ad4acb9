package service

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AppointmentService struct {
	repo        appointment.Repository
	doctorRepo  doctor.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	collector   *metrics.Collector
	log         *zap.Logger

	// Injectable clock. The sweep and the overdue flag read the same
	// instant, so the data and the UI can never disagree about "past due".
	now func() time.Time
}

func NewAppointmentService(
	repo appointment.Repository,
	doctorRepo doctor.Repository,
	patientRepo patient.Repository,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:        repo,
		doctorRepo:  doctorRepo,
		patientRepo: patientRepo,
		auditSvc:    auditSvc,
		collector:   collector,
		log:         log,
		now:         time.Now,
	}
}

func (s *AppointmentService) BookAppointment(
	ctx context.Context,
	cmd *appointment.CreateAppointmentCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*appointment.Appointment, error) {
	if cmd.ScheduledAt.Before(s.now()) {
		return nil, appointment.ErrScheduledInPast
	}
	if cmd.DurationMins < 5 || cmd.DurationMins > 480 {
		return nil, appointment.ErrInvalidDuration
	}

	d, err := s.doctorRepo.GetByID(ctx, cmd.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("verifying doctor: %w", err)
	}
	if !d.IsActive() {
		return nil, doctor.ErrDoctorInactive
	}

	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}
	if !p.IsActive() {
		return nil, patient.ErrPatientInactive
	}

	endsAt := cmd.ScheduledAt.Add(time.Duration(cmd.DurationMins) * time.Minute)
	conflict, err := s.repo.HasConflict(ctx, cmd.DoctorID, cmd.ScheduledAt, endsAt, nil)
	if err != nil {
		return nil, fmt.Errorf("checking conflicts: %w", err)
	}
	if conflict {
		return nil, appointment.ErrAppointmentConflict
	}

	a := &appointment.Appointment{
		PatientID:    cmd.PatientID,
		DoctorID:     cmd.DoctorID,
		ScheduledAt:  cmd.ScheduledAt,
		DurationMins: cmd.DurationMins,
		Symptoms:     cmd.Symptoms,
		Status:       appointment.StatusScheduled,
		CreatedBy:    cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.collector.AppointmentsBooked.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "create",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
	})

	return a, nil
}

func (s *AppointmentService) GetAppointment(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, callerPatientID, callerDoctorID *uuid.UUID, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch callerRole {
	case "patient":
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
	case "doctor":
		if callerDoctorID == nil || *callerDoctorID != a.DoctorID {
			return nil, ErrForbidden
		}
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "read", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
	})

	return a, nil
}

// CompleteAppointment records the visit outcome. Allowed only while the
// appointment is still scheduled; anything else reports
// ErrInvalidStatusTransition and changes nothing.
func (s *AppointmentService) CompleteAppointment(ctx context.Context, id uuid.UUID, cmd *appointment.CompleteAppointmentCommand, callerID uuid.UUID, callerRole string, callerDoctorID *uuid.UUID, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if callerRole == "doctor" {
		if callerDoctorID == nil || *callerDoctorID != a.DoctorID {
			return nil, ErrForbidden
		}
	}

	if err := a.Complete(cmd.Diagnosis, cmd.Prescription, s.now()); err != nil {
		return nil, err
	}

	if err := s.repo.TransitionStatus(ctx, a, appointment.StatusScheduled); err != nil {
		return nil, err
	}

	s.collector.AppointmentsCompleted.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
		Changes: `{"status":"completed"}`,
	})

	return a, nil
}

func (s *AppointmentService) CancelAppointment(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, callerPatientID, callerDoctorID *uuid.UUID, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch callerRole {
	case "patient":
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
	case "doctor":
		if callerDoctorID == nil || *callerDoctorID != a.DoctorID {
			return nil, ErrForbidden
		}
	}

	if err := a.Cancel(callerID, s.now()); err != nil {
		return nil, err
	}

	if err := s.repo.TransitionStatus(ctx, a, appointment.StatusScheduled); err != nil {
		return nil, err
	}

	s.collector.AppointmentsCancelled.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
		Changes: `{"status":"cancelled"}`,
	})

	return a, nil
}

// SweepMissed promotes past-due scheduled appointments to missed, for one
// doctor or (doctorID == nil) for everyone. It runs lazily before each
// doctor appointment-list read and from the periodic job; re-running with
// the same or a later instant is a no-op for rows already swept.
func (s *AppointmentService) SweepMissed(ctx context.Context, doctorID *uuid.UUID) (int64, error) {
	n, err := s.repo.MarkMissed(ctx, doctorID, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweeping missed appointments: %w", err)
	}
	if n > 0 {
		s.collector.AppointmentsSweptMissed.Add(float64(n))
		s.log.Info("marked overdue appointments as missed", zap.Int64("count", n))
	}
	return n, nil
}

// ListAppointments returns appointments visible to the caller. A doctor
// listing their own schedule first triggers the missed sweep, so the list
// never shows a stale scheduled status for a past-due appointment.
func (s *AppointmentService) ListAppointments(ctx context.Context, q *appointment.ListAppointmentsQuery, callerRole string, callerPatientID, callerDoctorID *uuid.UUID) (*appointment.PagedAppointments, error) {
	switch callerRole {
	case "patient":
		// Patients can only see their own appointments
		if callerPatientID == nil {
			return nil, ErrForbidden
		}
		q.PatientID = callerPatientID
	case "doctor":
		if callerDoctorID == nil {
			return nil, ErrForbidden
		}
		q.DoctorID = callerDoctorID
		if _, err := s.SweepMissed(ctx, callerDoctorID); err != nil {
			return nil, err
		}
	}

	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}

// Overdue reports whether a is past due but not yet swept. The comparison
// rule and clock are identical to the sweep's.
func (s *AppointmentService) Overdue(a *appointment.Appointment) bool {
	return a.OverdueAt(s.now())
}
