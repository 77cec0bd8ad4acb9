package appointment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// State transitions:
//
//	scheduled → completed   (doctor records the visit)
//	scheduled → cancelled   (patient, doctor or admin)
//	scheduled → missed      (sweep, once scheduled_at has passed)
//
// completed, cancelled and missed are terminal.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusMissed    Status = "missed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusMissed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	return s != StatusScheduled
}

type Appointment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	// Single combined timestamp. Date and time are never stored separately,
	// so the sweep and the overdue check share one comparison rule.
	ScheduledAt  time.Time `gorm:"column:scheduled_at;not null;index"`
	DurationMins int       `gorm:"column:duration_mins;not null;default:30"`
	Status       Status    `gorm:"column:status;type:varchar(30);not null;default:'scheduled';index"`

	Symptoms     string `gorm:"column:symptoms;type:text"`
	Diagnosis    string `gorm:"column:diagnosis;type:text"`
	Prescription string `gorm:"column:prescription;type:text"`

	// Set at most once, only while status is completed. There is no update
	// or delete path for an existing rating.
	Rating  *int       `gorm:"column:rating"`
	Review  *string    `gorm:"column:review;type:text"`
	RatedAt *time.Time `gorm:"column:rated_at"`

	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	CancelledBy *uuid.UUID `gorm:"column:cancelled_by;type:uuid"`
	CompletedAt *time.Time `gorm:"column:completed_at"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *Appointment) EndsAt() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMins) * time.Minute)
}

func (a *Appointment) CanTransitionTo(newStatus Status) bool {
	allowed := map[Status][]Status{
		StatusScheduled: {StatusCompleted, StatusCancelled, StatusMissed},
		StatusCompleted: {},
		StatusCancelled: {},
		StatusMissed:    {},
	}

	for _, s := range allowed[a.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// OverdueAt reports whether the appointment is still scheduled past its
// start. The sweep marks exactly the appointments for which this holds, so
// the UI flag and the sweep can never disagree. The comparison is strict: an
// appointment starting at the current instant is not yet overdue.
func (a *Appointment) OverdueAt(now time.Time) bool {
	return a.Status == StatusScheduled && a.ScheduledAt.Before(now)
}

// Rated reports whether a rating has been recorded.
func (a *Appointment) Rated() bool {
	return a.Rating != nil
}

// Complete records the visit outcome. Allowed from scheduled only.
func (a *Appointment) Complete(diagnosis, prescription string, at time.Time) error {
	if !a.CanTransitionTo(StatusCompleted) {
		return ErrInvalidStatusTransition
	}
	a.Status = StatusCompleted
	a.Diagnosis = diagnosis
	a.Prescription = prescription
	a.CompletedAt = &at
	return nil
}

// Cancel marks the appointment cancelled. Allowed from scheduled only.
func (a *Appointment) Cancel(cancelledBy uuid.UUID, at time.Time) error {
	if !a.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	a.Status = StatusCancelled
	a.CancelledAt = &at
	a.CancelledBy = &cancelledBy
	return nil
}

type CreateAppointmentCommand struct {
	PatientID    uuid.UUID
	DoctorID     uuid.UUID
	ScheduledAt  time.Time
	DurationMins int
	Symptoms     string
	CreatedBy    uuid.UUID
}

type CompleteAppointmentCommand struct {
	Diagnosis    string
	Prescription string
}

type SubmitRatingCommand struct {
	Rating int
	Review string
	// Optional cross-check: when the caller also names the doctor, the
	// appointment must actually belong to that doctor.
	DoctorID *uuid.UUID
}

type ListAppointmentsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *Status
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

type PagedAppointments struct {
	Appointments []*Appointment
	TotalCount   int64
	Page         int
	PageSize     int
	TotalPages   int
}

// RatingSummary is the aggregate over one doctor's completed, rated
// appointments. It is derived data; the appointments table is the source of
// truth.
type RatingSummary struct {
	AverageRating float64
	RatingCount   int64
}
