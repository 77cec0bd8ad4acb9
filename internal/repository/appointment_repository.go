package repository

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

var _ appointment.Repository = (*AppointmentRepository)(nil)

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AppointmentRepository) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	tx := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("deleted_at IS NULL")

	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		tx = tx.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if q.DateFrom != nil {
		tx = tx.Where("scheduled_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("scheduled_at < ?", *q.DateTo)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []*appointment.Appointment
	err := tx.Order("scheduled_at asc").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &appointment.PagedAppointments{
		Appointments: items,
		TotalCount:   total,
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   int(math.Ceil(float64(total) / float64(q.PageSize))),
	}, nil
}

func (r *AppointmentRepository) TransitionStatus(ctx context.Context, a *appointment.Appointment, from appointment.Status) error {
	res := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ? AND status = ?", a.ID, from).
		Updates(map[string]any{
			"status":       a.Status,
			"diagnosis":    a.Diagnosis,
			"prescription": a.Prescription,
			"completed_at": a.CompletedAt,
			"cancelled_at": a.CancelledAt,
			"cancelled_by": a.CancelledBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return appointment.ErrInvalidStatusTransition
	}
	return nil
}

func (r *AppointmentRepository) MarkMissed(ctx context.Context, doctorID *uuid.UUID, asOf time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("status = ? AND scheduled_at < ? AND deleted_at IS NULL", appointment.StatusScheduled, asOf)
	if doctorID != nil {
		tx = tx.Where("doctor_id = ?", *doctorID)
	}

	res := tx.Update("status", appointment.StatusMissed)
	return res.RowsAffected, res.Error
}

func (r *AppointmentRepository) SetRating(ctx context.Context, id uuid.UUID, rating int, review string, at time.Time) (bool, error) {
	// The eligibility conditions are part of the UPDATE itself: a row that
	// was rated by a concurrent request between our read and this write
	// matches nothing, and the affected-row count says so.
	res := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ? AND status = ? AND rating IS NULL", id, appointment.StatusCompleted).
		Updates(map[string]any{
			"rating":   rating,
			"review":   review,
			"rated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *AppointmentRepository) RatingSummary(ctx context.Context, doctorID uuid.UUID) (*appointment.RatingSummary, error) {
	var s appointment.RatingSummary
	err := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Select("COALESCE(AVG(rating), 0) AS average_rating, COUNT(rating) AS rating_count").
		Where("doctor_id = ? AND status = ? AND rating IS NOT NULL AND deleted_at IS NULL",
			doctorID, appointment.StatusCompleted).
		Scan(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// maxDurationMins bounds the candidate window in HasConflict; it matches the
// longest duration the service accepts.
const maxDurationMins = 480

func (r *AppointmentRepository) HasConflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).
		Where("doctor_id = ? AND status = ? AND deleted_at IS NULL", doctorID, appointment.StatusScheduled).
		Where("scheduled_at < ? AND scheduled_at > ?", end, start.Add(-maxDurationMins*time.Minute))
	if excludeID != nil {
		tx = tx.Where("id <> ?", *excludeID)
	}

	var candidates []*appointment.Appointment
	if err := tx.Find(&candidates).Error; err != nil {
		return false, err
	}
	for _, c := range candidates {
		if c.EndsAt().After(start) {
			return true, nil
		}
	}
	return false, nil
}
