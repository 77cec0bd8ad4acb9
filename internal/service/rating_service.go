package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RatingService accepts one-time ratings for completed appointments and
// keeps each doctor's denormalized rating cache in sync. The appointments
// table is the single source of truth; the cache is always fully recomputed,
// never incrementally adjusted.
type RatingService struct {
	repo       appointment.Repository
	doctorRepo doctor.Repository
	auditSvc   *AuditService
	collector  *metrics.Collector
	log        *zap.Logger

	now func() time.Time
}

func NewRatingService(
	repo appointment.Repository,
	doctorRepo doctor.Repository,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *RatingService {
	return &RatingService{
		repo:       repo,
		doctorRepo: doctorRepo,
		auditSvc:   auditSvc,
		collector:  collector,
		log:        log,
		now:        time.Now,
	}
}

// SubmitRating records a patient's rating for a completed appointment.
// callerPatientID must come from the authenticated session, never from the
// request body. The appointment must be completed, unrated, and owned by the
// caller; every other case reports ErrRatingIneligible with no mutation.
//
// The preconditions are re-checked by the conditional write itself, so two
// concurrent submissions for the same appointment can accept at most one.
func (s *RatingService) SubmitRating(
	ctx context.Context,
	appointmentID uuid.UUID,
	cmd *appointment.SubmitRatingCommand,
	callerID uuid.UUID,
	callerRole string,
	callerPatientID *uuid.UUID,
	ip string,
) (*appointment.Appointment, error) {
	if cmd.Rating < 1 || cmd.Rating > 5 {
		return nil, appointment.ErrInvalidRating
	}

	a, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if callerPatientID == nil || *callerPatientID != a.PatientID {
		return nil, appointment.ErrRatingIneligible
	}
	if cmd.DoctorID != nil && *cmd.DoctorID != a.DoctorID {
		return nil, appointment.ErrRatingIneligible
	}
	if a.Status != appointment.StatusCompleted || a.Rated() {
		return nil, appointment.ErrRatingIneligible
	}

	ratedAt := s.now()
	ok, err := s.repo.SetRating(ctx, appointmentID, cmd.Rating, cmd.Review, ratedAt)
	if err != nil {
		return nil, fmt.Errorf("recording rating: %w", err)
	}
	if !ok {
		// Lost the race to a concurrent submission, or the row changed
		// between the read and the write.
		return nil, appointment.ErrRatingIneligible
	}

	a.Rating = &cmd.Rating
	a.Review = &cmd.Review
	a.RatedAt = &ratedAt

	s.collector.RatingsSubmitted.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "appointment_rating", ResourceID: appointmentID.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"rating":%d}`, cmd.Rating),
	})

	// The rating row is the source of truth; a failed cache recompute must
	// not undo it. Log, count, and let the repair pass reconcile.
	if err := s.RecomputeDoctorRating(ctx, a.DoctorID); err != nil {
		s.collector.RatingRecomputeFailures.Inc()
		s.log.Warn("doctor rating cache left stale after accepted rating",
			zap.String("doctor_id", a.DoctorID.String()),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err),
		)
	}

	return a, nil
}

// RecomputeDoctorRating derives the doctor's average rating and rating count
// from completed rated appointments and overwrites the cached summary.
// Idempotent and callable on its own as a repair pass; zero rated
// appointments writes an explicit 0.0 / 0, never stale values.
func (s *RatingService) RecomputeDoctorRating(ctx context.Context, doctorID uuid.UUID) error {
	summary, err := s.repo.RatingSummary(ctx, doctorID)
	if err != nil {
		return fmt.Errorf("aggregating ratings: %w", err)
	}

	avg := roundToTenth(summary.AverageRating)
	if err := s.doctorRepo.UpdateRatingSummary(ctx, doctorID, avg, summary.RatingCount); err != nil {
		return fmt.Errorf("updating doctor rating summary: %w", err)
	}
	return nil
}

// RepairRatingSummaries recomputes the cached summary for every doctor.
// Used as a backfill after incidents and from the periodic job.
func (s *RatingService) RepairRatingSummaries(ctx context.Context) (int, error) {
	ids, err := s.doctorRepo.IDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing doctors: %w", err)
	}

	repaired := 0
	for _, id := range ids {
		if err := s.RecomputeDoctorRating(ctx, id); err != nil {
			return repaired, fmt.Errorf("repairing doctor %s: %w", id, err)
		}
		repaired++
	}
	return repaired, nil
}

// roundToTenth rounds half-up to one decimal place, e.g. 14.0/3 → 4.7.
func roundToTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
