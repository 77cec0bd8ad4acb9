package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRating(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	d := env.seedDoctor(t)
	p := env.seedPatient(t)
	a := env.seedAppointment(t, d.ID, p.ID, appointment.StatusCompleted, env.clock.Now().Add(-time.Hour))

	got, err := env.ratingSvc.SubmitRating(ctx, a.ID, &appointment.SubmitRatingCommand{
		Rating: 5,
		Review: "very thorough",
	}, uuid.New(), "patient", &p.ID, "127.0.0.1")
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 5, *got.Rating)

	// The doctor's cached summary reflects the new rating immediately.
	doc, err := env.docRepo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, doc.AverageRating)
	assert.Equal(t, int64(1), doc.RatingCount)
}

func TestSubmitRatingValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	d := env.seedDoctor(t)
	p := env.seedPatient(t)
	a := env.seedAppointment(t, d.ID, p.ID, appointment.StatusCompleted, env.clock.Now().Add(-time.Hour))

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := env.ratingSvc.SubmitRating(ctx, a.ID, &appointment.SubmitRatingCommand{
			Rating: rating,
		}, uuid.New(), "patient", &p.ID, "127.0.0.1")
		assert.ErrorIs(t, err, appointment.ErrInvalidRating, "rating %d", rating)
	}
}

func TestSubmitRatingIneligible(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	d := env.seedDoctor(t)
	p := env.seedPatient(t)
	stranger := env.seedPatient(t)

	t.Run("not completed", func(t *testing.T) {
		for _, st := range []appointment.Status{
			appointment.StatusScheduled,
			appointment.StatusCancelled,
			appointment.StatusMissed,
		} {
			a := env.seedAppointment(t, d.ID, p.ID, st, env.clock.Now())
			_, err := env.ratingSvc.SubmitRating(ctx, a.ID, &appointment.SubmitRatingCommand{Rating: 4},
				uuid.New(), "patient", &p.ID, "127.0.0.1")
			assert.ErrorIs(t, err, appointment.ErrRatingIneligible, "status %s", st)
		}
	})

	t.Run("not the patient", func(t *testing.T) {
		a := env.seedAppointment(t, d.ID, p.ID, appointment.StatusCompleted, env.clock.Now())
		_, err := env.ratingSvc.SubmitRating(ctx, a.ID, &appointment.SubmitRatingCommand{Rating: 4},
			uuid.New(), "patient", &stranger.ID, "127.0.0.1")
		assert.ErrorIs(t, err, appointment.ErrRatingIneligible)
	})

	t.Run("doctor mismatch", func(t *testing.T) {
		a := env.seedAppointment(t, d.ID, p.ID, appointment.StatusCompleted, env.clock.Now())
		wrongDoctor := uuid.New()
		_, err := env.ratingSvc.SubmitRating(ctx, a.ID, &appointment.SubmitRatingCommand{
			Rating:   4,
			DoctorID: &wrongDoctor,
		}, uuid.New(), "patient", &p.ID, "127.0.0.1")
		assert.ErrorIs(t, err, appointment.ErrRatingIneligible)
	})

	t.Run("already rated", func(t *testing.T) {
		a := env.seedAppointment(t, d.ID, p.ID, appointment.StatusCompleted, env.clock.Now())
		_, err := env.ratingSvc.SubmitRating(ctx, a.ID, &appointment.SubmitRatingCommand{Rating: 5},
			uuid.New(), "patient", &p.ID, "127.0.0.1")
		require.NoError(t, err)

		_, err = env.ratingSvc.SubmitRating(ctx, a.ID, &appointment.SubmitRatingCommand{Rating: 1},
			uuid.New(), "patient", &p.ID, "127.0.0.1")
		assert.ErrorIs(t, err, appointment.ErrRatingIneligible)

		// The first rating is untouched.
		got, err := env.apptRepo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, *got.Rating)
	})
}

func TestSubmitRatingRounding(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	d := env.seedDoctor(t)
	p := env.seedPatient(t)

	// 5, 5, 4 averages 4.666..., cached as 4.7.
	for _, rating := range []int{5, 5, 4} {
		a := env.seedAppointment(t, d.ID, p.ID, appointment.StatusCompleted, env.clock.Now().Add(-time.Hour))
		_, err := env.ratingSvc.SubmitRating(ctx, a.ID, &appointment.SubmitRatingCommand{Rating: rating},
			uuid.New(), "patient", &p.ID, "127.0.0.1")
		require.NoError(t, err)
	}

	doc, err := env.docRepo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.7, doc.AverageRating)
	assert.Equal(t, int64(3), doc.RatingCount)
}

func TestRoundToTenth(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{14.0 / 3.0, 4.7},
		{4.25, 4.3},
		{4.24, 4.2},
		{5.0, 5.0},
		{1.0, 1.0},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, roundToTenth(tc.in), 1e-9, "input %f", tc.in)
	}
}

func TestRecomputeDoctorRatingResetsToZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	d := env.seedDoctor(t)

	// Simulate a stale cache with no backing ratings.
	require.NoError(t, env.db.Model(d).Updates(map[string]any{
		"average_rating": 4.9,
		"rating_count":   12,
	}).Error)

	require.NoError(t, env.ratingSvc.RecomputeDoctorRating(ctx, d.ID))

	got, err := env.docRepo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AverageRating)
	assert.Zero(t, got.RatingCount)
}

func TestRepairRatingSummaries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	d1 := env.seedDoctor(t)
	d2 := env.seedDoctor(t)
	p := env.seedPatient(t)

	a := env.seedAppointment(t, d1.ID, p.ID, appointment.StatusCompleted, env.clock.Now().Add(-time.Hour))
	_, err := env.ratingSvc.SubmitRating(ctx, a.ID, &appointment.SubmitRatingCommand{Rating: 4},
		uuid.New(), "patient", &p.ID, "127.0.0.1")
	require.NoError(t, err)

	// Corrupt both caches, then repair.
	require.NoError(t, env.db.Model(d1).Update("average_rating", 1.0).Error)
	require.NoError(t, env.db.Model(d2).Updates(map[string]any{
		"average_rating": 3.0,
		"rating_count":   7,
	}).Error)

	repaired, err := env.ratingSvc.RepairRatingSummaries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repaired)

	got1, err := env.docRepo.GetByID(ctx, d1.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got1.AverageRating)
	assert.Equal(t, int64(1), got1.RatingCount)

	got2, err := env.docRepo.GetByID(ctx, d2.ID)
	require.NoError(t, err)
	assert.Zero(t, got2.AverageRating)
	assert.Zero(t, got2.RatingCount)
}

// casRatingRepo backs the concurrency test: an in-memory repository whose
// SetRating is a mutex-guarded compare-and-set, mirroring the conditional
// UPDATE the real repository issues.
type casRatingRepo struct {
	appointment.Repository

	mu sync.Mutex
	a  *appointment.Appointment
}

func (r *casRatingRepo) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.a == nil || r.a.ID != id {
		return nil, appointment.ErrAppointmentNotFound
	}
	cp := *r.a
	return &cp, nil
}

func (r *casRatingRepo) SetRating(_ context.Context, id uuid.UUID, rating int, review string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.a == nil || r.a.ID != id || r.a.Status != appointment.StatusCompleted || r.a.Rating != nil {
		return false, nil
	}
	r.a.Rating = &rating
	r.a.Review = &review
	r.a.RatedAt = &at
	return true, nil
}

func (r *casRatingRepo) RatingSummary(_ context.Context, _ uuid.UUID) (*appointment.RatingSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.a == nil || !r.a.Rated() {
		return &appointment.RatingSummary{}, nil
	}
	return &appointment.RatingSummary{AverageRating: float64(*r.a.Rating), RatingCount: 1}, nil
}

func TestSubmitRatingConcurrent(t *testing.T) {
	env := newTestEnv(t)
	d := env.seedDoctor(t)
	p := env.seedPatient(t)

	a := &appointment.Appointment{
		ID:        uuid.New(),
		DoctorID:  d.ID,
		PatientID: p.ID,
		Status:    appointment.StatusCompleted,
	}
	repo := &casRatingRepo{a: a}

	svc := NewRatingService(repo, env.docRepo, env.ratingSvc.auditSvc, env.ratingSvc.collector, env.ratingSvc.log)

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(rating int) {
			defer wg.Done()
			_, err := svc.SubmitRating(context.Background(), a.ID, &appointment.SubmitRatingCommand{
				Rating: rating,
			}, uuid.New(), "patient", &p.ID, "127.0.0.1")
			results <- err
		}(1 + i%5)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, appointment.ErrRatingIneligible)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent submission may win")
}
