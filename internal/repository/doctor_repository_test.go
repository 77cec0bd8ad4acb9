package repository

import (
	"context"
	"testing"

	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateRatingSummary(t *testing.T) {
	db := newTestDB(t)
	repo := NewDoctorRepository(db)
	ctx := context.Background()

	d := seedDoctor(t, db)

	require.NoError(t, repo.UpdateRatingSummary(ctx, d.ID, 4.7, 3))

	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.7, got.AverageRating)
	assert.Equal(t, int64(3), got.RatingCount)

	// Full overwrite, including back to zero.
	require.NoError(t, repo.UpdateRatingSummary(ctx, d.ID, 0, 0))
	got, err = repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AverageRating)
	assert.Zero(t, got.RatingCount)

	err = repo.UpdateRatingSummary(ctx, uuid.New(), 5, 1)
	assert.ErrorIs(t, err, doctor.ErrDoctorNotFound)
}

func TestDoctorIDs(t *testing.T) {
	db := newTestDB(t)
	repo := NewDoctorRepository(db)
	ctx := context.Background()

	d1 := seedDoctor(t, db)
	d2 := seedDoctor(t, db)

	ids, err := repo.IDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{d1.ID, d2.ID}, ids)
}

func TestDoctorListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewDoctorRepository(db)
	ctx := context.Background()

	cardio := seedDoctor(t, db)
	derm := &doctor.Doctor{
		FirstName: "Mira",
		LastName:  "Chen",
		Specialty: "dermatology",
		Status:    doctor.StatusActive,
		CreatedBy: uuid.New(),
	}
	require.NoError(t, db.Create(derm).Error)

	paged, err := repo.List(ctx, &doctor.ListDoctorsQuery{
		Specialty: "cardiology",
		Page:      1,
		PageSize:  10,
	})
	require.NoError(t, err)
	require.Len(t, paged.Doctors, 1)
	assert.Equal(t, cardio.ID, paged.Doctors[0].ID)

	paged, err = repo.List(ctx, &doctor.ListDoctorsQuery{
		Search:   "Chen",
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, paged.Doctors, 1)
	assert.Equal(t, derm.ID, paged.Doctors[0].ID)
}
