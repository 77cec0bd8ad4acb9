package doctor

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error

	// GetByID retrieves a doctor by primary key. Returns ErrDoctorNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	// Update applies partial updates to an existing doctor profile.
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateDoctorCommand) (*Doctor, error)

	// List returns a paginated, filtered list of doctors.
	List(ctx context.Context, q *ListDoctorsQuery) (*PagedDoctors, error)

	// UpdateRatingSummary overwrites the denormalized rating cache. Callers
	// always pass fully recomputed values, never increments, so concurrent
	// writers are last-writer-wins safe.
	UpdateRatingSummary(ctx context.Context, id uuid.UUID, averageRating float64, ratingCount int64) error

	// IDs returns the identifiers of all doctors, deleted ones included.
	// Used by the rating repair pass.
	IDs(ctx context.Context) ([]uuid.UUID, error)
}
