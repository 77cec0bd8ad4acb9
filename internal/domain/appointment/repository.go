package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// TransitionStatus persists a's status and clinical fields, conditioned
	// on the row still being in the from status. Returns
	// ErrInvalidStatusTransition if another writer got there first.
	TransitionStatus(ctx context.Context, a *Appointment, from Status) error

	// MarkMissed promotes every scheduled appointment starting strictly
	// before asOf to missed, optionally scoped to one doctor. Idempotent:
	// rows already missed match nothing. Returns the number of rows changed.
	MarkMissed(ctx context.Context, doctorID *uuid.UUID, asOf time.Time) (int64, error)

	// SetRating records a rating if and only if the row is completed and
	// still unrated. The check and the write are one conditional update, so
	// two concurrent submissions can never both succeed. Returns false when
	// the row did not qualify.
	SetRating(ctx context.Context, id uuid.UUID, rating int, review string, at time.Time) (bool, error)

	// RatingSummary computes AVG(rating) and COUNT(rating) over the doctor's
	// completed, rated appointments. Zero rated rows yields {0, 0}.
	RatingSummary(ctx context.Context, doctorID uuid.UUID) (*RatingSummary, error)

	// HasConflict checks whether a doctor already has an appointment that overlaps.
	HasConflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
}
