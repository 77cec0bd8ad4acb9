package appointment

import "errors"

var (
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrAppointmentConflict     = errors.New("appointment time slot is already booked")
	ErrInvalidStatusTransition = errors.New("appointment can no longer be modified")
	ErrScheduledInPast         = errors.New("cannot schedule appointment in the past")
	ErrInvalidDuration         = errors.New("appointment duration must be between 5 and 480 minutes")
	ErrInvalidRating           = errors.New("rating must be between 1 and 5")

	// ErrRatingIneligible covers every rejected rating submission: the
	// appointment is not completed, not owned by the submitter, does not
	// belong to the named doctor, or has already been rated.
	ErrRatingIneligible = errors.New("appointment is not eligible for rating")
)
