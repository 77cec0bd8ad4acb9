package patient

import "errors"

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrPatientInactive = errors.New("patient record is inactive")
	ErrInvalidGender   = errors.New("invalid gender value")
)
