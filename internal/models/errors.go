package models

import "errors"

var (
	// ErrJobNotFound is returned when a job id has no row.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidJobStatus is returned for an illegal status transition.
	ErrInvalidJobStatus = errors.New("invalid job status")
)
