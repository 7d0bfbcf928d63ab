package jobstats

import "errors"

var (
	// Store errors.
	ErrNoStore     = errors.New("jobstats: no store configured")
	ErrStoreClosed = errors.New("jobstats: store closed")

	// Job errors.
	ErrJobNotFound      = errors.New("jobstats: job not found")
	ErrJobAlreadyExists = errors.New("jobstats: job already exists")
	ErrNoHandler        = errors.New("jobstats: no handler registered")

	// Configuration errors.
	ErrInvalidConfig = errors.New("jobstats: invalid configuration")
)
