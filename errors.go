package kstats

import "errors"

// Sentinel errors for invalid observations and empty timings.
var (
	ErrNegativeDuration = errors.New("negative duration")
	ErrNoData           = errors.New("no observations")
)
