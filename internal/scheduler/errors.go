package scheduler

import "errors"

var (
	// ErrInvalidSchedule is returned when the cron expression cannot be parsed.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrNoRunFunc is returned when no run function is given.
	ErrNoRunFunc = errors.New("run function is required")
)
