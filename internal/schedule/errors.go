package schedule

import "errors"

// Domain errors for the schedule package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, schedule.ErrJobNotFound) {
//	    // nothing was pending
//	}
var (
	// ErrJobNotFound is returned when a job ID has no pending job.
	ErrJobNotFound = errors.New("schedule: job not found")

	// ErrInvalidJob is returned when a job has no command, no items or a negative delay.
	ErrInvalidJob = errors.New("schedule: invalid job")

	// ErrNoStore is returned when a job fires before any item graph was loaded.
	ErrNoStore = errors.New("schedule: no item store loaded")

	// ErrStopped is returned when scheduling on a stopped Scheduler.
	ErrStopped = errors.New("schedule: stopped")
)
