package result

import (
	"time"

	"ugc-studio/internal/config"
)

// Schedule is the fetch retry budget and the poll cadence.
type Schedule struct {
	// InitialChecks are one-shot checks after the poller arms.
	InitialChecks []time.Duration
	// Interval is the recurring check period.
	Interval time.Duration
	// RetryDelay separates not-found retries within one fetch.
	RetryDelay time.Duration
	MaxRetries int
	// MaxDuration stops an armed poller. Zero polls until the flag clears.
	MaxDuration time.Duration
}

// DefaultSchedule checks at 2s, 5s and 8s, then every 5s for up to 10 minutes.
func DefaultSchedule() Schedule {
	return Schedule{
		InitialChecks: []time.Duration{2 * time.Second, 5 * time.Second, 8 * time.Second},
		Interval:      5 * time.Second,
		RetryDelay:    time.Second,
		MaxRetries:    3,
		MaxDuration:   10 * time.Minute,
	}
}

// ScheduleFromConfig builds a Schedule from the poll section of the config.
func ScheduleFromConfig(cfg config.PollConfig) Schedule {
	return Schedule{
		InitialChecks: append([]time.Duration(nil), cfg.InitialChecks...),
		Interval:      cfg.Interval,
		RetryDelay:    cfg.RetryDelay,
		MaxRetries:    cfg.MaxRetries,
		MaxDuration:   cfg.MaxDuration,
	}
}
