package session

import "time"

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines sender reliability defaults.
type Config struct {
	// MaxAttempts bounds redeliveries per frame; zero means unbounded.
	MaxAttempts int
	Backoff     BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts: 8,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}
