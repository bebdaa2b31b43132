package dto

import "time"

// RunScriptInput configures one evolve run
type RunScriptInput struct {
	Path    string
	Runtime string
	Args    []string

	// MaxAttempts bounds the loop. Zero means no bound.
	MaxAttempts int
	// RetryDelay is the first wait after an unavailable repair. Zero retries
	// immediately.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	BackupSuffix  string
}
