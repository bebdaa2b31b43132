package script

import "errors"

// Errors surfaced by the evolve loop
var (
	ErrUsage             = errors.New("usage")
	ErrTargetNotFound    = errors.New("script not found")
	ErrRepairUnavailable = errors.New("repair service unavailable")
	ErrAttemptsExhausted = errors.New("attempt limit reached")
	ErrSpawn             = errors.New("failed to start script")
)
