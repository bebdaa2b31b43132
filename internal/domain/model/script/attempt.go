package script

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Outcome is the classification of a finished attempt
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// IsSuccess reports whether the outcome is a success
func (o Outcome) IsSuccess() bool {
	return o == OutcomeSuccess
}

// Attempt is one execution of the script from spawn to termination.
// It lives for a single loop iteration.
type Attempt struct {
	ID        string
	Number    int
	Output    string
	ExitCode  int
	Outcome   Outcome
	StartedAt time.Time
	Duration  time.Duration
}

// NewAttemptID generates a ULID for an attempt
func NewAttemptID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
