package output

import (
	"context"
	"time"
)

// RepairGateway is the interface to the external repair service.
// The repair logic itself is opaque; only the request/response contract matters.
type RepairGateway interface {
	// Repair submits a failing script and its captured output.
	// Any transport failure or non-200 status is reported as an error
	// wrapping script.ErrRepairUnavailable.
	Repair(ctx context.Context, req RepairRequest) (*RepairResponse, error)
}

// RepairRequest is the JSON body sent to the repair service
type RepairRequest struct {
	ScriptFile string `json:"scriptFile"` // script text wrapped in a code fence
	CrashLog   string `json:"crashLog"`   // raw captured terminal output
}

// RepairResponse carries the raw response text of a successful call
type RepairResponse struct {
	Body       string
	StatusCode int
	Duration   time.Duration
}
