package dto

import "time"

// RunReport summarizes a finished evolve run
type RunReport struct {
	Script      string        `json:"script"`
	Runtime     string        `json:"runtime,omitempty"`
	Attempts    int           `json:"attempts"`
	Repairs     int           `json:"repairs"`
	Unavailable int           `json:"unavailable"`
	BackupPath  string        `json:"backup_path,omitempty"`
	Outcome     string        `json:"outcome"`
	LastExit    int           `json:"last_exit_code"`
	Duration    time.Duration `json:"duration_ns"`
	Error       string        `json:"error,omitempty"`
}

// Succeeded reports whether the run ended with a clean attempt
func (r *RunReport) Succeeded() bool {
	return r.Outcome == "success"
}
