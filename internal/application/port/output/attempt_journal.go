package output

// AttemptJournal records one line per finished attempt
type AttemptJournal interface {
	Append(entry JournalEntry) error
}

// JournalEntry is a single attempt record
type JournalEntry struct {
	Ts        string `json:"ts"`
	ID        string `json:"id"`
	Script    string `json:"script"`
	Attempt   int    `json:"attempt"`
	ExitCode  int    `json:"exit_code"`
	Outcome   string `json:"outcome"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Repair    string `json:"repair"`
	Backup    string `json:"backup,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Repair results written to the journal
const (
	RepairApplied     = "applied"
	RepairUnavailable = "unavailable"
	RepairSkipped     = "skipped"
)

// NopJournal discards entries
type NopJournal struct{}

// Append implements AttemptJournal
func (NopJournal) Append(JournalEntry) error { return nil }
