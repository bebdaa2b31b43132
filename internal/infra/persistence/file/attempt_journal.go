package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/evolve/internal/application/port/output"
)

// AttemptJournal appends attempt records as NDJSON
type AttemptJournal struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewAttemptJournal creates a journal writing to path
func NewAttemptJournal(fs afero.Fs, path string) *AttemptJournal {
	return &AttemptJournal{fs: fs, path: path}
}

// Path returns the journal location
func (j *AttemptJournal) Path() string {
	return j.path
}

// Append writes one entry as a single JSON line
func (j *AttemptJournal) Append(entry output.JournalEntry) error {
	if entry.Ts == "" {
		entry.Ts = time.Now().UTC().Format(time.RFC3339Nano)
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.fs.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	f, err := j.fs.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}

	// Durability is best effort; the line itself is already written
	_ = f.Sync()
	return nil
}
