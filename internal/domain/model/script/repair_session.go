package script

// DefaultBackupSuffix is appended to the script path to form the backup path
const DefaultBackupSuffix = ".backup"

// RepairSession tracks repair state that survives across attempts.
// At most one backup is written per session.
type RepairSession struct {
	backupPath    string
	backupWritten bool
	repairs       int
	unavailable   int
}

// NewRepairSession creates a session for the target
func NewRepairSession(target Target, suffix string) *RepairSession {
	if suffix == "" {
		suffix = DefaultBackupSuffix
	}
	return &RepairSession{backupPath: target.Path() + suffix}
}

// BackupPath returns the path where the original script is preserved
func (s *RepairSession) BackupPath() string {
	return s.backupPath
}

// NeedsBackup reports whether the next repair must write the backup first
func (s *RepairSession) NeedsBackup() bool {
	return !s.backupWritten
}

// BackupWritten reports whether the backup exists for this session
func (s *RepairSession) BackupWritten() bool {
	return s.backupWritten
}

// MarkBackupWritten records that the backup has been created.
// Once set it stays set for the rest of the session.
func (s *RepairSession) MarkBackupWritten() {
	s.backupWritten = true
}

// RecordRepair counts an applied repair
func (s *RepairSession) RecordRepair() {
	s.repairs++
}

// RecordUnavailable counts a round where the repair service could not help
func (s *RepairSession) RecordUnavailable() {
	s.unavailable++
}

// Repairs returns the number of applied repairs
func (s *RepairSession) Repairs() int {
	return s.repairs
}

// Unavailable returns the number of rounds without a usable repair
func (s *RepairSession) Unavailable() int {
	return s.unavailable
}
