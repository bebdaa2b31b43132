package config

import "time"

// Config provides read-only access to application configuration.
// The app layer depends on this interface, never on where a value came from.
type Config interface {
	// Core settings
	Home() string // Base directory for evolve (EVOLVE_HOME)

	// Repair service
	APIURL() string                // Repair endpoint (EVOLVE_API_URL)
	APIKey() string                // Bearer token, empty for none (EVOLVE_API_KEY)
	RequestTimeoutSec() int        // Per-request timeout, 0 for none
	RequestTimeout() time.Duration // RequestTimeoutSec as Duration

	// Retry loop
	MaxAttempts() int             // 0 means unlimited
	RetryDelay() time.Duration    // First delay after an unavailable round
	MaxRetryDelay() time.Duration // Backoff ceiling

	// Classification
	ErrorPatterns() []string
	IgnoreCase() bool

	// Script handling
	BackupSuffix() string
	RequireInterpreter() bool

	// Terminal
	EchoOutput() bool
	TermName() string
	TermCols() uint16
	TermRows() uint16
	DrainTimeout() time.Duration

	// Output
	JournalPath() string
	LogLevel() string

	// Metadata
	ConfigSource() string // "default", "json", "yaml", "env" or "flag"
	SettingPath() string  // Path to the settings file if one was loaded
}

// Values is the flat set of resolved settings used to build an AppConfig
type Values struct {
	Home string

	APIURL            string
	APIKey            string
	RequestTimeoutSec int

	MaxAttempts     int
	RetryDelayMs    int
	MaxRetryDelayMs int

	ErrorPatterns []string
	IgnoreCase    bool

	BackupSuffix       string
	RequireInterpreter bool

	EchoOutput     bool
	TermName       string
	TermCols       int
	TermRows       int
	DrainTimeoutMs int

	JournalPath string
	LogLevel    string
}

// AppConfig is the concrete implementation of Config
type AppConfig struct {
	v Values

	configSource string
	settingPath  string
}

// NewAppConfig creates an AppConfig. The pattern slice is copied.
func NewAppConfig(v Values, configSource, settingPath string) *AppConfig {
	v.ErrorPatterns = append([]string(nil), v.ErrorPatterns...)
	return &AppConfig{v: v, configSource: configSource, settingPath: settingPath}
}

// Home returns the base directory for evolve
func (c *AppConfig) Home() string {
	return c.v.Home
}

func (c *AppConfig) APIURL() string { return c.v.APIURL }
func (c *AppConfig) APIKey() string { return c.v.APIKey }

// RequestTimeoutSec returns the request timeout in seconds
func (c *AppConfig) RequestTimeoutSec() int {
	return c.v.RequestTimeoutSec
}

// RequestTimeout returns the request timeout as a Duration
func (c *AppConfig) RequestTimeout() time.Duration {
	return time.Duration(c.v.RequestTimeoutSec) * time.Second
}

// MaxAttempts returns the attempt cap
func (c *AppConfig) MaxAttempts() int {
	return c.v.MaxAttempts
}

func (c *AppConfig) RetryDelay() time.Duration {
	return time.Duration(c.v.RetryDelayMs) * time.Millisecond
}

func (c *AppConfig) MaxRetryDelay() time.Duration {
	return time.Duration(c.v.MaxRetryDelayMs) * time.Millisecond
}

// ErrorPatterns returns a copy of the failure patterns
func (c *AppConfig) ErrorPatterns() []string {
	return append([]string(nil), c.v.ErrorPatterns...)
}

func (c *AppConfig) IgnoreCase() bool { return c.v.IgnoreCase }

func (c *AppConfig) BackupSuffix() string { return c.v.BackupSuffix }

// RequireInterpreter reports whether a directive is only added for
// interpreters found on PATH
func (c *AppConfig) RequireInterpreter() bool {
	return c.v.RequireInterpreter
}

func (c *AppConfig) EchoOutput() bool { return c.v.EchoOutput }
func (c *AppConfig) TermName() string { return c.v.TermName }
func (c *AppConfig) TermCols() uint16 { return clampDim(c.v.TermCols) }
func (c *AppConfig) TermRows() uint16 { return clampDim(c.v.TermRows) }

// DrainTimeout returns how long output is drained after the child exits
func (c *AppConfig) DrainTimeout() time.Duration {
	return time.Duration(c.v.DrainTimeoutMs) * time.Millisecond
}

// JournalPath returns the attempt journal path, empty when disabled
func (c *AppConfig) JournalPath() string {
	return c.v.JournalPath
}

func (c *AppConfig) LogLevel() string { return c.v.LogLevel }

// ConfigSource returns the highest layer that contributed a value
func (c *AppConfig) ConfigSource() string {
	return c.configSource
}

// SettingPath returns the loaded settings file path
func (c *AppConfig) SettingPath() string {
	return c.settingPath
}

func clampDim(n int) uint16 {
	switch {
	case n <= 0:
		return 0
	case n > 0xFFFF:
		return 0xFFFF
	default:
		return uint16(n)
	}
}
