package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/YoshitsuguKoike/evolve/internal/app/config"
)

// Settings file names probed in the home directory, in order
var settingFiles = []string{"setting.json", "setting.yaml", "setting.yml"}

// RawSettings represents the structure of a settings file.
// Nil fields fall through to the next layer.
type RawSettings struct {
	Home *string `json:"home,omitempty" yaml:"home,omitempty"`

	// Repair service
	APIURL            *string `json:"api_url,omitempty" yaml:"api_url,omitempty"`
	APIKey            *string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	RequestTimeoutSec *int    `json:"request_timeout_sec,omitempty" yaml:"request_timeout_sec,omitempty"`

	// Retry loop
	MaxAttempts     *int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	RetryDelayMs    *int `json:"retry_delay_ms,omitempty" yaml:"retry_delay_ms,omitempty"`
	MaxRetryDelayMs *int `json:"max_retry_delay_ms,omitempty" yaml:"max_retry_delay_ms,omitempty"`

	// Classification
	ErrorPatterns []string `json:"error_patterns,omitempty" yaml:"error_patterns,omitempty"`
	IgnoreCase    *bool    `json:"ignore_case,omitempty" yaml:"ignore_case,omitempty"`

	// Script handling
	BackupSuffix       *string `json:"backup_suffix,omitempty" yaml:"backup_suffix,omitempty"`
	RequireInterpreter *bool   `json:"require_interpreter,omitempty" yaml:"require_interpreter,omitempty"`

	// Terminal
	EchoOutput     *bool   `json:"echo_output,omitempty" yaml:"echo_output,omitempty"`
	TermName       *string `json:"term_name,omitempty" yaml:"term_name,omitempty"`
	TermCols       *int    `json:"term_cols,omitempty" yaml:"term_cols,omitempty"`
	TermRows       *int    `json:"term_rows,omitempty" yaml:"term_rows,omitempty"`
	DrainTimeoutMs *int    `json:"drain_timeout_ms,omitempty" yaml:"drain_timeout_ms,omitempty"`

	// Output
	JournalPath *string `json:"journal_path,omitempty" yaml:"journal_path,omitempty"`
	LogLevel    *string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// Loader resolves settings from defaults, a settings file, the environment
// and explicit overrides, in increasing priority.
type Loader struct {
	Fs     afero.Fs
	Getenv func(string) string
}

// NewLoader returns a loader over the real filesystem and environment
func NewLoader() *Loader {
	return &Loader{Fs: afero.NewOsFs(), Getenv: os.Getenv}
}

// LoadSettings loads configuration using the real filesystem and environment.
// Priority: overrides > env > settings file > defaults
func LoadSettings(settingPath string, overrides *RawSettings) (*config.AppConfig, error) {
	return NewLoader().Load(settingPath, overrides)
}

// Load resolves the configuration. When settingPath is empty the home
// directory is probed for setting.json, setting.yaml and setting.yml.
func (l *Loader) Load(settingPath string, overrides *RawSettings) (*config.AppConfig, error) {
	settings := &RawSettings{}
	configSource := "default"

	home := l.getenv("EVOLVE_HOME")
	if overrides != nil && overrides.Home != nil {
		home = *overrides.Home
	}
	homeOverridden := home != ""
	if home == "" {
		home = defaultHome()
	}

	// 1. Settings file
	path, explicit := settingPath, settingPath != ""
	if !explicit {
		path = l.findSettingFile(home)
	}
	if path != "" {
		loaded, format, err := l.readSettingFile(path)
		if err != nil {
			return nil, err
		}
		if loaded != nil {
			settings = loaded
			configSource = format
		} else if explicit {
			return nil, fmt.Errorf("settings file %s not found", path)
		} else {
			path = ""
		}
	}

	// 2. Environment
	if applyEnv(settings, l.getenv) {
		configSource = "env"
	}

	// 3. Explicit overrides, usually command-line flags
	if overrides != nil && merge(settings, overrides) {
		configSource = "flag"
	}

	if settings.Home == nil || homeOverridden {
		settings.Home = &home
	}
	applyDefaults(settings)

	if err := validate(settings); err != nil {
		return nil, err
	}
	return buildAppConfig(settings, configSource, path), nil
}

func (l *Loader) getenv(key string) string {
	if l.Getenv == nil {
		return ""
	}
	return l.Getenv(key)
}

func (l *Loader) findSettingFile(home string) string {
	for _, name := range settingFiles {
		candidate := filepath.Join(home, name)
		if ok, _ := afero.Exists(l.Fs, candidate); ok {
			return candidate
		}
	}
	return ""
}

// readSettingFile returns nil settings when the file does not exist
func (l *Loader) readSettingFile(path string) (*RawSettings, string, error) {
	data, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	settings := &RawSettings{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, "", fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return settings, "yaml", nil
	default:
		if err := json.Unmarshal(data, settings); err != nil {
			return nil, "", fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return settings, "json", nil
	}
}

// applyEnv overlays EVOLVE_* variables and reports whether any were set.
// Unparseable numbers and booleans are ignored.
func applyEnv(s *RawSettings, getenv func(string) string) bool {
	applied := false
	str := func(key string, dst **string) {
		if v := getenv(key); v != "" {
			*dst = &v
			applied = true
		}
	}
	num := func(key string, dst **int) {
		if v := getenv(key); v != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = &n
				applied = true
			}
		}
	}
	flag := func(key string, dst **bool) {
		if v := getenv(key); v != "" {
			if b, ok := parseBool(v); ok {
				*dst = &b
				applied = true
			}
		}
	}

	str("EVOLVE_API_URL", &s.APIURL)
	str("EVOLVE_API_KEY", &s.APIKey)
	num("EVOLVE_REQUEST_TIMEOUT_SEC", &s.RequestTimeoutSec)
	num("EVOLVE_MAX_ATTEMPTS", &s.MaxAttempts)
	num("EVOLVE_RETRY_DELAY_MS", &s.RetryDelayMs)
	num("EVOLVE_MAX_RETRY_DELAY_MS", &s.MaxRetryDelayMs)
	flag("EVOLVE_IGNORE_CASE", &s.IgnoreCase)
	flag("EVOLVE_ECHO_OUTPUT", &s.EchoOutput)
	str("EVOLVE_JOURNAL", &s.JournalPath)
	str("EVOLVE_LOG_LEVEL", &s.LogLevel)

	if v := getenv("EVOLVE_ERROR_PATTERNS"); v != "" {
		var patterns []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		if len(patterns) > 0 {
			s.ErrorPatterns = patterns
			applied = true
		}
	}
	return applied
}

// merge copies every non-nil field of src onto dst
func merge(dst, src *RawSettings) bool {
	merged := false
	str := func(to **string, from *string) {
		if from != nil {
			*to = from
			merged = true
		}
	}
	num := func(to **int, from *int) {
		if from != nil {
			*to = from
			merged = true
		}
	}
	flag := func(to **bool, from *bool) {
		if from != nil {
			*to = from
			merged = true
		}
	}

	str(&dst.APIURL, src.APIURL)
	str(&dst.APIKey, src.APIKey)
	num(&dst.RequestTimeoutSec, src.RequestTimeoutSec)
	num(&dst.MaxAttempts, src.MaxAttempts)
	num(&dst.RetryDelayMs, src.RetryDelayMs)
	num(&dst.MaxRetryDelayMs, src.MaxRetryDelayMs)
	flag(&dst.IgnoreCase, src.IgnoreCase)
	str(&dst.BackupSuffix, src.BackupSuffix)
	flag(&dst.RequireInterpreter, src.RequireInterpreter)
	flag(&dst.EchoOutput, src.EchoOutput)
	str(&dst.TermName, src.TermName)
	num(&dst.TermCols, src.TermCols)
	num(&dst.TermRows, src.TermRows)
	num(&dst.DrainTimeoutMs, src.DrainTimeoutMs)
	str(&dst.JournalPath, src.JournalPath)
	str(&dst.LogLevel, src.LogLevel)
	if len(src.ErrorPatterns) > 0 {
		dst.ErrorPatterns = append([]string(nil), src.ErrorPatterns...)
		merged = true
	}
	return merged
}

// applyDefaults fills in default values for any nil fields
func applyDefaults(settings *RawSettings) {
	if settings.Home == nil {
		v := defaultHome()
		settings.Home = &v
	}

	// Repair service
	if settings.APIURL == nil {
		v := "https://aixcel.us/api/v1/evolve"
		settings.APIURL = &v
	}
	if settings.APIKey == nil {
		v := ""
		settings.APIKey = &v
	}
	if settings.RequestTimeoutSec == nil {
		v := 0 // No timeout; the loop waits for the service
		settings.RequestTimeoutSec = &v
	}

	// Retry loop
	if settings.MaxAttempts == nil {
		v := 0
		settings.MaxAttempts = &v
	}
	if settings.RetryDelayMs == nil {
		v := 1000
		settings.RetryDelayMs = &v
	}
	if settings.MaxRetryDelayMs == nil {
		v := 60000
		settings.MaxRetryDelayMs = &v
	}

	// Classification
	if len(settings.ErrorPatterns) == 0 {
		settings.ErrorPatterns = []string{"[Ee]rror", "[Ii]nvalid"}
	}
	if settings.IgnoreCase == nil {
		v := false
		settings.IgnoreCase = &v
	}

	// Script handling
	if settings.BackupSuffix == nil || *settings.BackupSuffix == "" {
		v := ".backup"
		settings.BackupSuffix = &v
	}
	if settings.RequireInterpreter == nil {
		v := true
		settings.RequireInterpreter = &v
	}

	// Terminal
	if settings.EchoOutput == nil {
		v := true
		settings.EchoOutput = &v
	}
	if settings.TermName == nil || *settings.TermName == "" {
		v := "xterm-color"
		settings.TermName = &v
	}
	if settings.TermCols == nil {
		v := 80
		settings.TermCols = &v
	}
	if settings.TermRows == nil {
		v := 30
		settings.TermRows = &v
	}
	if settings.DrainTimeoutMs == nil {
		v := 2000
		settings.DrainTimeoutMs = &v
	}

	// Output
	if settings.JournalPath == nil {
		v := ""
		settings.JournalPath = &v
	}
	if settings.LogLevel == nil || *settings.LogLevel == "" {
		v := "info"
		settings.LogLevel = &v
	}
}

func validate(s *RawSettings) error {
	nonNegative := map[string]int{
		"request_timeout_sec": *s.RequestTimeoutSec,
		"max_attempts":        *s.MaxAttempts,
		"retry_delay_ms":      *s.RetryDelayMs,
		"max_retry_delay_ms":  *s.MaxRetryDelayMs,
		"term_cols":           *s.TermCols,
		"term_rows":           *s.TermRows,
		"drain_timeout_ms":    *s.DrainTimeoutMs,
	}
	for key, v := range nonNegative {
		if v < 0 {
			return fmt.Errorf("invalid setting %s: must not be negative, got %d", key, v)
		}
	}
	switch strings.ToLower(*s.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid setting log_level: %q", *s.LogLevel)
	}
	return nil
}

// buildAppConfig converts RawSettings to AppConfig
func buildAppConfig(s *RawSettings, configSource, settingPath string) *config.AppConfig {
	return config.NewAppConfig(config.Values{
		Home:               *s.Home,
		APIURL:             *s.APIURL,
		APIKey:             *s.APIKey,
		RequestTimeoutSec:  *s.RequestTimeoutSec,
		MaxAttempts:        *s.MaxAttempts,
		RetryDelayMs:       *s.RetryDelayMs,
		MaxRetryDelayMs:    *s.MaxRetryDelayMs,
		ErrorPatterns:      s.ErrorPatterns,
		IgnoreCase:         *s.IgnoreCase,
		BackupSuffix:       *s.BackupSuffix,
		RequireInterpreter: *s.RequireInterpreter,
		EchoOutput:         *s.EchoOutput,
		TermName:           *s.TermName,
		TermCols:           *s.TermCols,
		TermRows:           *s.TermRows,
		DrainTimeoutMs:     *s.DrainTimeoutMs,
		JournalPath:        *s.JournalPath,
		LogLevel:           strings.ToLower(*s.LogLevel),
	}, configSource, settingPath)
}

func defaultHome() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(dir, ".evolve")
	}
	return ".evolve"
}

// parseBool accepts the usual spellings of true and false
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// CreateDefaultSettings creates a default setting.json content
func CreateDefaultSettings() []byte {
	settings := &RawSettings{}
	applyDefaults(settings)
	settings.Home = nil

	data, _ := json.MarshalIndent(settings, "", "  ")
	return data
}
