package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

func TestLoadSettings(t *testing.T) {
	tests := []struct {
		name          string
		files         map[string]string
		settingPath   string
		envVars       map[string]string
		overrides     *RawSettings
		wantURL       string
		wantAttempts  int
		wantRetry     time.Duration
		wantPatterns  []string
		wantSource    string
		wantSettingAt string
	}{
		{
			name:         "Default values only",
			envVars:      map[string]string{"EVOLVE_HOME": "/home/u/.evolve"},
			wantURL:      "https://aixcel.us/api/v1/evolve",
			wantAttempts: 0,
			wantRetry:    time.Second,
			wantPatterns: []string{"[Ee]rror", "[Ii]nvalid"},
			wantSource:   "default",
		},
		{
			name: "JSON file only",
			files: map[string]string{
				"/home/u/.evolve/setting.json": `{"api_url":"http://json.local/fix","max_attempts":5}`,
			},
			envVars:       map[string]string{"EVOLVE_HOME": "/home/u/.evolve"},
			wantURL:       "http://json.local/fix",
			wantAttempts:  5,
			wantRetry:     time.Second,
			wantPatterns:  []string{"[Ee]rror", "[Ii]nvalid"},
			wantSource:    "json",
			wantSettingAt: "/home/u/.evolve/setting.json",
		},
		{
			name: "YAML file only",
			files: map[string]string{
				"/home/u/.evolve/setting.yaml": "api_url: http://yaml.local/fix\nretry_delay_ms: 250\nerror_patterns:\n  - Traceback\n  - panic\n",
			},
			envVars:       map[string]string{"EVOLVE_HOME": "/home/u/.evolve"},
			wantURL:       "http://yaml.local/fix",
			wantRetry:     250 * time.Millisecond,
			wantPatterns:  []string{"Traceback", "panic"},
			wantSource:    "yaml",
			wantSettingAt: "/home/u/.evolve/setting.yaml",
		},
		{
			name: "JSON wins over YAML",
			files: map[string]string{
				"/home/u/.evolve/setting.json": `{"api_url":"http://json.local/fix"}`,
				"/home/u/.evolve/setting.yml":  "api_url: http://yaml.local/fix\n",
			},
			envVars:       map[string]string{"EVOLVE_HOME": "/home/u/.evolve"},
			wantURL:       "http://json.local/fix",
			wantRetry:     time.Second,
			wantPatterns:  []string{"[Ee]rror", "[Ii]nvalid"},
			wantSource:    "json",
			wantSettingAt: "/home/u/.evolve/setting.json",
		},
		{
			name: "JSON with ENV override",
			files: map[string]string{
				"/home/u/.evolve/setting.json": `{"api_url":"http://json.local/fix","max_attempts":5}`,
			},
			envVars: map[string]string{
				"EVOLVE_HOME":           "/home/u/.evolve",
				"EVOLVE_MAX_ATTEMPTS":   "9",
				"EVOLVE_ERROR_PATTERNS": " Traceback , ,fatal",
			},
			wantURL:       "http://json.local/fix",
			wantAttempts:  9,
			wantRetry:     time.Second,
			wantPatterns:  []string{"Traceback", "fatal"},
			wantSource:    "env",
			wantSettingAt: "/home/u/.evolve/setting.json",
		},
		{
			name: "Flags beat ENV",
			envVars: map[string]string{
				"EVOLVE_HOME":    "/home/u/.evolve",
				"EVOLVE_API_URL": "http://env.local/fix",
			},
			overrides:    &RawSettings{APIURL: strPtr("http://flag.local/fix"), RetryDelayMs: intPtr(10)},
			wantURL:      "http://flag.local/fix",
			wantRetry:    10 * time.Millisecond,
			wantPatterns: []string{"[Ee]rror", "[Ii]nvalid"},
			wantSource:   "flag",
		},
		{
			name: "Explicit settings path",
			files: map[string]string{
				"/etc/evolve.yml": "max_attempts: 3\n",
			},
			settingPath:   "/etc/evolve.yml",
			envVars:       map[string]string{"EVOLVE_HOME": "/home/u/.evolve"},
			wantURL:       "https://aixcel.us/api/v1/evolve",
			wantAttempts:  3,
			wantRetry:     time.Second,
			wantPatterns:  []string{"[Ee]rror", "[Ii]nvalid"},
			wantSource:    "yaml",
			wantSettingAt: "/etc/evolve.yml",
		},
		{
			name:         "Unparseable ENV number is ignored",
			envVars:      map[string]string{"EVOLVE_HOME": "/home/u/.evolve", "EVOLVE_MAX_ATTEMPTS": "many"},
			wantURL:      "https://aixcel.us/api/v1/evolve",
			wantRetry:    time.Second,
			wantPatterns: []string{"[Ee]rror", "[Ii]nvalid"},
			wantSource:   "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			for path, content := range tt.files {
				require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
			}
			loader := &Loader{Fs: fs, Getenv: envMap(tt.envVars)}

			cfg, err := loader.Load(tt.settingPath, tt.overrides)
			require.NoError(t, err)

			assert.Equal(t, tt.wantURL, cfg.APIURL())
			assert.Equal(t, tt.wantAttempts, cfg.MaxAttempts())
			assert.Equal(t, tt.wantRetry, cfg.RetryDelay())
			assert.Equal(t, tt.wantPatterns, cfg.ErrorPatterns())
			assert.Equal(t, tt.wantSource, cfg.ConfigSource())
			assert.Equal(t, tt.wantSettingAt, cfg.SettingPath())
			assert.Equal(t, "/home/u/.evolve", cfg.Home())
		})
	}
}

func TestLoadSettings_Defaults(t *testing.T) {
	loader := &Loader{Fs: afero.NewMemMapFs(), Getenv: envMap(nil)}

	cfg, err := loader.Load("", nil)
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Home())
	assert.Empty(t, cfg.APIKey())
	assert.Equal(t, time.Duration(0), cfg.RequestTimeout())
	assert.Equal(t, time.Minute, cfg.MaxRetryDelay())
	assert.False(t, cfg.IgnoreCase())
	assert.Equal(t, ".backup", cfg.BackupSuffix())
	assert.True(t, cfg.RequireInterpreter())
	assert.True(t, cfg.EchoOutput())
	assert.Equal(t, "xterm-color", cfg.TermName())
	assert.Equal(t, uint16(80), cfg.TermCols())
	assert.Equal(t, uint16(30), cfg.TermRows())
	assert.Equal(t, 2*time.Second, cfg.DrainTimeout())
	assert.Empty(t, cfg.JournalPath())
	assert.Equal(t, "info", cfg.LogLevel())
}

func TestLoadSettings_BooleanEnv(t *testing.T) {
	loader := &Loader{Fs: afero.NewMemMapFs(), Getenv: envMap(map[string]string{
		"EVOLVE_IGNORE_CASE": "yes",
		"EVOLVE_ECHO_OUTPUT": "off",
		"EVOLVE_LOG_LEVEL":   "DEBUG",
	})}

	cfg, err := loader.Load("", nil)
	require.NoError(t, err)
	assert.True(t, cfg.IgnoreCase())
	assert.False(t, cfg.EchoOutput())
	assert.Equal(t, "debug", cfg.LogLevel())
}

func TestLoadSettings_NoEchoFlag(t *testing.T) {
	loader := &Loader{Fs: afero.NewMemMapFs(), Getenv: envMap(nil)}

	cfg, err := loader.Load("", &RawSettings{EchoOutput: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, cfg.EchoOutput())
	assert.Equal(t, "flag", cfg.ConfigSource())
}

func TestLoadSettings_Errors(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		settingPath string
		overrides   *RawSettings
		wantErr     string
	}{
		{
			name:    "Malformed JSON",
			files:   map[string]string{"/h/setting.json": `{"api_url":`},
			wantErr: "failed to parse",
		},
		{
			name:    "Malformed YAML",
			files:   map[string]string{"/h/setting.yaml": "max_attempts: [1\n"},
			wantErr: "failed to parse",
		},
		{
			name:        "Missing explicit file",
			settingPath: "/nowhere/setting.json",
			wantErr:     "not found",
		},
		{
			name:      "Negative attempts",
			overrides: &RawSettings{MaxAttempts: intPtr(-1)},
			wantErr:   "max_attempts",
		},
		{
			name:      "Unknown log level",
			overrides: &RawSettings{LogLevel: strPtr("loud")},
			wantErr:   "log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			for path, content := range tt.files {
				require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
			}
			loader := &Loader{Fs: fs, Getenv: envMap(map[string]string{"EVOLVE_HOME": "/h"})}

			_, err := loader.Load(tt.settingPath, tt.overrides)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreateDefaultSettings(t *testing.T) {
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(CreateDefaultSettings(), &decoded))

	assert.Equal(t, "https://aixcel.us/api/v1/evolve", decoded["api_url"])
	assert.Equal(t, float64(1000), decoded["retry_delay_ms"])
	assert.NotContains(t, decoded, "home")
}
