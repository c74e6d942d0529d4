package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvault/openvault/internal/orchestrator"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
logging:
  level: debug
  format: text
provider:
  name: main
  type: mock
  default_model: mock-model
safety:
  mode: strict
  max_revisions: 5
policy:
  default_policy_id: content-policy
audit:
  backend: log
`

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "mock", cfg.Provider.Type)
	assert.Equal(t, orchestrator.ModeStrict, cfg.Safety.SafetyMode())
	assert.Equal(t, 5, cfg.Safety.MaxRevisions)
	assert.Equal(t, "content-policy", cfg.Policy.DefaultPolicyID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(NewValidator()).Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := NewLoader(NewValidator()).LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "balanced", cfg.Safety.Mode)
	assert.Equal(t, 3, cfg.Safety.MaxRevisions)
}

func TestLoadEnvInterpolation(t *testing.T) {
	t.Setenv("TEST_VAULT_MODEL", "interpolated-model")

	path := writeConfig(t, `
logging:
  level: info
  format: json
provider:
  name: main
  type: mock
  default_model: ${TEST_VAULT_MODEL}
safety:
  mode: balanced
  max_revisions: 3
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "interpolated-model", cfg.Provider.DefaultModel)
}

func TestLoadUnsetEnvVarLeftVerbatim(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: info
  format: json
provider:
  name: main
  type: mock
  default_model: ${DEFINITELY_NOT_SET_ANYWHERE}
safety:
  mode: balanced
  max_revisions: 3
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "${DEFINITELY_NOT_SET_ANYWHERE}", cfg.Provider.DefaultModel)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantMsg string
	}{
		{
			name:    "bad log level",
			mutate:  func(cfg *Config) { cfg.Logging.Level = "verbose" },
			wantMsg: "logging.level",
		},
		{
			name:    "bad safety mode",
			mutate:  func(cfg *Config) { cfg.Safety.Mode = "reckless" },
			wantMsg: "safety.mode",
		},
		{
			name:    "bad provider type",
			mutate:  func(cfg *Config) { cfg.Provider.Type = "watson" },
			wantMsg: "provider.type",
		},
		{
			name:    "revisions out of range",
			mutate:  func(cfg *Config) { cfg.Safety.MaxRevisions = 0 },
			wantMsg: "safety.max_revisions",
		},
		{
			name:    "sqlite audit without path",
			mutate:  func(cfg *Config) { cfg.Audit.Backend = "sqlite"; cfg.Audit.DatabasePath = "" },
			wantMsg: "audit.database_path",
		},
		{
			name:    "tracing enabled without endpoint",
			mutate:  func(cfg *Config) { cfg.Tracing.Enabled = true; cfg.Tracing.Endpoint = "" },
			wantMsg: "tracing.endpoint",
		},
		{
			name:    "sample rate out of range",
			mutate:  func(cfg *Config) { cfg.Tracing.SampleRate = 1.5 },
			wantMsg: "tracing.sample_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := NewValidator().Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateRequiresAPIKeyForHostedProviders(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider.Type = "anthropic"
	cfg.Provider.APIKey = ""
	t.Setenv("ANTHROPIC_API_KEY", "")

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider.api_key")
}
