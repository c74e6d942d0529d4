package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/openvault/openvault/internal/types"
)

// Loader loads configuration from YAML files
type Loader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

// viperLoader implements Loader using Viper
type viperLoader struct {
	validator Validator
}

// NewLoader creates a Loader backed by the given validator
func NewLoader(validator Validator) Loader {
	return &viperLoader{validator: validator}
}

// Load reads and validates configuration from path. String values support
// ${VAR_NAME} environment interpolation.
func (l *viperLoader) Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file", err)
	}

	// Interpolate environment variables in the raw settings, then decode
	// the result so every string field gets the same treatment.
	interpolated := interpolateEnvVars(v.AllSettings())
	resolved := viper.New()
	if settings, ok := interpolated.(map[string]any); ok {
		if err := resolved.MergeConfigMap(settings); err != nil {
			return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to merge config settings", err)
		}
	}

	var cfg Config
	if err := resolved.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to unmarshal config", err)
	}

	if err := l.validator.Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadWithDefaults loads configuration from path, falling back to
// DefaultConfig when the file does not exist.
func (l *viperLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := l.validator.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return l.Load(path)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateEnvVars recursively replaces ${VAR_NAME} in string values
func interpolateEnvVars(data any) any {
	switch v := data.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, value := range v {
			result[key] = interpolateEnvVars(value)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, value := range v {
			result[i] = interpolateEnvVars(value)
		}
		return result
	case string:
		return interpolateString(v)
	default:
		return v
	}
}

// interpolateString replaces ${VAR_NAME} with the environment value, leaving
// unset variables untouched.
func interpolateString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if value := os.Getenv(name); value != "" {
			return value
		}
		return match
	})
}
