package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/openvault/openvault/internal/llm"
	"github.com/openvault/openvault/internal/types"
)

// Validator validates configuration values
type Validator interface {
	Validate(cfg *Config) error
}

// validatorImpl implements Validator using go-playground/validator
type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator creates a Validator instance
func NewValidator() Validator {
	return &validatorImpl{validate: validator.New()}
}

// Validate checks the configuration and returns detailed error messages
func (v *validatorImpl) Validate(cfg *Config) error {
	if cfg == nil {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "configuration is nil")
	}

	if err := v.validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return types.WrapError(types.CONFIG_VALIDATION_FAILED, "validation error", err)
		}

		messages := make([]string, 0, len(validationErrs))
		for _, e := range validationErrs {
			messages = append(messages, formatValidationError(e))
		}
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"configuration validation failed:\n  - "+strings.Join(messages, "\n  - "))
	}

	if cfg.Provider.Type == "openai" || cfg.Provider.Type == "anthropic" {
		if cfg.Provider.APIKey == "" && !hasProviderEnvKey(cfg.Provider.Type) {
			return types.NewError(types.CONFIG_VALIDATION_FAILED,
				fmt.Sprintf("provider.api_key is required for provider type %q", cfg.Provider.Type))
		}
	}

	if cfg.Audit.Backend == "sqlite" && cfg.Audit.DatabasePath == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"audit.database_path is required when audit.backend is 'sqlite'")
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"tracing.endpoint is required when tracing is enabled")
	}

	return nil
}

// hasProviderEnvKey reports whether the conventional environment variable
// for the provider's API key is set.
func hasProviderEnvKey(providerType string) bool {
	envVar := llm.ProviderType(providerType).EnvAPIKey()
	return envVar != "" && os.Getenv(envVar) != ""
}

// formatValidationError formats a single field error with its path
func formatValidationError(e validator.FieldError) string {
	fieldPath := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldPath)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", fieldPath, e.Param(), e.Value())
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "url":
		return fmt.Sprintf("%s must be a valid URL (got: %v)", fieldPath, e.Value())
	default:
		return fmt.Sprintf("%s failed validation '%s'", fieldPath, e.Tag())
	}
}

// formatFieldPath lowers a validator namespace like "Config.Provider.APIKey"
// to the config-file style "provider.api_key".
func formatFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		parts[i] = toSnakeCase(part)
	}
	return strings.Join(parts, ".")
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && s[i-1] >= 'a' && s[i-1] <= 'z' {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
