package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvault/openvault/internal/config"
	"github.com/openvault/openvault/internal/types"
)

func TestBuildRegistryRegistersConfiguredProvider(t *testing.T) {
	cfg = config.DefaultConfig()

	registry, provider, err := buildRegistry()
	require.NoError(t, err)

	assert.Equal(t, 1, registry.Len())

	got, err := registry.Get(provider.Name())
	require.NoError(t, err)
	assert.Equal(t, provider.Name(), got.Name())

	statuses := registry.HealthCheck(context.Background())
	require.Contains(t, statuses, provider.Name())
	assert.Equal(t, types.HealthStateHealthy, statuses[provider.Name()].State)
}

func TestHealthCommandReportsStatus(t *testing.T) {
	cfg = config.DefaultConfig()

	var out bytes.Buffer
	healthCmd.SetOut(&out)
	healthCmd.SetErr(&out)
	healthCmd.SetContext(context.Background())

	require.NoError(t, healthCmd.RunE(healthCmd, nil))

	var statuses map[string]types.HealthStatus
	require.NoError(t, json.Unmarshal(out.Bytes(), &statuses))
	require.Contains(t, statuses, "mock")
	assert.Equal(t, types.HealthStateHealthy, statuses["mock"].State)
}

func TestModelsCommandListsProviderModels(t *testing.T) {
	cfg = config.DefaultConfig()

	var out bytes.Buffer
	modelsCmd.SetOut(&out)
	modelsCmd.SetErr(&out)
	modelsCmd.SetContext(context.Background())

	require.NoError(t, modelsCmd.RunE(modelsCmd, nil))

	assert.Contains(t, out.String(), "context_window")
}
