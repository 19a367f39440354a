package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"USE_MOCK_GEMINI", "LLM_API_KEY", "GEMINI_API_KEY", "LLM_MODEL", "LLM_PROVIDER"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.LLM.UseMock)
	assert.Equal(t, DefaultModel, cfg.LLM.Model)
	assert.Equal(t, DefaultRegistryBaseURL, cfg.Registry.BaseURL)
	assert.Equal(t, 5, cfg.Server.AnalyzeLimit)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  provider: anthropic
  model: claude-sonnet-4-20250514
  use_mock: true
registry:
  max_results: 10
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("USE_MOCK_GEMINI", "false")
	t.Setenv("GEMINI_API_KEY", "k-123")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.LLM.UseMock)
	assert.Equal(t, "k-123", cfg.LLM.APIKey)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 10, cfg.Registry.MaxResults)
	assert.Equal(t, "debug", cfg.Log.Level)
	// 未在文件中出现的字段保留默认值
	assert.Equal(t, "data/processed", cfg.Output.Dir)
}

func TestLoadConfig_RealModeRequiresKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("USE_MOCK_GEMINI", "false")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Registry.MaxResults = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LLM.Model = " "
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Concurrency.RPM = -1
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}
