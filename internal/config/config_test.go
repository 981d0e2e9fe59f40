package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(25<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 1.0, cfg.Fluency.PauseThreshold)
	assert.Equal(t, "en", cfg.STT.Language)
	assert.Equal(t, 24*time.Hour, cfg.Feedback.CacheTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("FLUENCY_PAUSE_THRESHOLD", "0.75")
	t.Setenv("STT_BACKEND", "groq")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("FEEDBACK_CACHE_TTL", "90m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 0.75, cfg.Fluency.PauseThreshold)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.STT.BaseURL)
	assert.Equal(t, "whisper-large-v3", cfg.STT.Model)
	assert.Equal(t, "gsk-test", cfg.STT.APIKey)
	assert.Equal(t, "gsk-test", cfg.LLM.OpenAIKey)
	assert.Equal(t, 90*time.Minute, cfg.Feedback.CacheTTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadInvalidValues(t *testing.T) {
	tests := map[string]string{
		"SERVER_PORT":             "http",
		"FLUENCY_PAUSE_THRESHOLD": "long",
		"STT_TIMEOUT":             "5 minutes",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(key, val)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STT_LANGUAGE=de\n"), 0o600))
	t.Chdir(dir)

	require.NoError(t, os.Unsetenv("STT_LANGUAGE"))
	t.Cleanup(func() { os.Unsetenv("STT_LANGUAGE") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "de", cfg.STT.Language)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8000, MaxUploadBytes: 1},
		STT:     STTConfig{Backend: "openai"},
		LLM:     LLMConfig{DefaultProvider: "openai"},
		Fluency: FluencyConfig{PauseThreshold: 1.0},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STT_API_KEY")
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	cfg.STT.Backend = "local"
	cfg.LLM.DefaultProvider = "ollama"
	assert.NoError(t, cfg.Validate())
}

func TestValidatePauseThreshold(t *testing.T) {
	for _, v := range []float64{0, -0.5, math.NaN()} {
		cfg := &Config{
			Server:  ServerConfig{Port: 8000, MaxUploadBytes: 1},
			STT:     STTConfig{Backend: "local"},
			LLM:     LLMConfig{DefaultProvider: "ollama"},
			Fluency: FluencyConfig{PauseThreshold: v},
		}
		err := cfg.Validate()
		require.Error(t, err, "threshold %v", v)
		assert.Contains(t, err.Error(), "FLUENCY_PAUSE_THRESHOLD must be positive")
	}
}
