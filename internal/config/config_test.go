package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniketthapawork/ai-tutor/internal/llm"
)

func clearProviderKeys(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearProviderKeys(t)
	t.Setenv("TUTOR_AUTH_DEV_HEADER", "true")

	cfg, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.Learning.FeedbackTimeout)
	assert.True(t, cfg.Auth.DevHeader)
	assert.Equal(t, llm.ProviderMock, cfg.LLM.Resolved().Provider)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearProviderKeys(t)
	t.Setenv("TUTOR_SERVER_PORT", "9090")
	t.Setenv("TUTOR_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("TUTOR_LLM_TIMEOUT", "5s")
	t.Setenv("TUTOR_LEARNING_TIMEZONE", "Asia/Kolkata")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)

	lc := cfg.LLM.Resolved()
	assert.Equal(t, llm.ProviderOpenAI, lc.Provider)
	assert.Equal(t, "sk-test", lc.OpenAI.APIKey)
	assert.Equal(t, 5*time.Second, lc.Timeout)

	loc, err := cfg.Learning.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestLoad_EnvFile(t *testing.T) {
	clearProviderKeys(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TUTOR_AUTH_JWT_SECRET=fromfile\nTUTOR_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("TUTOR_AUTH_JWT_SECRET")
		os.Unsetenv("TUTOR_LOG_LEVEL")
	})

	cfg, err := Load(Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "fromfile", cfg.Auth.JWTSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearProviderKeys(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "tutor.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  port: 7000\nauth:\n  dev_header: true\n"), 0o600))

	cfg, err := Load(Options{EnvFile: filepath.Join(dir, "none.env"), ConfigFile: file})
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	clearProviderKeys(t)
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"no auth", map[string]string{}},
		{"postgres without dsn", map[string]string{"TUTOR_AUTH_DEV_HEADER": "true", "TUTOR_DATABASE_DRIVER": "postgres"}},
		{"unknown driver", map[string]string{"TUTOR_AUTH_DEV_HEADER": "true", "TUTOR_DATABASE_DRIVER": "mysql"}},
		{"bad timezone", map[string]string{"TUTOR_AUTH_DEV_HEADER": "true", "TUTOR_LEARNING_TIMEZONE": "Mars/Base"}},
		{"provider without key", map[string]string{"TUTOR_AUTH_DEV_HEADER": "true", "TUTOR_LLM_PROVIDER": "anthropic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
			require.NoError(t, err)
			assert.Error(t, cfg.Validate())
		})
	}
}
