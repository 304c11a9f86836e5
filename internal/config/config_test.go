package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ugc-studio/internal/config"
)

func TestLoadClient_Defaults(t *testing.T) {
	cfg, err := config.LoadClient()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, []time.Duration{2 * time.Second, 5 * time.Second, 8 * time.Second}, cfg.Poll.InitialChecks)
	assert.Equal(t, 5*time.Second, cfg.Poll.Interval)
	assert.Equal(t, time.Second, cfg.Poll.RetryDelay)
	assert.Equal(t, 3, cfg.Poll.MaxRetries)
	assert.Equal(t, 10*time.Minute, cfg.Poll.MaxDuration)
}

func TestLoadClient_EnvOverrides(t *testing.T) {
	t.Setenv("STUDIO_API_BASEURL", "https://studio.example.com")
	t.Setenv("STUDIO_API_TOKEN", "tok")
	t.Setenv("STUDIO_POLL_INTERVAL", "7s")
	t.Setenv("STUDIO_POLL_INITIALCHECKS", "1s,3s")

	cfg, err := config.LoadClient()
	require.NoError(t, err)

	assert.Equal(t, "https://studio.example.com", cfg.API.BaseURL)
	assert.Equal(t, "tok", cfg.API.Token)
	assert.Equal(t, 7*time.Second, cfg.Poll.Interval)
	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second}, cfg.Poll.InitialChecks)
}

func TestLoad_MissingSecrets(t *testing.T) {
	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url is required")
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STUDIO_DATABASE_URL", "postgres://localhost/studio")
	t.Setenv("STUDIO_SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("STUDIO_SUPABASE_KEY", "service-key")
	t.Setenv("STUDIO_AUTH_JWTSECRET", "secret")
	t.Setenv("STUDIO_GENAI_APIKEY", "genai-key")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, "generations", cfg.Supabase.Bucket)
	assert.Equal(t, 15*time.Minute, cfg.Jobs.StaleGeneration)
	assert.Equal(t, 5*time.Minute, cfg.GenAI.VideoTimeout)
	assert.Equal(t, "projects:generate", cfg.Queue.Stream)
}

func TestClientConfig_Validate(t *testing.T) {
	cfg := &config.ClientConfig{API: config.APIConfig{BaseURL: "http://x"}}
	assert.EqualError(t, cfg.Validate(), "poll.interval must be positive")

	cfg.Poll.Interval = time.Second
	assert.NoError(t, cfg.Validate())
}
