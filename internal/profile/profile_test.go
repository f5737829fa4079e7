package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Defaults(t *testing.T) {
	p := &Profile{Mode: "invalid", Driver: "postgres", DSN: "postgres://localhost/switchboard"}
	require.NoError(t, p.Validate())

	assert.Equal(t, "dev", p.Mode)
	assert.Equal(t, 10, p.HistoryLimit)
	assert.Equal(t, 5, p.EntityLimit)
	assert.Equal(t, 24*time.Hour, p.ContextTTL)
	assert.Equal(t, time.Hour, p.CleanupInterval)
}

func TestValidate_SQLiteDSN(t *testing.T) {
	p := &Profile{Mode: "prod", Driver: "sqlite", Data: t.TempDir()}
	require.NoError(t, p.Validate())

	assert.Contains(t, p.DSN, "switchboard_prod.db")
}

func TestValidate_MissingDataDir(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "sqlite", Data: "/nonexistent/switchboard-data"}
	assert.Error(t, p.Validate())
}

func TestFromEnv(t *testing.T) {
	t.Setenv("SWITCHBOARD_LLM_API_KEY", "sk-test")
	t.Setenv("SWITCHBOARD_LLM_MODEL", "gpt-4o")
	t.Setenv("SWITCHBOARD_CONTEXT_TTL", "48h")
	t.Setenv("SWITCHBOARD_CLEANUP_INTERVAL", "30m")

	p := &Profile{}
	p.FromEnv()

	assert.True(t, p.IsLLMEnabled())
	assert.Equal(t, "gpt-4o", p.LLMModel)
	assert.Equal(t, "https://api.openai.com/v1", p.LLMBaseURL)
	assert.Equal(t, 48*time.Hour, p.ContextTTL)
	assert.Equal(t, 30*time.Minute, p.CleanupInterval)
}

func TestFromEnv_BadDurationIgnored(t *testing.T) {
	t.Setenv("SWITCHBOARD_CONTEXT_TTL", "soon")

	p := &Profile{}
	p.FromEnv()
	assert.Zero(t, p.ContextTTL)
}

func TestIsDev(t *testing.T) {
	assert.True(t, (&Profile{Mode: "dev"}).IsDev())
	assert.False(t, (&Profile{Mode: "prod"}).IsDev())
}
