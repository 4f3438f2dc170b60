package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "5000", cfg.HTTPPort)
	assert.Equal(t, 10*time.Second, cfg.FrameTimeout)
	assert.Equal(t, 60, cfg.LookaheadMinutes)
	assert.Contains(t, cfg.DatabaseURL, "postgres://")
	assert.False(t, cfg.EmailConfigured())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "8088")
	t.Setenv("FRAME_TIMEOUT", "3s")
	t.Setenv("LOOKAHEAD_MINUTES", "30")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()
	assert.Equal(t, "8088", cfg.HTTPPort)
	assert.Equal(t, 3*time.Second, cfg.FrameTimeout)
	assert.Equal(t, 30, cfg.LookaheadMinutes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("FRAME_TIMEOUT", "soon")
	t.Setenv("LOOKAHEAD_MINUTES", "plenty")

	cfg := Load()
	assert.Equal(t, 10*time.Second, cfg.FrameTimeout)
	assert.Equal(t, 60, cfg.LookaheadMinutes)
}

func TestIntEnvRejectsTrailingGarbage(t *testing.T) {
	t.Setenv("LOOKAHEAD_MINUTES", "30abc")

	cfg := Load()
	assert.Equal(t, 60, cfg.LookaheadMinutes)
}

func TestEmailConfigured(t *testing.T) {
	t.Setenv("SENDGRID_API_KEY", "SG.test")
	t.Setenv("EMAIL_FROM", "attendance@example.edu")

	cfg := Load()
	assert.True(t, cfg.EmailConfigured())
}
