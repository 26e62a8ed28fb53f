package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SAGE_WAKE_WORD", "")
	t.Setenv("SAGE_HUB_ADDRESS", "")
	t.Setenv("WHISPER_MODEL", "")

	cfg := Load("does-not-exist.env")

	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, "assistant", cfg.WakeWord)
	assert.Equal(t, "127.0.0.1:8092", cfg.HubAddress)
	assert.Contains(t, cfg.WhisperModel, "ggml-base.en.bin")
	assert.False(t, cfg.RequireWake)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SAGE_WAKE_WORD", "sage")
	t.Setenv("SAGE_REQUIRE_WAKE", "1")
	t.Setenv("SAGE_HUB_ADDRESS", "127.0.0.1:9000")

	cfg := Load("does-not-exist.env")

	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "sage", cfg.WakeWord)
	assert.True(t, cfg.RequireWake)
	assert.Equal(t, "127.0.0.1:9000", cfg.HubAddress)
}
