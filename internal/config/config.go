package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Config is the daemon's environment-derived configuration, passed down
// explicitly at construction. A missing API key is a supported mode: the
// assistant answers with deterministic fallback replies only.
type Config struct {
	APIKey       string
	Model        string
	WakeWord     string
	RequireWake  bool
	WhisperModel string
	ProxyAddr    string // optional SOCKS5 proxy for the model API
	HubAddress   string // websocket hub listen address
	EarconPath   string // mp3 played when listening starts, optional
}

// Load reads the env file (when present) and environment variables, filling
// in defaults.
func Load(envFile string) Config {
	if err := godotenv.Load(envFile); err != nil {
		slog.Debug("no env file loaded", "path", envFile)
	}

	cfg := Config{
		APIKey:       os.Getenv("OPENAI_API_KEY"),
		Model:        os.Getenv("SAGE_MODEL"),
		WakeWord:     os.Getenv("SAGE_WAKE_WORD"),
		RequireWake:  os.Getenv("SAGE_REQUIRE_WAKE") == "1",
		WhisperModel: os.Getenv("WHISPER_MODEL"),
		ProxyAddr:    os.Getenv("SAGE_SOCKS_PROXY"),
		HubAddress:   os.Getenv("SAGE_HUB_ADDRESS"),
		EarconPath:   os.Getenv("SAGE_EARCON"),
	}

	if cfg.WakeWord == "" {
		cfg.WakeWord = "assistant"
	}
	if cfg.WhisperModel == "" {
		cfg.WhisperModel = "third_party/whisper.cpp/models/ggml-base.en.bin"
	}
	if cfg.HubAddress == "" {
		cfg.HubAddress = "127.0.0.1:8092"
	}
	if cfg.APIKey == "" {
		slog.Warn("OPENAI_API_KEY not set - assistant will use fallback responses only")
	}

	return cfg
}
