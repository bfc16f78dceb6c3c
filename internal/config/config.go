package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingBotToken is returned by ValidateBot when no Telegram token is set.
var ErrMissingBotToken = errors.New("BOT_TOKEN is required")

type Config struct {
	// Telegram
	BotToken string

	// Groq completion endpoint (ai-enhanced backend)
	GroqToken       string
	GroqBaseURL     string
	GroqModel       string
	GroqMaxTokens   int64
	GroqTemperature float64
	RewriteTimeout  time.Duration

	// Speech service (direct backend)
	SpeechBaseURL string
	SpeechLang    string
	SpeechTimeout time.Duration

	// HTTP API
	Port           string
	MaxUploadBytes int64

	// Run workspaces and registry
	WorkDir string
	RunTTL  time.Duration

	// NATS worker; disabled when NATSURL is empty
	NATSURL       string
	NATSSubject   string
	NATSBucket    string
	NATSObjectTTL time.Duration

	LogLevel string
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		GroqBaseURL:     "https://api.groq.com/openai/v1",
		GroqModel:       "llama-3.1-8b-instant",
		GroqMaxTokens:   2000,
		GroqTemperature: 0.7,
		RewriteTimeout:  60 * time.Second,

		SpeechBaseURL: "https://translate.google.com",
		SpeechLang:    "en",
		SpeechTimeout: 30 * time.Second,

		Port:           "8090",
		MaxUploadBytes: 20 << 20, // 20MB, the Telegram bot download limit

		RunTTL: 1 * time.Hour,

		NATSSubject:   "docvoice.convert",
		NATSBucket:    "DOCVOICE_AUDIO",
		NATSObjectTTL: 1 * time.Hour,

		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// DOCVOICE_CONFIG if any, then environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("DOCVOICE_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.BotToken = envOr("BOT_TOKEN", cfg.BotToken)

	cfg.GroqToken = envOr("GROQ_TOKEN", cfg.GroqToken)
	cfg.GroqBaseURL = envOr("GROQ_BASE_URL", cfg.GroqBaseURL)
	cfg.GroqModel = envOr("GROQ_MODEL", cfg.GroqModel)
	cfg.GroqMaxTokens = envInt64("GROQ_MAX_TOKENS", cfg.GroqMaxTokens)
	cfg.GroqTemperature = envFloat("GROQ_TEMPERATURE", cfg.GroqTemperature)
	cfg.RewriteTimeout = envDuration("REWRITE_TIMEOUT", cfg.RewriteTimeout)

	cfg.SpeechBaseURL = envOr("SPEECH_BASE_URL", cfg.SpeechBaseURL)
	cfg.SpeechLang = envOr("SPEECH_LANG", cfg.SpeechLang)
	cfg.SpeechTimeout = envDuration("SPEECH_TIMEOUT", cfg.SpeechTimeout)

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)

	cfg.WorkDir = envOr("WORK_DIR", cfg.WorkDir)
	cfg.RunTTL = envDuration("RUN_TTL", cfg.RunTTL)

	cfg.NATSURL = envOr("NATS_URL", cfg.NATSURL)
	cfg.NATSSubject = envOr("NATS_SUBJECT", cfg.NATSSubject)
	cfg.NATSBucket = envOr("NATS_BUCKET", cfg.NATSBucket)
	cfg.NATSObjectTTL = envDuration("NATS_OBJECT_TTL", cfg.NATSObjectTTL)

	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)

	cfg.applyFloors()
	return cfg, nil
}

func (c *Config) applyFloors() {
	d := Defaults()
	if c.GroqMaxTokens <= 0 {
		c.GroqMaxTokens = d.GroqMaxTokens
	}
	if c.GroqTemperature < 0 {
		c.GroqTemperature = d.GroqTemperature
	}
	if c.RewriteTimeout <= 0 {
		c.RewriteTimeout = d.RewriteTimeout
	}
	if c.SpeechTimeout <= 0 {
		c.SpeechTimeout = d.SpeechTimeout
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.RunTTL <= 0 {
		c.RunTTL = d.RunTTL
	}
	if c.NATSObjectTTL <= 0 {
		c.NATSObjectTTL = d.NATSObjectTTL
	}
}

// Validate checks settings every command needs.
func (c Config) Validate() error {
	if c.GroqTemperature > 2 {
		return fmt.Errorf("GROQ_TEMPERATURE must be in [0,2], got %g", c.GroqTemperature)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.NATSURL != "" && (c.NATSSubject == "" || c.NATSBucket == "") {
		return fmt.Errorf("NATS_SUBJECT and NATS_BUCKET are required when NATS_URL is set")
	}
	return nil
}

// ValidateBot additionally requires the Telegram token.
func (c Config) ValidateBot() error {
	if c.BotToken == "" {
		return ErrMissingBotToken
	}
	return c.Validate()
}

// HasGroq reports whether the ai-enhanced backend can be used.
func (c Config) HasGroq() bool {
	return c.GroqToken != ""
}

// NATSEnabled reports whether the NATS worker should run.
func (c Config) NATSEnabled() bool {
	return c.NATSURL != ""
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
