package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors the TOML layout. Durations are Go duration strings.
type fileConfig struct {
	Bot struct {
		Token string `toml:"token"`
	} `toml:"bot"`
	Speech struct {
		BaseURL string `toml:"base_url"`
		Lang    string `toml:"lang"`
		Timeout string `toml:"timeout"`
	} `toml:"speech"`
	Rewrite struct {
		Token       string   `toml:"token"`
		BaseURL     string   `toml:"base_url"`
		Model       string   `toml:"model"`
		MaxTokens   int64    `toml:"max_tokens"`
		Temperature *float64 `toml:"temperature"`
		Timeout     string   `toml:"timeout"`
	} `toml:"rewrite"`
	HTTP struct {
		Port           string `toml:"port"`
		MaxUploadBytes int64  `toml:"max_upload_bytes"`
	} `toml:"http"`
	NATS struct {
		URL       string `toml:"url"`
		Subject   string `toml:"subject"`
		Bucket    string `toml:"bucket"`
		ObjectTTL string `toml:"object_ttl"`
	} `toml:"nats"`
	Pipeline struct {
		WorkDir  string `toml:"work_dir"`
		RunTTL   string `toml:"run_ttl"`
		LogLevel string `toml:"log_level"`
	} `toml:"pipeline"`
}

// mergeFile overlays every non-empty value from the TOML file at path.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.BotToken, fc.Bot.Token)

	setString(&c.SpeechBaseURL, fc.Speech.BaseURL)
	setString(&c.SpeechLang, fc.Speech.Lang)

	setString(&c.GroqToken, fc.Rewrite.Token)
	setString(&c.GroqBaseURL, fc.Rewrite.BaseURL)
	setString(&c.GroqModel, fc.Rewrite.Model)
	if fc.Rewrite.MaxTokens > 0 {
		c.GroqMaxTokens = fc.Rewrite.MaxTokens
	}
	if fc.Rewrite.Temperature != nil {
		c.GroqTemperature = *fc.Rewrite.Temperature
	}

	setString(&c.Port, fc.HTTP.Port)
	if fc.HTTP.MaxUploadBytes > 0 {
		c.MaxUploadBytes = fc.HTTP.MaxUploadBytes
	}

	setString(&c.NATSURL, fc.NATS.URL)
	setString(&c.NATSSubject, fc.NATS.Subject)
	setString(&c.NATSBucket, fc.NATS.Bucket)

	setString(&c.WorkDir, fc.Pipeline.WorkDir)
	setString(&c.LogLevel, fc.Pipeline.LogLevel)

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"speech.timeout", fc.Speech.Timeout, &c.SpeechTimeout},
		{"rewrite.timeout", fc.Rewrite.Timeout, &c.RewriteTimeout},
		{"nats.object_ttl", fc.NATS.ObjectTTL, &c.NATSObjectTTL},
		{"pipeline.run_ttl", fc.Pipeline.RunTTL, &c.RunTTL},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config file %s: %s: %w", path, d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
