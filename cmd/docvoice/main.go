package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docvoice/internal/config"
	"github.com/dgallion1/docvoice/internal/rewrite"
	"github.com/dgallion1/docvoice/internal/speech"
	"github.com/dgallion1/docvoice/internal/synth"
)

var rootCmd = &cobra.Command{
	Use:           "docvoice",
	Short:         "Turn documents into spoken MP3 audio",
	SilenceUsage:  true,
	SilenceErrors: false,
	Long: `docvoice extracts the text of a document (PDF, DOCX, Markdown, HTML,
CSV or plain text), cuts it into chunks and converts each chunk to MP3 with
Google Text-to-Speech, optionally rewriting it with a Groq-hosted model first.

It runs as a Telegram bot with an HTTP API and an optional NATS worker, or
converts single files from the command line.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// loadConfig loads and validates the shared configuration.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// backends wires the speech and completion clients into a registry. Without
// a Groq token the ai-enhanced ID stays selectable but fails every chunk.
type backends struct {
	registry *synth.Registry
	speech   *speech.Client
}

func newBackends(cfg config.Config, log *slog.Logger) backends {
	speaker := speech.NewClient(cfg.SpeechBaseURL, cfg.SpeechTimeout)

	var enhanced synth.Backend
	if cfg.HasGroq() {
		rw := rewrite.NewClient(rewrite.Config{
			APIKey:      cfg.GroqToken,
			BaseURL:     cfg.GroqBaseURL,
			Model:       cfg.GroqModel,
			MaxTokens:   cfg.GroqMaxTokens,
			Temperature: cfg.GroqTemperature,
			Timeout:     cfg.RewriteTimeout,
		})
		log.Info("ai-enhanced backend enabled", "model", rw.Model())
		enhanced = synth.NewEnhanced(rw, speaker, cfg.SpeechLang)
	} else {
		log.Warn("GROQ_TOKEN not set, ai-enhanced backend unavailable")
		enhanced = synth.NewUnavailable(synth.IDEnhanced, synth.EnhancedMaxChunk)
	}

	return backends{
		registry: synth.NewRegistry(synth.NewDirect(speaker, cfg.SpeechLang), enhanced),
		speech:   speaker,
	}
}

func (b backends) Close() {
	b.speech.Close()
}
