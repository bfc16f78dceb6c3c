package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docvoice/internal/api"
	"github.com/dgallion1/docvoice/internal/bot"
	"github.com/dgallion1/docvoice/internal/config"
	"github.com/dgallion1/docvoice/internal/objectstore"
	"github.com/dgallion1/docvoice/internal/pipeline"
	"github.com/dgallion1/docvoice/internal/preference"
	"github.com/dgallion1/docvoice/internal/synth"
	"github.com/dgallion1/docvoice/internal/worker"
)

const workerQueue = "docvoice-workers"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot, HTTP API and optional NATS worker",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateBot(); err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := pipeline.RegisterMetrics(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	b := newBackends(cfg, log)
	defer b.Close()

	prefs := preference.NewStore()
	orch := pipeline.NewOrchestrator(cfg, b.registry, prefs, synth.NewLatencyStats(time.Hour), log)
	orch.Start(ctx)
	defer orch.Stop()

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("connect telegram: %w", err)
	}
	log.Info("telegram bot authorized", "username", botAPI.Self.UserName)
	tg := bot.New(botAPI, orch, prefs, cfg, log)
	if err := tg.RegisterCommands(); err != nil {
		log.Warn("register bot commands", "error", err)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewServer(orch, prefs, reg, log, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	var w *worker.NatsWorker
	if cfg.NATSEnabled() {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("docvoice"))
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Close()

		w, err = newWorker(nc, cfg, orch, log)
		if err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting docvoice", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updates := botAPI.GetUpdatesChan(u)
		go func() {
			<-ctx.Done()
			botAPI.StopReceivingUpdates()
		}()
		return tg.Run(ctx, updates)
	})

	if w != nil {
		g.Go(func() error { return w.Run(ctx) })
	}

	return g.Wait()
}

func newWorker(nc *nats.Conn, cfg config.Config, orch *pipeline.Orchestrator, log *slog.Logger) (*worker.NatsWorker, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	store, err := objectstore.New(js, cfg.NATSBucket, objectstore.Options{TTL: cfg.NATSObjectTTL})
	if err != nil {
		return nil, err
	}
	return worker.NewNatsWorker(nc, cfg.NATSSubject, workerQueue, store, orch, log), nil
}
