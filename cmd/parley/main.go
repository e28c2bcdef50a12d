package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/parley/internal/api"
	"github.com/MikeSquared-Agency/parley/internal/backend"
	"github.com/MikeSquared-Agency/parley/internal/chat"
	"github.com/MikeSquared-Agency/parley/internal/config"
	"github.com/MikeSquared-Agency/parley/internal/csrf"
	"github.com/MikeSquared-Agency/parley/internal/hermes"
	"github.com/MikeSquared-Agency/parley/internal/terminal"
	"github.com/MikeSquared-Agency/parley/internal/transcript"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("parley starting", "backend", cfg.BackendURL, "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One jar shared by the CSRF resolver and the backend client, so the
	// csrftoken cookie set on the home page rides along on uploads.
	jar, err := cookiejar.New(nil)
	if err != nil {
		slog.Error("failed to create cookie jar", "error", err)
		os.Exit(1)
	}
	httpClient := &http.Client{Jar: jar}

	resolver, err := csrf.NewResolver(cfg.BackendURL, httpClient, slog.Default())
	if err != nil {
		slog.Error("invalid backend url", "error", err)
		os.Exit(1)
	}
	if cfg.CSRFToken != "" {
		resolver.SetFieldToken(cfg.CSRFToken)
	}
	if err := resolver.Prime(ctx); err != nil {
		slog.Warn("could not prime csrf token, uploads may be rejected", "error", err)
	}

	client := backend.NewClient(cfg.BackendURL, httpClient, resolver, slog.Default())

	tr := transcript.New()
	session := terminal.NewSession(os.Stdin, os.Stdout, slog.Default())
	tr.Observe(session.Print)

	ctrl := chat.NewController(tr, session, session, client, slog.Default())

	// NATS/Hermes (optional)
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		tr.Observe(hermesClient.TranscriptObserver())
		slog.Info("NATS connected", "url", cfg.NatsURL, "subject", hermes.SubjectTranscriptAppended)
	}

	// Browser API (optional)
	var srv *api.Server
	if cfg.Port > 0 {
		srv = api.NewServer(cfg.Port, ctrl, tr, slog.Default())
		go func() {
			if err := srv.Start(); err != nil {
				slog.Error("HTTP server error", "error", err)
			}
		}()
	}

	if err := session.Run(ctx, ctrl); err != nil {
		slog.Error("terminal session failed", "error", err)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP server shutdown", "error", err)
		}
	}
	slog.Info("parley stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	// stdout carries the transcript.
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
