package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-attempt/internal/config"
	"github.com/stemsi/exstem-attempt/internal/handler"
	"github.com/stemsi/exstem-attempt/internal/logger"
	"github.com/stemsi/exstem-attempt/internal/router"
	"github.com/stemsi/exstem-attempt/internal/service"
	"github.com/stemsi/exstem-attempt/internal/validator"
	ws "github.com/stemsi/exstem-attempt/internal/websocket"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.AgentPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting ExStem attempt agent")

	if cfg.AgentKey == "" {
		log.Warn().Msg("AGENT_KEY is empty, the local API accepts any caller")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Wire Session Dependencies ─────────────────────────────────────
	bridge := ws.NewBridge(log)
	opts, closeStorage, err := service.BuildSessionOptions(ctx, cfg, bridge, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare session")
	}
	defer closeStorage()

	attemptService := service.NewAttemptService(opts, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Session:  handler.NewSessionHandler(attemptService, log),
		Platform: handler.NewPlatformWSHandler(bridge, log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	srv := &http.Server{
		Addr:              "127.0.0.1:" + cfg.AgentPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Agent listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	// 1. Final autosave of the open attempt. The attempt is not submitted.
	attemptService.Shutdown(shutdownCtx)

	// 2. Stop accepting requests. Event streams never finish on their own.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown timed out, closing connections")
		_ = srv.Close()
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
