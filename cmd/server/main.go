// Command server runs the Solana Actions backend: the Blink action endpoints,
// the coupon issuance and redemption core, and the Telegram redemption
// webhook, behind one HTTP server.
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
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dappshunt/actions-backend/internal/config"
	httpapi "github.com/dappshunt/actions-backend/internal/http"
	"github.com/dappshunt/actions-backend/internal/http/handlers"
	"github.com/dappshunt/actions-backend/internal/observability"
	"github.com/dappshunt/actions-backend/internal/repo"
	solanaledger "github.com/dappshunt/actions-backend/internal/solana"
	"github.com/dappshunt/actions-backend/internal/sysutil"
	"github.com/dappshunt/actions-backend/internal/telegram"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// nopSender drops replies when no bot token is configured. The webhook still
// advances sessions, which keeps local development usable without a bot.
type nopSender struct{}

func (nopSender) Send(int64, string) error { return nil }

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging
	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	// Tracing
	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	// Storage
	db, err := repo.OpenSQLite(cfg.DBPath, cfg.OTEL.Enabled)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database failed")
	}

	// Ledger
	ledger := solanaledger.NewClient(cfg.Solana.RPCEndpoint)

	// Telegram
	var sender handlers.Sender = nopSender{}
	if cfg.Telegram.BotToken != "" {
		bot, err := telegram.NewBotSender(cfg.Telegram.BotToken)
		if err != nil {
			log.Fatal().Err(err).Msg("telegram setup failed")
		}
		sender = bot
	} else {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set; webhook replies disabled")
	}

	// HTTP
	r := gin.New()
	httpapi.RegisterRoutes(r, db, ledger, sender, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("stopped")
}
