package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/autovoice/calllog/internal/campaign"
	"github.com/autovoice/calllog/internal/config"
	"github.com/autovoice/calllog/internal/db"
	httpapi "github.com/autovoice/calllog/internal/http"
	"github.com/autovoice/calllog/internal/routing"
	"github.com/autovoice/calllog/internal/vapi"
	"github.com/autovoice/calllog/internal/writer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "calllog-backend").Logger()

	routes, err := routing.Parse(cfg.AgentRoutes, cfg.DefaultDestination)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid agent routes")
	}

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	if err := store.EnsureDestinations(ctx, routes.Destinations()); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure destination tables")
	}
	if err := store.EnsureCampaignLedger(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure campaign ledger")
	}

	var dialer vapi.Dialer
	if cfg.VapiToken == "" {
		dialer = vapi.MockDialer{}
		logger.Info().Msg("using mock dialer")
	} else {
		dialer = vapi.HTTPDialer{
			BaseURL:     cfg.VapiURL,
			Token:       cfg.VapiToken,
			PhoneID:     cfg.VapiPhoneID,
			AssistantID: cfg.VapiAssistantID,
		}
	}

	camp := &campaign.Service{
		Ledger:    store,
		Dialer:    dialer,
		Logger:    logger,
		BatchSize: cfg.CallsPerBatch,
		Interval:  cfg.BatchInterval,
	}

	w := &writer.Writer{
		Store:       store,
		Routes:      routes,
		Policy:      writer.DefaultPolicy(cfg.WriteMaxAttempts, cfg.WriteBaseDelay, cfg.WriteMaxDelay),
		DedupWindow: cfg.DedupWindowRows,
		Logger:      logger,
	}

	router := httpapi.Router(cfg, store, w, camp, routes, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if camp.Running() {
		_ = camp.Stop()
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
