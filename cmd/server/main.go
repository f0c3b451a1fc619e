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
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/iqamah/internal/app"
	"github.com/Nixie-Tech-LLC/iqamah/internal/broadcast"
	"github.com/Nixie-Tech-LLC/iqamah/internal/config"
	"github.com/Nixie-Tech-LLC/iqamah/internal/countdown"
	"github.com/Nixie-Tech-LLC/iqamah/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/iqamah/internal/logger"
	"github.com/Nixie-Tech-LLC/iqamah/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, app.Options{Migrate: true})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	sched := scheduler.New()
	if err := sched.AddSweep(cfg.SweepSchedule, a.Caches()); err != nil {
		log.Fatal().Err(err).Msg("scheduler")
	}
	if cfg.DSTTablePath != "" {
		if err := sched.AddDSTReload(cfg.DSTReloadSchedule, cfg.DSTTablePath, a.DST); err != nil {
			log.Fatal().Err(err).Msg("scheduler")
		}
	}
	sched.Start()

	ticker, publisher := startBroadcast(ctx, cfg, a)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	RegisterRoutes(r, a)

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r}
	go func() {
		log.Info().Str("address", cfg.ServerAddress).Str("env", cfg.Env).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if ticker != nil {
		ticker.Stop()
		publisher.Close()
	}
	sched.Stop(shutdownCtx)
}

// startBroadcast publishes countdowns over MQTT when a broker and mosques are configured.
func startBroadcast(ctx context.Context, cfg *config.Config, a *app.App) (*countdown.Ticker, *broadcast.Publisher) {
	if cfg.MQTTBrokerURL == "" || len(cfg.BroadcastSlugs) == 0 {
		return nil, nil
	}
	client, err := broadcast.Connect(cfg.MQTTBrokerURL, cfg.MQTTClientID)
	if err != nil {
		log.Error().Err(err).Msg("countdown broadcast disabled")
		return nil, nil
	}
	publisher := broadcast.NewPublisher(client, cfg.MQTTPrefix)
	ticker := countdown.NewTicker(a.Service, publisher, cfg.BroadcastSlugs, countdown.DefaultInterval)
	if err := ticker.Start(ctx); err != nil {
		log.Error().Err(err).Msg("countdown ticker")
		publisher.Close()
		return nil, nil
	}
	return ticker, publisher
}
