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

	"tourismhub/api/config"
	"tourismhub/api/database"
	"tourismhub/api/handlers"
	"tourismhub/api/logging"
	"tourismhub/api/store"
	"tourismhub/api/tracking"
	"tourismhub/api/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// Users and roles
	dbClient, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL database")
	}
	defer dbClient.Close()

	// Analytics event store
	chClient, err := database.NewClickHouseDB(cfg.ClickHouse)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ClickHouse database")
	}
	defer chClient.Close()

	// Per-browser identity keys
	badgerClient, err := database.NewBadgerDB(cfg.BadgerDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open identity store")
	}
	defer badgerClient.Close()

	userStore := store.NewUserStore(dbClient.DB)
	analyticsStore := store.NewAnalyticsStore(chClient)
	eventWriter := store.NewBreakerWriter(analyticsStore, cfg.BreakerFailures, cfg.BreakerTimeout)

	registry := tracking.NewRegistry(eventWriter, store.BadgerStoreFactory(badgerClient.DB), tracking.Options{})
	issuer := utils.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL)

	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:          handlers.NewAuthHandlers(userStore, issuer, cfg.SecureCookies),
		Track:         handlers.NewTrackHandlers(registry),
		Stats:         handlers.NewStatsHandlers(analyticsStore),
		Issuer:        issuer,
		Origins:       cfg.FEOrigins,
		SecureCookies: cfg.SecureCookies,
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sweepIdleTrackers(sweepCtx, registry, cfg.ClientIdleTTL)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("API server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let background event writes land before the stores close.
	registry.Wait()
	log.Info().Msg("Server exiting")
}

func sweepIdleTrackers(ctx context.Context, registry *tracking.Registry, idle time.Duration) {
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			registry.Sweep(idle)
		}
	}
}
