package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/caresched/caresched/internal/api"
	"github.com/caresched/caresched/internal/availability"
	"github.com/caresched/caresched/internal/booking"
	"github.com/caresched/caresched/internal/config"
	"github.com/caresched/caresched/internal/db"
	"github.com/caresched/caresched/internal/identity"
	"github.com/caresched/caresched/internal/logging"
	"github.com/caresched/caresched/internal/patient"
	"github.com/caresched/caresched/internal/provider"
	redisclient "github.com/caresched/caresched/internal/redis"
	"github.com/caresched/caresched/internal/search"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init("api-server", "dev")
		log.Fatal().Err(err).Msg("config load error")
	}

	logging.Init("api-server", cfg.Env)
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PgMaxConns)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisPoolSize)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)
	tokens := identity.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	hasher := identity.NewHasher(cfg.BcryptCost)

	providerRepo := provider.NewPgRepository(pgPool)
	patientRepo := patient.NewPgRepository(pgPool)
	availabilityRepo := availability.NewPgRepository(pgPool)
	bookingRepo := booking.NewPgRepository(pgPool, patientRepo, availabilityRepo)
	searchRepo := search.NewPgRepository(pgPool)

	router := api.NewRouter(api.RouterConfig{
		Providers:    provider.NewService(providerRepo, hasher, tokens, log.With().Str("component", "provider").Logger()),
		Patients:     patient.NewService(patientRepo, hasher, tokens, log.With().Str("component", "patient").Logger()),
		Availability: availability.NewService(availabilityRepo, locker, log.With().Str("component", "availability").Logger()),
		Bookings:     booking.NewService(bookingRepo, locker, log.With().Str("component", "booking").Logger()),
		Search:       search.NewService(searchRepo, log.With().Str("component", "search").Logger()),
		Tokens:       tokens,
		PgPool:       pgPool,
		Redis:        rdb,
		Logger:       log.With().Str("component", "http").Logger(),
		Env:          cfg.Env,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	case <-rootCtx.Done():
	}

	log.Info().Msg("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
