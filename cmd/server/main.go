package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"askhuman/config"
	"askhuman/internal/cache"
	"askhuman/internal/repository"
	"askhuman/internal/service"
	"askhuman/internal/transport/rest"
	"askhuman/internal/transport/ws"
)

// @title Ask-a-Human API
// @version 1.0
// @description Agents pose questions; anonymous humans answer until quorum or expiry
// @host localhost:8080
// @BasePath /v1
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	ctx := context.Background()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping MongoDB")
	}
	log.Info().Msg("Connected to MongoDB")

	db := mongoClient.Database(cfg.Mongo.Database)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping Redis")
	}
	log.Info().Msg("Connected to Redis")

	// WebSocket hub
	wsHub := ws.NewHub()
	log.Info().Msg("WebSocket hub started")

	// Repositories
	questionRepo := repository.NewQuestionRepo(db)
	responseRepo, err := repository.NewResponseRepo(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure response indexes")
	}

	// Caches
	answeredCache := cache.NewAnsweredCache(rdb)
	rateLimiter := cache.NewRateLimiter(rdb, cfg.RateLimit.PerMinute, time.Minute)

	// Services
	ledgerSvc := service.NewLedgerService(questionRepo, responseRepo, answeredCache)
	ledgerSvc.SetBroadcaster(wsHub)
	fingerprinter := service.NewFingerprinter(cfg.Ledger.FingerprintSalt)

	// Router
	container := &rest.Container{
		Ledger:        ledgerSvc,
		Fingerprinter: fingerprinter,
		RateLimiter:   rateLimiter,
		WSHub:         wsHub,
	}

	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
