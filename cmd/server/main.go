package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Ayan1Dutta/InterviewEasy/internal/api"
	"github.com/Ayan1Dutta/InterviewEasy/internal/config"
	"github.com/Ayan1Dutta/InterviewEasy/internal/events"
	"github.com/Ayan1Dutta/InterviewEasy/internal/repositories"
	mongostore "github.com/Ayan1Dutta/InterviewEasy/internal/repositories/mongo"
	"github.com/Ayan1Dutta/InterviewEasy/internal/routers"
	"github.com/Ayan1Dutta/InterviewEasy/internal/utils"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	utils.SetJWTSecret(cfg.JWTSecret)

	var store repositories.Store
	if cfg.MongoURI != "" {
		client, err := mongostore.NewClient(context.Background())
		if err != nil {
			logger.Fatal("mongo connect failed", zap.Error(err))
		}
		defer client.Disconnect(context.Background())

		store, err = mongostore.NewSessionStore(client)
		if err != nil {
			logger.Fatal("mongo store init failed", zap.Error(err))
		}
	} else {
		logger.Warn("MONGO_URI not set, using in-memory store; sessions will not survive a restart")
		store = repositories.NewMemoryStore()
	}

	var bus *events.Bus
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		bus = events.NewBus(rdb, logger)
		defer bus.Close()
	}

	handlers := api.NewHandlers(logger, store, bus)
	router := routers.New(handlers, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("interview service starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("interview service shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("interview service exited")
}
