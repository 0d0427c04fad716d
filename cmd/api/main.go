// @title Cardsmith API
// @version 1.0
// @description Turns pasted text or uploaded documents into question/answer flashcards.
// @license.name MIT
// @host localhost:5000
// @BasePath /
// @schemes http https
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cardsmith/internal/adapter"
	"cardsmith/internal/cache"
	"cardsmith/internal/config"
	"cardsmith/internal/domain"
	"cardsmith/internal/extract"
	"cardsmith/internal/generator"
	"cardsmith/internal/logger"
	"cardsmith/internal/server"
	"cardsmith/internal/service"

	_ "cardsmith/cmd/api/docs"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("Invalid server config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	cardGenerator, err := generator.New(cfg)
	if err != nil {
		appLogger.Fatal("Failed to create card generator", zap.Error(err))
	}

	// Redis is optional; without it every request is generated fresh.
	var cacheAdapter domain.Cache
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedisClient(context.Background(), cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
		appLogger.Info("Successfully connected to Redis", zap.String("address", cfg.Redis.Address), zap.Duration("ttl", cfg.Cache.TTL))
	}

	registry := extract.NewRegistry(cfg.Server.AcceptedTypes)
	flashcardService := service.NewFlashcardService(cardGenerator, registry, cacheAdapter, cfg)

	app := server.New(cfg, flashcardService, cacheAdapter)

	// Start server
	go func() {
		appLogger.Info("Starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("strategy", cardGenerator.Name()),
			zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	appLogger.Info("Server exited gracefully")
}
