package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/pageza/issuedesk/backend/config"
	"github.com/pageza/issuedesk/backend/internal/api"
	"github.com/pageza/issuedesk/backend/internal/database"
	"github.com/pageza/issuedesk/backend/internal/middleware"
	"github.com/pageza/issuedesk/backend/internal/server"
	"github.com/pageza/issuedesk/backend/internal/service"
	"github.com/pageza/issuedesk/backend/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// The server starts without a provider; uploads then answer ProviderNotConfigured.
	provider, err := storage.NewProvider(ctx, cfg)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		log.Printf("Warning: %v, uploads are disabled", err)
		provider = nil
	case err != nil:
		log.Fatalf("Failed to initialize storage provider: %v", err)
	default:
		log.Printf("Using %s storage provider", provider.Name())
	}

	deps := api.Dependencies{
		Media:         service.NewMediaService(provider, cfg),
		MaxUploadSize: cfg.MaxUploadSize,
	}

	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis for rate limiting: %v", err)
		} else {
			defer redisClient.Close()
			deps.UploadLimiter = middleware.NewUploadRateLimiter(redisClient, cfg.UploadRateLimit, cfg.UploadRateWindow)
		}
	}

	janitor, err := service.NewJanitor(cfg.UploadDir, cfg.UploadTempMaxAge, cfg.JanitorSchedule)
	if err != nil {
		log.Fatalf("Failed to create upload janitor: %v", err)
	}
	janitor.Start()

	srv := server.New(cfg, deps)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		log.Println("Starting server...")
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	log.Println("Shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	<-janitor.Stop().Done()
	log.Println("Server stopped")
}
