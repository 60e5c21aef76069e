package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatrelay-backend/internal/config"
	"chatrelay-backend/internal/database"
	"chatrelay-backend/internal/handlers"
	"chatrelay-backend/internal/middleware"
	"chatrelay-backend/internal/repository"
	"chatrelay-backend/internal/router"
	"chatrelay-backend/internal/services"
)

func main() {
	log.Println("🚀 Starting Chat Relay Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	messageRepo := repository.NewMessageRepo(pool)

	// ──── Initialize Services ────
	relayService := services.NewRelayService(cfg.WebhookURL)
	if relayService.Configured() {
		log.Println("✓ Webhook relay configured")
	} else {
		log.Println("⚠ WEBHOOK_URL is not set; /api/chat will return a configuration error")
	}

	chatService := services.NewChatService(relayService, messageRepo)
	historyService := services.NewHistoryService(messageRepo)

	// ──── Step 4: Rate Limiter (Redis-backed when available) ────
	var counter middleware.CounterStore = middleware.NewMemoryCounter(time.Minute)
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClient.Close()
		counter = middleware.NewRedisCounter(redisClient, time.Minute)
		log.Println("✓ Redis connected (rate limiting)")
	}
	chatLimiter := middleware.NewRateLimiter(counter, cfg.ChatRateLimit)

	// ──── Initialize Handlers ────
	chatHandler := handlers.NewChatHandler(chatService)
	historyHandler := handlers.NewHistoryHandler(historyService)
	healthHandler := handlers.NewHealthHandler(messageRepo, relayService.Configured())

	// ──── Step 5: Start HTTP Server ────
	r := router.New(chatHandler, historyHandler, healthHandler, chatLimiter, cfg.CORSOrigin, cfg.StaticDir)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Must outlive the 30 second webhook bound or chat responses get cut off.
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Chat Relay Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
