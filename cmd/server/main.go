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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/mpchat/server/internal/api"
	"github.com/mpchat/server/internal/config"
	"github.com/mpchat/server/internal/database"
	"github.com/mpchat/server/internal/repositories"
	"github.com/mpchat/server/internal/services"
	"github.com/mpchat/server/internal/ws"
)

func main() {
	ctx := context.Background()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database connections
	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create postgres pool: %v", err)
	}
	defer postgresPool.Close()

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create redis client: %v", err)
	}
	defer redisClient.Close()

	// Repositories
	userRepo := repositories.NewPostgresUserRepository(postgresPool)
	messageRepo := repositories.NewPostgresMessageRepository(postgresPool)
	groupRepo := repositories.NewPostgresGroupRepository(postgresPool)
	presenceRepo := repositories.NewRedisPresenceRepository(redisClient)

	// Relay: one hub and one set of services for the process lifetime,
	// passed explicitly to the connection handler.
	hub := ws.NewHub()
	tokens := services.NewTokenService()
	presence := services.NewPresenceService(userRepo, presenceRepo, hub)
	calls := services.NewCallService(hub)
	relay := services.NewRelayService(tokens, presence, calls, messageRepo, groupRepo, hub)
	auth := services.NewAuthService(userRepo, tokens)

	wsHandler := ws.NewHandler(hub, relay)
	handlers := api.NewHandlers(auth, userRepo, messageRepo)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: api.NewRouter(handlers, tokens, wsHandler),
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Printf("Starting server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigChan:
		case <-groupCtx.Done():
			return nil
		}

		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		hub.Shutdown()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped gracefully")
}
