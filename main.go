package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/aigenthix/cms-backend/api"
	"github.com/aigenthix/cms-backend/cache"
	"github.com/aigenthix/cms-backend/config"
	"github.com/aigenthix/cms-backend/database"
	"github.com/aigenthix/cms-backend/services"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()

	secretKey := config.GetString(c, "SECRET_KEY", "")
	if len(secretKey) < 32 {
		fmt.Println("SECRET_KEY must be at least 32 characters. Exiting...")
		os.Exit(1)
	}

	databaseURL := config.GetString(c, "DATABASE_URL", "")
	if databaseURL == "" {
		fmt.Println("DATABASE_URL is required. Exiting...")
		os.Exit(1)
	}

	// Pool initialization is best effort: a down database at startup only
	// logs a warning, and acquisition retries on first use.
	pool := database.NewPool(database.PoolConfig{
		DSN:      databaseURL,
		MinConns: config.GetInt(c, "DB_POOL_MIN", 2),
		MaxConns: config.GetInt(c, "DB_POOL_MAX", 20),
	}, log.Logger)
	defer pool.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, pool); err != nil {
		log.Warn().Err(err).Msg("Database migrations failed, some features may not work")
	}

	db := database.New(pool)

	// Cache is optional: no REDIS_URL disables it, a failed probe leaves it
	// disabled for the process lifetime.
	cacheTTL := time.Duration(config.GetInt(c, "CACHE_TTL", 300)) * time.Second
	cacheSvc := cache.New(config.GetString(c, "REDIS_URL", ""), cacheTTL, log.Logger)
	defer cacheSvc.Close()

	tokenTTL := time.Duration(config.GetInt(c, "ACCESS_TOKEN_EXPIRE_MINUTES", 60*24*7)) * time.Minute
	auth := services.NewAuthService(db.UserRepo(), secretKey, tokenTTL)

	// Bootstrap a default admin when configured and no users exist yet.
	adminEmail := config.GetString(c, "ADMIN_EMAIL", "")
	adminPassword := config.GetString(c, "ADMIN_PASSWORD", "")
	if adminEmail != "" && adminPassword != "" {
		hash, err := services.HashPassword(adminPassword)
		if err != nil {
			log.Error().Err(err).Msg("Failed to hash default admin password")
		} else if err := database.EnsureAdmin(ctx, db.UserRepo(), adminEmail, hash, log.Logger); err != nil {
			log.Warn().Err(err).Msg("Failed to create default admin")
		}
	}

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(db, cacheSvc, auth)
	if err != nil {
		fmt.Printf("Error initializing server: %v\n", err)
		os.Exit(1)
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	fmt.Printf("Closing server: %v\n", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
