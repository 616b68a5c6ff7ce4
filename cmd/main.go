/**
 * @description
 * This is the main entry point for the payout-account-service. Its
 * responsibility is to initialize all necessary components and start the HTTP
 * server that exposes the bank-account lifecycle endpoints.
 *
 * Key features:
 * - Loads application configuration from environment variables.
 * - Establishes and manages a connection pool to the PostgreSQL database.
 * - Initializes the bank directory client and the RabbitMQ event producer.
 * - Wires up the core application logic with its dependencies.
 * - Runs the periodic bank-cache cleanup job and implements graceful shutdown.
 *
 * @dependencies
 * - The service's internal packages for config, app logic, storage, and external clients.
 * - pgxpool for database connection, godotenv for local config, and rabbitmq for messaging.
 */
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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/payvault/payout-account-service/internal/api"
	"github.com/payvault/payout-account-service/internal/app"
	"github.com/payvault/payout-account-service/internal/config"
	"github.com/payvault/payout-account-service/internal/store"
	"github.com/payvault/payout-account-service/pkg/bankclient"
	"github.com/payvault/payout-account-service/pkg/rabbitmq"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load application configuration.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	// Establish database connection pool.
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database URL: %v\n", err)
	}
	dbConfig.MaxConns = 50
	dbConfig.MinConns = 5
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer dbpool.Close()
	log.Println("Database connection established")

	// Set up dependencies.
	accountRepo := store.NewPostgresBankAccountRepository(dbpool)
	bankRepo := store.NewPostgresBankRepository(dbpool)
	bankClient := bankclient.NewClient(cfg.BankDirectoryAPIBaseURL, cfg.BankDirectoryAPIKey)

	// The producer falls back to a logging no-op when the broker is down so
	// account registration keeps working; codes are then visible in logs only.
	var producer rabbitmq.Publisher
	producer, err = rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("WARN: RabbitMQ unavailable, using fallback producer: %v", err)
		producer = &rabbitmq.FallbackProducer{}
	}
	defer producer.Close()

	notifier := app.NewEventNotifier(producer)
	service := app.NewBankAccountService(accountRepo, bankRepo, bankClient, notifier, cfg.CodeTTLMinutes, cfg.CountryCode)

	// Start periodic bank-cache cleanup job.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		log.Printf("Starting periodic bank cache cleanup job...")
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := bankRepo.ClearExpiredBanks(ctx); err != nil {
				log.Printf("Cache cleanup error: %v", err)
			}
			cancel()
		}
	}()

	// Setup and start HTTP server.
	router := api.NewRouter(cfg, service)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s\n", err)
		}
	}()

	log.Println("Payout account service is running.")

	// Wait for termination signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down payout-account-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
