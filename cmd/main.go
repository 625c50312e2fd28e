/**
 * @description
 * This is the main entry point for the enrollment-service. It is responsible for
 * initializing all components of the service: configuration, database connection,
 * the Stripe client, Redis-backed webhook dedupe, the RabbitMQ producer, the
 * repository, the core application services, the reconciliation sweep, and the
 * HTTP server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Redis client for webhook dedupe.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages.
 * - pkg/stripeclient, pkg/rabbitmq: Clients for Stripe and RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnhub/enrollment-service/internal/api"
	"github.com/learnhub/enrollment-service/internal/app"
	"github.com/learnhub/enrollment-service/internal/config"
	"github.com/learnhub/enrollment-service/internal/store"
	"github.com/learnhub/enrollment-service/pkg/rabbitmq"
	"github.com/learnhub/enrollment-service/pkg/stripeclient"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.StripeWebhookSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"stripe webhook secret must be configured\" env=STRIPE_WEBHOOK_SECRET")
	}
	if strings.TrimSpace(cfg.ClerkWebhookSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"clerk webhook secret must be configured\" env=CLERK_WEBHOOK_SECRET")
	}

	log.Printf("level=info component=bootstrap msg=\"starting enrollment-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}
	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts behind poolers.
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer to publish enrollment events.
	var eventProducer rabbitmq.Publisher
	rabbitProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		eventProducer = &rabbitmq.EventProducerFallback{}
	} else {
		defer rabbitProducer.Close()
		eventProducer = rabbitProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the Stripe client; it is passed in explicitly rather than
	// held as package-level state so tests can substitute a fake provider.
	stripeClient := stripeclient.NewClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	// Redis-backed webhook dedupe is optional; without it the store-level
	// idempotency guards still make redelivery safe.
	var deduper app.EventDeduper
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; webhook dedupe disabled\" env=REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; webhook dedupe disabled\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; webhook dedupe disabled\" err=%v", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				deduper = app.NewRedisEventDeduper(redisClient, cfg.RedisDedupePrefix, time.Duration(cfg.WebhookDedupeTTLMin)*time.Minute)
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core application services with their dependencies.
	enrollmentService := app.NewService(repository, stripeClient, eventProducer)
	identityService := app.NewIdentityService(repository)

	// Start the stale purchase sweep.
	reconciler := app.NewReconciler(repository, cfg.SweepSchedule, time.Duration(cfg.PendingPurchaseTTLH)*time.Hour)
	reconciler.Start()
	defer func() { <-reconciler.Stop().Done() }()

	// Initialize the API handlers and router.
	handlers := api.NewEnrollmentHandlers(enrollmentService)
	webhookHandlers := api.NewWebhookHandlers(enrollmentService, stripeClient, deduper)
	clerkHandlers := api.NewClerkWebhookHandlers(identityService, cfg.ClerkWebhookSecret)
	router := api.EnrollmentRoutes(handlers, webhookHandlers, clerkHandlers, cfg.ClerkJWKSURL, cfg.InternalAPIKey)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
