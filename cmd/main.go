/**
 * @description
 * This is the main entry point for the payout-service. It is responsible for
 * initializing all components of the service: configuration, the database
 * connection pool, the Redis-backed list cache, the RabbitMQ task producer and
 * consumer, the in-process event bus, the repositories, the core application
 * service, and the HTTP server. It wires everything together and starts the
 * service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Cache backend for the versioned list cache.
 * - internal/api, internal/app, internal/config, internal/events, internal/store,
 *   pkg/rabbitmq: Internal packages for the service.
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
	"github.com/paystream/payout-service/internal/api"
	"github.com/paystream/payout-service/internal/app"
	"github.com/paystream/payout-service/internal/config"
	"github.com/paystream/payout-service/internal/events"
	"github.com/paystream/payout-service/internal/store"
	"github.com/paystream/payout-service/pkg/rabbitmq"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting payout-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 50
	poolConfig.MinConns = 10
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Connect Redis for the versioned list cache. A missing or unreachable
	// Redis degrades list reads to uncached database queries.
	var listCache *app.ListCache
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; list caching disabled\" env=REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; list caching disabled\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; list caching disabled\" err=%v", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				listCache = app.NewListCache(
					app.NewRedisCache(redisClient),
					time.Duration(cfg.ListCacheTTLSeconds)*time.Second,
				)
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	}

	// Initialize the task producer. A missing broker falls back to a no-op
	// enqueuer so payout creation itself keeps working.
	var taskProducer rabbitmq.Enqueuer
	producer, err := rabbitmq.NewTaskProducer(cfg.RabbitMQURL, cfg.TaskExchange)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		taskProducer = &rabbitmq.TaskProducerFallback{}
	} else {
		taskProducer = producer
	}
	defer taskProducer.Close()

	// Initialize the data access layer, the event bus and the core service.
	repository := store.NewPostgresRepository(dbpool)
	bus := events.NewBus()
	payoutService := app.NewService(repository, bus, listCache)

	// Post-commit reactions: PayoutCreated fans out into the two background tasks.
	app.RegisterPayoutEventHandlers(bus, taskProducer)

	// Wire up the background worker: consume both payout tasks from the queue.
	payoutTasks := app.NewPayoutTasks(payoutService, listCache, time.Duration(cfg.ProviderDelayMS)*time.Millisecond)

	taskConsumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL, cfg.TaskMaxRetries)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"rabbitmq consumer init failed\" err=%v", err)
	}
	defer taskConsumer.Close()

	taskBindings := map[string]func([]byte) bool{
		app.TaskProcessPayout:    payoutTasks.HandleProcessPayout,
		app.TaskRebuildListCache: payoutTasks.HandleRebuildListCache,
	}

	if err := taskConsumer.ConsumeWithBindings(cfg.TaskExchange, cfg.PayoutTaskQueue, taskBindings); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"task consumer start failed\" err=%v", err)
	}

	// Initialize the API handlers and router.
	payoutHandlers := api.NewPayoutHandlers(payoutService, cfg.ListPageSize, cfg.ListMaxPageSize)
	router := api.Routes(payoutHandlers, cfg.AuthJWTSecret)

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
