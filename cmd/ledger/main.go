package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tair/stock-ledger/internal/barcode"
	"github.com/tair/stock-ledger/internal/ledger"
	httpDelivery "github.com/tair/stock-ledger/internal/ledger/delivery/http"
	"github.com/tair/stock-ledger/internal/ledger/domain"
	"github.com/tair/stock-ledger/internal/ledger/repository"
	"github.com/tair/stock-ledger/kafka"
	"github.com/tair/stock-ledger/pkg/database"
	"github.com/tair/stock-ledger/pkg/logger"
	"github.com/tair/stock-ledger/pkg/tracing"
)

func main() {
	serviceName := getEnv("OTEL_SERVICE_NAME", "stock-ledger")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)
	logger.SetLevel(getEnv("LOG_LEVEL", "info"))

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Msg("Starting stock ledger service")

	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Tracing disabled")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Tracer shutdown failed")
			}
		}()
	}

	store, healthDB := buildStore()

	handler, err := ledger.InitializeLedgerHandler(store, newScanner())
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handler")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupKafka(ctx, handler)

	httpPort := getEnv("HTTP_PORT", "8083")
	go startHTTPServer(handler, healthDB, httpPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
}

// buildStore assembles the ledger store with its tracing and cache layers.
// STORE_DRIVER=memory runs without a database, for local development.
func buildStore() (domain.LedgerStore, *sql.DB) {
	if getEnv("STORE_DRIVER", "postgres") == "memory" {
		logger.Logger.Warn().Msg("Using in-memory store, data is not durable")
		return repository.NewTracingLedgerStore(repository.NewMemoryLedgerStore()), nil
	}

	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "stockledger"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	gormStore := repository.NewGormLedgerStore(db)
	if err := gormStore.AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Logger.Info().Msg("Database initialized")

	var store domain.LedgerStore = gormStore
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		store = repository.NewCachedLedgerStore(store, rdb)
		logger.Logger.Info().Str("redis_addr", redisAddr).Msg("Item cache enabled")
	}
	store = repository.NewTracingLedgerStore(store)

	// Raw connection used only by the health endpoint
	sqlDB, err := database.NewPostgresConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to open health check connection")
	}
	return store, sqlDB
}

func newScanner() barcode.Scanner {
	return barcode.NewMockScanner()
}

// setupKafka wires the optional movement event publisher and the low-stock
// alert consumer when brokers are configured
func setupKafka(ctx context.Context, handler *httpDelivery.LedgerHandler) {
	brokersEnv := os.Getenv("KAFKA_BROKERS")
	if brokersEnv == "" {
		logger.Logger.Info().Msg("Kafka disabled, movement events will not be published")
		return
	}
	brokers := strings.Split(brokersEnv, ",")

	publisher, err := kafka.NewPublisher(brokers)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to create Kafka publisher, continuing without events")
		return
	}
	handler.SetKafkaPublisher(publisher)

	consumer, err := kafka.NewConsumer(brokers,
		getEnv("KAFKA_GROUP_ID", "stock-ledger-alerts"),
		[]string{kafka.TopicStockMovements})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to create Kafka consumer")
		return
	}
	consumer.RegisterHandler(kafka.EventTypeStockIssued, kafka.LowStockHandler())
	if err := consumer.Start(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to start Kafka consumer")
	}
}

func startHTTPServer(handler *httpDelivery.LedgerHandler, db *sql.DB, port string) {
	router := mux.NewRouter()

	config := httpDelivery.DefaultMiddlewareConfig()
	httpDelivery.RegisterMiddlewares(router, config)

	handler.RegisterRoutes(router)
	handler.RegisterHealthCheck(router, db)

	router.Handle("/metrics", promhttp.Handler())
	httpDelivery.RegisterSwaggerDocs(router, httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	logger.Logger.Info().
		Str("port", port).
		Str("metrics_endpoint", "/metrics").
		Msg("HTTP server started")

	if err := http.ListenAndServe(":"+port, httpDelivery.SetupCORS(config)(router)); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
