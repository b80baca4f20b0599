package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattressworks/stockboard/internal/gateway"
	"github.com/mattressworks/stockboard/internal/stock/cache"
	"github.com/mattressworks/stockboard/internal/stock/client"
	"github.com/mattressworks/stockboard/internal/stock/events"
	"github.com/mattressworks/stockboard/internal/stock/handler"
	"github.com/mattressworks/stockboard/internal/stock/repository"
	"github.com/mattressworks/stockboard/internal/stock/service"
	"github.com/mattressworks/stockboard/pkg/config"
	"github.com/mattressworks/stockboard/pkg/database"
	"github.com/mattressworks/stockboard/pkg/logger"
	"github.com/mattressworks/stockboard/pkg/messaging"
	"github.com/mattressworks/stockboard/pkg/metrics"
	"github.com/subosito/gotenv"
)

func main() {
	// A missing .env file is fine; real environments set variables directly
	_ = gotenv.Load()

	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Str("stock_api", cfg.StockAPI.BaseURL).Msg("starting stockboard")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	health := map[string]healthCheck{}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	stockAPI := client.New(&cfg.StockAPI, m, log)
	health["stock_api"] = stockAPI.Health

	// Audit log (optional)
	var audit service.AuditStore
	if cfg.Database.Enabled {
		db, err := database.New(&cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}

		audit = repository.NewAuditRepository(db.DB)
		health["database"] = db.Health
	}

	// Snapshot cache (optional)
	var snapshotCache *cache.Cache
	if cfg.Redis.Enabled {
		snapshotCache, err = cache.New(&cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer snapshotCache.Close()
		health["redis"] = snapshotCache.Health
	}

	// Events (optional)
	source := instanceName()
	var rmq *messaging.RabbitMQ
	var publisher *events.Publisher
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		if err := rmq.DeclareDeadLetterQueue(serviceName); err != nil {
			log.Fatal().Err(err).Msg("failed to declare dead letter queue")
		}

		rawPublisher, err := messaging.NewPublisher(rmq, messaging.ExchangeStockEvents, source, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		publisher = events.NewPublisher(rawPublisher, log)
		health["rabbitmq"] = func(context.Context) map[string]string { return rmq.Health() }
	}

	// Services
	dashboardService := service.NewDashboardService(stockAPI, snapshotCache, publisher, m, cfg.Scheduler.Interval, log)
	stockService := service.NewStockService(stockAPI, dashboardService, audit, publisher, log)
	reportService := service.NewReportService(dashboardService, stockAPI, m, log)

	if rmq != nil {
		invalidator := events.NewInvalidator(source, snapshotCache, dashboardService, log)
		consumer, err := messaging.NewConsumer(rmq, invalidator.QueueName(), log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create invalidation consumer")
		}
		if err := invalidator.Register(consumer); err != nil {
			log.Fatal().Err(err).Msg("failed to subscribe invalidation consumer")
		}
		if err := consumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start invalidation consumer")
		}
	}

	var scheduler *service.RefreshScheduler
	if cfg.Scheduler.Enabled {
		scheduler = service.NewRefreshScheduler(dashboardService, cfg.Scheduler.Interval, log)
		scheduler.Start(ctx)
	}

	proxy, err := gateway.NewProxy(&cfg.StockAPI, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create auth proxy")
	}

	rt := &routes{
		cfg:       cfg,
		log:       log,
		auth:      gateway.NewAuth(&cfg.JWT, log),
		proxy:     proxy,
		metrics:   m,
		dashboard: handler.NewDashboardHandler(dashboardService, log),
		stock:     handler.NewStockHandler(stockService, dashboardService, log),
		reports:   handler.NewReportHandler(reportService, log),
		audit:     handler.NewAuditHandler(stockService, log),
		health:    health,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      rt.handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Str("instance", source).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	if scheduler != nil {
		scheduler.Stop()
	}
	// Cancel context to stop the consumer
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// instanceName identifies this process on the event bus
func instanceName() string {
	if name := os.Getenv("STOCKBOARD_INSTANCE"); name != "" {
		return name
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = uuid.NewString()[:8]
	}
	return serviceName + "-" + host
}
