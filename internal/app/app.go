package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"volunteer_backend/database"
	"volunteer_backend/internal/auth"
	"volunteer_backend/internal/cache"
	"volunteer_backend/internal/config"
	"volunteer_backend/internal/handlers"
	"volunteer_backend/internal/logger"
	"volunteer_backend/internal/metrics"
	"volunteer_backend/internal/notifications"
	"volunteer_backend/internal/routes"
	"volunteer_backend/internal/services"
	"volunteer_backend/internal/validator"
	"volunteer_backend/internal/workers"
	"volunteer_backend/pkg/apperrors"
)

const shutdownTimeout = 15 * time.Second

// Run поднимает HTTP сервер и воркер завершения заявок; возвращается после отмены ctx
func Run(ctx context.Context, cfg *config.Config) error {
	apperrors.SetDebug(cfg.Server.Debug && !cfg.IsProduction())

	logger.Info("Connecting to database...")
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("Database connected")

	dispatcher, err := NewDispatcher(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dispatcher.Close(); err != nil {
			logger.Warn("Failed to close notification dispatcher", "error", err)
		}
	}()

	recent, closeCache := connectCache(ctx, cfg)
	defer closeCache()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	notifier := notifications.NewNotifier(dispatcher,
		notifications.WithPublishTimeout(cfg.Messaging.PublishTimeout),
		notifications.WithMaxParallel(cfg.Messaging.MaxParallel),
		notifications.WithMetrics(m),
	)
	tokens := auth.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)

	svc := services.NewServiceContainer(
		services.NewRepositoryContainer(), notifier, tokens, recent, m, services.SettingsFromConfig(cfg),
	)
	router := routes.SetupRouter(routes.Deps{
		DB:          db,
		Handlers:    handlers.NewAppHandlers(svc, validator.New(), tokens),
		Metrics:     m,
		MetricsPath: cfg.Metrics.Path,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	worker := workers.NewCompletionWorker(db, svc.ApplicationService, cfg.Workers.CompletionInterval)
	g.Go(func() error {
		<-worker.Start(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info(fmt.Sprintf("🚀 Server starting on %s", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "http server")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	closeDB(db)
	return err
}

// NewDispatcher выбирает транспорт шины по messaging.driver
func NewDispatcher(cfg *config.Config) (notifications.Dispatcher, error) {
	switch cfg.Messaging.Driver {
	case config.MessagingDriverAMQP:
		d, err := notifications.NewAMQPDispatcher(cfg.Messaging.URL, cfg.Messaging.Exchange)
		if err != nil {
			return nil, err
		}
		return d, nil
	case config.MessagingDriverKafka:
		d, err := notifications.NewKafkaDispatcher(cfg.Messaging.KafkaBrokers, cfg.Messaging.KafkaTopic)
		if err != nil {
			return nil, err
		}
		logger.Info("Notification bus: Kafka", "topic", cfg.Messaging.KafkaTopic)
		return d, nil
	case config.MessagingDriverLog:
		logger.Warn("Notification bus disabled, events are only logged")
		return notifications.NewLogDispatcher(), nil
	default:
		return nil, eris.Errorf("unknown messaging driver %q", cfg.Messaging.Driver)
	}
}

// connectCache - Redis необязателен: без него кэш выключен
func connectCache(ctx context.Context, cfg *config.Config) (*cache.RecentOpportunities, func()) {
	if cfg.Redis.URL == "" {
		logger.Info("Redis is not configured, recent opportunities cache disabled")
		return nil, func() {}
	}
	client, err := cache.Connect(ctx, cfg.Redis.URL, cfg.Redis.PoolSize)
	if err != nil {
		logger.Warn("Redis unavailable, recent opportunities cache disabled", "error", err.Error())
		return nil, func() {}
	}
	logger.Info("Redis connected")
	return cache.NewRecentOpportunities(client, cfg.Redis.RecentTTL), func() { _ = client.Close() }
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("Failed to close database", "error", err)
	}
}
