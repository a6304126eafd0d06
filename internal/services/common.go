package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"volunteer_backend/internal/config"
	"volunteer_backend/internal/logger"
	"volunteer_backend/internal/notifications"
	"volunteer_backend/internal/repositories"
	"volunteer_backend/pkg/apperrors"
	"volunteer_backend/pkg/retry"
)

const defaultQueryTimeout = 5 * time.Second

// Settings - параметры сервисов из конфигурации
type Settings struct {
	QueryTimeout    time.Duration
	DefaultRadiusKm float64
	MaxPageSize     int
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		QueryTimeout:    cfg.Database.QueryTimeout,
		DefaultRadiusKm: cfg.Matching.DefaultRadiusKm,
		MaxPageSize:     cfg.Matching.MaxPageSize,
	}
}

func (s Settings) queryTimeout() time.Duration {
	if s.QueryTimeout <= 0 {
		return defaultQueryTimeout
	}
	return s.QueryTimeout
}

// =========================================================================
// Обращения к хранилищу: таймаут на попытку, один повтор транзиентных ошибок
// =========================================================================

func storeValue[T any](ctx context.Context, db *gorm.DB, timeout time.Duration, op func(tx *gorm.DB) (T, error)) (T, error) {
	return retry.Value(ctx, timeout, func(ctx context.Context) (T, error) {
		return op(db.WithContext(ctx))
	}, repositories.IsTransient)
}

func storeExec(ctx context.Context, db *gorm.DB, timeout time.Duration, op func(tx *gorm.DB) error) error {
	return retry.Once(ctx, timeout, func(ctx context.Context) error {
		return op(db.WithContext(ctx))
	}, repositories.IsTransient)
}

// storageError переводит ошибки репозиториев в AppError
func storageError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, repositories.ErrOpportunityNotFound):
		return apperrors.ErrOpportunityNotFound()
	case errors.Is(err, repositories.ErrApplicationNotFound):
		return apperrors.ErrApplicationNotFound()
	case errors.Is(err, repositories.ErrUserNotFound):
		return apperrors.ErrUserNotFound()
	case errors.Is(err, repositories.ErrApplicationExists):
		return apperrors.ErrApplicationExists()
	case errors.Is(err, repositories.ErrRoleAlreadySet):
		return apperrors.ErrRoleAlreadySet()
	case errors.Is(err, repositories.ErrVersionConflict):
		return apperrors.ErrConcurrentUpdate()
	case repositories.IsUniqueViolation(err):
		return apperrors.ErrAlreadyExists(err)
	case retry.IsTimeout(err):
		return apperrors.Wrap(err, apperrors.CodeTimeout, "storage", "Storage operation timed out", http.StatusServiceUnavailable)
	}
	return apperrors.DatabaseError(err)
}

// publish - отправка события после коммита. Ошибки сборки события только логируются.
func publish(ctx context.Context, notifier *notifications.Notifier, key notifications.RoutingKey, build func() (notifications.Event, error)) {
	ev, err := build()
	if err != nil {
		notifications.Dropped(ctx, key, err)
		return
	}
	delivered := notifier.Notify(ctx, ev)
	logger.CtxDebug(ctx, "event published",
		"routing_key", string(key),
		"messages", len(ev.Messages),
		"delivered", delivered,
	)
}
