package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	requestIDKey     contextKey = "request_id"
	userIDKey        contextKey = "user_id"
	correlationIDKey contextKey = "correlation_id"
)

// ============================================
// Context operations
// ============================================

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// WithCorrelationID - id доменного события (например id заявки), проходит через публикацию
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

func GetUserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

func GetCorrelationID(ctx context.Context) string {
	v, _ := ctx.Value(correlationIDKey).(string)
	return v
}

// ============================================
// Context-aware логирование
// ============================================

// FromContext добавляет request_id, user_id, correlation_id если они есть
func FromContext(ctx context.Context) *slog.Logger {
	l := GetLogger()
	if ctx == nil {
		return l
	}

	var fields []any
	if v := GetRequestID(ctx); v != "" {
		fields = append(fields, "request_id", v)
	}
	if v := GetUserID(ctx); v != "" {
		fields = append(fields, "user_id", v)
	}
	if v := GetCorrelationID(ctx); v != "" {
		fields = append(fields, "correlation_id", v)
	}
	if len(fields) > 0 {
		l = l.With(fields...)
	}
	return l
}

func CtxDebug(ctx context.Context, msg string, args ...any) { FromContext(ctx).Debug(msg, args...) }
func CtxInfo(ctx context.Context, msg string, args ...any)  { FromContext(ctx).Info(msg, args...) }
func CtxWarn(ctx context.Context, msg string, args ...any)  { FromContext(ctx).Warn(msg, args...) }
func CtxError(ctx context.Context, msg string, args ...any) { FromContext(ctx).Error(msg, args...) }

func CtxWithError(ctx context.Context, msg string, err error, args ...any) {
	fields := append([]any{"error", errString(err)}, args...)
	FromContext(ctx).Error(msg, fields...)
}

// PublishLog - результат публикации события в шину.
// Ошибка доставки логируется как warning: запрос от нее не падает.
func PublishLog(ctx context.Context, routingKey, recipientID string, err error) {
	fields := []any{
		"routing_key", routingKey,
		"recipient_id", recipientID,
	}
	if err != nil {
		FromContext(ctx).Warn("notification dropped", append(fields, "error", err.Error())...)
		return
	}
	FromContext(ctx).Debug("notification published", fields...)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
