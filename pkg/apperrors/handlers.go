package apperrors

import (
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"volunteer_backend/internal/logger"
)

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

var debugMode atomic.Bool

// SetDebug включает вывод деталей внутренних ошибок (server.debug в конфиге)
func SetDebug(debug bool) {
	debugMode.Store(debug)
}

// HandleError - единая точка ответа об ошибке для Gin
func HandleError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	if appErr.HTTPCode >= 500 {
		logger.CtxWithError(c.Request.Context(), "Server error", err,
			"path", c.FullPath(),
			"code", appErr.Code,
		)
		if !debugMode.Load() {
			// В продакшене скрываем детали
			appErr = New(appErr.Code, appErr.Domain, "Internal server error", appErr.HTTPCode)
		} else if appErr.Err != nil && appErr.Details == nil {
			appErr = New(appErr.Code, appErr.Domain, appErr.Message, appErr.HTTPCode).WithDetails(appErr.Err.Error())
		}
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}

// AsAppError - пытается преобразовать error в *AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HandleValidationError - ошибки биндинга/валидации Gin
func HandleValidationError(c *gin.Context, err error) {
	HandleError(c, ValidationError(gin.H{"details": err.Error()}))
}
