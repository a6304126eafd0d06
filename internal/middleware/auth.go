package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"volunteer_backend/internal/auth"
	"volunteer_backend/internal/logger"
	"volunteer_backend/internal/models"
	"volunteer_backend/pkg/apperrors"
	"volunteer_backend/pkg/contextkeys"
)

const (
	userIDKey = "userID"
	roleKey   = "role"
)

// AuthMiddleware - обязательный Bearer токен
func AuthMiddleware(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			return
		}

		claims, err := tokens.ParseToken(tokenStr)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				apperrors.HandleError(c, apperrors.New(apperrors.CodeTokenExpired, "auth", "Token expired", 401))
				return
			}
			apperrors.HandleError(c, apperrors.New(apperrors.CodeInvalidToken, "auth", "Invalid token", 401))
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware - публичный маршрут; валидный токен включает fallback на профиль.
// Невалидный токен игнорируется.
func OptionalAuthMiddleware(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearerToken(c); ok {
			if claims, err := tokens.ParseToken(tokenStr); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRoles - доступ только для перечисленных ролей
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			apperrors.HandleError(c, apperrors.NewForbiddenError("Access denied: role is not set, complete your profile"))
			return
		}
		if _, ok := allowed[role]; !ok {
			apperrors.HandleError(c, apperrors.NewForbiddenError("Access denied: insufficient role"))
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func GetRole(c *gin.Context) (models.UserRole, bool) {
	role, ok := c.Get(roleKey)
	if !ok {
		return "", false
	}
	r, ok := role.(models.UserRole)
	return r, ok && r != ""
}

func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(string(contextkeys.ClaimsContextKey))
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(userIDKey, claims.UserID)
	if claims.Role != "" {
		c.Set(roleKey, models.UserRole(claims.Role))
	}
	c.Set(string(contextkeys.ClaimsContextKey), claims)
	c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}
