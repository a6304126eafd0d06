package contextkeys

type contextKey string

const (
	// DBContextKey - *gorm.DB запроса
	DBContextKey = contextKey("db")
	// ClaimsContextKey - JWT claims аутентифицированного пользователя
	ClaimsContextKey = contextKey("claims")
)
