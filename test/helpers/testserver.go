//go:build integration

package helpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"volunteer_backend/internal/auth"
	"volunteer_backend/internal/handlers"
	"volunteer_backend/internal/metrics"
	"volunteer_backend/internal/models"
	"volunteer_backend/internal/notifications"
	"volunteer_backend/internal/routes"
	"volunteer_backend/internal/services"
	"volunteer_backend/internal/validator"
)

// TestServer - полный HTTP стек поверх тестовой БД; уведомления пишутся в Recorder
type TestServer struct {
	Server   *httptest.Server
	DB       *gorm.DB
	Services *services.ServiceContainer
	Tokens   *auth.Manager
	Recorder *RecordingDispatcher
	Metrics  *metrics.Metrics
}

func NewTestServer(db *gorm.DB) *TestServer {
	gin.SetMode(gin.TestMode)

	recorder := NewRecordingDispatcher()
	m := metrics.New()
	tokens := auth.NewManager("integration-test-secret", time.Hour)
	notifier := notifications.NewNotifier(recorder, notifications.WithMetrics(m))

	svc := services.NewServiceContainer(
		services.NewRepositoryContainer(), notifier, tokens, nil, m,
		services.Settings{QueryTimeout: 5 * time.Second, DefaultRadiusKm: 20, MaxPageSize: 100},
	)
	router := routes.SetupRouter(routes.Deps{
		DB:       db,
		Handlers: handlers.NewAppHandlers(svc, validator.New(), tokens),
		Metrics:  m,
	})

	return &TestServer{
		Server:   httptest.NewServer(router),
		DB:       db,
		Services: svc,
		Tokens:   tokens,
		Recorder: recorder,
		Metrics:  m,
	}
}

func (ts *TestServer) Close() {
	ts.Server.Close()
}

// CreateUser сохраняет пользователя и возвращает его вместе с токеном
func (ts *TestServer) CreateUser(t *testing.T, email string, role *models.UserRole, mutate ...func(*models.User)) (*models.User, string) {
	t.Helper()
	user := models.NewUser(email, email)
	user.Role = role
	for _, fn := range mutate {
		fn(user)
	}
	require.NoError(t, ts.DB.Create(user).Error, "create user %s", email)

	token, err := ts.Tokens.GenerateToken(user)
	require.NoError(t, err)
	return user, token
}

// SendRequest отправляет JSON запрос и возвращает ответ и тело
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err, "encode request body")
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(raw)
}

// DecodeJSON - тело ответа в v
func DecodeJSON(t *testing.T, body string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(body), v), "decode: %s", body)
}

func Role(r models.UserRole) *models.UserRole {
	return &r
}

func F64(v float64) *float64 {
	return &v
}
