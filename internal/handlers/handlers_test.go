package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"volunteer_backend/internal/algorithms"
	"volunteer_backend/internal/auth"
	"volunteer_backend/internal/handlers"
	"volunteer_backend/internal/middleware"
	"volunteer_backend/internal/models"
	"volunteer_backend/internal/notifications"
	"volunteer_backend/internal/repositories/mocks"
	"volunteer_backend/internal/services"
	"volunteer_backend/internal/validator"
)

const (
	ngoID       = "0d5f7c8e-1111-4a7e-9c3b-000000000001"
	volunteerID = "0d5f7c8e-2222-4a7e-9c3b-000000000002"
	oppID       = "0d5f7c8e-3333-4a7e-9c3b-000000000003"
	appID       = "0d5f7c8e-4444-4a7e-9c3b-000000000004"
)

type testServer struct {
	router        *gin.Engine
	tokens        *auth.Manager
	users         *mocks.MockUserRepository
	opportunities *mocks.MockOpportunityRepository
	applications  *mocks.MockApplicationRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctrl := gomock.NewController(t)
	ts := &testServer{
		tokens:        auth.NewManager("handler-test-secret", time.Hour),
		users:         mocks.NewMockUserRepository(ctrl),
		opportunities: mocks.NewMockOpportunityRepository(ctrl),
		applications:  mocks.NewMockApplicationRepository(ctrl),
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=test password=test dbname=test port=5432 sslmode=disable",
	}), &gorm.Config{DisableAutomaticPing: true, Logger: gormlogger.Discard})
	require.NoError(t, err)

	repos := &services.RepositoryContainer{
		Users:         ts.users,
		Opportunities: ts.opportunities,
		Applications:  ts.applications,
	}
	notifier := notifications.NewNotifier(notifications.NewLogDispatcher())
	svc := services.NewServiceContainer(repos, notifier, ts.tokens, nil, nil, services.Settings{QueryTimeout: time.Second})

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware(), middleware.DBMiddleware(db))
	handlers.NewAppHandlers(svc, validator.New(), ts.tokens).RegisterRoutes(&router.RouterGroup)
	ts.router = router

	return ts
}

func (ts *testServer) token(t *testing.T, id string, role models.UserRole) string {
	t.Helper()
	u := models.NewUser(id+"@example.org", "Test")
	u.ID = id
	if role != "" {
		u.Role = &role
	}
	token, err := ts.tokens.GenerateToken(u)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Domain  string         `json:"domain"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGetOpportunity_InvalidID(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/opportunities/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOpportunity_AuthAndRoles(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]any{"title": "Beach cleanup", "description": "d", "start_date": "2025-08-01T09:00:00Z"}

	w := ts.do(t, http.MethodPost, "/opportunities", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/opportunities", ts.token(t, volunteerID, models.UserRoleVolunteer), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// без роли (профиль не завершен)
	w = ts.do(t, http.MethodPost, "/opportunities", ts.token(t, ngoID, ""), body)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateOpportunity_ValidationErrors(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/opportunities", ts.token(t, ngoID, models.UserRoleNGO), map[string]any{
		"description": "d",
		"start_date":  "2025-08-01T09:00:00Z",
		"categories":  []string{"cooking"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeError(t, w)
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	assert.Contains(t, body.Error.Details, "title")
	assert.Contains(t, body.Error.Details, "categories[0]")
}

func TestSearchOpportunities(t *testing.T) {
	t.Run("negative radius", func(t *testing.T) {
		ts := newTestServer(t)
		w := ts.do(t, http.MethodGet, "/opportunities?latitude=1&longitude=2&radiusKm=-1", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("NaN radius", func(t *testing.T) {
		ts := newTestServer(t)
		w := ts.do(t, http.MethodGet, "/opportunities?latitude=1&longitude=2&radiusKm=NaN", "", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeError(t, w).Error.Details, "radiusKm")
	})

	t.Run("invalid sort field", func(t *testing.T) {
		ts := newTestServer(t)
		w := ts.do(t, http.MethodGet, "/opportunities?sortBy=popularity", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("anonymous search with explicit filters", func(t *testing.T) {
		ts := newTestServer(t)
		ts.opportunities.EXPECT().Search(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ *gorm.DB, p algorithms.SearchPlan) (*algorithms.SearchResult, error) {
				assert.Equal(t, []string{"education", "health"}, p.Categories)
				assert.Equal(t, algorithms.SortByTitle, p.SortBy)
				assert.Equal(t, algorithms.SortAsc, p.SortOrder)
				return &algorithms.SearchResult{Total: 0}, nil
			})

		w := ts.do(t, http.MethodGet, "/opportunities?categories=education,health&sortBy=title&sortOrder=ASC", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, float64(0), resp["total"])
		assert.Equal(t, []any{}, resp["data"])
	})

	t.Run("invalid token on public route is ignored", func(t *testing.T) {
		ts := newTestServer(t)
		ts.opportunities.EXPECT().Search(gomock.Any(), gomock.Any()).Return(&algorithms.SearchResult{}, nil)

		w := ts.do(t, http.MethodGet, "/opportunities", "garbage", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestDeleteOpportunity_ReasonRequired(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodDelete, "/opportunities/"+oppID, ts.token(t, ngoID, models.UserRoleNGO), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateApplicationStatus_UnknownStatus(t *testing.T) {
	ts := newTestServer(t)

	ngo := models.NewUser("ngo@example.org", "NGO")
	ngo.ID = ngoID
	opp := &models.Opportunity{NGOID: ngoID, NGO: ngo, Title: "t"}
	opp.ID = oppID
	app := &models.Application{VolunteerID: volunteerID, OpportunityID: oppID, Status: models.ApplicationStatusPending, Version: 1, Opportunity: opp}
	app.ID = appID
	ts.applications.EXPECT().FindByID(gomock.Any(), appID).Return(app, nil)

	w := ts.do(t, http.MethodPatch, "/applications/"+appID+"/status", ts.token(t, ngoID, models.UserRoleNGO),
		map[string]string{"status": "archived"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application", decodeError(t, w).Error.Domain)
}

func TestWithdrawApplication_TerminalIsConflict(t *testing.T) {
	ts := newTestServer(t)

	ngo := models.NewUser("ngo@example.org", "NGO")
	ngo.ID = ngoID
	vol := models.NewUser("vol@example.org", "Vol")
	vol.ID = volunteerID
	opp := &models.Opportunity{NGOID: ngoID, NGO: ngo, Title: "t"}
	opp.ID = oppID
	app := &models.Application{VolunteerID: volunteerID, OpportunityID: oppID, Status: models.ApplicationStatusCompleted, Version: 3, Volunteer: vol, Opportunity: opp}
	app.ID = appID

	ts.applications.EXPECT().FindByID(gomock.Any(), appID).Return(app, nil)

	w := ts.do(t, http.MethodPatch, "/applications/"+appID+"/withdraw", ts.token(t, volunteerID, models.UserRoleVolunteer), nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATUS", decodeError(t, w).Error.Code)
}

func TestMyApplications_VolunteerOnly(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/users/me/applications", ts.token(t, ngoID, models.UserRoleNGO), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCompleteProfile_RoleValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, volunteerID, "")

	w := ts.do(t, http.MethodPatch, "/users/me/complete-profile", token, map[string]string{"role": "superhero"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Error.Details, "role")

	w = ts.do(t, http.MethodPatch, "/users/me/complete-profile", token, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
