package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"volunteer_backend/internal/metrics"
	"volunteer_backend/internal/models"
	"volunteer_backend/internal/notifications"
	notifmocks "volunteer_backend/internal/notifications/mocks"
	"volunteer_backend/internal/repositories/mocks"
	"volunteer_backend/internal/services"
)

var testSettings = services.Settings{
	QueryTimeout:    time.Second,
	DefaultRadiusKm: 20,
	MaxPageSize:     100,
}

// testDB - *gorm.DB без соединения: репозитории замоканы, запросы не выполняются
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=test password=test dbname=test port=5432 sslmode=disable",
	}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	require.NoError(t, err)
	return db
}

type env struct {
	db            *gorm.DB
	users         *mocks.MockUserRepository
	opportunities *mocks.MockOpportunityRepository
	applications  *mocks.MockApplicationRepository
	dispatcher    *notifmocks.MockDispatcher
	notifier      *notifications.Notifier
	metrics       *metrics.Metrics
}

func newEnv(t *testing.T) *env {
	ctrl := gomock.NewController(t)
	dispatcher := notifmocks.NewMockDispatcher(ctrl)
	m := metrics.New()
	return &env{
		db:            testDB(t),
		users:         mocks.NewMockUserRepository(ctrl),
		opportunities: mocks.NewMockOpportunityRepository(ctrl),
		applications:  mocks.NewMockApplicationRepository(ctrl),
		dispatcher:    dispatcher,
		notifier:      notifications.NewNotifier(dispatcher, notifications.WithMetrics(m)),
		metrics:       m,
	}
}

func role(r models.UserRole) *models.UserRole { return &r }

func f64(v float64) *float64 { return &v }

func newUser(id string, r models.UserRole) *models.User {
	u := models.NewUser(id+"@example.org", "User "+id)
	u.ID = id
	u.Role = role(r)
	return u
}

func newOpportunity(id string, ngo *models.User) *models.Opportunity {
	o := &models.Opportunity{
		Title:       "Beach cleanup",
		Description: "Collect plastic on the beach",
		StartDate:   time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC),
		NGOID:       ngo.ID,
		NGO:         ngo,
		Categories:  []string{"environment"},
	}
	o.ID = id
	return o
}

func newApplication(id string, volunteer *models.User, opp *models.Opportunity, status models.ApplicationStatus, version int) *models.Application {
	a := &models.Application{
		VolunteerID:   volunteer.ID,
		OpportunityID: opp.ID,
		Status:        status,
		Version:       version,
		Volunteer:     volunteer,
		Opportunity:   opp,
	}
	a.ID = id
	return a
}
