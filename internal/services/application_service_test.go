package services_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"

	"volunteer_backend/internal/models"
	"volunteer_backend/internal/notifications"
	"volunteer_backend/internal/repositories"
	"volunteer_backend/internal/services"
	"volunteer_backend/internal/services/dto"
	"volunteer_backend/pkg/apperrors"
)

func (e *env) applicationService() services.ApplicationService {
	return services.NewApplicationService(e.applications, e.opportunities, e.users, e.notifier, e.metrics, testSettings)
}

// stored возвращает свежую копию заявки на каждое чтение, как это делает БД
func stored(app *models.Application) func(*gorm.DB, string) (*models.Application, error) {
	return func(*gorm.DB, string) (*models.Application, error) {
		cp := *app
		return &cp, nil
	}
}

func TestCreateApplication(t *testing.T) {
	ngo := newUser("ngo-1", models.UserRoleNGO)
	vol := newUser("vol-1", models.UserRoleVolunteer)
	opp := newOpportunity("opp-1", ngo)
	req := &dto.CreateApplicationRequest{OpportunityID: opp.ID}

	t.Run("only volunteers can apply", func(t *testing.T) {
		e := newEnv(t)
		e.opportunities.EXPECT().FindByID(gomock.Any(), opp.ID).Return(opp, nil)
		e.users.EXPECT().FindByID(gomock.Any(), ngo.ID).Return(ngo, nil)

		_, err := e.applicationService().CreateApplication(context.Background(), e.db, ngo.ID, req)
		assert.Equal(t, http.StatusForbidden, apperrors.HTTPStatus(err))
	})

	t.Run("unknown opportunity", func(t *testing.T) {
		e := newEnv(t)
		e.opportunities.EXPECT().FindByID(gomock.Any(), opp.ID).Return(nil, repositories.ErrOpportunityNotFound)

		_, err := e.applicationService().CreateApplication(context.Background(), e.db, vol.ID, req)
		assert.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(err))
	})

	t.Run("unknown opportunity wins over wrong role", func(t *testing.T) {
		e := newEnv(t)
		e.opportunities.EXPECT().FindByID(gomock.Any(), opp.ID).Return(nil, repositories.ErrOpportunityNotFound)

		_, err := e.applicationService().CreateApplication(context.Background(), e.db, ngo.ID, req)
		assert.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(err))
	})

	t.Run("duplicate", func(t *testing.T) {
		e := newEnv(t)
		e.users.EXPECT().FindByID(gomock.Any(), vol.ID).Return(vol, nil)
		e.opportunities.EXPECT().FindByID(gomock.Any(), opp.ID).Return(opp, nil)
		e.applications.EXPECT().Exists(gomock.Any(), vol.ID, opp.ID).Return(true, nil)

		_, err := e.applicationService().CreateApplication(context.Background(), e.db, vol.ID, req)
		assert.Equal(t, http.StatusConflict, apperrors.HTTPStatus(err))
	})

	t.Run("duplicate caught by unique index", func(t *testing.T) {
		e := newEnv(t)
		e.users.EXPECT().FindByID(gomock.Any(), vol.ID).Return(vol, nil)
		e.opportunities.EXPECT().FindByID(gomock.Any(), opp.ID).Return(opp, nil)
		e.applications.EXPECT().Exists(gomock.Any(), vol.ID, opp.ID).Return(false, nil)
		e.applications.EXPECT().Create(gomock.Any(), gomock.Any()).Return(repositories.ErrApplicationExists)

		_, err := e.applicationService().CreateApplication(context.Background(), e.db, vol.ID, req)
		assert.Equal(t, http.StatusConflict, apperrors.HTTPStatus(err))
	})

	t.Run("created and NGO notified", func(t *testing.T) {
		e := newEnv(t)
		e.users.EXPECT().FindByID(gomock.Any(), vol.ID).Return(vol, nil)
		e.opportunities.EXPECT().FindByID(gomock.Any(), opp.ID).Return(opp, nil)
		e.applications.EXPECT().Exists(gomock.Any(), vol.ID, opp.ID).Return(false, nil)
		e.applications.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ *gorm.DB, app *models.Application) error {
				assert.Equal(t, models.ApplicationStatusPending, app.Status)
				app.ID = "app-1"
				return nil
			})
		e.dispatcher.EXPECT().Publish(gomock.Any(), notifications.RoutingApplicationNew, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ notifications.RoutingKey, msg notifications.Message) error {
				assert.Equal(t, ngo.ID, msg.Recipient.UserID)
				assert.Equal(t, notifications.TypeNewApplication, msg.NotificationType)
				return nil
			})

		resp, err := e.applicationService().CreateApplication(context.Background(), e.db, vol.ID, req)
		require.NoError(t, err)
		assert.Equal(t, "app-1", resp.ID)
		assert.Equal(t, models.ApplicationStatusPending, resp.Status)
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		e := newEnv(t)
		e.users.EXPECT().FindByID(gomock.Any(), vol.ID).Return(vol, nil)
		e.opportunities.EXPECT().FindByID(gomock.Any(), opp.ID).Return(opp, nil)
		e.applications.EXPECT().Exists(gomock.Any(), vol.ID, opp.ID).Return(false, nil)
		e.applications.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		e.dispatcher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("broker down")).Times(2)

		_, err := e.applicationService().CreateApplication(context.Background(), e.db, vol.ID, req)
		require.NoError(t, err)
	})
}

func TestUpdateApplicationStatus(t *testing.T) {
	ngo := newUser("ngo-1", models.UserRoleNGO)
	vol := newUser("vol-1", models.UserRoleVolunteer)
	opp := newOpportunity("opp-1", ngo)

	t.Run("unknown status", func(t *testing.T) {
		e := newEnv(t)
		app := newApplication("app-1", vol, opp, models.ApplicationStatusPending, 1)
		e.applications.EXPECT().FindByID(gomock.Any(), "app-1").DoAndReturn(stored(app))

		_, err := e.applicationService().UpdateApplicationStatus(context.Background(), e.db, ngo.ID, "app-1", "archived")
		assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
	})

	t.Run("unknown status on missing application is not found", func(t *testing.T) {
		e := newEnv(t)
		e.applications.EXPECT().FindByID(gomock.Any(), "app-x").Return(nil, repositories.ErrApplicationNotFound)

		_, err := e.applicationService().UpdateApplicationStatus(context.Background(), e.db, ngo.ID, "app-x", "archived")
		assert.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(err))
	})

	t.Run("unknown status from foreign NGO is forbidden", func(t *testing.T) {
		e := newEnv(t)
		app := newApplication("app-1", vol, opp, models.ApplicationStatusPending, 1)
		e.applications.EXPECT().FindByID(gomock.Any(), "app-1").DoAndReturn(stored(app))

		_, err := e.applicationService().UpdateApplicationStatus(context.Background(), e.db, "ngo-2", "app-1", "archived")
		assert.Equal(t, http.StatusForbidden, apperrors.HTTPStatus(err))
	})

	t.Run("application not found", func(t *testing.T) {
		e := newEnv(t)
		e.applications.EXPECT().FindByID(gomock.Any(), "app-x").Return(nil, repositories.ErrApplicationNotFound)
		_, err := e.applicationService().UpdateApplicationStatus(context.Background(), e.db, ngo.ID, "app-x", "accepted")
		assert.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(err))
	})

	t.Run("foreign NGO", func(t *testing.T) {
		e := newEnv(t)
		app := newApplication("app-1", vol, opp, models.ApplicationStatusPending, 1)
		e.applications.EXPECT().FindByID(gomock.Any(), "app-1").DoAndReturn(stored(app))

		_, err := e.applicationService().UpdateApplicationStatus(context.Background(), e.db, "ngo-2", "app-1", "accepted")
		assert.Equal(t, http.StatusForbidden, apperrors.HTTPStatus(err))
	})

	t.Run("pending to accepted", func(t *testing.T) {
		e := newEnv(t)
		app := newApplication("app-1", vol, opp, models.ApplicationStatusPending, 3)
		e.applications.EXPECT().FindByID(gomock.Any(), "app-1").DoAndReturn(stored(app))
		e.applications.EXPECT().UpdateStatus(gomock.Any(), "app-1", 3, models.ApplicationStatusAccepted).Return(nil)
		e.dispatcher.EXPECT().Publish(gomock.Any(), notifications.RoutingApplicationStatusChanged, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ notifications.RoutingKey, msg notifications.Message) error {
				assert.Equal(t, vol.ID, msg.Recipient.UserID)
				assert.Equal(t, notifications.TypeApplicationAccepted, msg.NotificationType)
				return nil
			})

		resp, err := e.applicationService().UpdateApplicationStatus(context.Background(), e.db, ngo.ID, "app-1", "ACCEPTED")
		require.NoError(t, err)
		assert.Equal(t, models.ApplicationStatusAccepted, resp.Status)
		assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.Transitions.WithLabelValues("pending", "accepted")))
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		e := newEnv(t)
		app := newApplication("app-1", vol, opp, models.ApplicationStatusAccepted, 2)
		e.applications.EXPECT().FindByID(gomock.Any(), "app-1").DoAndReturn(stored(app))

		resp, err := e.applicationService().UpdateApplicationStatus(context.Background(), e.db, ngo.ID, "app-1", "accepted")
		require.NoError(t, err)
		assert.Equal(t, models.ApplicationStatusAccepted, resp.Status)
	})

	t.Run("terminal status", func(t *testing.T) {
		e := newEnv(t)
		app := newApplication("app-1", vol, opp, models.ApplicationStatusRejected, 2)
		e.applications.EXPECT().FindByID(gomock.Any(), "app-1").DoAndReturn(stored(app))

		_, err := e.applicationService().UpdateApplicationStatus(context.Background(), e.db, ngo.ID, "app-1", "accepted")
		assert.Equal(t, http.StatusConflict, apperrors.HTTPStatus(err))
	})

	t.Run("transition outside the table", func(t *testing.T) {
		e := newEnv(t)
		app := newApplication("app-1", vol, opp, models.ApplicationStatusAccepted, 2)
		e.applications.EXPECT().FindByID(gomock.Any(), "app-1").DoAndReturn(stored(app))

		_, err := e.applicationService().UpdateApplicationStatus(context.Background(), e.db, ngo.ID, "app-1", "pending")
		assert.Equal(t, http.StatusConflict, apperrors.HTTPStatus(err))
	})

	t.Run("completed from terminal is allowed", func(t *testing.T) {
		e := newEnv(t)
		app := newApplication("app-1", vol, opp, models.ApplicationStatusWithdrawn, 4)
		e.applications.EXPECT().FindByID(gomock.Any(), "app-1").DoAndReturn(stored(app))
		e.applications.EXPECT().UpdateStatus(gomock.Any(), "app-1", 4, models.ApplicationStatusCompleted).Return(nil)
		e.dispatcher.EXPECT().Publish(gomock.Any(), notifications.RoutingApplicationStatusChanged, gomock.Any()).Return(nil)

		resp, err := e.applicationService().UpdateApplicationStatus(context.Background(), e.db, ngo.ID, "app-1", "completed")
		require.NoError(t, err)
		assert.Equal(t, models.ApplicationStatusCompleted, resp.Status)
	})
}

func TestUpdateApplicationStatus_VersionConflict(t *testing.T) {
	ngo := newUser("ngo-1", models.UserRoleNGO)
	vol := newUser("vol-1", models.UserRoleVolunteer)
	opp := newOpportunity("opp-1", ngo)

	t.Run("re-read and re-validate once", func(t *testing.T) {
		e := newEnv(t)
		first := newApplication("app-1", vol, opp, models.ApplicationStatusPending, 1)
		// между чтением и записью волонтер отозвал заявку
		second := newApplication("app-1", vol, opp, models.ApplicationStatusWithdrawn, 2)

		gomock.InOrder(
			e.applications.EXPECT().FindByID(gomock.Any(), "app-1").DoAndReturn(stored(first)),
			e.applications.EXPECT().UpdateStatus(gomock.Any(), "app-1", 1, models.ApplicationStatusAccepted).Return(repositories.ErrVersionConflict),
			e.applications.EXPECT().FindByID(gomock.Any(), "app-1").DoAndReturn(stored(second)),
		)

		_, err := e.applicationService().UpdateApplicationStatus(context.Background(), e.db, ngo.ID, "app-1", "accepted")
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeInvalidStatus, appErr.Code)
	})

	t.Run("second conflict is reported", func(t *testing.T) {
		e := newEnv(t)
		app := newApplication("app-1", vol, opp, models.ApplicationStatusPending, 1)
		e.applications.EXPECT().FindByID(gomock.Any(), "app-1").DoAndReturn(stored(app)).Times(2)
		e.applications.EXPECT().UpdateStatus(gomock.Any(), "app-1", 1, models.ApplicationStatusAccepted).
			Return(repositories.ErrVersionConflict).Times(2)

		_, err := e.applicationService().UpdateApplicationStatus(context.Background(), e.db, ngo.ID, "app-1", "accepted")
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeConflict, appErr.Code)
		assert.Equal(t, http.StatusConflict, appErr.HTTPCode)
	})
}

func TestWithdrawApplication(t *testing.T) {
	ngo := newUser("ngo-1", models.UserRoleNGO)
	vol := newUser("vol-1", models.UserRoleVolunteer)
	opp := newOpportunity("opp-1", ngo)

	t.Run("not the owner", func(t *testing.T) {
		e := newEnv(t)
		app := newApplication("app-1", vol, opp, models.ApplicationStatusPending, 1)
		e.applications.EXPECT().FindByID(gomock.Any(), "app-1").DoAndReturn(stored(app))

		_, err := e.applicationService().WithdrawApplication(context.Background(), e.db, "vol-2", "app-1")
		assert.Equal(t, http.StatusForbidden, apperrors.HTTPStatus(err))
	})

	t.Run("already rejected", func(t *testing.T) {
		e := newEnv(t)
		app := newApplication("app-1", vol, opp, models.ApplicationStatusRejected, 2)
		e.applications.EXPECT().FindByID(gomock.Any(), "app-1").DoAndReturn(stored(app))

		_, err := e.applicationService().WithdrawApplication(context.Background(), e.db, vol.ID, "app-1")
		assert.Equal(t, http.StatusConflict, apperrors.HTTPStatus(err))
	})

	t.Run("accepted application withdrawn, NGO notified", func(t *testing.T) {
		e := newEnv(t)
		app := newApplication("app-1", vol, opp, models.ApplicationStatusAccepted, 2)
		e.applications.EXPECT().FindByID(gomock.Any(), "app-1").DoAndReturn(stored(app))
		e.applications.EXPECT().UpdateStatus(gomock.Any(), "app-1", 2, models.ApplicationStatusWithdrawn).Return(nil)
		e.dispatcher.EXPECT().Publish(gomock.Any(), notifications.RoutingApplicationStatusChanged, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ notifications.RoutingKey, msg notifications.Message) error {
				assert.Equal(t, ngo.ID, msg.Recipient.UserID)
				assert.Equal(t, notifications.TypeApplicationWithdrawn, msg.NotificationType)
				return nil
			})

		resp, err := e.applicationService().WithdrawApplication(context.Background(), e.db, vol.ID, "app-1")
		require.NoError(t, err)
		assert.Equal(t, models.ApplicationStatusWithdrawn, resp.Status)
	})
}

func TestListOpportunityApplications_OwnerOnly(t *testing.T) {
	e := newEnv(t)
	ngo := newUser("ngo-1", models.UserRoleNGO)
	e.opportunities.EXPECT().FindByID(gomock.Any(), "opp-1").Return(newOpportunity("opp-1", ngo), nil).Times(2)
	e.applications.EXPECT().ListByOpportunity(gomock.Any(), "opp-1").Return([]models.Application{}, nil)

	svc := e.applicationService()
	_, err := svc.ListOpportunityApplications(context.Background(), e.db, "ngo-2", "opp-1")
	assert.Equal(t, http.StatusForbidden, apperrors.HTTPStatus(err))

	apps, err := svc.ListOpportunityApplications(context.Background(), e.db, ngo.ID, "opp-1")
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestCompleteExpired_ContinuesPastFailures(t *testing.T) {
	e := newEnv(t)
	ngo := newUser("ngo-1", models.UserRoleNGO)
	vol := newUser("vol-1", models.UserRoleVolunteer)
	opp := newOpportunity("opp-1", ngo)
	now := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	ok := newApplication("app-ok", vol, opp, models.ApplicationStatusAccepted, 1)
	gone := newApplication("app-gone", vol, opp, models.ApplicationStatusAccepted, 1)

	e.applications.EXPECT().FindAcceptedOfEndedOpportunities(gomock.Any(), now, 50).
		Return([]models.Application{*gone, *ok}, nil)
	e.applications.EXPECT().FindByID(gomock.Any(), "app-gone").Return(nil, repositories.ErrApplicationNotFound)
	e.applications.EXPECT().FindByID(gomock.Any(), "app-ok").DoAndReturn(stored(ok))
	e.applications.EXPECT().UpdateStatus(gomock.Any(), "app-ok", 1, models.ApplicationStatusCompleted).Return(nil)
	e.dispatcher.EXPECT().Publish(gomock.Any(), notifications.RoutingApplicationStatusChanged, gomock.Any()).Return(nil)

	n, err := e.applicationService().CompleteExpired(context.Background(), e.db, now, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
