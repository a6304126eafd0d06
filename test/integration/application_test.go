//go:build integration

package integration_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunteer_backend/internal/models"
	"volunteer_backend/internal/notifications"
	"volunteer_backend/internal/services/dto"
	"volunteer_backend/test/helpers"
)

func apply(t *testing.T, ts *helpers.TestServer, token, opportunityID string) dto.ApplicationResponse {
	t.Helper()
	res, raw := ts.SendRequest(t, http.MethodPost, "/applications", token, map[string]interface{}{
		"opportunity_id": opportunityID,
		"message":        "Happy to help",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, raw)

	var app dto.ApplicationResponse
	helpers.DecodeJSON(t, raw, &app)
	return app
}

func setStatus(t *testing.T, ts *helpers.TestServer, token, applicationID, status string) (int, string) {
	t.Helper()
	res, raw := ts.SendRequest(t, http.MethodPatch, "/applications/"+applicationID+"/status", token, map[string]interface{}{
		"status": status,
	})
	return res.StatusCode, raw
}

func TestApplication_Lifecycle(t *testing.T) {
	ts := setup(t)
	ngo, ngoToken := ts.CreateUser(t, "ngo@example.org", helpers.Role(models.UserRoleNGO))
	volunteer, volunteerToken := ts.CreateUser(t, "vol@example.org", helpers.Role(models.UserRoleVolunteer))
	opp := createOpportunity(t, ts, ngoToken, map[string]interface{}{"title": "Library day"})

	app := apply(t, ts, volunteerToken, opp.ID)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)

	created := ts.Recorder.ByKey(notifications.RoutingApplicationNew)
	require.Len(t, created, 1)
	assert.Equal(t, ngo.ID, created[0].Message.Recipient.UserID)
	assert.Equal(t, notifications.TypeNewApplication, created[0].Message.NotificationType)
	assert.Equal(t, "Happy to help", created[0].Message.Payload["message"])

	// повторная заявка
	res, raw := ts.SendRequest(t, http.MethodPost, "/applications", volunteerToken, map[string]interface{}{"opportunity_id": opp.ID})
	assert.Equal(t, http.StatusConflict, res.StatusCode, raw)

	code, raw := setStatus(t, ts, ngoToken, app.ID, "ACCEPTED")
	require.Equal(t, http.StatusOK, code, raw)

	changed := ts.Recorder.ByKey(notifications.RoutingApplicationStatusChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, volunteer.ID, changed[0].Message.Recipient.UserID)
	assert.Equal(t, notifications.TypeApplicationAccepted, changed[0].Message.NotificationType)
	assert.Equal(t, "pending", changed[0].Message.Payload["old_status"])
	assert.Equal(t, "accepted", changed[0].Message.Payload["new_status"])

	// ACCEPTED -> ACCEPTED: без изменений и без события
	code, _ = setStatus(t, ts, ngoToken, app.ID, "accepted")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, ts.Recorder.ByKey(notifications.RoutingApplicationStatusChanged), 1)

	res, raw = ts.SendRequest(t, http.MethodPatch, "/applications/"+app.ID+"/withdraw", volunteerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, raw)

	changed = ts.Recorder.ByKey(notifications.RoutingApplicationStatusChanged)
	require.Len(t, changed, 2)
	assert.Equal(t, ngo.ID, changed[1].Message.Recipient.UserID)
	assert.Equal(t, notifications.TypeApplicationWithdrawn, changed[1].Message.NotificationType)

	// WITHDRAWN терминальный
	code, raw = setStatus(t, ts, ngoToken, app.ID, "accepted")
	assert.Equal(t, http.StatusConflict, code, raw)

	var stored models.Application
	require.NoError(t, ts.DB.First(&stored, "id = ?", app.ID).Error)
	assert.Equal(t, models.ApplicationStatusWithdrawn, stored.Status)
	assert.Equal(t, 3, stored.Version)
}

func TestApplication_OnlyOwnerNGOChangesStatus(t *testing.T) {
	ts := setup(t)
	_, ngoToken := ts.CreateUser(t, "ngo@example.org", helpers.Role(models.UserRoleNGO))
	_, otherToken := ts.CreateUser(t, "other@example.org", helpers.Role(models.UserRoleNGO))
	_, volunteerToken := ts.CreateUser(t, "vol@example.org", helpers.Role(models.UserRoleVolunteer))
	opp := createOpportunity(t, ts, ngoToken, map[string]interface{}{"title": "Food drive"})
	app := apply(t, ts, volunteerToken, opp.ID)

	code, _ := setStatus(t, ts, otherToken, app.ID, "accepted")
	assert.Equal(t, http.StatusForbidden, code)

	res, _ := ts.SendRequest(t, http.MethodGet, "/opportunities/"+opp.ID+"/applications", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	// applicants скрывает чужую возможность
	res, _ = ts.SendRequest(t, http.MethodGet, "/opportunities/"+opp.ID+"/applicants", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, raw := ts.SendRequest(t, http.MethodGet, "/opportunities/"+opp.ID+"/applications", ngoToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, raw)
	var apps []dto.ApplicationResponse
	helpers.DecodeJSON(t, raw, &apps)
	require.Len(t, apps, 1)
	assert.NotNil(t, apps[0].Volunteer)

	res, raw = ts.SendRequest(t, http.MethodGet, "/opportunities/"+opp.ID+"/applicants", ngoToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, raw)
	var applicants []dto.UserResponse
	helpers.DecodeJSON(t, raw, &applicants)
	assert.Len(t, applicants, 1)
}

func TestApplication_MyApplicationsNewestFirst(t *testing.T) {
	ts := setup(t)
	_, ngoToken := ts.CreateUser(t, "ngo@example.org", helpers.Role(models.UserRoleNGO))
	_, volunteerToken := ts.CreateUser(t, "vol@example.org", helpers.Role(models.UserRoleVolunteer))

	first := createOpportunity(t, ts, ngoToken, map[string]interface{}{"title": "Morning shift"})
	second := createOpportunity(t, ts, ngoToken, map[string]interface{}{"title": "Evening shift"})
	apply(t, ts, volunteerToken, first.ID)
	apply(t, ts, volunteerToken, second.ID)

	res, raw := ts.SendRequest(t, http.MethodGet, "/users/me/applications", volunteerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, raw)

	var apps []dto.ApplicationResponse
	helpers.DecodeJSON(t, raw, &apps)
	require.Len(t, apps, 2)
	assert.Equal(t, second.ID, apps[0].OpportunityID)
	require.NotNil(t, apps[0].Opportunity)
	assert.NotNil(t, apps[0].Opportunity.NGO)
}

func TestApplication_ConcurrentDecisionsApplyOnce(t *testing.T) {
	ts := setup(t)
	_, ngoToken := ts.CreateUser(t, "ngo@example.org", helpers.Role(models.UserRoleNGO))
	_, volunteerToken := ts.CreateUser(t, "vol@example.org", helpers.Role(models.UserRoleVolunteer))
	opp := createOpportunity(t, ts, ngoToken, map[string]interface{}{"title": "Marathon water station"})
	app := apply(t, ts, volunteerToken, opp.ID)

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i, status := range []string{"accepted", "rejected"} {
		wg.Add(1)
		go func(i int, status string) {
			defer wg.Done()
			codes[i], _ = setStatus(t, ts, ngoToken, app.ID, status)
		}(i, status)
	}
	wg.Wait()

	ok := 0
	for _, c := range codes {
		if c == http.StatusOK {
			ok++
		} else {
			assert.Equal(t, http.StatusConflict, c)
		}
	}
	assert.Equal(t, 1, ok, "exactly one decision wins: %v", codes)
	assert.Len(t, ts.Recorder.ByKey(notifications.RoutingApplicationStatusChanged), 1)
}

func TestApplication_CompleteExpired(t *testing.T) {
	ts := setup(t)
	ngo, _ := ts.CreateUser(t, "ngo@example.org", helpers.Role(models.UserRoleNGO))
	volunteer, _ := ts.CreateUser(t, "vol@example.org", helpers.Role(models.UserRoleVolunteer))

	ended := time.Now().Add(-24 * time.Hour)
	past := &models.Opportunity{
		Title: "Yesterday's fair", Description: "Done", NGOID: ngo.ID,
		StartDate: ended.Add(-48 * time.Hour), EndDate: &ended,
	}
	require.NoError(t, ts.DB.Omit("NGO", "Applications").Create(past).Error)

	accepted := &models.Application{VolunteerID: volunteer.ID, OpportunityID: past.ID, Status: models.ApplicationStatusAccepted, Version: 1}
	require.NoError(t, ts.DB.Omit("Volunteer", "Opportunity").Create(accepted).Error)

	other, _ := ts.CreateUser(t, "other-vol@example.org", helpers.Role(models.UserRoleVolunteer))
	pending := &models.Application{VolunteerID: other.ID, OpportunityID: past.ID, Status: models.ApplicationStatusPending, Version: 1}
	require.NoError(t, ts.DB.Omit("Volunteer", "Opportunity").Create(pending).Error)

	n, err := ts.Services.ApplicationService.CompleteExpired(context.Background(), ts.DB, time.Now(), 50)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var reloaded models.Application
	require.NoError(t, ts.DB.First(&reloaded, "id = ?", accepted.ID).Error)
	assert.Equal(t, models.ApplicationStatusCompleted, reloaded.Status)

	require.NoError(t, ts.DB.First(&reloaded, "id = ?", pending.ID).Error)
	assert.Equal(t, models.ApplicationStatusPending, reloaded.Status)

	changed := ts.Recorder.ByKey(notifications.RoutingApplicationStatusChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, notifications.TypeApplicationCompleted, changed[0].Message.NotificationType)
	assert.Equal(t, volunteer.ID, changed[0].Message.Recipient.UserID)
}
