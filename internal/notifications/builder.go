package notifications

import (
	"errors"
	"fmt"
	"strings"

	"volunteer_backend/internal/models"
)

var (
	ErrMissingRelation = errors.New("notification: related entity is not loaded")
	ErrNoStatusChange  = errors.New("notification: status did not change")
	ErrMissingReason   = errors.New("notification: deletion reason is required")
)

// EventBuilder определяет получателя и собирает payload. Чистые функции без I/O.
type EventBuilder struct{}

func NewEventBuilder() *EventBuilder {
	return &EventBuilder{}
}

// ============================================================================
// Applications
// ============================================================================

// ApplicationCreated - получатель: НКО, разместившая возможность
func (b *EventBuilder) ApplicationCreated(app *models.Application, volunteer *models.User, opp *models.Opportunity) (Event, error) {
	if volunteer == nil || opp == nil || opp.NGO == nil {
		return Event{}, fmt.Errorf("%w: application %s", ErrMissingRelation, app.ID)
	}

	payload := Payload{
		"title":             "New application",
		"subject":           fmt.Sprintf("New application for %s", opp.Title),
		"body":              fmt.Sprintf("%s applied to your opportunity %q.", displayName(volunteer), opp.Title),
		"deep_link":         opportunityApplicationsLink(opp.ID),
		"application_id":    app.ID,
		"volunteer_id":      volunteer.ID,
		"volunteer_name":    volunteer.Name,
		"volunteer_email":   volunteer.Email,
		"opportunity_id":    opp.ID,
		"opportunity_title": opp.Title,
		"ngo_id":            opp.NGO.ID,
		"ngo_email":         opp.NGO.Email,
	}
	if app.Message != nil && *app.Message != "" {
		payload["message"] = *app.Message
	}

	return Event{
		RoutingKey: RoutingApplicationNew,
		Messages: []Message{{
			NotificationType: TypeNewApplication,
			Recipient:        RecipientFrom(opp.NGO),
			Payload:          payload,
		}},
	}, nil
}

// ApplicationStatusChanged: ACCEPTED/REJECTED/COMPLETED - волонтеру, WITHDRAWN - НКО.
// Одинаковые статусы - ErrNoStatusChange, событие не создается.
func (b *EventBuilder) ApplicationStatusChanged(app *models.Application, oldStatus, newStatus models.ApplicationStatus, volunteer *models.User, opp *models.Opportunity) (Event, error) {
	if oldStatus == newStatus {
		return Event{}, ErrNoStatusChange
	}
	if volunteer == nil || opp == nil || opp.NGO == nil {
		return Event{}, fmt.Errorf("%w: application %s", ErrMissingRelation, app.ID)
	}

	recipient, counterpart := volunteer, opp.NGO
	link := applicationLink(app.ID)
	if newStatus == models.ApplicationStatusWithdrawn {
		recipient, counterpart = opp.NGO, volunteer
		link = opportunityApplicationsLink(opp.ID)
	}

	nType := statusNotificationType(newStatus)
	title, body := statusText(newStatus, opp.Title, displayName(volunteer))

	payload := Payload{
		"title":             title,
		"subject":           fmt.Sprintf("%s: %s", title, opp.Title),
		"body":              body,
		"deep_link":         link,
		"application_id":    app.ID,
		"old_status":        string(oldStatus),
		"new_status":        string(newStatus),
		"volunteer_id":      volunteer.ID,
		"volunteer_name":    volunteer.Name,
		"ngo_id":            opp.NGO.ID,
		"ngo_name":          opp.NGO.Name,
		"ngo_email":         opp.NGO.Email,
		"opportunity_id":    opp.ID,
		"opportunity_title": opp.Title,
		"counterpart_id":    counterpart.ID,
		"counterpart_name":  counterpart.Name,
	}

	return Event{
		RoutingKey: RoutingApplicationStatusChanged,
		Messages: []Message{{
			NotificationType: nType,
			Recipient:        RecipientFrom(recipient),
			Payload:          payload,
		}},
	}, nil
}

// ============================================================================
// Opportunities
// ============================================================================

// OpportunityCreated - получатели: волонтеры, подобранные MatchVolunteers
func (b *EventBuilder) OpportunityCreated(opp *models.Opportunity, matched []models.User) (Event, error) {
	if opp.NGO == nil {
		return Event{}, fmt.Errorf("%w: opportunity %s", ErrMissingRelation, opp.ID)
	}
	payload := opportunityPayload(opp)
	payload["title"] = "New opportunity near you"
	payload["subject"] = fmt.Sprintf("New opportunity: %s", opp.Title)
	payload["body"] = fmt.Sprintf("%s posted %q. Take a look!", opp.NGO.Name, opp.Title)
	payload["deep_link"] = opportunityLink(opp.ID)

	return fanOut(RoutingOpportunityCreated, TypeOpportunityCreated, matched, payload), nil
}

// OpportunityUpdated - получатели: волонтеры с заявкой на возможность
func (b *EventBuilder) OpportunityUpdated(opp *models.Opportunity, applicants []models.User) (Event, error) {
	if opp.NGO == nil {
		return Event{}, fmt.Errorf("%w: opportunity %s", ErrMissingRelation, opp.ID)
	}
	payload := opportunityPayload(opp)
	payload["title"] = "Opportunity updated"
	payload["subject"] = fmt.Sprintf("Updated: %s", opp.Title)
	payload["body"] = fmt.Sprintf("%s updated the details of %q.", opp.NGO.Name, opp.Title)
	payload["deep_link"] = opportunityLink(opp.ID)

	return fanOut(RoutingOpportunityUpdated, TypeOpportunityUpdated, applicants, payload), nil
}

// OpportunityDeleted - причина обязательна
func (b *EventBuilder) OpportunityDeleted(opp *models.Opportunity, applicants []models.User, reason string) (Event, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Event{}, ErrMissingReason
	}
	if opp.NGO == nil {
		return Event{}, fmt.Errorf("%w: opportunity %s", ErrMissingRelation, opp.ID)
	}
	payload := opportunityPayload(opp)
	payload["title"] = "Opportunity cancelled"
	payload["subject"] = fmt.Sprintf("Cancelled: %s", opp.Title)
	payload["body"] = fmt.Sprintf("%s cancelled %q. Reason: %s", opp.NGO.Name, opp.Title, reason)
	payload["deep_link"] = "/opportunities"
	payload["reason"] = reason

	return fanOut(RoutingOpportunityDeleted, TypeOpportunityDeleted, applicants, payload), nil
}

// ============================================================================
// helpers
// ============================================================================

func fanOut(key RoutingKey, nType NotificationType, users []models.User, payload Payload) Event {
	ev := Event{RoutingKey: key, Messages: make([]Message, 0, len(users))}
	seen := make(map[string]struct{}, len(users))
	for i := range users {
		if _, dup := seen[users[i].ID]; dup {
			continue
		}
		seen[users[i].ID] = struct{}{}
		ev.Messages = append(ev.Messages, Message{
			NotificationType: nType,
			Recipient:        RecipientFrom(&users[i]),
			Payload:          payload,
		})
	}
	return ev
}

func opportunityPayload(opp *models.Opportunity) Payload {
	categories := make([]string, len(opp.Categories))
	copy(categories, opp.Categories)

	p := Payload{
		"opportunity_id":         opp.ID,
		"opportunity_title":      opp.Title,
		"opportunity_categories": categories,
		"ngo_id":                 opp.NGOID,
		"ngo_name":               opp.NGOName(),
	}
	if opp.HasLocation() {
		p["opportunity_latitude"] = *opp.Latitude
		p["opportunity_longitude"] = *opp.Longitude
	}
	if !opp.StartDate.IsZero() {
		p["start_date"] = opp.StartDate
	}
	return p
}

func statusNotificationType(s models.ApplicationStatus) NotificationType {
	switch s {
	case models.ApplicationStatusAccepted:
		return TypeApplicationAccepted
	case models.ApplicationStatusRejected:
		return TypeApplicationRejected
	case models.ApplicationStatusWithdrawn:
		return TypeApplicationWithdrawn
	case models.ApplicationStatusCompleted:
		return TypeApplicationCompleted
	}
	return TypeApplicationStatusChanged
}

func statusText(s models.ApplicationStatus, oppTitle, volunteerName string) (string, string) {
	switch s {
	case models.ApplicationStatusAccepted:
		return "Application accepted", fmt.Sprintf("Great news! Your application for %q was accepted.", oppTitle)
	case models.ApplicationStatusRejected:
		return "Application declined", fmt.Sprintf("Your application for %q was not accepted this time.", oppTitle)
	case models.ApplicationStatusCompleted:
		return "Volunteering completed", fmt.Sprintf("Thank you for volunteering at %q!", oppTitle)
	case models.ApplicationStatusWithdrawn:
		return "Application withdrawn", fmt.Sprintf("%s withdrew their application for %q.", volunteerName, oppTitle)
	}
	return "Application status changed", fmt.Sprintf("The status of your application for %q changed to %s.", oppTitle, s)
}

func displayName(u *models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return "A volunteer"
}

func opportunityLink(id string) string             { return "/opportunities/" + id }
func opportunityApplicationsLink(id string) string { return "/opportunities/" + id + "/applications" }
func applicationLink(id string) string             { return "/applications/" + id }
