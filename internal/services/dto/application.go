package dto

import (
	"time"

	"volunteer_backend/internal/models"
)

// --- Application Requests ---

type CreateApplicationRequest struct {
	OpportunityID string  `json:"opportunity_id" validate:"required,uuid"`
	Message       *string `json:"message" validate:"omitempty,max=2000"`
}

// Статус проверяется сервисом: неизвестное значение -> 400 с кодом домена application
type UpdateApplicationStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// --- Application Responses ---

type ApplicationResponse struct {
	ID            string                   `json:"id"`
	VolunteerID   string                   `json:"volunteer_id"`
	OpportunityID string                   `json:"opportunity_id"`
	Status        models.ApplicationStatus `json:"status"`
	Message       *string                  `json:"message,omitempty"`
	Volunteer     *UserResponse            `json:"volunteer,omitempty"`
	Opportunity   *OpportunityResponse     `json:"opportunity,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

func NewApplicationResponse(a *models.Application) *ApplicationResponse {
	resp := &ApplicationResponse{
		ID:            a.ID,
		VolunteerID:   a.VolunteerID,
		OpportunityID: a.OpportunityID,
		Status:        a.Status,
		Message:       a.Message,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if a.Volunteer != nil {
		resp.Volunteer = NewUserResponse(a.Volunteer)
	}
	if a.Opportunity != nil {
		resp.Opportunity = NewOpportunityResponse(a.Opportunity, nil)
	}
	return resp
}

func NewApplicationListResponse(apps []models.Application) []*ApplicationResponse {
	out := make([]*ApplicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, NewApplicationResponse(&apps[i]))
	}
	return out
}
