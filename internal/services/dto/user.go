package dto

import (
	"time"

	"github.com/lib/pq"

	"volunteer_backend/internal/models"
)

// --- User Requests ---

// UpdateUserRequest - PATCH /users/me. Роль здесь не меняется.
type UpdateUserRequest struct {
	Name                      *string  `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	About                     *string  `json:"about,omitempty" validate:"omitempty,max=5000"`
	ContactInfo               *string  `json:"contact_info,omitempty" validate:"omitempty,max=255"`
	Picture                   *string  `json:"picture,omitempty" validate:"omitempty,url"`
	PlaceName                 *string  `json:"place_name,omitempty" validate:"omitempty,max=255"`
	Latitude                  *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude                 *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Categories                []string `json:"categories,omitempty" validate:"omitempty,dive,is-category"`
	ReceiveEmailNotifications *bool    `json:"receive_email_notifications,omitempty"`
	ReceivePushNotifications  *bool    `json:"receive_push_notifications,omitempty"`
	FCMToken                  *string  `json:"fcm_token,omitempty" validate:"omitempty,max=4096"`
}

// CompleteProfileRequest - первичное заполнение профиля, роль задается один раз.
// admin через этот эндпоинт не выдается.
type CompleteProfileRequest struct {
	UpdateUserRequest
	Role string `json:"role" validate:"required,is-user-role"`
}

// Fields - карта колонок для частичного UPDATE
func (r *UpdateUserRequest) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if r.Name != nil {
		fields["name"] = *r.Name
	}
	if r.About != nil {
		fields["about"] = *r.About
	}
	if r.ContactInfo != nil {
		fields["contact_info"] = *r.ContactInfo
	}
	if r.Picture != nil {
		fields["picture"] = *r.Picture
	}
	if r.PlaceName != nil {
		fields["place_name"] = *r.PlaceName
	}
	if r.Latitude != nil {
		fields["latitude"] = *r.Latitude
	}
	if r.Longitude != nil {
		fields["longitude"] = *r.Longitude
	}
	if r.Categories != nil {
		fields["categories"] = pq.StringArray(r.Categories)
	}
	if r.ReceiveEmailNotifications != nil {
		fields["receive_email_notifications"] = *r.ReceiveEmailNotifications
	}
	if r.ReceivePushNotifications != nil {
		fields["receive_push_notifications"] = *r.ReceivePushNotifications
	}
	if r.FCMToken != nil {
		fields["fcm_token"] = *r.FCMToken
	}
	return fields
}

// --- User Responses ---

type UserResponse struct {
	ID                        string           `json:"id"`
	Name                      string           `json:"name"`
	Email                     string           `json:"email"`
	Role                      *models.UserRole `json:"role"`
	About                     string           `json:"about,omitempty"`
	ContactInfo               string           `json:"contact_info,omitempty"`
	Picture                   string           `json:"picture,omitempty"`
	PlaceName                 string           `json:"place_name,omitempty"`
	Latitude                  *float64         `json:"latitude"`
	Longitude                 *float64         `json:"longitude"`
	Categories                []string         `json:"categories"`
	ReceiveEmailNotifications bool             `json:"receive_email_notifications"`
	ReceivePushNotifications  bool             `json:"receive_push_notifications"`
	CreatedAt                 time.Time        `json:"created_at"`
	UpdatedAt                 time.Time        `json:"updated_at"`
}

type CompleteProfileResponse struct {
	User        *UserResponse `json:"user"`
	AccessToken string        `json:"access_token"`
}

func NewUserResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:                        u.ID,
		Name:                      u.Name,
		Email:                     u.Email,
		Role:                      u.Role,
		About:                     u.About,
		ContactInfo:               u.ContactInfo,
		Picture:                   u.Picture,
		PlaceName:                 u.PlaceName,
		Latitude:                  u.Latitude,
		Longitude:                 u.Longitude,
		Categories:                nonNil(u.Categories),
		ReceiveEmailNotifications: u.ReceiveEmailNotifications,
		ReceivePushNotifications:  u.ReceivePushNotifications,
		CreatedAt:                 u.CreatedAt,
		UpdatedAt:                 u.UpdatedAt,
	}
}

func NewUserListResponse(users []models.User) []*UserResponse {
	out := make([]*UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
