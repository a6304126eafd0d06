package models

import (
	"github.com/lib/pq"
)

type User struct {
	BaseModel
	Name        string    `gorm:"size:255" json:"name"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	Role        *UserRole `gorm:"type:varchar(20)" json:"role"` // nil до завершения профиля
	About       string    `gorm:"type:text" json:"about,omitempty"`
	ContactInfo string    `json:"contact_info,omitempty"`
	Picture     string    `json:"picture,omitempty"`
	PlaceName   string    `json:"place_name,omitempty"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`

	Categories pq.StringArray `gorm:"type:text[]" json:"categories"`

	// Настройки уведомлений. Без gorm default: иначе false при Create заменяется на true.
	ReceiveEmailNotifications bool    `gorm:"not null" json:"receive_email_notifications"`
	ReceivePushNotifications  bool    `gorm:"not null" json:"receive_push_notifications"`
	FCMToken                  *string `gorm:"column:fcm_token;uniqueIndex" json:"-"`
}

// NewUser создает пользователя с настройками уведомлений по умолчанию
func NewUser(email, name string) *User {
	return &User{
		Email:                     email,
		Name:                      name,
		ReceiveEmailNotifications: true,
		ReceivePushNotifications:  true,
	}
}

func (u *User) HasRole(role UserRole) bool {
	return u.Role != nil && *u.Role == role
}

// HasLocation - координаты заданы обе
func (u *User) HasLocation() bool {
	return u.Latitude != nil && u.Longitude != nil
}

func (u *User) DeviceToken() string {
	if u.FCMToken == nil {
		return ""
	}
	return *u.FCMToken
}
