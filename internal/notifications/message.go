package notifications

import "volunteer_backend/internal/models"

// RoutingKey - ключ маршрутизации topic exchange
type RoutingKey string

const (
	RoutingApplicationNew           RoutingKey = "application.new"
	RoutingApplicationStatusChanged RoutingKey = "application.status_changed"
	RoutingOpportunityCreated       RoutingKey = "opportunity.created"
	RoutingOpportunityUpdated       RoutingKey = "opportunity.updated"
	RoutingOpportunityDeleted       RoutingKey = "opportunity.deleted"
)

// NotificationType - значение notification_type в теле сообщения
type NotificationType string

const (
	TypeNewApplication           NotificationType = "NEW_APPLICATION"
	TypeApplicationAccepted      NotificationType = "APPLICATION_ACCEPTED"
	TypeApplicationRejected      NotificationType = "APPLICATION_REJECTED"
	TypeApplicationWithdrawn     NotificationType = "APPLICATION_WITHDRAWN"
	TypeApplicationCompleted     NotificationType = "APPLICATION_COMPLETED"
	TypeApplicationStatusChanged NotificationType = "APPLICATION_STATUS_CHANGED"
	TypeOpportunityCreated       NotificationType = "OPPORTUNITY_CREATED"
	TypeOpportunityUpdated       NotificationType = "OPPORTUNITY_UPDATED"
	TypeOpportunityDeleted       NotificationType = "OPPORTUNITY_DELETED"
)

type Prefs struct {
	ReceiveEmail bool `json:"receive_email"`
	ReceivePush  bool `json:"receive_push"`
}

// Recipient всегда несет обе настройки: подавление - забота потребителя шины
type Recipient struct {
	UserID       string `json:"user_id"`
	EmailAddress string `json:"email_address,omitempty"`
	DeviceToken  string `json:"device_token,omitempty"`
	Prefs        Prefs  `json:"prefs"`
}

type Payload map[string]any

// Message - тело одного сообщения в шине
type Message struct {
	NotificationType NotificationType `json:"notification_type"`
	Recipient        Recipient        `json:"recipient"`
	Payload          Payload          `json:"payload"`
}

// Event - одно доменное событие: ключ маршрутизации и по сообщению на получателя
type Event struct {
	RoutingKey RoutingKey
	Messages   []Message
}

func (e Event) Empty() bool {
	return len(e.Messages) == 0
}

// RecipientFrom строит получателя из пользователя
func RecipientFrom(u *models.User) Recipient {
	return Recipient{
		UserID:       u.ID,
		EmailAddress: u.Email,
		DeviceToken:  u.DeviceToken(),
		Prefs: Prefs{
			ReceiveEmail: u.ReceiveEmailNotifications,
			ReceivePush:  u.ReceivePushNotifications,
		},
	}
}
