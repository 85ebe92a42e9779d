package event

import "time"

const AccountActivatedDestination string = "account_activated"
const AccountActivatedConsumerNotification string = "account_activated_notification"

type AccountActivatedMessage struct {
	EventID     string    `json:"event_id"`
	UserID      int64     `json:"user_id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	ActivatedAt time.Time `json:"activated_at"`
}
