package events

import "time"

// Topic names on the in-process bus.
const (
	TopicMailNotification = "chat.mail.notification"
)

// MailNotificationEvent asks the notifier to mail every address mentioned
// in a chat message. The session publishes it after the message persisted;
// the notifier filters unsubscribed addresses before sending.
type MailNotificationEvent struct {
	RoomID      string    `json:"room_id"`
	MessageID   string    `json:"message_id"`
	SenderName  string    `json:"sender_name"`
	MessageText string    `json:"message_text"`
	Addresses   []string  `json:"addresses"`
	OccurredAt  time.Time `json:"occurred_at"`
}
