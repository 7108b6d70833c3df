package service

import (
	"context"
	"encoding/json"
	"net/url"

	"linkchat-be/internal/pkg/logger"
	"linkchat-be/internal/pkg/mailer"
	"linkchat-be/internal/repository/contract"
	"linkchat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// NotifierService consumes mail-notification events off the bus and
// delivers one e-mail per recipient, skipping addresses on the opt-out
// list. Delivery runs off the websocket path entirely; a dead SMTP server
// never stalls a chat room.
type NotifierService struct {
	subscriber  message.Subscriber
	unsubscribe contract.UnsubscribeStore
	email       mailer.IEmailService
	baseURL     string
	logger      logger.ILogger
}

func NewNotifierService(sub message.Subscriber, unsub contract.UnsubscribeStore, email mailer.IEmailService, baseURL string, log logger.ILogger) *NotifierService {
	return &NotifierService{
		subscriber:  sub,
		unsubscribe: unsub,
		email:       email,
		baseURL:     baseURL,
		logger:      log,
	}
}

// Start begins consuming the mail-notification topic until ctx ends.
func (s *NotifierService) Start(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, events.TopicMailNotification)
	if err != nil {
		s.logger.Error("NotifierService", "Failed to subscribe to mail topic", map[string]interface{}{"error": err})
		return err
	}

	go func() {
		for msg := range messages {
			s.handle(ctx, msg)
			msg.Ack()
		}
	}()

	s.logger.Info("NotifierService", "Mail notifier started", nil)
	return nil
}

func (s *NotifierService) handle(ctx context.Context, msg *message.Message) {
	var evt events.MailNotificationEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		s.logger.Warn("NotifierService", "Dropped malformed mail event", map[string]interface{}{"error": err.Error()})
		return
	}

	chatURL := s.baseURL + "/" + evt.RoomID
	sent := 0
	for _, address := range evt.Addresses {
		optedOut, err := s.unsubscribe.IsUnsubscribed(ctx, address)
		if err != nil {
			s.logger.Error("NotifierService", "Failed to check opt-out list", map[string]interface{}{"address": address, "error": err})
			continue
		}
		if optedOut {
			continue
		}

		unsubscribeURL := s.baseURL + "/api/mail/unsubscribe?address=" + url.QueryEscape(address)
		if err := s.email.SendMentionNotification(address, evt.SenderName, evt.MessageText, chatURL, unsubscribeURL); err != nil {
			s.logger.Error("NotifierService", "Failed to send notification mail", map[string]interface{}{"address": address, "error": err})
			continue
		}
		sent++
	}

	s.logger.Info("NotifierService", "Mail event processed", map[string]interface{}{
		"room_id":    evt.RoomID,
		"message_id": evt.MessageID,
		"sent":       sent,
		"requested":  len(evt.Addresses),
	})
}
