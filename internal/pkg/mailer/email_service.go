package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendMentionNotification(toEmail, senderName, messageText, chatURL, unsubscribeURL string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

// SendMentionNotification mails a single address that was mentioned in a
// chat message. One call per address; the caller filters unsubscribed
// addresses before invoking this.
func (s *emailService) SendMentionNotification(toEmail, senderName, messageText, chatURL, unsubscribeURL string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("%s mentioned you in a chat", senderName))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s mentioned you</h2>
			<blockquote style="border-left: 3px solid #4CAF50; padding-left: 10px;">%s</blockquote>
			<p><a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Open the chat</a></p>
			<p style="font-size: 12px; color: #999;">Don't want these emails? <a href="%s">Unsubscribe</a>.</p>
		</div>
	`, senderName, messageText, chatURL, unsubscribeURL)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return err
	}
	return nil
}
