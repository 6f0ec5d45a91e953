package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"conference-app/config"
)

// Message is one outgoing notification mail.
type Message struct {
	Subject string
	Body    string
	From    string
	To      []string
}

// SendMass delivers a batch of messages over SMTP. The first delivery failure
// aborts the batch and is returned to the caller; already-sent messages are
// not recalled.
var SendMass = func(messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	auth := smtp.PlainAuth("", config.SMTP_FROM, config.SMTP_PASSWORD, config.SMTP_HOST)
	addr := config.SMTP_HOST + ":" + config.SMTP_PORT

	for _, m := range messages {
		payload := []byte("Subject: " + m.Subject + "\r\n" +
			"From: " + m.From + "\r\n" +
			"To: " + strings.Join(m.To, ", ") + "\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n" +
			"\r\n" +
			m.Body + "\r\n")

		if err := smtp.SendMail(addr, auth, m.From, m.To, payload); err != nil {
			return fmt.Errorf("send to %v: %w", m.To, err)
		}
	}
	return nil
}
