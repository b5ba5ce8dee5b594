package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer sends plaintext email through an external SMTP relay.
type Mailer struct {
	from   string
	dialer *gomail.Dialer
}

// New creates a Mailer dialing the given SMTP relay with the given account
// credentials. Messages are sent from the from address.
func New(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		from:   from,
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

// Send delivers a single plaintext message.
func (m *Mailer) Send(to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("no recipient specified")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}
