package service

import (
	"fmt"
	"log"
	"net/smtp"
)

// Mailer sends plain-text notification emails over SMTP.  A Mailer
// with an empty host is a no-op, so deployments without an SMTP server
// simply skip notifications.
type Mailer struct {
	Host     string
	Port     string
	Username string
	Password string
}

func NewMailer(host, port, username, password string) *Mailer {
	return &Mailer{Host: host, Port: port, Username: username, Password: password}
}

// Send delivers one message.  Notification delivery is best-effort
// throughout the system: callers log the returned error and move on.
func (m *Mailer) Send(to, subject, body string) error {
	if m == nil || m.Host == "" {
		log.Printf("mailer: disabled, dropping message to %s (%s)", to, subject)
		return nil
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.Username, to, subject, body)
	addr := m.Host + ":" + m.Port
	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
	if err := smtp.SendMail(addr, auth, m.Username, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
