// Package mailer sends plain-text email over SMTP.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer holds SMTP connection settings.  User and Pass may be empty
// for auth-less relays such as a local MailHog during development.
type Mailer struct {
	Host string
	Port string
	From string
	User string
	Pass string
}

// New returns a Mailer for the given SMTP settings.
func New(host, port, from, user, pass string) *Mailer {
	return &Mailer{Host: host, Port: port, From: from, User: user, Pass: pass}
}

// Send delivers a plain-text message to a single recipient.
func (m *Mailer) Send(to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := m.Host + ":" + m.Port
	var auth smtp.Auth
	if m.User != "" {
		auth = smtp.PlainAuth("", m.User, m.Pass, m.Host)
	}
	return smtp.SendMail(addr, auth, m.From, []string{to}, []byte(msg.String()))
}
