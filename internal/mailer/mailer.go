package mailer

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"text/template"
	"time"

	"gopkg.in/mail.v2"
)

const (
	FromName             = "Foodspot"
	maxRetries           = 3
	ContactAdminTemplate = "contact_admin.tmpl"
)

//go:embed "templates"
var FS embed.FS

var ErrNotConfigured = errors.New("mailer is not configured")

type Client interface {
	Send(templateFile, toEmail, replyTo string, data any) error
}

// dialer is satisfied by *mail.Dialer.
type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type SMTPMailer struct {
	dialer    dialer
	fromEmail string
	backoff   time.Duration
}

func NewSMTPMailer(host string, port int, username, password, fromEmail string) (*SMTPMailer, error) {
	if host == "" || fromEmail == "" {
		return nil, ErrNotConfigured
	}
	d := mail.NewDialer(host, port, username, password)
	d.Timeout = 10 * time.Second
	return &SMTPMailer{dialer: d, fromEmail: fromEmail, backoff: time.Second}, nil
}

// Render executes the "subject" and "body" blocks of a template.
func Render(templateFile string, data any) (subject, body string, err error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return "", "", fmt.Errorf("parse template %s: %w", templateFile, err)
	}

	var s, b bytes.Buffer
	if err := tmpl.ExecuteTemplate(&s, "subject", data); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	if err := tmpl.ExecuteTemplate(&b, "body", data); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return s.String(), b.String(), nil
}

// Send renders templateFile and delivers it, retrying with a linear backoff.
func (m *SMTPMailer) Send(templateFile, toEmail, replyTo string, data any) error {
	subject, body, err := Render(templateFile, data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetAddressHeader("From", m.fromEmail, FromName)
	msg.SetHeader("To", toEmail)
	if replyTo != "" {
		msg.SetHeader("Reply-To", replyTo)
	}
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if lastErr = m.dialer.DialAndSend(msg); lastErr == nil {
			return nil
		}
		time.Sleep(m.backoff * time.Duration(i+1))
	}
	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
