// Package mailer delivers verification and password reset mail over SMTP.
// Delivery is best-effort: callers dispatch sends in the background and the
// account flows work regardless of whether the message arrives.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/mail"
	gosmtp "net/smtp"
	"strings"
	"time"

	"github.com/mkravets/contactly/internal/config"
)

// dialTimeout bounds the TCP connect to the SMTP server.
const dialTimeout = 10 * time.Second

// SMTPMailer sends mail through a configured SMTP relay. It supports
// STARTTLS (port 587 typical), implicit SSL (port 465), and plaintext for
// local development relays.
type SMTPMailer struct {
	cfg config.MailConfig
}

// New creates a mailer from SMTP settings. Returns nil when no host is
// configured, which callers treat as mail-disabled.
func New(cfg config.MailConfig) *SMTPMailer {
	if cfg.Host == "" {
		return nil
	}
	return &SMTPMailer{cfg: cfg}
}

// SendVerification mails the email confirmation link.
func (m *SMTPMailer) SendVerification(ctx context.Context, to, tok, baseURL string) error {
	body, err := renderTemplate(verificationTemplate, mailData{
		Link: baseURL + "/api/auth/confirmed_email/" + tok,
	})
	if err != nil {
		return fmt.Errorf("rendering verification mail: %w", err)
	}
	return m.send(ctx, to, "Confirm your email", body)
}

// SendPasswordReset mails the password reset link.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, tok, baseURL string) error {
	body, err := renderTemplate(resetTemplate, mailData{
		Link: baseURL + "/api/auth/reset_password/done/" + tok,
	})
	if err != nil {
		return fmt.Errorf("rendering reset mail: %w", err)
	}
	return m.send(ctx, to, "Reset your password", body)
}

// send builds an RFC 2822 message and delivers it per the configured
// encryption mode.
func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	from := mail.Address{Name: m.cfg.FromName, Address: m.cfg.From}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from.String()))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	switch m.cfg.Encryption {
	case "ssl":
		return m.sendSSL(addr, from.Address, to, msg.String())
	case "none":
		return m.sendPlain(addr, from.Address, to, msg.String())
	default: // "starttls"
		return m.sendStartTLS(addr, from.Address, to, msg.String())
	}
}

// sendStartTLS delivers using STARTTLS.
func (m *SMTPMailer) sendStartTLS(addr, from, to, msg string) error {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("starting TLS: %w", err)
	}

	if m.cfg.Username != "" {
		auth := gosmtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	return m.sendMessage(client, from, to, msg)
}

// sendSSL delivers over implicit SSL/TLS.
func (m *SMTPMailer) sendSSL(addr, from, to, msg string) error {
	tlsConfig := &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: dialTimeout}, "tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("connecting to %s (SSL): %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	if m.cfg.Username != "" {
		auth := gosmtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	return m.sendMessage(client, from, to, msg)
}

// sendPlain delivers without encryption. Development relays only.
func (m *SMTPMailer) sendPlain(addr, from, to, msg string) error {
	var auth gosmtp.Auth
	if m.cfg.Username != "" {
		auth = gosmtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := gosmtp.SendMail(addr, auth, from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

// sendMessage handles MAIL FROM, RCPT TO, DATA for an existing SMTP client.
func (m *SMTPMailer) sendMessage(client *gosmtp.Client, from, to, msg string) error {
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO %s: %w", to, err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing data: %w", err)
	}
	return client.Quit()
}

// --- Templates ---

type mailData struct {
	Link string
}

var verificationTemplate = template.Must(template.New("verification").Parse(`<html>
<body>
  <p>Welcome to Contactly!</p>
  <p>Please confirm your email address by following this link:</p>
  <p><a href="{{.Link}}">{{.Link}}</a></p>
  <p>If you did not create an account, you can ignore this message.</p>
</body>
</html>`))

var resetTemplate = template.Must(template.New("reset").Parse(`<html>
<body>
  <p>A password reset was requested for your Contactly account.</p>
  <p>Follow this link to apply the new password:</p>
  <p><a href="{{.Link}}">{{.Link}}</a></p>
  <p>If you did not request a reset, you can ignore this message and your
  password will stay unchanged.</p>
</body>
</html>`))

func renderTemplate(tpl *template.Template, data mailData) (string, error) {
	var sb strings.Builder
	if err := tpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
