// Package mail builds and delivers email.
//
//	msg := mail.To("user@example.com").
//	    WithSubject("Reset your password").
//	    WithText("Follow this link ...")
//	err := mailer.Send(ctx, msg)
//
// Delivery is pluggable: SMTP for real servers, Log when no server is
// configured, Memory in tests.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"sync"

	"github.com/shashiranjanraj/farmlink/pkg/logger"
)

// Message is a single email. It is JSON-serialisable so it can travel
// through the queue.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	HTML    bool     `json:"html"`
}

// To starts a plain-text message to addresses.
func To(addresses ...string) Message {
	return Message{To: addresses}
}

// WithSubject sets the subject.
func (m Message) WithSubject(s string) Message {
	m.Subject = s
	return m
}

// WithText sets a plain-text body.
func (m Message) WithText(body string) Message {
	m.Body, m.HTML = body, false
	return m
}

// WithHTML sets an HTML body.
func (m Message) WithHTML(body string) Message {
	m.Body, m.HTML = body, true
	return m
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// SMTPConfig holds connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	UseTLS   bool // STARTTLS on 587/25; implicit TLS on 465
	Username string
	Password string
	From     string
}

// SMTP sends through an SMTP server.
type SMTP struct {
	cfg SMTPConfig
}

// NewSMTP returns an SMTP mailer.
func NewSMTP(cfg SMTPConfig) *SMTP {
	return &SMTP{cfg: cfg}
}

// Send delivers m. The context bounds the dial only; net/smtp has no
// per-command deadlines.
func (s *SMTP) Send(ctx context.Context, m Message) error {
	if len(m.To) == 0 {
		return fmt.Errorf("mail: no recipients")
	}
	cfg := s.cfg
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	var d net.Dialer
	var conn net.Conn
	var err error
	if cfg.Port == 465 {
		conn, err = (&tls.Dialer{NetDialer: &d, Config: &tls.Config{ServerName: cfg.Host}}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("mail: dial %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("mail: handshake: %w", err)
	}
	defer client.Close()

	if cfg.UseTLS && cfg.Port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
				return fmt.Errorf("mail: starttls: %w", err)
			}
		}
	}
	if cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
			return fmt.Errorf("mail: auth: %w", err)
		}
	}
	if err := client.Mail(cfg.From); err != nil {
		return err
	}
	for _, rcpt := range m.To {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("mail: rcpt %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(Raw(cfg.From, m)); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// Raw renders m as an RFC 5322 message.
func Raw(from string, m Message) []byte {
	contentType := "text/plain"
	if m.HTML {
		contentType = "text/html"
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(m.To, ", ") + "\r\n")
	b.WriteString("Subject: " + m.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s; charset=\"UTF-8\"\r\n", contentType)
	b.WriteString("\r\n")
	b.WriteString(m.Body)
	return []byte(b.String())
}

// Log writes messages to the logger instead of sending them.
type Log struct{}

func (Log) Send(ctx context.Context, m Message) error {
	logger.WithCtx(ctx).Info("mail: not sent, no SMTP server configured",
		"to", strings.Join(m.To, ","), "subject", m.Subject)
	return nil
}

// Memory keeps sent messages for inspection.
type Memory struct {
	mu   sync.Mutex
	sent []Message
}

func (s *Memory) Send(_ context.Context, m Message) error {
	s.mu.Lock()
	s.sent = append(s.sent, m)
	s.mu.Unlock()
	return nil
}

// Sent returns a copy of everything sent so far.
func (s *Memory) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}
