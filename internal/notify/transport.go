package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/sevigo/patch-warden/internal/email"
)

const defaultSMTPTimeout = 10 * time.Second

// TransportError reports a failed delivery.
type TransportError struct {
	Transport string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mail delivery via %s failed: %v", e.Transport, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transport delivers a message.
//
//go:generate mockgen -destination=../../mocks/mock_transport.go -package=mocks . Transport
type Transport interface {
	Send(ctx context.Context, msg *email.Message) error
}

// SMTPConfig configures SMTPTransport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// Timeout bounds the whole SMTP conversation.
	Timeout time.Duration
	// InsecureSkipVerify disables certificate checks for STARTTLS.
	InsecureSkipVerify bool
}

// SMTPTransport sends mail to an SMTP server.
type SMTPTransport struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

// NewSMTPTransport returns an SMTP transport.
func NewSMTPTransport(cfg SMTPConfig, logger *slog.Logger) *SMTPTransport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}
	if cfg.Port == 0 {
		cfg.Port = 25
	}
	return &SMTPTransport{cfg: cfg, logger: logger}
}

func (t *SMTPTransport) Send(ctx context.Context, msg *email.Message) error {
	if err := t.send(ctx, msg); err != nil {
		t.logger.Error("smtp delivery failed", "host", t.cfg.Host, "port", t.cfg.Port, "error", err)
		return &TransportError{Transport: "smtp", Err: err}
	}
	t.logger.Info("mail sent", "subject", msg.Get("Subject"), "to", msg.Get("To"))
	return nil
}

func (t *SMTPTransport) send(ctx context.Context, msg *email.Message) error {
	from, err := msg.Sender()
	if err != nil {
		return err
	}
	rcpts, err := msg.Recipients()
	if err != nil {
		return err
	}
	if len(rcpts) == 0 {
		return fmt.Errorf("message has no recipients")
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake failed: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		tlsCfg := &tls.Config{ServerName: t.cfg.Host, InsecureSkipVerify: t.cfg.InsecureSkipVerify} //nolint:gosec // opt-in
		if err := c.StartTLS(tlsCfg); err != nil {
			return fmt.Errorf("starttls failed: %w", err)
		}
	}
	if t.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	for _, rcpt := range rcpts {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s rejected: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := w.Write(msg.Bytes()); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("message rejected: %w", err)
	}
	return c.Quit()
}

// QueueTransport writes messages as .eml files into a directory for later
// delivery.
type QueueTransport struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// NewQueueTransport returns a transport writing into dir.
func NewQueueTransport(dir string, logger *slog.Logger) *QueueTransport {
	return &QueueTransport{dir: dir, logger: logger, now: time.Now}
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (t *QueueTransport) Send(_ context.Context, msg *email.Message) error {
	if err := os.MkdirAll(t.dir, 0o700); err != nil {
		return &TransportError{Transport: "queue", Err: err}
	}

	id := unsafeFileChars.ReplaceAllString(msg.Get("Message-Id"), "")
	name := fmt.Sprintf("%d-%s.eml", t.now().UnixNano(), id)
	tmp, err := os.CreateTemp(t.dir, ".queue-*")
	if err != nil {
		return &TransportError{Transport: "queue", Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(msg.Bytes()); err != nil {
		tmp.Close()
		return &TransportError{Transport: "queue", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &TransportError{Transport: "queue", Err: err}
	}

	path := filepath.Join(t.dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &TransportError{Transport: "queue", Err: err}
	}
	t.logger.Info("mail queued", "path", path, "subject", msg.Get("Subject"))
	return nil
}
