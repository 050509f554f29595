package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"cleaner_reminder_service/internal/domain/notification"
)

// SMTPConfig holds the mail server settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// deliverFunc puts a fully built message on the wire.
type deliverFunc func(ctx context.Context, cfg SMTPConfig, to string, raw []byte) error

// SMTPNotifier sends reminder emails over implicit TLS. Sends are throttled
// by a token bucket and pass through a circuit breaker; while the breaker is
// open Send returns notification.ErrNotifierUnavailable without dialing.
type SMTPNotifier struct {
	cfg     SMTPConfig
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[struct{}]
	deliver deliverFunc
	now     func() time.Time
}

// Option configures an SMTPNotifier.
type Option func(*SMTPNotifier)

// WithDeliverFunc replaces the network transport. Intended for tests.
func WithDeliverFunc(fn deliverFunc) Option {
	return func(n *SMTPNotifier) {
		n.deliver = fn
	}
}

// WithBreakerSettings overrides the default circuit breaker settings.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(n *SMTPNotifier) {
		n.breaker = gobreaker.NewCircuitBreaker[struct{}](st)
	}
}

func NewSMTPNotifier(cfg SMTPConfig, ratePerSecond float64, burst int, opts ...Option) *SMTPNotifier {
	n := &SMTPNotifier{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		breaker: gobreaker.NewCircuitBreaker[struct{}](defaultBreakerSettings()),
		deliver: deliverTLS,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func defaultBreakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, to string, msg notification.Message) error {
	rendered, err := RenderReminder(msg)
	if err != nil {
		return err
	}
	raw, err := buildMIME(n.cfg.From, to, rendered, n.now())
	if err != nil {
		return err
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email throttle: %w", err)
	}

	_, err = n.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, n.deliver(ctx, n.cfg, to, raw)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", notification.ErrNotifierUnavailable, err)
	}
	if err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// buildMIME renders a multipart/alternative message with text and HTML parts.
func buildMIME(from, to string, r Rendered, now time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=\"utf-8\"", r.Text},
		{"text/html; charset=\"utf-8\"", r.HTML},
	}
	for _, p := range parts {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, fmt.Errorf("build email part: %w", err)
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("build email part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build email: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", r.Subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", now.Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", mw.Boundary())
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

// deliverTLS sends over implicit TLS (port 465).
func deliverTLS(ctx context.Context, cfg SMTPConfig, to string, raw []byte) error {
	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: cfg.Host}}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
			return err
		}
	}
	if err := client.Mail(cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
