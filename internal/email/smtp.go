package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/textproto"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/devlink-notifier/internal/config"
	"github.com/jwalitptl/devlink-notifier/internal/model"
	"github.com/jwalitptl/devlink-notifier/pkg/circuitbreaker"
	"github.com/jwalitptl/devlink-notifier/pkg/logger"
)

// SMTPSender implements Sender on top of gomail.
type SMTPSender struct {
	host               string
	port               int
	user               string
	password           string
	from               string
	fromName           string
	tlsMode            string // auto | starttls | ssl | insecure
	insecureSkipVerify bool
	timeout            time.Duration

	cb     *circuitbreaker.CircuitBreaker
	logger *logger.Logger
	dial   Dialer
}

// Dialer opens an authenticated SMTP connection. The default is
// (*gomail.Dialer).Dial.
type Dialer func(d *gomail.Dialer) (gomail.SendCloser, error)

type SMTPOption func(*SMTPSender)

// WithDialer replaces how connections are opened.
func WithDialer(dial Dialer) SMTPOption {
	return func(s *SMTPSender) {
		s.dial = dial
	}
}

// RecipientError is a reply from a reachable server refusing one message,
// such as a 550 on RCPT. It fails that send only and leaves the transport
// breaker untouched.
type RecipientError struct {
	Code int
	Err  error
}

func (e *RecipientError) Error() string {
	return fmt.Sprintf("rejected by server (%d): %v", e.Code, e.Err)
}

func (e *RecipientError) Unwrap() error {
	return e.Err
}

// countsAgainstTransport reports whether err says the SMTP server itself is
// unusable. Per-message rejections and caller cancellation do not.
func countsAgainstTransport(err error) bool {
	var rejected *RecipientError
	return err != nil && !errors.As(err, &rejected) && !errors.Is(err, context.Canceled)
}

func NewSMTPSender(cfg config.SMTPConfig, log *logger.Logger, opts ...SMTPOption) *SMTPSender {
	s := &SMTPSender{
		host:               cfg.Host,
		port:               cfg.Port,
		user:               cfg.User,
		password:           cfg.Password,
		from:               cfg.From,
		fromName:           cfg.FromName,
		tlsMode:            cfg.TLSMode,
		insecureSkipVerify: cfg.InsecureSkipVerify,
		timeout:            cfg.Timeout,
		logger:             log.With("component", "smtp_sender"),
		dial: func(d *gomail.Dialer) (gomail.SendCloser, error) {
			return d.Dial()
		},
	}
	s.cb = circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        "smtp",
		MaxFailures: 5,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		IsSuccessful: func(err error) bool {
			return !countsAgainstTransport(err)
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			s.logger.Warn("circuit breaker state changed", "breaker", name, "from", string(from), "to", string(to))
		},
	})
	if s.tlsMode == "" {
		s.tlsMode = "auto"
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger.Info("SMTP transport configured",
		"host", s.host,
		"port", s.port,
		"from", s.from,
		"tls_mode", s.tlsMode,
		"authenticated", s.user != "",
	)
	return s
}

func (s *SMTPSender) Send(ctx context.Context, msg *model.EmailMessage) error {
	if err := Validate(msg); err != nil {
		return err
	}

	log := s.logger.With("to", msg.To)
	log.Debug("sending email", "subject", msg.Subject, "template", msg.Template)

	m := gomail.NewMessage()
	if s.fromName != "" {
		m.SetAddressHeader("From", s.from, s.fromName)
	} else {
		m.SetHeader("From", s.from)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	d := s.dialer()

	err := s.cb.Execute(func() error {
		return s.deliver(ctx, func() error {
			return s.transmit(d, msg.To, m)
		})
	})
	if err != nil {
		if countsAgainstTransport(err) {
			log.Error(err, "smtp send failed")
		} else {
			log.Warn("smtp server rejected message", "error", err.Error())
		}
		return fmt.Errorf("smtp send: %w", err)
	}

	log.Info("email sent")
	return nil
}

func (s *SMTPSender) dialer() *gomail.Dialer {
	d := gomail.NewDialer(s.host, s.port, s.user, s.password)
	d.TLSConfig = &tls.Config{
		ServerName:         s.host,
		InsecureSkipVerify: s.insecureSkipVerify,
	}

	switch s.tlsMode {
	case "ssl":
		d.SSL = true
	case "insecure":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	default:
		// auto and starttls
	}
	// gomail.v2 always upgrades via STARTTLS when the server offers it; there
	// is no plaintext mode. insecure only drops certificate verification.
	return d
}

// transmit dials, authenticates and sends one message. Failures up to and
// including auth are transport failures. A server reply to the transaction
// becomes a RecipientError, except 421 which means the server is closing.
func (s *SMTPSender) transmit(d *gomail.Dialer, to string, m *gomail.Message) error {
	conn, err := s.dial(d)
	if err != nil {
		return err
	}

	if err := conn.Send(s.from, []string{to}, m); err != nil {
		conn.Close()
		var reply *textproto.Error
		if errors.As(err, &reply) && reply.Code != 421 {
			return &RecipientError{Code: reply.Code, Err: err}
		}
		return err
	}

	// The message is accepted once DATA completes; a failed QUIT does not
	// undo that.
	if err := conn.Close(); err != nil {
		s.logger.Debug("smtp quit failed after delivery", "error", err.Error())
	}
	return nil
}

// deliver bounds one transmit by the context and the configured timeout.
// gomail has no context support, so a hung dial is abandoned, not interrupted.
func (s *SMTPSender) deliver(ctx context.Context, send func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- send()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
