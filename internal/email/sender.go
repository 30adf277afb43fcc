package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/jwalitptl/devlink-notifier/internal/model"
)

// ErrInvalidMessage is returned for messages that cannot be handed to a transport.
var ErrInvalidMessage = errors.New("invalid email message")

// Sender delivers a single email or fails.
type Sender interface {
	Send(ctx context.Context, msg *model.EmailMessage) error
}

// Validate rejects messages without a parseable recipient, subject or body.
func Validate(msg *model.EmailMessage) error {
	if msg == nil {
		return fmt.Errorf("%w: nil message", ErrInvalidMessage)
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("%w: missing recipient", ErrInvalidMessage)
	}
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return fmt.Errorf("%w: recipient %q: %v", ErrInvalidMessage, msg.To, err)
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidMessage)
	}
	if strings.TrimSpace(msg.HTML) == "" {
		return fmt.Errorf("%w: missing body", ErrInvalidMessage)
	}
	return nil
}
