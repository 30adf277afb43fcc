// Package emailtest provides in-memory email transports for tests.
package emailtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jwalitptl/devlink-notifier/internal/model"
)

// ErrRejected is what the recorder returns for addresses told to fail.
var ErrRejected = errors.New("recipient rejected")

// Recorder records every message it is asked to send. It is safe for
// concurrent use.
type Recorder struct {
	mu      sync.Mutex
	sent    []model.EmailMessage
	failing map[string]error
}

func NewRecorder() *Recorder {
	return &Recorder{failing: make(map[string]error)}
}

// FailFor makes sends to addr return err (ErrRejected when err is nil).
func (r *Recorder) FailFor(addr string, err error) {
	if err == nil {
		err = ErrRejected
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing[strings.ToLower(addr)] = err
}

func (r *Recorder) Send(ctx context.Context, msg *model.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, *msg)
	return r.failing[strings.ToLower(msg.To)]
}

// Attempts returns every message handed to Send, failed ones included.
func (r *Recorder) Attempts() []model.EmailMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EmailMessage, len(r.sent))
	copy(out, r.sent)
	return out
}

// Delivered returns the messages that were not rejected.
func (r *Recorder) Delivered() []model.EmailMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.EmailMessage
	for _, m := range r.sent {
		if _, fail := r.failing[strings.ToLower(m.To)]; !fail {
			out = append(out, m)
		}
	}
	return out
}

// To returns the messages addressed to addr.
func (r *Recorder) To(addr string) []model.EmailMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.EmailMessage
	for _, m := range r.sent {
		if strings.EqualFold(m.To, addr) {
			out = append(out, m)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
