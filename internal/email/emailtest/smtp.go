package emailtest

import (
	"io"
	"net/textproto"
	"strings"
	"sync"

	"gopkg.in/gomail.v2"
)

// SMTPServer is an in-memory SMTP endpoint for email.WithDialer. Bounced
// mailboxes get a 550 on RCPT, the way a real server refuses them.
type SMTPServer struct {
	mu       sync.Mutex
	bounced  map[string]bool
	dialErr  error
	dials    int
	accepted []string
	last     *gomail.Message
}

func NewSMTPServer() *SMTPServer {
	return &SMTPServer{bounced: make(map[string]bool)}
}

// Bounce makes the server refuse mail for addrs.
func (s *SMTPServer) Bounce(addrs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range addrs {
		s.bounced[strings.ToLower(a)] = true
	}
}

// RefuseConnections makes every dial fail with err until called with nil.
func (s *SMTPServer) RefuseConnections(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialErr = err
}

// Dial matches email.Dialer.
func (s *SMTPServer) Dial(*gomail.Dialer) (gomail.SendCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dials++
	if s.dialErr != nil {
		return nil, s.dialErr
	}
	return &smtpConn{srv: s}, nil
}

// Dials counts connection attempts, refused ones included.
func (s *SMTPServer) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

// Accepted lists recipients whose message the server took.
func (s *SMTPServer) Accepted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.accepted))
	copy(out, s.accepted)
	return out
}

// LastMessage is the most recently accepted message.
func (s *SMTPServer) LastMessage() *gomail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

type smtpConn struct {
	srv *SMTPServer
}

func (c *smtpConn) Send(_ string, to []string, msg io.WriterTo) error {
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	for _, addr := range to {
		if c.srv.bounced[strings.ToLower(addr)] {
			return &textproto.Error{Code: 550, Msg: "5.1.1 <" + addr + ">: mailbox unavailable"}
		}
	}
	c.srv.accepted = append(c.srv.accepted, to...)
	if m, ok := msg.(*gomail.Message); ok {
		c.srv.last = m
	}
	return nil
}

func (c *smtpConn) Close() error {
	return nil
}
