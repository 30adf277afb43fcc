package circuitbreaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned while the breaker is rejecting calls.
var ErrOpen = errors.New("circuit breaker is open")

type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

type Settings struct {
	Name        string
	MaxFailures int           // consecutive failures that open the breaker
	Interval    time.Duration // closed-state counts are cleared this often
	Timeout     time.Duration // how long the breaker stays open

	// IsSuccessful classifies a returned error. Errors it accepts are passed
	// back to the caller without counting as failures. Nil means err == nil.
	IsSuccessful func(err error) bool

	OnStateChange func(name string, from, to State)
}

// CircuitBreaker adapts gobreaker to plain func() error calls.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	if settings.MaxFailures <= 0 {
		settings.MaxFailures = 5
	}
	maxFailures := uint32(settings.MaxFailures)

	gs := gobreaker.Settings{
		Name:     settings.Name,
		Interval: settings.Interval,
		Timeout:  settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: settings.IsSuccessful,
	}
	if hook := settings.OnStateChange; hook != nil {
		gs.OnStateChange = func(name string, from, to gobreaker.State) {
			hook(name, stateOf(from), stateOf(to))
		}
	}
	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker(gs)}
}

func (c *CircuitBreaker) Name() string {
	return c.cb.Name()
}

func (c *CircuitBreaker) State() State {
	return stateOf(c.cb.State())
}

// Execute runs fn unless the breaker is open. A half-open breaker admits a
// single probe call; concurrent callers get ErrOpen.
func (c *CircuitBreaker) Execute(fn func() error) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrOpen
	}
	return err
}

func stateOf(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
