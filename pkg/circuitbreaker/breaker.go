package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many probes in half-open state")
)

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Config tunes the breaker. Interval, when set, bounds how long a closed
// breaker remembers a failure streak; MaxRequests caps concurrent probes
// while half-open.
type Config struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	SuccessThreshold uint32
	OnStateChange    func(name string, from State, to State)
	Logger           *zap.Logger
}

// CircuitBreaker sheds load from a failing dependency. Closed passes calls
// through and counts consecutive failures; open rejects immediately until
// Timeout elapses; half-open admits up to MaxRequests probes and closes again
// after SuccessThreshold consecutive successes.
type CircuitBreaker struct {
	name string
	cfg  Config

	mu         sync.Mutex
	state      State
	failStreak uint32
	succStreak uint32
	probes     uint32
	// epoch is bumped on every transition so a call admitted under an older
	// state cannot corrupt the streaks of the current one.
	epoch    uint64
	deadline time.Time
}

func NewCircuitBreaker(name string, cfg Config) *CircuitBreaker {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 2
	}

	cb := &CircuitBreaker{name: name, cfg: cfg}
	if cfg.Interval > 0 {
		cb.deadline = time.Now().Add(cfg.Interval)
	}
	return cb
}

func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	epoch, err := cb.admit()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			cb.settle(epoch, false)
			panic(r)
		}
	}()

	err = fn()
	cb.settle(epoch, err == nil)
	return err
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.refresh(time.Now())
	return cb.state
}

func (cb *CircuitBreaker) admit() (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.refresh(time.Now())

	switch cb.state {
	case StateOpen:
		return cb.epoch, ErrCircuitOpen
	case StateHalfOpen:
		if cb.probes >= cb.cfg.MaxRequests {
			return cb.epoch, ErrTooManyRequests
		}
		cb.probes++
	}

	return cb.epoch, nil
}

func (cb *CircuitBreaker) settle(epoch uint64, success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.refresh(now)
	if epoch != cb.epoch {
		return
	}

	if success {
		cb.failStreak = 0
		if cb.state == StateHalfOpen {
			cb.succStreak++
			if cb.succStreak >= cb.cfg.SuccessThreshold {
				cb.transition(StateClosed, now)
			}
		}
		return
	}

	cb.succStreak = 0
	switch cb.state {
	case StateClosed:
		cb.failStreak++
		if cb.failStreak >= cb.cfg.FailureThreshold {
			cb.transition(StateOpen, now)
		}
	case StateHalfOpen:
		cb.transition(StateOpen, now)
	}
}

// refresh applies time-driven transitions: open breakers start probing after
// Timeout, and closed breakers forget stale failure streaks after Interval.
func (cb *CircuitBreaker) refresh(now time.Time) {
	switch cb.state {
	case StateClosed:
		if cb.cfg.Interval > 0 && !cb.deadline.IsZero() && now.After(cb.deadline) {
			cb.failStreak = 0
			cb.deadline = now.Add(cb.cfg.Interval)
		}
	case StateOpen:
		if now.After(cb.deadline) {
			cb.transition(StateHalfOpen, now)
		}
	}
}

func (cb *CircuitBreaker) transition(state State, now time.Time) {
	if cb.state == state {
		return
	}

	from := cb.state
	cb.state = state
	cb.epoch++
	cb.failStreak = 0
	cb.succStreak = 0
	cb.probes = 0

	switch state {
	case StateOpen:
		cb.deadline = now.Add(cb.cfg.Timeout)
	case StateClosed:
		if cb.cfg.Interval > 0 {
			cb.deadline = now.Add(cb.cfg.Interval)
		} else {
			cb.deadline = time.Time{}
		}
	default:
		cb.deadline = time.Time{}
	}

	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.name, from, state)
	}

	if cb.cfg.Logger != nil {
		cb.cfg.Logger.Info("Circuit breaker state changed",
			zap.String("name", cb.name),
			zap.String("from", from.String()),
			zap.String("to", state.String()),
		)
	}
}
