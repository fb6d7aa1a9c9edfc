package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

// ErrCircuitOpen — брокер недоступен, публикация пропущена без обращения к нему.
var ErrCircuitOpen = errors.New("outbox publisher circuit is open")

// CircuitState — состояние CircuitPublisher.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitPublisher размыкает цепь после maxFailures подряд неудачных публикаций
// и пропускает одну пробную публикацию по истечении resetTimeout.
type CircuitPublisher struct {
	next         domain.OutboxPublisher
	maxFailures  int
	resetTimeout time.Duration
	logger       *log.Entry
	now          func() time.Time

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	state       CircuitState
}

// NewCircuitPublisher оборачивает publisher. maxFailures <= 0 превращается в 1.
func NewCircuitPublisher(next domain.OutboxPublisher, maxFailures int, resetTimeout time.Duration, logger *log.Entry) *CircuitPublisher {
	if maxFailures <= 0 {
		maxFailures = 1
	}
	if logger == nil {
		logger = log.WithField("component", "outbox-circuit")
	}
	return &CircuitPublisher{
		next:         next,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		logger:       logger,
		now:          time.Now,
	}
}

// State возвращает текущее состояние цепи.
func (c *CircuitPublisher) State() CircuitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Publish implements domain.OutboxPublisher.
func (c *CircuitPublisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	if !c.allow() {
		return ErrCircuitOpen
	}

	err := c.next.Publish(ctx, event)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failures++
		c.lastFailure = c.now()
		if c.state == CircuitHalfOpen || c.failures >= c.maxFailures {
			c.state = CircuitOpen
			c.logger.WithFields(log.Fields{
				"event_type": event.EventType,
				"failures":   c.failures,
			}).Warn("outbox circuit opened")
		}
		return err
	}
	if c.state == CircuitHalfOpen {
		c.logger.Info("outbox circuit closed")
	}
	c.state = CircuitClosed
	c.failures = 0
	return nil
}

func (c *CircuitPublisher) allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case CircuitOpen:
		if c.now().Sub(c.lastFailure) <= c.resetTimeout {
			return false
		}
		c.state = CircuitHalfOpen
		c.logger.Info("outbox circuit half-open")
		return true
	case CircuitHalfOpen:
		// пробная публикация уже идёт
		return false
	default:
		return true
	}
}
