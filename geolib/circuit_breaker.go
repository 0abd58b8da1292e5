package geolib

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

type circuitBreakerCallback func(context.Context) (*http.Response, error)

type circuitBreakerState uint8

const (
	circuitBreakerStateClosed circuitBreakerState = iota
	circuitBreakerStateHalfOpened
	circuitBreakerStateOpened
)

// circuitBreaker stops hammering a provider which fails constantly.
// A failing provider is excluded from reconciliation anyway, so there
// is no reason to wait for its timeouts on each resolution.
type circuitBreaker struct {
	mutex sync.Mutex
	now   func() time.Time

	state            circuitBreakerState
	failuresCount    uint32
	failuresSince    time.Time
	openedAt         time.Time
	halfOpenInFlight bool

	openThreshold        uint32
	halfOpenTimeout      time.Duration
	resetFailuresTimeout time.Duration
}

func (c *circuitBreaker) Do(ctx context.Context, callback circuitBreakerCallback) (*http.Response, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}

	resp, err := callback(ctx)

	c.release(err)

	return resp, err
}

func (c *circuitBreaker) acquire() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state == circuitBreakerStateOpened {
		if c.now().Sub(c.openedAt) < c.halfOpenTimeout {
			return ErrCircuitBreakerOpened
		}

		c.switchState(circuitBreakerStateHalfOpened)
	}

	if c.state == circuitBreakerStateHalfOpened {
		if c.halfOpenInFlight {
			return ErrCircuitBreakerOpened
		}

		c.halfOpenInFlight = true
	}

	return nil
}

func (c *circuitBreaker) release(err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	ignore := errors.Is(err, ErrCircuitBreakerIgnore) || errors.Is(err, context.Canceled)

	switch c.state {
	case circuitBreakerStateHalfOpened:
		switch {
		case ignore:
			c.halfOpenInFlight = false
		case err != nil:
			c.switchState(circuitBreakerStateOpened)
		default:
			c.switchState(circuitBreakerStateClosed)
		}
	case circuitBreakerStateClosed:
		switch {
		case ignore:
		case err == nil:
			c.switchState(circuitBreakerStateClosed)
		default:
			c.registerFailure()
		}
	}
}

func (c *circuitBreaker) registerFailure() {
	now := c.now()

	if c.failuresSince.IsZero() || now.Sub(c.failuresSince) > c.resetFailuresTimeout {
		c.failuresSince = now
		c.failuresCount = 0
	}

	c.failuresCount++

	if c.openThreshold > 0 && c.failuresCount >= c.openThreshold {
		c.switchState(circuitBreakerStateOpened)
	}
}

func (c *circuitBreaker) switchState(state circuitBreakerState) {
	if state == circuitBreakerStateOpened {
		c.openedAt = c.now()
	}

	c.state = state
	c.failuresCount = 0
	c.failuresSince = time.Time{}
	c.halfOpenInFlight = false
}

func newCircuitBreaker(openThreshold uint32,
	halfOpenTimeout, resetFailuresTimeout time.Duration) *circuitBreaker {
	return &circuitBreaker{
		now:                  time.Now,
		openThreshold:        openThreshold,
		halfOpenTimeout:      halfOpenTimeout,
		resetFailuresTimeout: resetFailuresTimeout,
	}
}
