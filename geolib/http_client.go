package geolib

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

type httpClient struct {
	userAgent      string
	client         *http.Client
	rateLimiter    *rate.Limiter
	circuitBreaker *circuitBreaker
}

func (h httpClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", h.userAgent)

	return h.circuitBreaker.Do(req.Context(), func(ctx context.Context) (*http.Response, error) {
		if err := h.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCircuitBreakerIgnore, err)
		}

		resp, err := h.client.Do(req.WithContext(ctx))
		if err != nil {
			if resp != nil {
				flushResponse(resp.Body)
			}

			return nil, err
		}

		if resp.StatusCode >= http.StatusBadRequest {
			flushResponse(resp.Body)

			return nil, fmt.Errorf("netloc has responded with %s", resp.Status)
		}

		return resp, nil
	})
}

// NewHTTPClient prepares a new HTTP client, wraps it with rate limiter,
// circuit breaker, sets a user agent etc. Each provider should get its
// own client: rate limiter is a spacing between calls to the same
// provider.
//
// Please see https://pkg.go.dev/golang.org/x/time/rate to get a meaning
// of rate limiter parameters. Interval of 500ms and burst of 1 mean
// that provider is called not more often than twice a second.
//
// A meaning of circuit breaker parameters:
//
// circuitBreakerOpenThreshold - a number of failures after which
// circuit breaker becomes OPEN and blocks access to a provider. 0
// disables circuit breaker.
//
// circuitBreakerResetFailuresTimeout - failures are counted within this
// time window only.
//
// circuitBreakerHalfOpenTimeout - OPEN circuit breaker goes into
// HALF_OPEN state after this time period. Within this state we allow 1
// attempt. If this attempt fails, then it goes into OPEN state again.
// If succeed - goes to CLOSED.
func NewHTTPClient(client *http.Client,
	userAgent string,
	rateLimiterInterval time.Duration,
	rateLimitBurst int,
	circuitBreakerOpenThreshold uint32,
	circuitBreakerHalfOpenTimeout, circuitBreakerResetFailuresTimeout time.Duration) HTTPClient {
	if client.Timeout == 0 {
		client.Timeout = DefaultHTTPTimeout
	}

	limit := rate.Inf
	if rateLimiterInterval > 0 {
		limit = rate.Every(rateLimiterInterval)
	}

	if rateLimitBurst <= 0 {
		rateLimitBurst = DefaultRateLimitBurst
	}

	return httpClient{
		userAgent:   userAgent,
		client:      client,
		rateLimiter: rate.NewLimiter(limit, rateLimitBurst),
		circuitBreaker: newCircuitBreaker(circuitBreakerOpenThreshold,
			circuitBreakerHalfOpenTimeout,
			circuitBreakerResetFailuresTimeout),
	}
}
