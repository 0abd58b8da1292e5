package geolib

import (
	"encoding/json"
	"errors"
	"net/http"
)

var (
	// ErrInvalidQuery is returned if a query is not a valid IPv4
	// address. No provider is called in that case.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrProviderUnavailable wraps every failure of a single provider:
	// network errors, timeouts, bad statuses and malformed bodies.
	ErrProviderUnavailable = errors.New("provider is unavailable")

	// ErrNoProvidersSucceeded is used by callers which have to report
	// that every provider has failed.
	ErrNoProvidersSucceeded = errors.New("no providers succeeded")

	// ErrNoRecords is returned by Reconciler if nothing to reconcile.
	ErrNoRecords = errors.New("no records to reconcile")

	ErrOrchestratorShutdown = errors.New("orchestrator instance was shutdown")
	ErrContextIsClosed      = errors.New("context is closed")
	ErrCircuitBreakerOpened = errors.New("circuit breaker is opened")
	ErrCircuitBreakerIgnore = errors.New("this error should be ignored by circuit breaker")
)

type jsonHTTPError struct {
	Error struct {
		Message  string `json:"message"`
		Context  string `json:"context"`
		Query    string `json:"query,omitempty"`
		Provider string `json:"provider,omitempty"`
	} `json:"error"`
}

// httpError is an error of the JSON API. Errors of lookups are bound
// to a query and optionally to a provider which was asked.
type httpError struct {
	message    string
	query      string
	provider   string
	err        error
	statusCode int
}

// Message is a human readable message, like "Cannot resolve IP address
// 1.1.1.1 with ipinfo".
func (h *httpError) Message() string {
	switch {
	case h == nil:
		return ""
	case h.query == "":
		return h.message
	case h.provider == "":
		return h.message + " " + h.query
	}

	return h.message + " " + h.query + " with " + h.provider
}

func (h *httpError) Err() string {
	if err := errors.Unwrap(h); err != nil {
		return err.Error()
	}

	return ""
}

func (h *httpError) StatusCode() int {
	if h != nil && h.statusCode != 0 {
		return h.statusCode
	}

	return http.StatusInternalServerError
}

func (h *httpError) Unwrap() error {
	if h == nil {
		return nil
	}

	return h.err
}

func (h *httpError) Error() string {
	message := h.Message()

	switch {
	case h == nil:
		return ""
	case h.err != nil && message != "":
		return message + ": " + h.err.Error()
	case h.err != nil:
		return h.err.Error()
	}

	return message
}

func (h *httpError) MarshalJSON() ([]byte, error) {
	if h == nil {
		return []byte("null"), nil
	}

	value := jsonHTTPError{}
	value.Error.Message = h.Message()
	value.Error.Context = h.Err()
	value.Error.Query = h.query
	value.Error.Provider = h.provider

	return json.Marshal(&value)
}
