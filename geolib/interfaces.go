package geolib

import (
	"context"
	"net/http"
)

// Provider resolves a query into a normalized record. Implementations
// must stamp IP and Source on every successful record.
type Provider interface {
	Name() string
	Lookup(context.Context, Query) (NormalizedRecord, error)
}

// HTTPClient is a subset of http.Client used by providers.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// HistoryStore persists tracked results. Storage package implements
// this interface.
type HistoryStore interface {
	Save(ctx context.Context, target string, targetType TargetType, result ReconciledResult) error
}

// PublicIPResolver detects an external address of the current host.
type PublicIPResolver interface {
	PublicIP(context.Context) (Query, error)
}

// Logger receives events of the orchestrator. Provider failures are
// contained by orchestrator and reported here only.
type Logger interface {
	QueryError(value string, err error)
	LookupError(query Query, provider string, err error)
	PersistError(target string, err error)
	TrackInfo(result ReconciledResult)
}
