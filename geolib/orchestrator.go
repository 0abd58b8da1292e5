package geolib

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	DefaultWorkerPoolSize = 8

	workerPoolExpireTime = time.Minute
)

// Opts defines a set of orchestrator dependencies. Registry and Logger
// are mandatory, the rest is optional.
type Opts struct {
	Registry       *Registry
	Reconciler     Reconciler
	Logger         Logger
	Store          HistoryStore
	PublicIP       PublicIPResolver
	WorkerPoolSize int
}

// Orchestrator drives a query across all providers of the registry
// and reconciles their answers.
//
// Provider failures never escape orchestrator: a query resolves into a
// result or into nothing. The only error reported to the caller is
// ErrInvalidQuery (and ErrOrchestratorShutdown if orchestrator is
// closed).
type Orchestrator struct {
	logger     Logger
	registry   *Registry
	reconciler Reconciler
	store      HistoryStore
	publicIP   PublicIPResolver
	history    *History
	usageStats map[string]*UsageStats
	rwmutex    sync.RWMutex
	closeOnce  sync.Once
	workerPool *ants.PoolWithFunc
	closed     bool
}

func (o *Orchestrator) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	NewHTTPHandler(o).ServeHTTP(w, req)
}

// ResolveMulti asks all providers in registry order and reconciles
// their answers. ok is false if every provider has failed or context
// was closed before all providers were asked.
func (o *Orchestrator) ResolveMulti(ctx context.Context, value string) (ReconciledResult, bool, error) {
	query, err := ParseQuery(value)
	if err != nil {
		return ReconciledResult{}, false, err
	}

	o.rwmutex.RLock()
	defer o.rwmutex.RUnlock()

	if o.closed {
		return ReconciledResult{}, false, ErrOrchestratorShutdown
	}

	result, ok := o.resolveMulti(ctx, query)

	return result, ok, nil
}

// ResolveSingle asks only one provider. Unknown provider names fall
// back to the default provider of the registry. Result is not
// reconciled.
func (o *Orchestrator) ResolveSingle(ctx context.Context, value, providerName string) (NormalizedRecord, bool, error) {
	query, err := ParseQuery(value)
	if err != nil {
		return NormalizedRecord{}, false, err
	}

	o.rwmutex.RLock()
	defer o.rwmutex.RUnlock()

	if o.closed {
		return NormalizedRecord{}, false, ErrOrchestratorShutdown
	}

	record, ok := o.lookup(ctx, o.registry.Get(providerName), query)

	return record, ok, nil
}

// Track resolves a query, appends a result to the history and saves it
// into the store. Store failures are logged only.
func (o *Orchestrator) Track(ctx context.Context, value string, targetType TargetType) (ReconciledResult, bool, error) {
	query, err := ParseQuery(value)
	if err != nil {
		return ReconciledResult{}, false, err
	}

	o.rwmutex.RLock()
	defer o.rwmutex.RUnlock()

	if o.closed {
		return ReconciledResult{}, false, ErrOrchestratorShutdown
	}

	result, ok := o.track(ctx, query, targetType)

	return result, ok, nil
}

// TrackSelf detects a public IP address of this host and tracks it.
func (o *Orchestrator) TrackSelf(ctx context.Context) (ReconciledResult, bool, error) {
	if o.publicIP == nil {
		return ReconciledResult{}, false, errors.New("public ip resolver is not configured")
	}

	query, err := o.publicIP.PublicIP(ctx)
	if err != nil {
		return ReconciledResult{}, false, fmt.Errorf("cannot detect public ip: %w", err)
	}

	return o.Track(ctx, query.String(), TargetSelfIP)
}

// TrackAll tracks a list of queries concurrently using a worker pool.
// Invalid queries are reported to the logger and skipped. Results keep
// an order of given values; unresolved queries are absent.
//
// If context is closed, no new queries are scheduled but already
// scheduled ones are finished: they are bound only by timeouts of
// providers.
func (o *Orchestrator) TrackAll(ctx context.Context, values []string) ([]ReconciledResult, error) {
	o.rwmutex.RLock()
	defer o.rwmutex.RUnlock()

	if o.closed {
		return nil, ErrOrchestratorShutdown
	}

	resultChannel := make(chan indexedResult, len(values))
	wg := &sync.WaitGroup{}
	groupRequest := newPoolGroupRequest(ctx, resultChannel, TargetIP, wg, o.workerPool)

	defer groupRequest.cancel()

	for i, v := range values {
		query, err := ParseQuery(v)
		if err != nil {
			o.logger.QueryError(v, err)

			continue
		}

		if err := groupRequest.Do(ctx, i, query); err != nil {
			break
		}
	}

	go func() {
		wg.Wait()
		close(resultChannel)
	}()

	collected := make([]indexedResult, 0, len(values))

	for res := range resultChannel {
		collected = append(collected, res)
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].index < collected[j].index
	})

	rv := make([]ReconciledResult, 0, len(collected))

	for _, v := range collected {
		rv = append(rv, v.result)
	}

	return rv, nil
}

// History returns results tracked by this orchestrator in order.
func (o *Orchestrator) History() []ReconciledResult {
	return o.history.Entries()
}

// UsageStats returns usage of providers in registry order.
func (o *Orchestrator) UsageStats() []*UsageStats {
	rv := make([]*UsageStats, 0, o.registry.Len())

	for _, v := range o.registry.Names() {
		rv = append(rv, o.usageStats[v])
	}

	return rv
}

// Registry returns a registry of providers.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

func (o *Orchestrator) Shutdown() {
	o.rwmutex.Lock()
	defer o.rwmutex.Unlock()

	o.closed = true

	o.closeOnce.Do(func() {
		o.workerPool.Release()
	})
}

func (o *Orchestrator) resolveMulti(ctx context.Context, query Query) (ReconciledResult, bool) {
	records := make([]NormalizedRecord, 0, o.registry.Len())

	for _, provider := range o.registry.All() {
		// a result reconciled from a part of providers is not tracked
		if ctx.Err() != nil {
			return ReconciledResult{}, false
		}

		if record, ok := o.lookup(ctx, provider, query); ok {
			records = append(records, record)
		}
	}

	if len(records) == 0 {
		return ReconciledResult{}, false
	}

	result, err := o.reconciler.Reconcile(records)
	if err != nil {
		return ReconciledResult{}, false
	}

	return result, true
}

func (o *Orchestrator) lookup(ctx context.Context, provider Provider, query Query) (NormalizedRecord, bool) {
	record, err := provider.Lookup(ctx, query)

	if stats, ok := o.usageStats[provider.Name()]; ok {
		stats.Used(err)
	}

	if err != nil {
		o.logger.LookupError(query, provider.Name(), err)

		return NormalizedRecord{}, false
	}

	record.IP = query.String()
	record.Source = provider.Name()

	return record, true
}

func (o *Orchestrator) track(ctx context.Context, query Query, targetType TargetType) (ReconciledResult, bool) {
	result, ok := o.resolveMulti(ctx, query)
	if !ok {
		return result, false
	}

	o.history.Append(result)
	o.logger.TrackInfo(result)

	if o.store != nil {
		if err := o.store.Save(ctx, query.String(), targetType, result); err != nil {
			o.logger.PersistError(query.String(), err)
		}
	}

	return result, true
}

func (o *Orchestrator) trackWorker(args interface{}) {
	req := args.(*trackRequest)
	defer req.wg.Done()

	if result, ok := o.track(req.ctx, req.query, req.targetType); ok {
		req.resultChannel <- indexedResult{index: req.index, result: result}
	}
}

// NewOrchestrator builds a new orchestrator instance. Configuration is
// scoped to this instance: there is no process-wide state.
func NewOrchestrator(opts Opts) (*Orchestrator, error) {
	if opts.Registry == nil {
		return nil, errors.New("registry is required")
	}

	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}

	rv := &Orchestrator{
		logger:     opts.Logger,
		registry:   opts.Registry,
		reconciler: opts.Reconciler,
		store:      opts.Store,
		publicIP:   opts.PublicIP,
		history:    &History{},
		usageStats: make(map[string]*UsageStats, opts.Registry.Len()),
	}

	for _, v := range opts.Registry.Names() {
		rv.usageStats[v] = &UsageStats{Name: v}
	}

	poolSize := opts.WorkerPoolSize
	if poolSize <= 0 {
		poolSize = DefaultWorkerPoolSize
	}

	pool, err := ants.NewPoolWithFunc(poolSize, rv.trackWorker,
		ants.WithExpiryDuration(workerPoolExpireTime))
	if err != nil {
		return nil, fmt.Errorf("cannot create a worker pool: %w", err)
	}

	rv.workerPool = pool

	return rv, nil
}
