package geolib

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

type indexedResult struct {
	index  int
	result ReconciledResult
}

type trackRequest struct {
	ctx           context.Context
	index         int
	query         Query
	targetType    TargetType
	resultChannel chan<- indexedResult
	wg            *sync.WaitGroup
}

type poolGroupRequest struct {
	ctx           context.Context
	cancel        context.CancelFunc
	resultChannel chan<- indexedResult
	targetType    TargetType
	wg            *sync.WaitGroup
	pool          *ants.PoolWithFunc
}

// Do schedules a tracking of the query. It stops scheduling as soon as
// any of contexts is closed; requests which are already scheduled are
// not interrupted.
func (p *poolGroupRequest) Do(ctx context.Context, index int, query Query) error {
	select {
	case <-ctx.Done():
		return ErrContextIsClosed
	case <-p.ctx.Done():
		return ErrContextIsClosed
	default:
	}

	p.wg.Add(1)

	req := &trackRequest{
		ctx:           context.WithoutCancel(p.ctx),
		index:         index,
		query:         query,
		targetType:    p.targetType,
		resultChannel: p.resultChannel,
		wg:            p.wg,
	}

	if err := p.pool.Invoke(req); err != nil {
		p.wg.Done()
		p.cancel()

		return fmt.Errorf("cannot schedule a task: %w", err)
	}

	return nil
}

func newPoolGroupRequest(ctx context.Context,
	resultChannel chan<- indexedResult,
	targetType TargetType,
	wg *sync.WaitGroup,
	pool *ants.PoolWithFunc) *poolGroupRequest {
	ctx, cancel := context.WithCancel(ctx)

	return &poolGroupRequest{
		ctx:           ctx,
		cancel:        cancel,
		wg:            wg,
		resultChannel: resultChannel,
		targetType:    targetType,
		pool:          pool,
	}
}
