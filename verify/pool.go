package verify

import (
	"context"
	"sync/atomic"

	"github.com/eth2030/blsworker/log"
)

// Pool fronts several independent workers. Each submission goes to the
// least-busy worker, falling back to round-robin on ties, so one slow
// request does not head-of-line-block the others. Workers share nothing;
// FIFO ordering holds per worker, not across the pool.
type Pool struct {
	workers []*Worker
	next    atomic.Uint64
	log     *log.Logger
}

// NewPool creates cfg.Workers stopped workers. Call Start before Submit.
func NewPool(cfg Config) *Pool {
	cfg = cfg.sanitize()
	workers := make([]*Worker, cfg.Workers)
	for i := range workers {
		workers[i] = newWorker(cfg, i)
	}
	return &Pool{
		workers: workers,
		log:     cfg.Logger.Module("pool"),
	}
}

// Start launches every worker.
func (p *Pool) Start() {
	for _, w := range p.workers {
		w.Start()
	}
	p.log.Info("verification pool started", "workers", len(p.workers))
}

// Stop stops every worker and waits for their loops to exit.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.Stop()
	}
	p.log.Info("verification pool stopped")
}

// Size returns the worker count.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Submit dispatches the request to a worker and waits for its result.
func (p *Pool) Submit(ctx context.Context, reqs []WorkReq) (*BlsWorkResult, error) {
	return p.pick().Submit(ctx, reqs)
}

// pick selects the worker with the fewest pending requests. The rotating
// start index spreads ties across the pool.
func (p *Pool) pick() *Worker {
	n := uint64(len(p.workers))
	start := p.next.Add(1)
	best := p.workers[start%n]
	if best.Pending() == 0 {
		return best
	}
	for i := uint64(1); i < n; i++ {
		w := p.workers[(start+i)%n]
		if w.Pending() < best.Pending() {
			best = w
			if best.Pending() == 0 {
				break
			}
		}
	}
	return best
}
