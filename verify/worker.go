package verify

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eth2030/blsworker/log"
)

// workItem pairs a submitted request with its reply channel.
type workItem struct {
	ctx   context.Context
	reqs  []WorkReq
	reply chan *BlsWorkResult
}

// Worker hosts a single-threaded verification context: one goroutine
// receiving requests over a channel, processing them FIFO, one at a time,
// to completion. Workers share nothing; parallelism across requests comes
// from running several Worker instances (see Pool).
type Worker struct {
	id       int
	verifier *BatchVerifier
	now      func() time.Time
	log      *log.Logger
	m        *engineMetrics

	reqCh chan workItem
	quit  chan struct{}
	done  chan struct{}

	pending   atomic.Int64
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWorker creates a stopped worker. Call Start before Submit.
func NewWorker(cfg Config) *Worker {
	return newWorker(cfg.sanitize(), 0)
}

// newWorker wires a worker from an already-sanitized config.
func newWorker(cfg Config, id int) *Worker {
	return &Worker{
		id:       id,
		verifier: NewBatchVerifier(cfg),
		now:      cfg.Now,
		log:      cfg.Logger.Module("worker").With("worker", id),
		m:        newEngineMetrics(cfg.Registry),
		reqCh:    make(chan workItem, cfg.QueueDepth),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the worker goroutine. Subsequent calls are no-ops.
func (w *Worker) Start() {
	w.startOnce.Do(func() {
		go w.loop()
	})
}

// Stop signals the worker to exit. Queued requests are still answered:
// a request the loop picks up before it observes the quit signal is
// verified as usual; every other queued request receives a full-length
// result carrying ErrWorkerStopped. Stop returns once the loop has exited.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.quit)
	})
	w.Start() // a never-started worker still needs the loop to drain
	<-w.done
}

// Pending returns the number of accepted, not yet completed requests.
func (w *Worker) Pending() int {
	return int(w.pending.Load())
}

// Submit enqueues a request and waits for its result. The context cancels
// both queue wait and, once running, any not-yet-verified jobs; jobs
// already verified keep their verdicts in the returned results.
func (w *Worker) Submit(ctx context.Context, reqs []WorkReq) (*BlsWorkResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	item := workItem{ctx: ctx, reqs: reqs, reply: make(chan *BlsWorkResult, 1)}

	select {
	case w.reqCh <- item:
		w.pending.Add(1)
		w.m.queueDepth.Inc()
	case <-w.quit:
		return nil, ErrWorkerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-item.reply:
		return res, nil
	case <-w.done:
		// The loop drains the queue before closing done, so a reply may
		// already be buffered.
		select {
		case res := <-item.reply:
			return res, nil
		default:
			return nil, ErrWorkerStopped
		}
	}
}

// loop is the worker goroutine: FIFO, one request at a time, run to
// completion. On shutdown it answers everything still queued.
func (w *Worker) loop() {
	defer close(w.done)
	for {
		select {
		case item := <-w.reqCh:
			item.reply <- w.process(item)
			w.pending.Add(-1)
			w.m.queueDepth.Dec()
		case <-w.quit:
			for {
				select {
				case item := <-w.reqCh:
					item.reply <- w.refuse(item)
					w.pending.Add(-1)
					w.m.queueDepth.Dec()
				default:
					return
				}
			}
		}
	}
}

// process runs one request through the batch verifier, bracketing it with
// monotonic timestamps. A panic anywhere inside verification is converted
// into a request-wide internal error; it never crosses the channel.
func (w *Worker) process(item workItem) (res *BlsWorkResult) {
	start := w.now()
	defer func() {
		if r := recover(); r != nil {
			w.m.workerPanics.Inc()
			w.log.Error("panic during verification", "panic", r)
			res = w.failAll(item.reqs, start, fmt.Errorf("%w: %v", ErrInternal, r))
		}
	}()

	results, stats := w.verifier.run(item.ctx, item.reqs)
	end := w.now()
	w.m.requestDuration.Observe(float64(end.Sub(start).Milliseconds()))

	return &BlsWorkResult{
		Results: results,
		Metrics: WorkMetrics{
			BatchRetries:     stats.batchRetries,
			BatchSigsSuccess: stats.batchSigsSuccess,
			DuplicateSets:    stats.duplicateSets,
			WorkerStart:      start,
			WorkerEnd:        end,
		},
	}
}

// refuse answers a queued request after Stop: full-length results, every
// index carrying the stop error.
func (w *Worker) refuse(item workItem) *BlsWorkResult {
	return w.failAll(item.reqs, w.now(), ErrWorkerStopped)
}

// failAll builds a request-wide error result: the same code and error at
// every index, so callers still see a results slice matching their input.
func (w *Worker) failAll(reqs []WorkReq, start time.Time, err error) *BlsWorkResult {
	results := make([]WorkResult, len(reqs))
	for i := range results {
		results[i] = failure(CodeInternal, err)
	}
	return &BlsWorkResult{
		Results: results,
		Metrics: WorkMetrics{WorkerStart: start, WorkerEnd: w.now()},
	}
}
