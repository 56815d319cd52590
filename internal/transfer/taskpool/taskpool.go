// Package taskpool runs tasks on a fixed number of workers with a bounded
// backlog and reports their aggregate outcome.
//
// A failing task never cancels its siblings: Wait drains every submitted task
// before reporting, so the caller accounts for all work already sent.
package taskpool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/hashicorp/go-multierror"
)

// Result is the aggregate outcome of every task submitted to a Pool.
type Result struct {
	// SuccessAll reports whether every submitted task returned nil.
	SuccessAll bool

	// Submitted and Failed count tasks.
	Submitted int
	Failed    int

	// Err aggregates every task failure in submission order, or is nil.
	Err error
}

type failure struct {
	seq int
	err error
}

// Pool is a single-use bounded worker pool.
type Pool struct {
	workers pond.Pool

	mu        sync.Mutex
	submitted int
	failures  []failure

	once   sync.Once
	result Result
}

// New creates a pool of workers goroutines. A positive queueSize bounds the
// number of tasks waiting for a worker; Submit blocks while it is full.
func New(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	var opts []pond.Option
	if queueSize > 0 {
		opts = append(opts, pond.WithQueueSize(queueSize))
	}
	return &Pool{workers: pond.NewPool(workers, opts...)}
}

// Submit queues fn, blocking while the backlog is full. The name labels the
// task in panic reports. Submit must not be called after Wait.
func (p *Pool) Submit(name string, fn func() error) {
	p.mu.Lock()
	seq := p.submitted
	p.submitted++
	p.mu.Unlock()

	p.workers.Submit(func() {
		if err := run(name, fn); err != nil {
			p.mu.Lock()
			p.failures = append(p.failures, failure{seq: seq, err: err})
			p.mu.Unlock()
		}
	})
}

// Wait blocks until every submitted task has finished and returns the
// aggregate result. Later calls return the same result.
func (p *Pool) Wait() Result {
	p.once.Do(p.drain)
	return p.result
}

func (p *Pool) drain() {
	p.workers.StopAndWait()

	p.mu.Lock()
	defer p.mu.Unlock()

	sort.Slice(p.failures, func(i, j int) bool { return p.failures[i].seq < p.failures[j].seq })
	var merr *multierror.Error
	for _, f := range p.failures {
		merr = multierror.Append(merr, f.err)
	}

	p.result = Result{
		SuccessAll: len(p.failures) == 0,
		Submitted:  p.submitted,
		Failed:     len(p.failures),
		Err:        merr.ErrorOrNil(),
	}
}

func run(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", name, r)
		}
	}()
	return fn()
}
