package thumbcache

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultWorkers is the number of concurrent render calls.
	DefaultWorkers = 4
	// DefaultRenderTimeout bounds a single render call.
	DefaultRenderTimeout = 10 * time.Second
)

// RenderFunc renders one page. It is called from pool workers.
type RenderFunc func(ctx context.Context, page int) (image.Image, error)

// Job is a render request tagged with the session that issued it.
type Job struct {
	Page   int
	Token  Token
	Render RenderFunc
}

// Result is the outcome of a Job.
type Result struct {
	Page    int
	Token   Token
	Image   image.Image
	Err     error
	Elapsed time.Duration
}

// Pool runs render jobs on a fixed number of workers. Jobs beyond the
// number of workers wait in a FIFO queue. Results are sent on the channel
// given to NewPool; the receiver is expected to be the control goroutine.
type Pool struct {
	log      logrus.FieldLogger
	sessions *Sessions
	timeout  time.Duration
	out      chan<- Result
	ctx      context.Context
	cancel   context.CancelFunc
	group    errgroup.Group

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Job
	closed  bool
	running map[jobKey]bool // render calls not yet returned, abandoned ones included

	busy      atomic.Int64
	started   atomic.Int64
	skipped   atomic.Int64
	abandoned atomic.Int64
}

type jobKey struct {
	token Token
	page  int
}

// NewPool starts workers goroutines. A job whose token is no longer
// current when a worker picks it up is dropped without rendering. A
// render call running longer than timeout is reported as failed with
// ErrRenderTimeout and left to finish on its own; until it does, jobs for
// the same page fail with ErrRenderStalled. A zero timeout waits forever.
func NewPool(workers int, timeout time.Duration, sessions *Sessions, out chan<- Result, log logrus.FieldLogger) *Pool {
	if workers <= 0 {
		panic(fmt.Sprintf("thumbcache: pool needs at least one worker, got %d", workers))
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Pool{
		log:      log,
		sessions: sessions,
		timeout:  timeout,
		out:      out,
		running:  make(map[jobKey]bool),
	}
	p.cond = sync.NewCond(&p.mu)
	p.ctx, p.cancel = context.WithCancel(context.Background())
	for range workers {
		p.group.Go(p.worker)
	}
	return p
}

// Submit queues a job. It never blocks. Jobs submitted after Close are
// dropped.
func (p *Pool) Submit(j Job) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.queue = append(p.queue, j)
	p.cond.Signal()
}

// Queued returns the number of jobs waiting for a worker.
func (p *Pool) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Busy returns the number of render calls in progress.
func (p *Pool) Busy() int {
	return int(p.busy.Load())
}

// Abandoned returns the number of timed out render calls that have not
// returned yet.
func (p *Pool) Abandoned() int {
	return int(p.abandoned.Load())
}

// Counters returns the number of jobs rendered and the number of stale
// jobs dropped from the queue.
func (p *Pool) Counters() (started, skipped int) {
	return int(p.started.Load()), int(p.skipped.Load())
}

// Close drops queued jobs, asks running render calls to stop and waits
// for the workers to exit.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.queue = nil
	p.cond.Broadcast()
	p.mu.Unlock()

	p.cancel()
	_ = p.group.Wait()
}

func (p *Pool) worker() error {
	for {
		job, ok := p.next()
		if !ok {
			return nil
		}
		if !p.sessions.IsCurrent(job.Token) {
			p.skipped.Add(1)
			continue
		}
		res := p.run(job)
		select {
		case p.out <- res:
		case <-p.ctx.Done():
			return nil
		}
	}
}

func (p *Pool) next() (Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if p.closed {
		return Job{}, false
	}
	job := p.queue[0]
	p.queue[0] = Job{}
	p.queue = p.queue[1:]
	return job, true
}

// run renders job on a separate goroutine so that a call ignoring its
// context cannot hold the worker past the timeout.
func (p *Pool) run(job Job) Result {
	key := jobKey{token: job.Token, page: job.Page}
	p.mu.Lock()
	if p.running[key] {
		p.mu.Unlock()
		return Result{
			Page:  job.Page,
			Token: job.Token,
			Err:   fmt.Errorf("render page %d: %w", job.Page, ErrRenderStalled),
		}
	}
	p.running[key] = true
	p.mu.Unlock()

	ctx, cancel := p.ctx, context.CancelFunc(func() {})
	if p.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
	}

	p.started.Add(1)
	p.busy.Add(1)
	defer p.busy.Add(-1)

	const (
		calling int32 = iota
		returned
		abandoned
	)
	var state atomic.Int32
	start := time.Now()
	done := make(chan Result, 1)
	go func() {
		defer cancel()
		img, err := job.Render(ctx, job.Page)
		p.mu.Lock()
		delete(p.running, key)
		p.mu.Unlock()
		if !state.CompareAndSwap(calling, returned) {
			p.abandoned.Add(-1)
		}
		done <- Result{Page: job.Page, Token: job.Token, Image: img, Err: err}
	}()

	select {
	case res := <-done:
		res.Elapsed = time.Since(start)
		return res
	case <-ctx.Done():
		p.abandoned.Add(1)
		if !state.CompareAndSwap(calling, abandoned) {
			p.abandoned.Add(-1)
			res := <-done
			res.Elapsed = time.Since(start)
			return res
		}
		p.log.WithField("page", job.Page).Debug("thumbcache: render abandoned")
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrRenderTimeout
		}
		return Result{
			Page:    job.Page,
			Token:   job.Token,
			Err:     fmt.Errorf("render page %d: %w", job.Page, err),
			Elapsed: time.Since(start),
		}
	}
}
