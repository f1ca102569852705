package thumbcache

import (
	"context"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, workers int, timeout time.Duration, sessions *Sessions) (*Pool, chan Result) {
	t.Helper()

	out := make(chan Result, 64)
	p := NewPool(workers, timeout, sessions, out, nullLogger())
	t.Cleanup(p.Close)
	return p, out
}

func receive(t *testing.T, out <-chan Result, n int) []Result {
	t.Helper()

	var results []Result
	timeout := time.After(5 * time.Second)
	for len(results) < n {
		select {
		case res := <-out:
			results = append(results, res)
		case <-timeout:
			t.Fatalf("received %d of %d results", len(results), n)
		}
	}
	return results
}

func Test_Pool_Bounds_Concurrency(t *testing.T) {
	t.Parallel()

	sessions := &Sessions{}
	token := sessions.Begin()
	p, out := newTestPool(t, 4, time.Second, sessions)

	var running, peak atomic.Int64
	render := func(_ context.Context, page int) (image.Image, error) {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return pageImage(page, 0), nil
	}

	for i := range 20 {
		p.Submit(Job{Page: i, Token: token, Render: render})
	}
	results := receive(t, out, 20)

	pages := make(map[int]bool)
	for _, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, token, res.Token)
		pages[res.Page] = true
	}
	assert.Len(t, pages, 20)
	assert.LessOrEqual(t, peak.Load(), int64(4))
	started, skipped := p.Counters()
	assert.Equal(t, 20, started)
	assert.Zero(t, skipped)
}

func Test_Pool_Skips_Queued_Jobs_Of_Ended_Session(t *testing.T) {
	t.Parallel()

	sessions := &Sessions{}
	old := sessions.Begin()
	p, out := newTestPool(t, 1, time.Second, sessions)

	gate := make(chan struct{})
	var calls atomic.Int64
	render := func(_ context.Context, page int) (image.Image, error) {
		calls.Add(1)
		<-gate
		return pageImage(page, 0), nil
	}

	for i := range 6 {
		p.Submit(Job{Page: i, Token: old, Render: render})
	}
	require.Eventually(t, func() bool { return p.Busy() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 5, p.Queued())

	sessions.Begin()
	close(gate)

	res := receive(t, out, 1)[0]
	assert.Equal(t, old, res.Token, "the running job still reports, the caller drops it")
	require.Eventually(t, func() bool {
		_, skipped := p.Counters()
		return skipped == 5
	}, time.Second, time.Millisecond)
	assert.Equal(t, int64(1), calls.Load())
	assert.Zero(t, p.Queued())
}

func Test_Pool_Reports_Render_Errors(t *testing.T) {
	t.Parallel()

	sessions := &Sessions{}
	token := sessions.Begin()
	p, out := newTestPool(t, 2, time.Second, sessions)

	p.Submit(Job{Page: 3, Token: token, Render: func(context.Context, int) (image.Image, error) {
		return nil, errBoom
	}})

	res := receive(t, out, 1)[0]
	assert.Equal(t, 3, res.Page)
	assert.ErrorIs(t, res.Err, errBoom)
	assert.Nil(t, res.Image)
}

func Test_Pool_Times_Out_Slow_Renders(t *testing.T) {
	t.Parallel()

	sessions := &Sessions{}
	token := sessions.Begin()
	p, out := newTestPool(t, 1, 20*time.Millisecond, sessions)

	hang := make(chan struct{})
	t.Cleanup(func() { close(hang) })
	p.Submit(Job{Page: 1, Token: token, Render: func(context.Context, int) (image.Image, error) {
		<-hang
		return nil, nil
	}})

	res := receive(t, out, 1)[0]
	assert.ErrorIs(t, res.Err, ErrRenderTimeout)
	assert.Greater(t, res.Elapsed, 10*time.Millisecond)

	// the worker is free again
	p.Submit(Job{Page: 2, Token: token, Render: func(_ context.Context, page int) (image.Image, error) {
		return pageImage(page, 0), nil
	}})
	res = receive(t, out, 1)[0]
	assert.NoError(t, res.Err)
	assert.Equal(t, 2, res.Page)
}

func Test_Pool_Close_Does_Not_Wait_For_Hung_Render(t *testing.T) {
	t.Parallel()

	sessions := &Sessions{}
	token := sessions.Begin()
	out := make(chan Result, 1)
	p := NewPool(1, 0, sessions, out, nullLogger())

	hang := make(chan struct{})
	defer close(hang)
	p.Submit(Job{Page: 0, Token: token, Render: func(context.Context, int) (image.Image, error) {
		<-hang
		return nil, nil
	}})
	require.Eventually(t, func() bool { return p.Busy() == 1 }, time.Second, time.Millisecond)

	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on a hung render")
	}

	p.Submit(Job{Page: 1, Token: token})
	assert.Zero(t, p.Queued())
}

func Test_Pool_Does_Not_Rerender_Page_Whose_Timed_Out_Call_Is_Running(t *testing.T) {
	t.Parallel()

	sessions := &Sessions{}
	token := sessions.Begin()
	p, out := newTestPool(t, 2, 20*time.Millisecond, sessions)

	var calls atomic.Int64
	hang := make(chan struct{})
	render := func(_ context.Context, page int) (image.Image, error) {
		calls.Add(1)
		<-hang
		return pageImage(page, 0), nil
	}

	p.Submit(Job{Page: 3, Token: token, Render: render})
	res := receive(t, out, 1)[0]
	require.ErrorIs(t, res.Err, ErrRenderTimeout)
	assert.Equal(t, 1, p.Abandoned())

	for range 5 {
		p.Submit(Job{Page: 3, Token: token, Render: render})
		res = receive(t, out, 1)[0]
		assert.ErrorIs(t, res.Err, ErrRenderStalled)
	}
	assert.Equal(t, int64(1), calls.Load(), "renderer called again while stuck")

	close(hang)
	require.Eventually(t, func() bool { return p.Abandoned() == 0 }, time.Second, time.Millisecond)

	p.Submit(Job{Page: 3, Token: token, Render: render})
	res = receive(t, out, 1)[0]
	assert.NoError(t, res.Err)
	assert.Equal(t, int64(2), calls.Load())
}
