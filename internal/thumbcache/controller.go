package thumbcache

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultCapacity is the maximum number of resident thumbnails.
	DefaultCapacity = 100
	// DefaultBuffer is the number of pages kept warm on each side of the viewport.
	DefaultBuffer = 5
	// DefaultPreviewCacheSize is the number of full size previews kept.
	DefaultPreviewCacheSize = 4
)

// DefaultItemSize is the thumbnail cell size used when Options.ItemSize is zero.
var DefaultItemSize = image.Pt(100, 100)

// Document is a loaded paginated document and its renderer. The page
// count must not change while the document is loaded. The render methods
// are called from worker goroutines and must be safe for concurrent use.
type Document interface {
	PageCount() int
	RenderThumbnail(ctx context.Context, page int) (image.Image, error)
	RenderPreview(ctx context.Context, page int) (image.Image, error)
}

// Viewport is the visible part of the scrollable thumbnail list.
type Viewport struct {
	ScrollOffset int             // pixels scrolled from the top of the list
	Bounds       image.Rectangle // area the thumbnails are laid out in
}

// Options configure a Controller. Zero values select the defaults.
type Options struct {
	Capacity         int
	Buffer           int
	Workers          int
	Debounce         time.Duration
	RenderTimeout    time.Duration // negative disables the timeout
	ItemSize         image.Point   // size of one thumbnail cell
	Padding          int           // space between cells
	PreviewCacheSize int
	CountLoading     bool // renders in flight count against Capacity
	Sink             Sink // must not call back into the Controller
	Log              logrus.FieldLogger
}

func (o Options) withDefaults() Options {
	if o.Capacity == 0 {
		o.Capacity = DefaultCapacity
	}
	if o.Buffer == 0 {
		o.Buffer = DefaultBuffer
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Debounce == 0 {
		o.Debounce = DefaultDebounce
	}
	switch {
	case o.RenderTimeout == 0:
		o.RenderTimeout = DefaultRenderTimeout
	case o.RenderTimeout < 0:
		o.RenderTimeout = 0
	}
	if o.ItemSize == (image.Point{}) {
		o.ItemSize = DefaultItemSize
	}
	if o.PreviewCacheSize == 0 {
		o.PreviewCacheSize = DefaultPreviewCacheSize
	}
	if o.Sink == nil {
		o.Sink = nopSink{}
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	return o
}

func (o Options) validate() error {
	switch {
	case o.Capacity < 0:
		return fmt.Errorf("thumbcache: negative capacity %d", o.Capacity)
	case o.Buffer < 0:
		return fmt.Errorf("thumbcache: negative buffer %d", o.Buffer)
	case o.Workers < 0:
		return fmt.Errorf("thumbcache: negative worker count %d", o.Workers)
	case o.Debounce < 0:
		return fmt.Errorf("thumbcache: negative debounce %v", o.Debounce)
	case o.ItemSize.X < 0 || o.ItemSize.Y < 0:
		return fmt.Errorf("thumbcache: invalid item size %v", o.ItemSize)
	case o.Padding < 0:
		return fmt.Errorf("thumbcache: negative padding %d", o.Padding)
	case o.PreviewCacheSize < 0:
		return fmt.Errorf("thumbcache: negative preview cache size %d", o.PreviewCacheSize)
	}
	return nil
}

// Stats is a snapshot of the controller state.
type Stats struct {
	Session    Token
	Pages      int
	Capacity   int
	Visible    Range
	Resident   int
	Loading    int
	Queued     int
	Busy       int
	Recomputes int
	Dispatched int
	Skipped    int // stale jobs dropped from the queue
	// Counts of the current session.
	Rendered, Failed, Evicted, Discarded int
}

// command is a closure run on the control goroutine.
type command struct {
	fn   func()
	done chan struct{}
}

// Controller is the thumbnail cache of one viewer. All its methods are
// safe for concurrent use; they hand their work to the control goroutine
// and wait for it.
type Controller struct {
	opts     Options
	log      logrus.FieldLogger
	sessions Sessions
	debounce *Debouncer
	pool     *Pool
	results  chan Result
	cmds     chan command
	quit     chan struct{}
	done     chan struct{}
	closed   sync.Once

	// owned by the control goroutine
	sched      *Scheduler
	doc        Document
	viewport   Viewport
	measured   bool
	visible    Range
	recomputes int
	previews   *lru.Cache[int, image.Image]
}

// New starts a controller without a document.
func New(opts Options) (*Controller, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	previews, err := lru.New[int, image.Image](opts.PreviewCacheSize)
	if err != nil {
		return nil, fmt.Errorf("thumbcache: preview cache: %w", err)
	}

	c := &Controller{
		opts:     opts,
		log:      opts.Log,
		debounce: NewDebouncer(opts.Debounce),
		results:  make(chan Result, opts.Workers),
		cmds:     make(chan command),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		visible:  EmptyRange,
		previews: previews,
	}
	c.pool = NewPool(opts.Workers, opts.RenderTimeout, &c.sessions, c.results, opts.Log)
	c.sched = NewScheduler(c.pool, opts.Log)
	go c.loop()
	return c, nil
}

// LoadDocument starts a new session for doc. The slots of the previous
// document are dropped and outstanding jobs become stale. One
// recomputation is scheduled even if the viewport never changes.
func (c *Controller) LoadDocument(doc Document) (Token, error) {
	var token Token
	err := c.exec(func() {
		token = c.sessions.Begin()
		pages := doc.PageCount()
		store := NewStore(pages, c.opts.Capacity, &c.sessions, token, c.opts.Sink, c.log)
		store.SetCountLoading(c.opts.CountLoading)
		c.sched.Reset(store, doc.RenderThumbnail)
		c.doc = doc
		c.visible = EmptyRange
		c.previews.Purge()
		c.notifySession(token, pages)
		c.debounce.Trigger()
		c.log.WithFields(logrus.Fields{"session": token, "pages": pages}).Debug("thumbcache: document loaded")
	})
	return token, err
}

// CloseDocument ends the session. Jobs still running finish but their
// results are dropped.
func (c *Controller) CloseDocument() error {
	return c.exec(func() {
		if c.doc == nil {
			return
		}
		token, _ := c.sessions.Current()
		c.sessions.End()
		c.sched.Reset(nil, nil)
		c.doc = nil
		c.visible = EmptyRange
		c.previews.Purge()
		c.notifySession(0, 0)
		c.log.WithField("session", token).Debug("thumbcache: document closed")
	})
}

// OnViewportChanged records the new scroll position and size and
// restarts the quiet period.
func (c *Controller) OnViewportChanged(v Viewport) error {
	return c.exec(func() {
		c.viewport = v
		c.measured = true
		c.debounce.Trigger()
	})
}

// Refresh schedules a recomputation as if the viewport had changed.
func (c *Controller) Refresh() error {
	return c.exec(c.debounce.Trigger)
}

// Slot returns a snapshot of the slot of page.
func (c *Controller) Slot(page int) (Slot, error) {
	var (
		sl    Slot
		pages = -1
	)
	err := c.exec(func() {
		if store := c.sched.Store(); store != nil {
			pages = store.Len()
			if 0 <= page && page < pages {
				sl = store.Slot(page)
			}
		}
	})
	if err != nil {
		return Slot{}, err
	}
	if pages < 0 {
		return Slot{}, ErrNoDocument
	}
	checkPage(page, pages)
	return sl, nil
}

// Preview renders page at preview resolution, or returns it from the
// preview cache. The render runs on the calling goroutine.
func (c *Controller) Preview(ctx context.Context, page int) (image.Image, error) {
	var (
		doc    Document
		token  Token
		pages  int
		cached image.Image
	)
	err := c.exec(func() {
		store := c.sched.Store()
		if store == nil {
			return
		}
		doc, token, pages = c.doc, store.Token(), store.Len()
		cached, _ = c.previews.Get(page)
	})
	switch {
	case err != nil:
		return nil, err
	case doc == nil:
		return nil, ErrNoDocument
	}
	checkPage(page, pages)
	if cached != nil {
		return cached, nil
	}

	img, err := doc.RenderPreview(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("preview page %d: %w", page, err)
	}
	_ = c.exec(func() {
		if c.sessions.IsCurrent(token) {
			c.previews.Add(page, img)
		}
	})
	return img, nil
}

// Stats returns a snapshot of the controller state.
func (c *Controller) Stats() (Stats, error) {
	var st Stats
	err := c.exec(func() {
		if token, ok := c.sessions.Current(); ok {
			st.Session = token
		}
		st.Capacity = c.opts.Capacity
		st.Visible = c.visible
		st.Recomputes = c.recomputes
		st.Dispatched = c.sched.Dispatched()
		st.Queued = c.pool.Queued()
		st.Busy = c.pool.Busy()
		_, st.Skipped = c.pool.Counters()
		if store := c.sched.Store(); store != nil {
			st.Pages = store.Len()
			st.Resident = store.Resident()
			st.Loading = store.Loading()
			st.Rendered, st.Failed, st.Evicted, st.Discarded = store.Counters()
		}
	})
	return st, err
}

// Close stops the control goroutine and the workers. Render calls in
// progress are asked to stop through their context.
func (c *Controller) Close() {
	c.closed.Do(func() {
		close(c.quit)
		<-c.done
		c.pool.Close()
	})
}

func (c *Controller) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.quit:
			c.debounce.Stop()
			return
		case cmd := <-c.cmds:
			cmd.fn()
			close(cmd.done)
		case <-c.debounce.C():
			c.recompute()
		case res := <-c.results:
			c.sched.Complete(res)
		}
	}
}

// recompute asks the scheduler for the pages around the viewport.
func (c *Controller) recompute() {
	store := c.sched.Store()
	if store == nil {
		return
	}
	c.recomputes++
	var g Geometry
	if c.measured {
		g = GeometryFor(c.viewport.Bounds, c.viewport.ScrollOffset, c.opts.ItemSize, c.opts.Padding)
	}
	c.visible = ComputeVisibleRange(g, store.Len(), c.opts.Buffer)
	c.sched.RequestVisible(c.visible)
}

func (c *Controller) notifySession(token Token, pages int) {
	if ss, ok := c.opts.Sink.(SessionSink); ok {
		ss.OnSessionChanged(token, pages)
	}
}

// exec runs fn on the control goroutine and waits for it to return.
func (c *Controller) exec(fn func()) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case c.cmds <- cmd:
	case <-c.done:
		return ErrClosed
	}
	<-cmd.done
	return nil
}

// checkPage panics on the calling goroutine, not the control one.
func checkPage(page, pages int) {
	if page < 0 || page >= pages {
		panic(fmt.Sprintf("thumbcache: page %d out of range [0,%d)", page, pages))
	}
}
