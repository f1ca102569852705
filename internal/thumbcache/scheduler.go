package thumbcache

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
)

// Submitter accepts render jobs without blocking. *Pool implements it.
type Submitter interface {
	Submit(Job)
}

// Scheduler turns visible ranges into render jobs for the current store
// and routes the results back into it. Like Store, it belongs to the
// control goroutine.
type Scheduler struct {
	log    logrus.FieldLogger
	pool   Submitter
	store  *Store
	render RenderFunc

	dispatched int
	orphaned   int // results that arrived while no document was loaded
}

// NewScheduler returns a scheduler without a document. Reset must be
// called before RequestVisible.
func NewScheduler(pool Submitter, log logrus.FieldLogger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scheduler{log: log, pool: pool}
}

// Reset points the scheduler at the store and renderer of a new session.
// A nil store detaches it.
func (s *Scheduler) Reset(store *Store, render RenderFunc) {
	s.store = store
	s.render = render
}

// Store returns the store of the current session, or nil.
func (s *Scheduler) Store() *Store {
	return s.store
}

// RequestVisible schedules a render for every page in r that has no
// thumbnail and no job in flight. Room is made by eviction before any job
// is dispatched. Pages closer to the middle of r are queued first. It
// returns the number of jobs dispatched.
func (s *Scheduler) RequestVisible(r Range) int {
	if s.store == nil {
		panic(ErrNoDocument)
	}
	if r.Empty() {
		return 0
	}
	if r.First < 0 || r.Last >= s.store.Len() {
		panic(fmt.Sprintf("thumbcache: range %v out of [0,%d)", r, s.store.Len()))
	}

	var toLoad []int
	for i := r.First; i <= r.Last; i++ {
		if s.store.Slot(i).State.NeedsRender() {
			toLoad = append(toLoad, i)
		}
	}

	evicted := s.store.EvictIfNeeded(r, len(toLoad))

	mid := r.First + (r.Last-r.First)/2
	slices.SortStableFunc(toLoad, func(a, b int) int {
		return abs(a-mid) - abs(b-mid)
	})

	n := 0
	token := s.store.Token()
	for _, i := range toLoad {
		if s.store.MarkLoading(i) {
			s.pool.Submit(Job{Page: i, Token: token, Render: s.render})
			n++
		}
	}
	s.dispatched += n

	if n > 0 || len(evicted) > 0 {
		s.log.WithFields(logrus.Fields{
			"visible":    r.String(),
			"dispatched": n,
			"evicted":    len(evicted),
			"resident":   s.store.Resident(),
			"loading":    s.store.Loading(),
		}).Debug("thumbcache: batch")
	}
	return n
}

// Complete applies the result of a job to the store. Results of another
// session are dropped silently. Render failures put the page back to
// Placeholder and are logged at debug level only.
func (s *Scheduler) Complete(res Result) {
	if s.store == nil {
		s.orphaned++
		return
	}
	if res.Err != nil {
		if s.store.MarkFailed(res.Page, res.Token) {
			s.log.WithFields(logrus.Fields{
				"page":    res.Page,
				"elapsed": res.Elapsed,
			}).WithError(res.Err).Debug("thumbcache: render failed")
		}
		return
	}
	s.store.StoreRendered(res.Page, res.Image, res.Token)
}

// Dispatched returns the number of jobs handed to the pool so far.
func (s *Scheduler) Dispatched() int {
	return s.dispatched
}
