package thumbcache

import (
	"fmt"
	"image"
	"slices"

	"github.com/sirupsen/logrus"
)

// Store is the bounded set of thumbnail slots of one session. It is not
// safe for concurrent use; the control goroutine owns it. A new document
// load replaces the whole store.
type Store struct {
	log      logrus.FieldLogger
	sessions *Sessions
	token    Token
	sink     Sink
	slots    []Slot
	capacity int
	resident int
	loading  int
	overCap  bool // soft cap currently exceeded; warn once per episode

	countLoading bool

	rendered, failed, evicted, discarded int
}

// NewStore returns a store of pages placeholder slots for the session
// identified by token. Capacity bounds the number of Rendered slots.
func NewStore(pages, capacity int, sessions *Sessions, token Token, sink Sink, log logrus.FieldLogger) *Store {
	if pages < 0 {
		panic(fmt.Sprintf("thumbcache: negative page count %d", pages))
	}
	if capacity <= 0 {
		panic(fmt.Sprintf("thumbcache: capacity %d must be positive", capacity))
	}
	if sink == nil {
		sink = nopSink{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	slots := make([]Slot, pages)
	for i := range slots {
		slots[i].Page = i
	}
	return &Store{
		log:      log,
		sessions: sessions,
		token:    token,
		sink:     sink,
		slots:    slots,
		capacity: capacity,
	}
}

// Len returns the number of pages.
func (s *Store) Len() int {
	return len(s.slots)
}

// Token returns the session the store belongs to.
func (s *Store) Token() Token {
	return s.token
}

// Capacity returns the maximum number of resident thumbnails.
func (s *Store) Capacity() int {
	return s.capacity
}

// Resident returns the number of Rendered slots.
func (s *Store) Resident() int {
	return s.resident
}

// Loading returns the number of slots with a render job in flight.
func (s *Store) Loading() int {
	return s.loading
}

// Slot returns a copy of the slot of page i.
func (s *Store) Slot(i int) Slot {
	return *s.slot(i)
}

// ResidentPages returns the Rendered pages in ascending order.
func (s *Store) ResidentPages() []int {
	var pages []int
	for i := range s.slots {
		if s.slots[i].State == Rendered {
			pages = append(pages, i)
		}
	}
	return pages
}

// MarkLoading moves page i to Loading. It returns false, and does
// nothing, if the page is already Loading or Rendered.
func (s *Store) MarkLoading(i int) bool {
	sl := s.slot(i)
	if !sl.State.NeedsRender() {
		return false
	}
	sl.State = Loading
	s.loading++
	return true
}

// StoreRendered publishes the thumbnail of page i and notifies the sink.
// Results of another session are dropped and false is returned.
func (s *Store) StoreRendered(i int, img image.Image, token Token) bool {
	if !s.owns(token) {
		s.discarded++
		s.log.WithFields(logrus.Fields{"page": i, "token": token}).Trace("thumbcache: stale render dropped")
		return false
	}
	sl := s.slot(i)
	if sl.State != Loading {
		panic(fmt.Sprintf("thumbcache: rendered page %d is %v, not loading", i, sl.State))
	}
	sl.State = Rendered
	sl.Image = img
	s.loading--
	s.resident++
	s.rendered++
	s.sink.OnSlotRendered(i, img)
	return true
}

// MarkFailed returns page i to Placeholder after a failed render so that
// the next visibility pass retries it. Failures of another session are
// ignored.
func (s *Store) MarkFailed(i int, token Token) bool {
	if !s.owns(token) {
		s.discarded++
		return false
	}
	sl := s.slot(i)
	if sl.State != Loading {
		panic(fmt.Sprintf("thumbcache: failed page %d is %v, not loading", i, sl.State))
	}
	sl.State = Placeholder
	s.loading--
	s.failed++
	return true
}

// EvictIfNeeded makes room for incoming new thumbnails. When the resident
// count plus incoming exceeds capacity, the excess is evicted from Rendered
// slots outside visible, furthest from it first, ties broken by ascending
// page. Slots inside visible are never evicted; if that leaves the store
// above capacity, the condition is logged and tolerated. The evicted pages
// are returned in eviction order.
func (s *Store) EvictIfNeeded(visible Range, incoming int) []int {
	incoming = max(incoming, 0)
	committed := s.resident
	if s.countLoading {
		committed += s.loading
	}
	excess := committed + incoming - s.capacity
	if excess <= 0 {
		s.overCap = false
		return nil
	}

	var candidates []int
	for i := range s.slots {
		if s.slots[i].State == Rendered && !visible.Contains(i) {
			candidates = append(candidates, i)
		}
	}
	slices.SortFunc(candidates, func(a, b int) int {
		if da, db := visible.Distance(a), visible.Distance(b); da != db {
			return db - da
		}
		return a - b
	})

	n := min(excess, len(candidates))
	victims := candidates[:n]
	for _, i := range victims {
		s.evict(i)
	}

	// Only the visible range itself can hold the store above capacity.
	if pinned := s.resident + incoming; n < excess && pinned > s.capacity {
		fields := logrus.Fields{
			"resident": s.resident,
			"incoming": incoming,
			"capacity": s.capacity,
			"visible":  visible.String(),
		}
		if !s.overCap {
			s.log.WithFields(fields).Warn("thumbcache: visible range exceeds capacity")
		} else {
			s.log.WithFields(fields).Debug("thumbcache: still over capacity")
		}
		s.overCap = true
	} else {
		s.overCap = false
	}
	return victims
}

// SetCountLoading makes slots with a render in flight count against
// capacity, so the bound still holds once they complete. It is off by
// default.
func (s *Store) SetCountLoading(on bool) {
	s.countLoading = on
}

// Counters returns lifetime counts of rendered, failed, evicted and
// discarded (stale) results of the store.
func (s *Store) Counters() (rendered, failed, evicted, discarded int) {
	return s.rendered, s.failed, s.evicted, s.discarded
}

func (s *Store) evict(i int) {
	sl := &s.slots[i]
	sl.State = Evicted
	sl.Image = nil
	s.resident--
	s.evicted++
	if es, ok := s.sink.(EvictionSink); ok {
		es.OnSlotEvicted(i)
	}
}

func (s *Store) owns(token Token) bool {
	return token == s.token && s.sessions.IsCurrent(token)
}

func (s *Store) slot(i int) *Slot {
	if i < 0 || i >= len(s.slots) {
		panic(fmt.Sprintf("thumbcache: page %d out of range [0,%d)", i, len(s.slots)))
	}
	return &s.slots[i]
}
