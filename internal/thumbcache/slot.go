package thumbcache

import "image"

// State is the lifecycle state of a thumbnail slot.
type State int

const (
	// Placeholder slots have never been rendered in this session.
	Placeholder State = iota
	// Loading slots have exactly one render job in flight.
	Loading
	// Rendered slots hold a thumbnail and count against the capacity.
	Rendered
	// Evicted slots had their thumbnail released. They are scheduled
	// exactly like Placeholder slots.
	Evicted
)

func (s State) String() string {
	switch s {
	case Placeholder:
		return "placeholder"
	case Loading:
		return "loading"
	case Rendered:
		return "rendered"
	case Evicted:
		return "evicted"
	default:
		return "unknown"
	}
}

// NeedsRender reports whether a slot in this state is eligible for a new
// render job.
func (s State) NeedsRender() bool {
	return s == Placeholder || s == Evicted
}

// Slot is the cache entry of one page.
type Slot struct {
	Page  int
	State State
	Image image.Image // nil unless State is Rendered
}

// Sink receives rendered thumbnails. It is called on the control
// goroutine, once per successful render, and should only schedule the
// update of one visual element.
type Sink interface {
	OnSlotRendered(page int, img image.Image)
}

// EvictionSink is implemented by sinks that hold resources per rendered
// page and want to release them when the thumbnail is evicted.
type EvictionSink interface {
	OnSlotEvicted(page int)
}

// SessionSink is implemented by sinks that keep per page state and must
// drop it when the document changes. OnSessionChanged is called on the
// control goroutine, ordered with the slot notifications: every later
// notification belongs to the new session. A zero token means the
// document was closed.
type SessionSink interface {
	OnSessionChanged(token Token, pages int)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(page int, img image.Image)

func (f SinkFunc) OnSlotRendered(page int, img image.Image) {
	f(page, img)
}

type nopSink struct{}

func (nopSink) OnSlotRendered(int, image.Image) {}
