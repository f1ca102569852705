package thumbcache

import "errors"

var (
	// ErrClosed is returned by Controller methods after Close.
	ErrClosed = errors.New("thumbcache: closed")

	// ErrNoDocument is returned when an operation needs a loaded document.
	ErrNoDocument = errors.New("thumbcache: no document")

	// ErrRenderTimeout is the failure reported for a render call that did
	// not return within Options.RenderTimeout.
	ErrRenderTimeout = errors.New("thumbcache: render timeout")

	// ErrRenderStalled is the failure reported, without calling the
	// renderer, for a page whose previous render call timed out and has
	// not returned yet.
	ErrRenderStalled = errors.New("thumbcache: previous render still running")
)
