package main

import "image"

// View receives input from mouse, keyboard and paints on screen.
// Views stack up: Handle may return another view to push on top of it,
// or nil to pop itself.
type View interface {
	// Connect binds the view to the display before its first Handle.
	Connect(dctl *DisplayControl)

	// Handle runs the input loop of the view.
	Handle() View

	// Attach lays the view out again after a resize.
	Attach(image.Rectangle)

	// Free releases the cache and the display images of the view.
	Free()
}

// syncViewsOnExit moves the pages view to the page the preview was
// showing when it exited. Views share the grid, so the pages view may
// also have been resized meanwhile.
func syncViewsOnExit(viewExited, viewToGo View) {
	pv, ok := viewToGo.(*PagesView)
	if !ok {
		return
	}
	pv.scroll.Realign()
	if prv, ok := viewExited.(*PreviewView); ok {
		pv.scroll.GotoPage(pv.scroll.PageOfItem(prv.at))
	}
	pv.viewportChanged()
	pv.resetPagesWithMarked()
}
