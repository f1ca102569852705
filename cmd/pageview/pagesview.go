package main

import (
	"image"
	"image/color"
	"slices"

	draw9 "9fans.net/go/draw"
	"github.com/sirupsen/logrus"

	"github.com/anastasop/pageview/internal/document"
	"github.com/anastasop/pageview/internal/thumbcache"
)

var placeholderColor = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}

// PagesView shows the pages of a document as thumbnails over a grid.
// One screen of thumbnails is called a screen page. It provides
// operations to scroll and to mark pages. Thumbnails are rendered in the
// background by a thumbnail cache that follows the scroll position; until
// a thumbnail arrives its cell shows a placeholder.
type PagesView struct {
	doc             *document.Dir
	marks           Marks
	marked          bool // this view shows only the marked pages
	opts            thumbcache.Options
	ctl             *thumbcache.Controller
	sink            *uiSink
	thumbs          *thumbTable
	placeholder     *draw9.Image
	scroll          *Scroll
	reload          <-chan *document.Dir
	pagesWithMarked []int // the screen pages with marked pages. Used for moving up/down.

	dctl *DisplayControl
	log  logrus.FieldLogger
}

// NewPagesView returns a PagesView for doc and the grid. Documents received
// on reload replace doc.
func NewPagesView(doc *document.Dir, marks Marks, grid *Grid, opts thumbcache.Options, reload <-chan *document.Dir) *PagesView {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PagesView{
		doc:    doc,
		marks:  marks,
		opts:   opts,
		scroll: NewScroll(grid, doc.PageCount()),
		reload: reload,
		log:    log,
	}
}

// Document returns the document shown.
func (pv *PagesView) Document() *document.Dir {
	return pv.doc
}

func (pv *PagesView) Connect(dctl *DisplayControl) {
	pv.dctl = dctl
	if pv.ctl != nil {
		pv.Free()
	}

	pv.sink = newUISink()
	pv.thumbs = newThumbTable(pv.log)
	opts := pv.opts
	opts.Sink = pv.sink
	opts.ItemSize = pv.scroll.grid.cellSize
	opts.Padding = pv.scroll.grid.padding
	ctl, err := thumbcache.New(opts)
	if err != nil {
		pv.log.WithError(err).Fatal("thumbnail cache")
	}
	pv.ctl = ctl

	ph := thumbcache.NewPlaceholder(pv.scroll.grid.cellSize, placeholderColor)
	if pv.placeholder, err = toDrawImage(dctl.display, ph.Image()); err != nil {
		pv.log.WithError(err).Fatal("placeholder")
	}

	if _, err := pv.ctl.LoadDocument(pv.doc); err != nil {
		pv.log.WithError(err).Fatal("load document")
	}
	pv.viewportChanged()
	pv.resetPagesWithMarked()
}

func (pv *PagesView) Attach(r image.Rectangle) {
	if r.Eq(pv.scroll.grid.area) {
		return
	}
	pv.scroll.grid.Attach(r)
	pv.scroll.Realign()
	pv.viewportChanged()
	pv.resetPagesWithMarked()
}

func (pv *PagesView) Free() {
	if pv.ctl != nil {
		pv.ctl.Close()
		pv.ctl = nil
	}
	if pv.thumbs != nil {
		pv.thumbs.reset(0)
	}
	if pv.placeholder != nil {
		if err := pv.placeholder.Free(); err != nil {
			pv.log.WithError(err).Warn("failed to free placeholder")
		}
		pv.placeholder = nil
	}
}

// Handle handles mouse and keyboard actions
func (pv *PagesView) Handle() View {
	bt2menu := &draw9.Menu{
		Item: []string{"mark", "plumb", "", "prev page", "next page", "",
			"mark all", "unmark all", "mark snarf", "",
			"marked", "prev mark", "next mark", "", "exit"},
	}
	if pv.marked {
		bt2menu.Item = []string{"mark", "plumb", "", "prev page", "next page", "",
			"unmark all", "", "back"}
	}

	dctl := pv.dctl
	pv.paint()
	for {
		select {
		case err := <-dctl.errch:
			pv.log.WithError(err).Error("display")
		case <-pv.sink.C():
			pv.applyEvents()
		case doc := <-pv.reload:
			pv.setDocument(doc)
			pv.paint()
		case k := <-dctl.kctl.C:
			switch k {
			case 'q', 'e', 'b', escKey: // exit or back
				return nil
			case upArrowKey: // scroll up
				pv.scroll.MoveUpRow()
				pv.scrolled()
			case downArrowKey: // scroll down
				pv.scroll.MoveDownRow()
				pv.scrolled()
			case leftArrowKey: // prev screen page
				pv.scroll.GotoPage(pv.scroll.CurrentPage() - 1)
				pv.scrolled()
			case rightArrowKey: // next screen page
				pv.scroll.GotoPage(pv.scroll.CurrentPage() + 1)
				pv.scrolled()
			}
		case dctl.mctl.Mouse = <-dctl.mctl.C:
			at := dctl.mctl.Mouse.Point
			switch dctl.mctl.Mouse.Buttons {
			case 1: // preview page
				if i, ok := pv.scroll.At(at); ok {
					return NewPreviewView(pv.doc, pv.ctl, pv.marks, i, pv.scroll.grid.area)
				}
			case 2: // view menu
				item := draw9.MenuHit(2, dctl.mctl, bt2menu, nil)
				if item < 0 {
					break
				}
				if nv, exit := pv.menu(bt2menu.Item[item], at); exit {
					return nv
				}
			case 4: // mark page
				if i, ok := pv.scroll.At(at); ok {
					pv.toggleMarked(i)
					pv.paint()
				}
			case scrollWheelUp: // scroll up
				pv.scroll.MoveUpRow()
				pv.scrolled()
			case scrollWheelDown: // scroll down
				pv.scroll.MoveDownRow()
				pv.scrolled()
			}
		case <-dctl.mctl.Resize:
			pv.Attach(dctl.reattach())
			pv.paint()
		}
	}
}

// menu runs the menu item hit at point at. It returns whether Handle
// should return, and with which view.
func (pv *PagesView) menu(item string, at image.Point) (View, bool) {
	switch item {
	case "mark":
		if i, ok := pv.scroll.At(at); ok {
			pv.toggleMarked(i)
			pv.paint()
		}
	case "plumb":
		if i, ok := pv.scroll.At(at); ok {
			pv.dctl.plumbPage(pv.doc.Page(i).Path)
		}
	case "prev page":
		pv.scroll.GotoPage(pv.scroll.CurrentPage() - 1)
		pv.scrolled()
	case "next page":
		pv.scroll.GotoPage(pv.scroll.CurrentPage() + 1)
		pv.scrolled()
	case "mark all":
		pv.marks.MarkAll(pv.doc)
		pv.resetPagesWithMarked()
		pv.paint()
	case "unmark all":
		pv.marks.UnmarkAll(pv.doc)
		pv.resetPagesWithMarked()
		pv.paint()
	case "mark snarf":
		pv.markSnarf()
	case "marked":
		if marked := pv.markedPages(); len(marked) > 0 {
			mv := NewPagesView(pv.doc.Subset(marked), pv.marks, pv.scroll.grid, pv.opts, nil)
			mv.marked = true
			return mv, true
		}
	case "prev mark":
		pv.moveUpToNextPageWithMarked()
		pv.scrolled()
	case "next mark":
		pv.moveDownToNextPageWithMarked()
		pv.scrolled()
	case "back", "exit":
		return nil, true
	}
	return nil, false
}

// markSnarf marks the pages named by the selection in the snarf buffer,
// like "1-3,5".
func (pv *PagesView) markSnarf() {
	buf := make([]byte, 1024)
	n, _, err := pv.dctl.display.ReadSnarf(buf)
	if err != nil {
		pv.log.WithError(err).Warn("read snarf")
		return
	}
	count, err := pv.marks.MarkSelection(pv.doc, string(buf[:n]))
	if err != nil {
		pv.log.WithError(err).Warn("mark snarf")
		return
	}
	pv.log.WithField("pages", count).Info("marked selection")
	pv.resetPagesWithMarked()
	pv.paint()
}

func (pv *PagesView) scrolled() {
	pv.viewportChanged()
	pv.paint()
}

// viewportChanged tells the cache where the view is.
func (pv *PagesView) viewportChanged() {
	if err := pv.ctl.OnViewportChanged(pv.scroll.Viewport()); err != nil {
		pv.log.WithError(err).Warn("viewport")
	}
}

// setDocument replaces the document after a reload. Marks are kept for
// the pages that still exist.
func (pv *PagesView) setDocument(doc *document.Dir) {
	pv.doc = doc
	pv.scroll.SetLimit(doc.PageCount())
	if _, err := pv.ctl.LoadDocument(doc); err != nil {
		pv.log.WithError(err).Error("reload document")
		return
	}
	pv.viewportChanged()
	pv.resetPagesWithMarked()
	pv.log.WithField("pages", doc.PageCount()).Info("document reloaded")
}

// applyEvents replays the cache notifications. Each rendered thumbnail
// repaints its own cell only.
func (pv *PagesView) applyEvents() {
	from, to := pv.scroll.Visible()
	painted := false
	for _, ev := range pv.sink.take() {
		switch ev.kind {
		case sessionChanged:
			pv.thumbs.reset(ev.token)
		case slotEvicted:
			pv.thumbs.free(ev.page)
		case slotRendered:
			img, err := toDrawImage(pv.dctl.display, ev.img)
			if err != nil {
				pv.log.WithError(err).WithField("page", ev.page).Warn("thumbnail upload")
				continue
			}
			pv.thumbs.put(ev.page, img)
			if from <= ev.page && ev.page < to {
				pv.paintCell(ev.page - from, ev.page)
				painted = true
			}
		}
	}
	if painted {
		pv.dctl.flush()
	}
}

// paint draws the grid of thumbnails.
func (pv *PagesView) paint() {
	window := pv.dctl.display.Image
	window.Draw(window.Bounds(), pv.dctl.bgColor, nil, image.Point{})

	from, to := pv.scroll.Visible()
	for i := from; i < to; i++ {
		pv.paintCell(i-from, i)
	}
	pv.dctl.flush()
}

// paintCell draws page in the kth cell of the grid.
func (pv *PagesView) paintCell(k, page int) {
	window := pv.dctl.display.Image
	zp := image.Point{}
	cell := pv.scroll.grid.CellRect(k)
	pad := pv.scroll.grid.padding

	window.Draw(cell.Inset(-pad), pv.dctl.bgColor, nil, zp)
	img, ok := pv.thumbs.get(page)
	if !ok {
		img = pv.placeholder
	}
	dr := document.Center(cell, img.Bounds())
	window.Draw(dr, img, nil, img.Bounds().Min)
	if pv.marks[pv.doc.Page(page).Path] {
		window.Border(dr, pad, pv.dctl.borderColor, zp)
	}
}

// moveUpToNextPageWithMarked moves up to the next screen page with a marked page.
func (pv *PagesView) moveUpToNextPageWithMarked() {
	i, _ := slices.BinarySearch(pv.pagesWithMarked, pv.scroll.CurrentPage())
	if i > 0 {
		pv.scroll.GotoPage(pv.pagesWithMarked[i-1])
	}
}

// moveDownToNextPageWithMarked moves down to the next screen page with a marked page.
func (pv *PagesView) moveDownToNextPageWithMarked() {
	i, found := slices.BinarySearch(pv.pagesWithMarked, pv.scroll.CurrentPage())
	if found {
		i++
	}
	if i < len(pv.pagesWithMarked) {
		pv.scroll.GotoPage(pv.pagesWithMarked[i])
	}
}

func (pv *PagesView) resetPagesWithMarked() {
	pv.pagesWithMarked = pv.pagesWithMarked[:0]
	for _, i := range pv.markedPages() {
		if p := pv.scroll.PageOfItem(i); !slices.Contains(pv.pagesWithMarked, p) {
			pv.pagesWithMarked = append(pv.pagesWithMarked, p)
		}
	}
}

func (pv *PagesView) toggleMarked(i int) {
	pv.marks.Toggle(pv.doc.Page(i).Path)
	pv.resetPagesWithMarked()
}

// markedPages returns the indices of the marked pages.
func (pv *PagesView) markedPages() []int {
	var pages []int
	for i := range pv.doc.PageCount() {
		if pv.marks[pv.doc.Page(i).Path] {
			pages = append(pages, i)
		}
	}
	return pages
}
