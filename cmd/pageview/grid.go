package main

import (
	"image"

	"github.com/anastasop/pageview/internal/document"
	"github.com/anastasop/pageview/internal/thumbcache"
)

// Grid overlays on area a maximal MxN grid of thumbnail cells. The
// dimensions are calculated from the cell size and the padding.
type Grid struct {
	area     image.Rectangle
	cellSize image.Point
	padding  int
}

// Scroll tracks which pages of a document laid out on a grid are shown.
// A MxN grid displays pages [pos, pos + M*N); pos is always the first
// page of a row.
type Scroll struct {
	grid  *Grid
	pos   int
	limit int
}

// NewGrid returns a new grid.
func NewGrid(area image.Rectangle, cellSize image.Point, padding int) *Grid {
	return &Grid{
		area:     area,
		cellSize: cellSize,
		padding:  padding,
	}
}

// Attach should be called when the grid area changes.
func (g *Grid) Attach(r image.Rectangle) {
	g.area = r
}

// pitch is the distance between the origins of two adjacent cells.
func (g *Grid) pitch() image.Point {
	return g.cellSize.Add(image.Pt(g.padding, g.padding))
}

// Dimensions return the grid dimensions, rows x columns. A window smaller
// than one cell still has one.
func (g *Grid) Dimensions() (rows int, cols int) {
	p := g.pitch()
	rows = max(1, (g.area.Dy()-g.padding)/p.Y)
	cols = max(1, (g.area.Dx()-g.padding)/p.X)
	return
}

// Area returns the number of cells, rows * columns.
func (g *Grid) Area() int {
	rows, cols := g.Dimensions()
	return rows * cols
}

// PaintableArea is the area of the grid which contains cells.
// Only full cells are displayed and there may be empty space at the edges of grid.area.
func (g *Grid) PaintableArea() image.Rectangle {
	rows, cols := g.Dimensions()
	p := g.pitch()
	ir := image.Rect(0, 0, cols*p.X, rows*p.Y)
	return document.Center(g.area, ir)
}

// CellRect returns the screen rectangle of the kth cell, counting row by row.
func (g *Grid) CellRect(k int) image.Rectangle {
	_, cols := g.Dimensions()
	p := g.pitch()
	pin := g.PaintableArea().Min.
		Add(image.Pt((k%cols)*p.X, (k/cols)*p.Y)).
		Add(image.Pt(g.padding, g.padding))
	return image.Rectangle{Min: pin, Max: pin.Add(g.cellSize)}
}

// CellAt translates screen coordinates to the cell under them.
func (g *Grid) CellAt(at image.Point) (k int, inside bool) {
	h := g.PaintableArea()
	if !at.In(h) {
		return -1, false
	}
	_, cols := g.Dimensions()
	p := g.pitch()
	x := (at.X - h.Min.X) / p.X
	y := (at.Y - h.Min.Y) / p.Y
	return y*cols + x, true
}

// NewScroll returns a scroll at the top of limit pages.
func NewScroll(grid *Grid, limit int) *Scroll {
	return &Scroll{grid: grid, limit: limit}
}

// Visible returns the pages shown for the current position.
func (s *Scroll) Visible() (int, int) {
	return s.pos, min(s.limit, s.pos+s.grid.Area())
}

// CurrentPage returns the current screen page.
func (s *Scroll) CurrentPage() int {
	return s.PageOfItem(s.pos)
}

// PageOfItem returns the screen page that shows item i.
func (s *Scroll) PageOfItem(i int) int {
	if 0 <= i && i < s.limit {
		return i / s.grid.Area()
	}
	return -1
}

// MoveUpRow scrolls one grid row up.
func (s *Scroll) MoveUpRow() {
	_, cols := s.grid.Dimensions()
	s.pos = max(0, s.pos-cols)
}

// MoveDownRow scrolls one grid row down.
func (s *Scroll) MoveDownRow() {
	rows, cols := s.grid.Dimensions()
	// add cols as an offset so that it displays
	// an empty row at the end of the pages
	s.pos = min(s.pos+cols, max(0, s.limit-(rows*cols)+cols))
}

// GotoPage moves to screen page.
func (s *Scroll) GotoPage(page int) {
	numPages := intCeil(s.limit, s.grid.Area())
	if 0 <= page && page < numPages {
		s.pos = page * s.grid.Area()
	}
}

// Realign snaps the position to a row start after the grid was resized.
func (s *Scroll) Realign() {
	_, cols := s.grid.Dimensions()
	s.pos -= s.pos % cols
}

// SetLimit changes the number of pages, keeping the position if possible.
func (s *Scroll) SetLimit(limit int) {
	s.limit = limit
	if s.pos >= limit {
		s.pos = 0
		s.GotoPage(s.PageOfItem(max(0, limit-1)))
	}
}

// At returns the page under the point.
func (s *Scroll) At(p image.Point) (int, bool) {
	k, inside := s.grid.CellAt(p)
	if !inside {
		return -1, false
	}
	position := s.pos + k
	return position, position < s.limit
}

// Viewport describes the scroll position in pixels, the way the
// thumbnail cache measures the list.
func (s *Scroll) Viewport() thumbcache.Viewport {
	_, cols := s.grid.Dimensions()
	return thumbcache.Viewport{
		ScrollOffset: (s.pos / cols) * s.grid.pitch().Y,
		Bounds:       s.grid.area,
	}
}

// intCeil returns the ceiling of a/b
func intCeil(a, b int) int {
	n := a / b
	if a%b > 0 {
		n++
	}
	return n
}
