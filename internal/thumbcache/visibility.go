package thumbcache

import (
	"fmt"
	"image"
)

// Range is an inclusive interval of page indices. A Range with
// Last < First is empty.
type Range struct {
	First, Last int
}

// EmptyRange is the range of a document without pages.
var EmptyRange = Range{First: 0, Last: -1}

// Empty reports whether the range contains no index.
func (r Range) Empty() bool {
	return r.Last < r.First
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.Last - r.First + 1
}

// Contains reports whether i is inside the range.
func (r Range) Contains(i int) bool {
	return r.First <= i && i <= r.Last
}

// Distance returns how far i lies from the nearest end of the range.
func (r Range) Distance(i int) int {
	return min(abs(i-r.First), abs(i-r.Last))
}

func (r Range) String() string {
	if r.Empty() {
		return "[]"
	}
	return fmt.Sprintf("[%d,%d]", r.First, r.Last)
}

// Geometry describes the scroll position of a viewport over a list or
// grid of equally sized items. All values are in pixels except Columns.
type Geometry struct {
	ScrollOffset   int // distance from the top of the content to the top of the viewport
	ViewportHeight int
	ItemHeight     int // height of one row, padding included
	Columns        int // items per row; values below 2 mean a plain list
}

// Measurable reports whether the layout pass has produced usable sizes.
func (g Geometry) Measurable() bool {
	return g.ViewportHeight > 0 && g.ItemHeight > 0
}

// ComputeVisibleRange returns the indices shown by the viewport expanded
// by buffer items on each side and clamped to [0, itemCount-1]. Before
// the first layout pass it returns [0, min(2*buffer, itemCount-1)].
func ComputeVisibleRange(g Geometry, itemCount, buffer int) Range {
	if itemCount <= 0 {
		return EmptyRange
	}
	buffer = max(buffer, 0)
	if !g.Measurable() {
		return Range{First: 0, Last: min(buffer*2, itemCount-1)}
	}

	cols := max(g.Columns, 1)
	offset := max(g.ScrollOffset, 0)
	firstRow := offset / g.ItemHeight
	lastRow := (offset + g.ViewportHeight - 1) / g.ItemHeight

	first := firstRow*cols - buffer
	last := (lastRow+1)*cols - 1 + buffer
	return Range{
		First: clamp(first, 0, itemCount-1),
		Last:  clamp(last, 0, itemCount-1),
	}
}

// GeometryFor derives the grid geometry of a viewport rectangle holding
// cells of itemSize separated by padding. The number of columns is the
// number of whole cells that fit across the viewport.
func GeometryFor(viewport image.Rectangle, scrollOffset int, itemSize image.Point, padding int) Geometry {
	cellW := itemSize.X + padding
	cellH := itemSize.Y + padding
	cols := 1
	if cellW > 0 {
		cols = max(1, (viewport.Dx()-padding)/cellW)
	}
	return Geometry{
		ScrollOffset:   scrollOffset,
		ViewportHeight: viewport.Dy(),
		ItemHeight:     cellH,
		Columns:        cols,
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
