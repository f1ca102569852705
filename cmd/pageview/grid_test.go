package main

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anastasop/pageview/internal/thumbcache"
)

func testGrid() *Grid {
	return NewGrid(image.Rect(0, 0, 1300, 1000), image.Pt(320, 240), 4)
}

func Test_Grid_Layout(t *testing.T) {
	t.Parallel()

	g := testGrid()
	rows, cols := g.Dimensions()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 4, cols)
	assert.Equal(t, image.Rect(2, 12, 1298, 988), g.PaintableArea())
	assert.Equal(t, image.Rect(330, 260, 650, 500), g.CellRect(5))

	k, ok := g.CellAt(image.Pt(340, 270))
	assert.True(t, ok)
	assert.Equal(t, 5, k)
	_, ok = g.CellAt(image.Pt(1, 1))
	assert.False(t, ok)

	g.Attach(image.Rect(0, 0, 100, 100))
	rows, cols = g.Dimensions()
	assert.Equal(t, 1, rows, "a small window still has one cell")
	assert.Equal(t, 1, cols)
}

func Test_Scroll_Moves_By_Rows_And_Pages(t *testing.T) {
	t.Parallel()

	s := NewScroll(testGrid(), 100)

	s.MoveDownRow()
	from, to := s.Visible()
	assert.Equal(t, 4, from)
	assert.Equal(t, 20, to)

	s.GotoPage(6)
	from, to = s.Visible()
	assert.Equal(t, 96, from)
	assert.Equal(t, 100, to)
	assert.Equal(t, 6, s.CurrentPage())

	s.GotoPage(7)
	assert.Equal(t, 6, s.CurrentPage(), "no page past the end")

	s.MoveUpRow()
	from, _ = s.Visible()
	assert.Equal(t, 92, from)

	page, ok := s.At(image.Pt(340, 270))
	assert.True(t, ok)
	assert.Equal(t, 97, page)
	_, ok = s.At(image.Pt(1000, 900))
	assert.False(t, ok, "cell past the last page")

	s.SetLimit(30)
	from, to = s.Visible()
	assert.Equal(t, 16, from)
	assert.Equal(t, 30, to)
}

func Test_Scroll_Short_Document_Does_Not_Scroll(t *testing.T) {
	t.Parallel()

	s := NewScroll(testGrid(), 10)
	s.MoveDownRow()
	from, to := s.Visible()
	assert.Equal(t, 0, from)
	assert.Equal(t, 10, to)
}

func Test_Scroll_Viewport_Covers_Visible_Pages(t *testing.T) {
	t.Parallel()

	g := testGrid()
	s := NewScroll(g, 100)
	for range 3 {
		s.MoveDownRow()
	}

	vp := s.Viewport()
	assert.Equal(t, 3*244, vp.ScrollOffset)

	geom := thumbcache.GeometryFor(vp.Bounds, vp.ScrollOffset, g.cellSize, g.padding)
	r := thumbcache.ComputeVisibleRange(geom, 100, 0)
	from, to := s.Visible()
	assert.True(t, r.Contains(from), "%v does not contain %d", r, from)
	assert.True(t, r.Contains(to-1), "%v does not contain %d", r, to-1)
}
