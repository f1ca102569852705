package thumbcache

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func Test_ComputeVisibleRange(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		g      Geometry
		count  int
		buffer int
		want   Range
	}{
		{
			name:   "NoItems",
			g:      Geometry{ViewportHeight: 100, ItemHeight: 10},
			count:  0,
			buffer: 5,
			want:   EmptyRange,
		},
		{
			name:   "FirstLayoutPass",
			g:      Geometry{},
			count:  20,
			buffer: 5,
			want:   Range{0, 10},
		},
		{
			name:   "FirstLayoutPassShortDocument",
			g:      Geometry{ItemHeight: 10},
			count:  3,
			buffer: 5,
			want:   Range{0, 2},
		},
		{
			name:   "TopClampedByBuffer",
			g:      Geometry{ScrollOffset: 0, ViewportHeight: 110, ItemHeight: 10},
			count:  20,
			buffer: 5,
			want:   Range{0, 15},
		},
		{
			name:   "MiddleOfLongDocument",
			g:      Geometry{ScrollOffset: 2000, ViewportHeight: 110, ItemHeight: 10},
			count:  500,
			buffer: 5,
			want:   Range{195, 215},
		},
		{
			name:   "BottomClamped",
			g:      Geometry{ScrollOffset: 4950, ViewportHeight: 110, ItemHeight: 10},
			count:  500,
			buffer: 5,
			want:   Range{490, 499},
		},
		{
			name:   "PartiallyVisibleRowIncluded",
			g:      Geometry{ScrollOffset: 5, ViewportHeight: 10, ItemHeight: 10},
			count:  10,
			buffer: 0,
			want:   Range{0, 1},
		},
		{
			name:   "NegativeOffsetTreatedAsTop",
			g:      Geometry{ScrollOffset: -40, ViewportHeight: 20, ItemHeight: 10},
			count:  10,
			buffer: 1,
			want:   Range{0, 2},
		},
		{
			name:   "GridRowsExpandToColumns",
			g:      Geometry{ScrollOffset: 100, ViewportHeight: 250, ItemHeight: 100, Columns: 4},
			count:  100,
			buffer: 2,
			want:   Range{2, 17},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ComputeVisibleRange(tc.g, tc.count, tc.buffer)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ComputeVisibleRange mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_Range_Distance_Is_Zero_At_Both_Ends(t *testing.T) {
	t.Parallel()

	r := Range{395, 415}
	assert.Equal(t, 0, r.Distance(395))
	assert.Equal(t, 0, r.Distance(415))
	assert.Equal(t, 395, r.Distance(0))
	assert.Equal(t, 180, r.Distance(215))
	assert.Equal(t, 5, r.Distance(420))
	assert.Equal(t, 21, r.Len())
	assert.True(t, r.Contains(400))
	assert.False(t, r.Contains(394))
	assert.True(t, EmptyRange.Empty())
	assert.Equal(t, 0, EmptyRange.Len())
	assert.Equal(t, "[]", EmptyRange.String())
}

func Test_GeometryFor_Fits_Whole_Cells(t *testing.T) {
	t.Parallel()

	g := GeometryFor(image.Rect(0, 0, 1000, 500), 208, image.Pt(100, 100), 4)
	want := Geometry{ScrollOffset: 208, ViewportHeight: 500, ItemHeight: 104, Columns: 9}
	assert.Equal(t, want, g)

	narrow := GeometryFor(image.Rect(0, 0, 50, 500), 0, image.Pt(100, 100), 4)
	assert.Equal(t, 1, narrow.Columns)
}
