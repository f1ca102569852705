package document

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	log, _ := test.NewNullLogger()
	return Options{ThumbSize: image.Pt(100, 100), PreviewSize: image.Pt(400, 400), Log: log}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func names(d *Dir) []string {
	var out []string
	for i := range d.PageCount() {
		out = append(out, filepath.Base(d.Page(i).Path))
	}
	return out
}

func Test_Open_Orders_Pages_Naturally(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"page10.png", "page2.png", "page1.png", "page02b.png"} {
		writePNG(t, filepath.Join(dir, name), 4, 4)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	d, err := Open(testOptions(), dir)
	require.NoError(t, err)

	want := []string{"page1.png", "page2.png", "page02b.png", "page10.png"}
	if diff := cmp.Diff(want, names(d)); diff != "" {
		t.Errorf("pages (-want +got):\n%s", diff)
	}
}

func Test_Open_Keeps_Argument_Order(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "b", "a.png")
	b := filepath.Join(dir, "a.png")
	writePNG(t, a, 2, 2)
	writePNG(t, b, 2, 2)

	d, err := Open(testOptions(), a, b, filepath.Join(dir, "missing.png"))
	require.NoError(t, err)
	assert.Equal(t, a, d.Page(0).Path)
	assert.Equal(t, b, d.Page(1).Path)
	assert.Equal(t, []string{a, b, filepath.Join(dir, "missing.png")}, d.Roots())
}

func Test_Open_Errors(t *testing.T) {
	t.Parallel()

	_, err := Open(testOptions(), t.TempDir())
	assert.ErrorIs(t, err, ErrNoPages)

	opts := testOptions()
	opts.ThumbSize = image.Point{}
	_, err = Open(opts, t.TempDir())
	assert.Error(t, err)
}

func Test_RenderThumbnail_Fits_Box(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "1.png"), 850, 1100)
	writePNG(t, filepath.Join(dir, "2.png"), 50, 20)
	d, err := Open(testOptions(), dir)
	require.NoError(t, err)

	img, err := d.RenderThumbnail(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 77, 100), img.Bounds())

	img, err = d.RenderPreview(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 309, 400), img.Bounds())

	img, err = d.RenderThumbnail(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 50, 20), img.Bounds(), "small pages are not scaled up")

	assert.Panics(t, func() { _, _ = d.RenderThumbnail(context.Background(), 2) })
}

func Test_Render_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "1.png"), 10, 10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2.png"), []byte("not an image at all"), 0o644))
	d, err := Open(testOptions(), dir)
	require.NoError(t, err)

	_, err = d.RenderThumbnail(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotSupportedFormat)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.RenderThumbnail(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, os.Remove(filepath.Join(dir, "1.png")))
	_, err = d.RenderThumbnail(context.Background(), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, d.Info(0))
}

func Test_Subset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"1.png", "2.png", "3.png", "4.png"} {
		writePNG(t, filepath.Join(dir, name), 3, 3)
	}
	d, err := Open(testOptions(), dir)
	require.NoError(t, err)

	s := d.Subset([]int{3, 1, 9})
	assert.Equal(t, []string{"4.png", "2.png"}, names(s))
	img, err := s.RenderThumbnail(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 3), img.Bounds())
}

func Test_Fingerprint(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "1.png"), 3, 3)
	d1, err := Open(testOptions(), dir)
	require.NoError(t, err)
	d2, err := d1.Reopen()
	require.NoError(t, err)
	assert.Equal(t, d1.Fingerprint(), d2.Fingerprint())

	writePNG(t, filepath.Join(dir, "2.png"), 3, 3)
	d3, err := d1.Reopen()
	require.NoError(t, err)
	assert.NotEqual(t, d1.Fingerprint(), d3.Fingerprint())

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "1.png"), later, later))
	d4, err := d1.Reopen()
	require.NoError(t, err)
	assert.NotEqual(t, d3.Fingerprint(), d4.Fingerprint())
}
