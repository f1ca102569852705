package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xor-gate/goexif2/exif"
	"github.com/xor-gate/goexif2/tiff"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// RenderThumbnail decodes page i and scales it down to fit the thumbnail
// size. It panics if i is out of range.
func (d *Dir) RenderThumbnail(ctx context.Context, i int) (image.Image, error) {
	return d.render(ctx, i, d.opts.ThumbSize, d.thumbScaler)
}

// RenderPreview decodes page i and scales it down to fit the preview
// size with the better scaler.
func (d *Dir) RenderPreview(ctx context.Context, i int) (image.Image, error) {
	return d.render(ctx, i, d.opts.PreviewSize, d.previewScaler)
}

// Info returns a one line summary of the scan metadata of page i, or the
// empty string if it has none.
func (d *Dir) Info(i int) string {
	d.check(i)
	data, err := os.ReadFile(d.pages[i].Path)
	if err != nil {
		return ""
	}
	return scanInfo(bytes.NewReader(data))
}

func (d *Dir) render(ctx context.Context, i int, box image.Point, s xdraw.Scaler) (image.Image, error) {
	d.check(i)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := decode(d.pages[i].Path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Fit(img, box, s), nil
}

// Fit scales img down to fit in a box of size, keeping the aspect ratio.
// The result has its origin at zero.
func Fit(img image.Image, size image.Point, s xdraw.Scaler) *image.RGBA {
	dr := image.Rectangle{Max: FitSize(size, img.Bounds().Size())}
	dimg := image.NewRGBA(dr)
	s.Scale(dimg, dr, img, img.Bounds(), xdraw.Src, nil)
	return dimg
}

// decode loads the image in the file at path.
func decode(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	switch ct := http.DetectContentType(data); ct {
	case "image/gif", "image/jpeg", "image/png", "image/webp", "image/bmp":
		// supported format
	default:
		// tiff has no signature known to DetectContentType
		if ext := strings.ToLower(filepath.Ext(path)); ext != ".tif" && ext != ".tiff" {
			return nil, fmt.Errorf("load %s: cannot handle %s: %w", path, ct, ErrNotSupportedFormat)
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("load %s: decode image: %w", path, err)
	}
	return img, nil
}

// scanInfo summarizes the metadata a scanner leaves in a page: title,
// scan date, device, resolution and software.
func scanInfo(r tiff.ReadAtReaderSeeker) string {
	ex, err := exif.Decode(r)
	if err != nil && exif.IsCriticalError(err) {
		return ""
	}

	var fields []string
	if s := tagText(ex, exif.ImageDescription); s != "" {
		fields = append(fields, strconv.Quote(s))
	}
	if s := tagText(ex, exif.DateTime); s != "" {
		fields = append(fields, "scanned "+s)
	}
	if s := strings.TrimSpace(tagText(ex, exif.Make) + " " + tagText(ex, exif.Model)); s != "" {
		fields = append(fields, "on "+s)
	}
	if s := resolution(ex); s != "" {
		fields = append(fields, s)
	}
	if s := tagText(ex, exif.Software); s != "" {
		fields = append(fields, "with "+s)
	}
	return strings.Join(fields, ", ")
}

func tagText(ex *exif.Exif, name exif.FieldName) string {
	tag, err := ex.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

// resolution formats the horizontal resolution of the scan, in dots per
// inch unless the page says centimeters.
func resolution(ex *exif.Exif) string {
	tag, err := ex.Get(exif.XResolution)
	if err != nil {
		return ""
	}
	r, err := tag.Rat(0)
	if err != nil || r.Sign() <= 0 {
		return ""
	}
	unit := "dpi"
	if tag, err := ex.Get(exif.ResolutionUnit); err == nil {
		if u, err := tag.Int(0); err == nil && u == 3 {
			unit = "dpcm"
		}
	}
	return r.FloatString(0) + " " + unit
}
