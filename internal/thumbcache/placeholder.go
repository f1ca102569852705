package thumbcache

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// PlaceholderImage is the stand-in image shown for pages without a thumbnail.
// The image is built once and shared; callers must not modify it.
type PlaceholderImage struct {
	img *image.RGBA
}

// NewPlaceholder returns a placeholder of size filled with c and framed
// by a one pixel border of a slightly darker shade.
func NewPlaceholder(size image.Point, c color.Color) *PlaceholderImage {
	if size.X <= 0 || size.Y <= 0 {
		panic("thumbcache: placeholder size must be positive")
	}
	img := image.NewRGBA(image.Rectangle{Max: size})
	xdraw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, xdraw.Src)

	border := image.NewUniform(darken(c))
	b := img.Bounds()
	for _, r := range []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+1),
		image.Rect(b.Min.X, b.Max.Y-1, b.Max.X, b.Max.Y),
		image.Rect(b.Min.X, b.Min.Y, b.Min.X+1, b.Max.Y),
		image.Rect(b.Max.X-1, b.Min.Y, b.Max.X, b.Max.Y),
	} {
		xdraw.Draw(img, r, border, image.Point{}, xdraw.Src)
	}
	return &PlaceholderImage{img: img}
}

// Image returns the shared placeholder image.
func (p *PlaceholderImage) Image() image.Image {
	return p.img
}

// Size returns the dimensions of the placeholder.
func (p *PlaceholderImage) Size() image.Point {
	return p.img.Bounds().Size()
}

func darken(c color.Color) color.Color {
	r, g, b, a := c.RGBA()
	return color.RGBA64{
		R: uint16(r * 3 / 4),
		G: uint16(g * 3 / 4),
		B: uint16(b * 3 / 4),
		A: uint16(a),
	}
}
