package document

import "image"

// Center assumes sr fits in dr and centers it inside dr. If this is not the case, it returns dr.
func Center(dr, sr image.Rectangle) image.Rectangle {
	dx := dr.Dx() - sr.Dx()
	dy := dr.Dy() - sr.Dy()

	if dx < 0 || dy < 0 {
		return dr
	}

	return sr.Sub(sr.Min).Add(dr.Min.Add(image.Pt(dx, dy).Div(2)))
}

// FitSize scales down size src to fit in dst, keeping the aspect ratio.
// If src already fits, it is not scaled up. Sides never drop below 1.
func FitSize(dst, src image.Point) image.Point {
	if src.X <= dst.X && src.Y <= dst.Y {
		return src
	}
	scale := max(float32(src.Y)/float32(dst.Y), float32(src.X)/float32(dst.X))
	return image.Pt(
		max(1, int(float32(src.X)/scale)),
		max(1, int(float32(src.Y)/scale)),
	)
}

// BestFit scales down sr to fit in dr and centers it there.
func BestFit(dr, sr image.Rectangle) image.Rectangle {
	sz := FitSize(dr.Size(), sr.Size())
	return Center(dr, image.Rectangle{Max: sz})
}
