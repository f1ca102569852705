package main

import (
	"context"
	"fmt"
	"image"

	draw9 "9fans.net/go/draw"

	"github.com/anastasop/pageview/internal/document"
	"github.com/anastasop/pageview/internal/thumbcache"
)

// PreviewView is a View that shows single pages at large scale. Previews
// come from the thumbnail cache of the pages view that opened it.
type PreviewView struct {
	doc      *document.Dir
	ctl      *thumbcache.Controller
	marks    Marks
	at       int
	area     image.Rectangle
	showInfo bool

	img   *draw9.Image // display image of page imgAt
	imgAt int

	dctl *DisplayControl
}

func NewPreviewView(doc *document.Dir, ctl *thumbcache.Controller, marks Marks, at int, r image.Rectangle) *PreviewView {
	return &PreviewView{
		doc:   doc,
		ctl:   ctl,
		marks: marks,
		at:    at,
		area:  r,
		imgAt: -1,
	}
}

func (v *PreviewView) Connect(dctl *DisplayControl) {
	v.dctl = dctl
}

func (v *PreviewView) Attach(r image.Rectangle) {
	if r.Eq(v.area) {
		return
	}
	v.dctl.cls()
	v.area = r
}

func (v *PreviewView) Free() {
	if v.img != nil {
		if err := v.img.Free(); err != nil {
			v.dctl.log.WithError(err).Warn("failed to free preview")
		}
		v.img, v.imgAt = nil, -1
	}
}

func (v *PreviewView) Handle() View {
	bt2menu := &draw9.Menu{
		Item: []string{"info", "mark", "plumb", "back"},
	}

	dctl := v.dctl
	v.paint()
	for {
		select {
		case err := <-dctl.errch:
			dctl.log.WithError(err).Error("display")
		case k := <-dctl.kctl.C:
			switch k {
			case 'q', 'b', escKey: // back
				return nil
			case leftArrowKey: // prev page
				v.move(-1)
			case rightArrowKey: // next page
				v.move(+1)
			case 'i': // info
				v.showInfo = !v.showInfo
				v.paint()
			case 'm': // mark
				v.marks.Toggle(v.doc.Page(v.at).Path)
				v.paint()
			case 'p': // plumb
				dctl.plumbPage(v.doc.Page(v.at).Path)
			}
		case dctl.mctl.Mouse = <-dctl.mctl.C:
			switch dctl.mctl.Mouse.Buttons {
			case 1: // prev page
				v.move(-1)
			case 2: // view menu
				switch draw9.MenuHit(2, dctl.mctl, bt2menu, nil) {
				case 0: // info
					v.showInfo = !v.showInfo
					v.paint()
				case 1: // mark
					v.marks.Toggle(v.doc.Page(v.at).Path)
					v.paint()
				case 2: // plumb
					dctl.plumbPage(v.doc.Page(v.at).Path)
				case 3: // back
					return nil
				}
			case 4: // next page
				v.move(+1)
			}
		case <-dctl.mctl.Resize:
			v.Attach(dctl.reattach())
			v.paint()
		}
	}
}

func (v *PreviewView) move(delta int) {
	if at := v.at + delta; 0 <= at && at < v.doc.PageCount() {
		v.at = at
		v.paint()
	}
}

// load makes v.img the display image of the current page.
func (v *PreviewView) load() error {
	if v.imgAt == v.at {
		return nil
	}
	v.Free()
	img, err := v.ctl.Preview(context.Background(), v.at)
	if err != nil {
		return err
	}
	if v.img, err = toDrawImage(v.dctl.display, img); err != nil {
		return err
	}
	v.imgAt = v.at
	return nil
}

func (v *PreviewView) paint() {
	dctl := v.dctl
	window := dctl.display.Image
	window.Draw(window.Bounds(), dctl.bgColor, nil, image.Point{})

	var err error
	dctl.showWaitingAndCall(func() {
		err = v.load()
	})
	if err != nil {
		dctl.log.WithError(err).WithField("page", v.at).Warn("preview not ready")
		dctl.flush()
		return
	}

	font := dctl.display.Font
	page := v.doc.Page(v.at)

	imgR := document.BestFit(v.area, v.img.Bounds())
	var lines []image.Point
	var text []string
	if v.showInfo {
		lines = append(lines, v.area.Min)
		text = append(text, fmt.Sprintf("%d/%d %v %s",
			v.at+1, v.doc.PageCount(), v.img.Bounds().Max, page.Path))
		if info := v.doc.Info(v.at); info != "" {
			lines = append(lines, lines[len(lines)-1].Add(image.Point{0, font.Height}))
			text = append(text, info)
		}
		imgR.Min.Y += (len(lines) + 1) * font.Height
	}

	window.Draw(imgR, v.img, nil, image.Point{})
	if v.marks[page.Path] {
		mr := image.Rect(window.Bounds().Max.X-50, window.Bounds().Min.Y,
			window.Bounds().Max.X, window.Bounds().Min.Y+font.Height)
		window.Draw(mr, dctl.borderColor, nil, image.Point{})
	}
	for i := range lines {
		window.String(lines[i], dctl.fontColor, image.Point{}, font, text[i])
	}

	dctl.flush()
}
