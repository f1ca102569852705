package main

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	draw9 "9fans.net/go/draw"
	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"

	"github.com/anastasop/pageview/internal/thumbcache"
)

type eventKind int

const (
	sessionChanged eventKind = iota
	slotRendered
	slotEvicted
)

// slotEvent is one cache notification, replayed on the UI goroutine.
type slotEvent struct {
	kind  eventKind
	page  int
	img   image.Image
	token thumbcache.Token
}

// uiSink queues cache notifications for the UI goroutine. It never
// blocks the cache, which may be waiting for the UI at the same time.
type uiSink struct {
	mu     sync.Mutex
	events []slotEvent
	notify chan struct{}
}

func newUISink() *uiSink {
	return &uiSink{notify: make(chan struct{}, 1)}
}

func (s *uiSink) OnSlotRendered(page int, img image.Image) {
	s.push(slotEvent{kind: slotRendered, page: page, img: img})
}

func (s *uiSink) OnSlotEvicted(page int) {
	s.push(slotEvent{kind: slotEvicted, page: page})
}

func (s *uiSink) OnSessionChanged(token thumbcache.Token, _ int) {
	s.push(slotEvent{kind: sessionChanged, token: token})
}

// C is ready when events are waiting.
func (s *uiSink) C() <-chan struct{} {
	return s.notify
}

// take returns the waiting events in arrival order.
func (s *uiSink) take() []slotEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	s.events = nil
	return events
}

func (s *uiSink) push(ev slotEvent) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// thumbTable holds the display images of the rendered thumbnails of one
// session.
type thumbTable struct {
	session thumbcache.Token
	images  map[int]*draw9.Image
	log     logrus.FieldLogger
}

func newThumbTable(log logrus.FieldLogger) *thumbTable {
	return &thumbTable{images: make(map[int]*draw9.Image), log: log}
}

func (t *thumbTable) get(page int) (*draw9.Image, bool) {
	img, ok := t.images[page]
	return img, ok
}

func (t *thumbTable) put(page int, img *draw9.Image) {
	t.free(page)
	t.images[page] = img
}

func (t *thumbTable) free(page int) {
	img, ok := t.images[page]
	if !ok {
		return
	}
	delete(t.images, page)
	if err := img.Free(); err != nil {
		t.log.WithError(err).WithField("page", page).Warn("failed to free thumbnail")
	}
}

// reset frees every image and starts a new session.
func (t *thumbTable) reset(session thumbcache.Token) {
	for page := range t.images {
		t.free(page)
	}
	t.session = session
}

// toDrawImage uploads img to the display.
func toDrawImage(disp *draw9.Display, img image.Image) (*draw9.Image, error) {
	return disp.ReadImage(toPlan9Bitmap(toRGBA(img)))
}

// toRGBA returns img as a compact RGBA with its origin at zero.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if m, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && m.Stride == 4*b.Dx() {
		return m
	}
	m := image.NewRGBA(image.Rectangle{Max: b.Size()})
	xdraw.Draw(m, m.Bounds(), img, b.Min, xdraw.Src)
	return m
}

// toPlan9Bitmap converts an image to the plan9 format for display.
func toPlan9Bitmap(img *image.RGBA) *bytes.Buffer {
	n := 60 + img.Bounds().Dx()*img.Bounds().Dy()*4
	b := bytes.NewBuffer(make([]byte, 0, n))
	fmt.Fprintf(b, "%11s %11d %11d %11d %11d ",
		"r8g8b8a8", 0, 0, img.Bounds().Dx(), img.Bounds().Dy())
	for data := img.Pix; len(data) > 0; data = data[4:] {
		b.WriteByte(data[3])
		b.WriteByte(data[2])
		b.WriteByte(data[1])
		b.WriteByte(data[0])
	}
	return b
}
