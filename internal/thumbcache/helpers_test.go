package thumbcache

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var errBoom = errors.New("boom")

func nullLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.TraceLevel)
	return log
}

// pageImage is a one pixel image whose color encodes the page, so two
// renders of the same page compare equal.
func pageImage(page int, tint uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{R: uint8(page), G: uint8(page >> 8), B: tint, A: 0xff})
	return img
}

func tintOf(img image.Image) uint8 {
	_, _, b, _ := img.At(0, 0).RGBA()
	return uint8(b >> 8)
}

// recordingSink remembers every notification.
type recordingSink struct {
	mu       sync.Mutex
	rendered []int
	images   []image.Image
	evicted  []int
	sessions []Token
}

func (s *recordingSink) OnSlotRendered(page int, img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rendered = append(s.rendered, page)
	s.images = append(s.images, img)
}

func (s *recordingSink) OnSlotEvicted(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evicted = append(s.evicted, page)
}

func (s *recordingSink) Rendered() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.rendered...)
}

func (s *recordingSink) Images() []image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]image.Image(nil), s.images...)
}

func (s *recordingSink) Evicted() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.evicted...)
}

func (s *recordingSink) OnSessionChanged(token Token, _ int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, token)
}

func (s *recordingSink) Sessions() []Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Token(nil), s.sessions...)
}

// recordingSubmitter keeps jobs instead of running them.
type recordingSubmitter struct {
	jobs []Job
}

func (r *recordingSubmitter) Submit(j Job) {
	r.jobs = append(r.jobs, j)
}

func (r *recordingSubmitter) take() []Job {
	jobs := r.jobs
	r.jobs = nil
	return jobs
}

func (r *recordingSubmitter) pages() []int {
	var pages []int
	for _, j := range r.jobs {
		pages = append(pages, j.Page)
	}
	return pages
}

// runJobs executes jobs synchronously, as the pool would, and feeds the
// results back to the scheduler.
func runJobs(s *Scheduler, jobs []Job) {
	for _, j := range jobs {
		img, err := j.Render(context.Background(), j.Page)
		s.Complete(Result{Page: j.Page, Token: j.Token, Image: img, Err: err})
	}
}

// fakeDoc is a deterministic Document. Thumbnails are tinted so that the
// images of two documents can be told apart.
type fakeDoc struct {
	pages int
	tint  uint8
	gate  chan struct{} // when non-nil, renders block until it is closed

	mu       sync.Mutex
	calls    map[int]int
	previews int
	failOnce map[int]bool
}

func newFakeDoc(pages int, tint uint8) *fakeDoc {
	return &fakeDoc{pages: pages, tint: tint, calls: make(map[int]int), failOnce: make(map[int]bool)}
}

func (d *fakeDoc) PageCount() int { return d.pages }

func (d *fakeDoc) RenderThumbnail(ctx context.Context, page int) (image.Image, error) {
	d.mu.Lock()
	d.calls[page]++
	fail := d.failOnce[page]
	delete(d.failOnce, page)
	gate := d.gate
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errBoom
	}
	return pageImage(page, d.tint), nil
}

func (d *fakeDoc) RenderPreview(_ context.Context, page int) (image.Image, error) {
	d.mu.Lock()
	d.previews++
	d.mu.Unlock()
	return pageImage(page, d.tint+1), nil
}

func (d *fakeDoc) Calls(page int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[page]
}

func (d *fakeDoc) TotalCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		n += c
	}
	return n
}

func (d *fakeDoc) Previews() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.previews
}

func (d *fakeDoc) FailOnce(page int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failOnce[page] = true
}
