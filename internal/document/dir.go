package document

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"
	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
)

var acceptedFormats = []string{".gif", ".jpg", ".jpeg", ".png", ".webp", ".bmp", ".tif", ".tiff"}

// Page is one page image of a document.
type Page struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Options configure how pages are rendered.
type Options struct {
	ThumbSize   image.Point // box thumbnails are fitted in
	PreviewSize image.Point // box previews are fitted in
	Fast        bool        // choose fast over best algorithms for scaling
	Log         logrus.FieldLogger
}

// Dir is a document made of the page images found under a list of
// files and directories. Pages are ordered by argument, then by natural
// name order inside each directory. A Dir is immutable and its render
// methods are safe for concurrent use.
type Dir struct {
	roots []string
	pages []Page
	opts  Options

	thumbScaler   xdraw.Scaler
	previewScaler xdraw.Scaler
}

// Open scans paths for page images. Unreadable entries are logged and
// skipped. It returns ErrNoPages if nothing was found.
func Open(opts Options, paths ...string) (*Dir, error) {
	if opts.ThumbSize.X <= 0 || opts.ThumbSize.Y <= 0 {
		return nil, fmt.Errorf("document: invalid thumbnail size %v", opts.ThumbSize)
	}
	if opts.PreviewSize.X <= 0 || opts.PreviewSize.Y <= 0 {
		return nil, fmt.Errorf("document: invalid preview size %v", opts.PreviewSize)
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	d := &Dir{roots: slices.Clone(paths), opts: opts}
	d.thumbScaler, d.previewScaler = xdraw.BiLinear, xdraw.CatmullRom
	if opts.Fast {
		d.thumbScaler, d.previewScaler = xdraw.NearestNeighbor, xdraw.BiLinear
	}
	for _, p := range paths {
		d.pages = append(d.pages, d.addPagesOfPath(p)...)
	}
	if len(d.pages) == 0 {
		return nil, ErrNoPages
	}
	return d, nil
}

// Reopen scans the paths of d again with the same options.
func (d *Dir) Reopen() (*Dir, error) {
	return Open(d.opts, d.roots...)
}

// PageCount returns the number of pages.
func (d *Dir) PageCount() int {
	return len(d.pages)
}

// Page returns page i. It panics if i is out of range.
func (d *Dir) Page(i int) Page {
	d.check(i)
	return d.pages[i]
}

// Roots returns the paths the document was opened from.
func (d *Dir) Roots() []string {
	return slices.Clone(d.roots)
}

// Subset returns a document made of the given pages of d, in the given
// order. Pages out of range are ignored.
func (d *Dir) Subset(pages []int) *Dir {
	s := &Dir{
		roots:         d.roots,
		opts:          d.opts,
		thumbScaler:   d.thumbScaler,
		previewScaler: d.previewScaler,
	}
	for _, i := range pages {
		if 0 <= i && i < len(d.pages) {
			s.pages = append(s.pages, d.pages[i])
		}
	}
	return s
}

func (d *Dir) check(i int) {
	if i < 0 || i >= len(d.pages) {
		panic(fmt.Sprintf("document: page %d out of range [0,%d)", i, len(d.pages)))
	}
}

// isImageFile checks the file suffix to check if it is an image.
func isImageFile(name string) bool {
	return slices.Contains(acceptedFormats, strings.ToLower(filepath.Ext(name)))
}

// addPagesOfPath adds the image at path, descending it if a directory.
func (d *Dir) addPagesOfPath(name string) []Page {
	info, err := os.Stat(name)
	if err != nil {
		d.opts.Log.WithError(err).Warn("document: cannot stat file")
		return nil
	}
	if info.IsDir() {
		return d.scanForPages(name)
	}
	if !info.Mode().IsRegular() {
		d.opts.Log.WithField("path", name).Info("document: ignoring special file")
		return nil
	}
	if !isImageFile(name) {
		return nil
	}
	return []Page{{Path: name, Size: info.Size(), ModTime: info.ModTime()}}
}

// scanForPages walks dir and adds the images found.
func (d *Dir) scanForPages(dir string) []Page {
	var pages []Page

	walkFn := func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() {
			return nil
		}
		if !e.Type().IsRegular() {
			d.opts.Log.WithField("path", path).Info("document: ignoring special file")
			return nil
		}
		if !isImageFile(path) {
			return nil
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		pages = append(pages, Page{Path: path, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	}

	if err := filepath.WalkDir(dir, walkFn); err != nil {
		d.opts.Log.WithError(err).WithField("dir", dir).Warn("document: scan failed")
	}

	sort.SliceStable(pages, func(i, j int) bool {
		return natural.Less(pages[i].Path, pages[j].Path)
	})
	return pages
}
