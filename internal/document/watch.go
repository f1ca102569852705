package document

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/anastasop/pageview/internal/thumbcache"
)

// Watcher rescans a document when files change under its roots and
// delivers the new document on C if its fingerprint differs. Bursts of
// file events are coalesced into one rescan.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce *thumbcache.Debouncer
	log      logrus.FieldLogger
	doc      *Dir
	last     uint64
	c        chan *Dir
}

// NewWatcher watches the directories doc was opened from. Files given
// directly are watched through their parent directory.
func NewWatcher(doc *Dir, debounce *thumbcache.Debouncer, log logrus.FieldLogger) (*Watcher, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		debounce: debounce,
		log:      log,
		doc:      doc,
		last:     doc.Fingerprint(),
		c:        make(chan *Dir, 1),
	}
	for _, root := range doc.roots {
		if err := w.addRoot(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// C delivers rescanned documents. A document not yet received is
// replaced by a newer one.
func (w *Watcher) C() <-chan *Dir {
	return w.c
}

// Run processes file events until ctx is done. It closes the watcher
// before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	defer w.debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				w.watchCreated(ev.Name)
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			w.debounce.Trigger()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("document: watch")
		case <-w.debounce.C():
			w.rescan()
		}
	}
}

func (w *Watcher) rescan() {
	doc, err := w.doc.Reopen()
	if err != nil {
		w.log.WithError(err).Info("document: rescan")
		return
	}
	fp := doc.Fingerprint()
	if fp == w.last {
		return
	}
	w.last = fp
	w.doc = doc
	w.log.WithField("pages", doc.PageCount()).Debug("document: changed")

	select {
	case <-w.c:
	default:
	}
	w.c <- doc
}

func (w *Watcher) addRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.fsw.Add(filepath.Dir(root))
	}
	return w.addRecursive(root)
}

// addRecursive adds a directory and all its subdirectories; fsnotify
// does not watch subdirectories by itself.
// watchCreated starts watching path if it is a new directory.
func (w *Watcher) watchCreated(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addRecursive(path); err != nil {
		w.log.WithError(err).WithField("dir", path).Warn("document: watch new directory")
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}
