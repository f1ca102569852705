package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/anastasop/pageview/internal/config"
	"github.com/anastasop/pageview/internal/document"
	"github.com/anastasop/pageview/internal/thumbcache"
)

const progName = "pageview"

var (
	windowSize     config.Size
	thumbSize      config.Size
	outputMarked   = flag.BoolP("output", "o", false, "output the paths of marked pages")
	startPreview   = flag.BoolP("single", "s", false, "start with the preview of the first page")
	silent         = flag.BoolP("quiet", "q", false, "silent mode, do not log anything")
	verbose        = flag.BoolP("verbose", "v", false, "verbose mode, log cache activity")
	fast           = flag.BoolP("fast", "f", false, "choose fast over best algorithms for scaling")
	setMemoryLimit = flag.BoolP("memlimit", "m", false, "run with 1G soft memory limit. Overrides GOMEMLIMIT")
	capacity       = flag.Int("capacity", 0, "maximum number of thumbnails kept in memory")
	buffer         = flag.Int("buffer", 0, "pages rendered ahead on each side of the window")
	workers        = flag.Int("workers", 0, "number of concurrent page renders")
	configPath     = flag.String("config", "", "read configuration from `file`")
	watch          = flag.Bool("watch", false, "reload the document when its files change")
	markSelection  = flag.String("mark", "", "mark the pages of `selection` at start, like 1-3,5")
)

var (
	enableProfiler = flag.Bool("profile", false, "run with the profiler enabled")
	cpuprofile     = flag.String("cpuprofile", "cpu.prof", "write cpu profile to `file`")
	memprofile     = flag.String("memprofile", "mem.prof", "write memory profile to `file`")
)

func init() {
	flag.VarP(&windowSize, "window", "w", "set window size (default 1300x1000)")
	flag.VarP(&thumbSize, "thumb", "i", "set thumbnail size (default 320x240)")
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: %s [-f|-o|-q|-v|-s|-m] [file|dir]..

%s shows the pages of a document, a set of page images, as thumbnails.
Thumbnails are rendered while scrolling, for the pages near the window.

Flags:
`, progName, progName)
	flag.PrintDefaults()
	os.Exit(2)
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// overrides collects the configuration given on the command line.
func overrides() config.Config {
	return config.Config{
		WindowSize: windowSize,
		ThumbSize:  thumbSize,
		Capacity:   *capacity,
		Buffer:     *buffer,
		Workers:    *workers,
		Fast:       *fast,
		Watch:      *watch,
	}
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	switch {
	case *silent:
		log.SetOutput(io.Discard)
	case *verbose:
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func main() {
	flag.Usage = usage
	flag.Parse()

	log := newLogger()

	if *enableProfiler {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.WithError(err).Fatal("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.WithError(err).Fatal("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	cfg, err := config.Load(config.LoadInput{
		ConfigPath: *configPath,
		Overrides:  overrides(),
		Env:        environ(),
	})
	if err != nil {
		log.WithError(err).Fatal("configuration")
	}

	if *setMemoryLimit {
		debug.SetMemoryLimit(1 << 30) // or GOMEMLIMIT=1GiB
	}

	doc, err := document.Open(document.Options{
		ThumbSize:   cfg.ThumbSize.Point(),
		PreviewSize: cfg.WindowSize.Point(),
		Fast:        cfg.Fast,
		Log:         log,
	}, flag.Args()...)
	if errors.Is(err, document.ErrNoPages) {
		os.Exit(0)
	}
	if err != nil {
		log.WithError(err).Fatal("open document")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reload <-chan *document.Dir
	if cfg.Watch {
		w, err := document.NewWatcher(doc, thumbcache.NewDebouncer(time.Duration(cfg.Debounce)), log)
		if err != nil {
			log.WithError(err).Fatal("watch")
		}
		reload = w.C()
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("watch")
			}
		}()
	}

	dctl := connectToDisplay(cfg.WindowSize.Point(), log)
	dctl.connectToPlumber()
	dctl.cls()

	marks := make(Marks)
	if *markSelection != "" {
		if _, err := marks.MarkSelection(doc, *markSelection); err != nil {
			log.WithError(err).Fatal("mark")
		}
	}
	grid := NewGrid(dctl.display.Image.Bounds(), cfg.ThumbSize.Point(), cfg.Padding)
	pv := NewPagesView(doc, marks, grid, thumbcache.Options{
		Capacity:         cfg.Capacity,
		Buffer:           cfg.Buffer,
		Workers:          cfg.Workers,
		Debounce:         time.Duration(cfg.Debounce),
		RenderTimeout:    time.Duration(cfg.RenderTimeout),
		PreviewCacheSize: cfg.PreviewCache,
		Log:              log,
	}, reload)
	pv.Connect(dctl)
	defer pv.Free()

	views := []View{pv}
	if *startPreview {
		v := NewPreviewView(doc, pv.ctl, marks, 0, grid.area)
		v.Connect(dctl)
		views = append(views, v)
	}
	for len(views) > 0 {
		v := views[len(views)-1]
		v.Attach(dctl.display.Image.Bounds())
		if nv := v.Handle(); nv != nil {
			nv.Connect(dctl)
			views = append(views, nv)
		} else {
			views = views[0 : len(views)-1]
			if len(views) > 0 {
				v.Free()
				syncViewsOnExit(v, views[len(views)-1])
			}
		}
	}

	if *verbose {
		if st, err := pv.ctl.Stats(); err == nil {
			log.WithFields(logrus.Fields{
				"pages":      st.Pages,
				"rendered":   st.Rendered,
				"evicted":    st.Evicted,
				"failed":     st.Failed,
				"discarded":  st.Discarded + st.Skipped,
				"recomputes": st.Recomputes,
			}).Debug("thumbnail cache")
		}
	}

	if *enableProfiler {
		f, err := os.Create(*memprofile)
		if err != nil {
			log.WithError(err).Fatal("could not create memory profile")
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.WithError(err).Fatal("could not write memory profile")
		}
	}

	if *outputMarked {
		final := pv.Document()
		for i := range final.PageCount() {
			if p := final.Page(i).Path; marks[p] {
				fmt.Println(p)
			}
		}
	}
}
