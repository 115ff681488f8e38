// Package preview serves a built site locally and rebuilds it when the
// project changes.
//
// Builds go to a staging directory that replaces the served output only
// when the build succeeded, so a broken edit never takes the preview down.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/quire/internal/logfields"
)

const (
	DefaultPort     = 8000
	DefaultDebounce = 300 * time.Millisecond
	// StagingSuffix names the directory a rebuild writes to, next to the output.
	StagingSuffix = ".staging"

	shutdownTimeout = 5 * time.Second
)

// Builder runs one full build into outputDir.
type Builder func(ctx context.Context, outputDir string) error

// Options configure the preview server.
type Options struct {
	Host string
	Port int
	// OutputDir is served and replaced after every good build.
	OutputDir string
	// WatchDirs are watched recursively. Output and staging directories are skipped.
	WatchDirs []string
	// RebuildEvery schedules rebuilds independent of file events. Zero disables.
	RebuildEvery time.Duration
	Debounce     time.Duration
	Logger       *slog.Logger
}

// buildStatus tracks the last build for logging and tests.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
}

func (bs *buildStatus) setSuccess() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.hasGoodBuild = true
}

func (bs *buildStatus) get() (lastErr error, hasGoodBuild bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError, bs.hasGoodBuild
}

// Server is a preview session.
type Server struct {
	opts   Options
	build  Builder
	logger *slog.Logger
	status buildStatus
	// buildMu serializes rebuilds from the watcher and the scheduler.
	buildMu sync.Mutex
}

// New creates a preview server. Nothing runs until Run.
func New(opts Options, build Builder) *Server {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{opts: opts, build: build, logger: logger}
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// Handler serves the output directory.
func (s *Server) Handler() http.Handler {
	return http.FileServer(http.Dir(s.opts.OutputDir))
}

// Status reports the last build error and whether any build succeeded.
func (s *Server) Status() (lastErr error, hasGoodBuild bool) {
	return s.status.get()
}

// Run builds once, then serves and watches until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.Rebuild(ctx)

	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.Addr(), err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	s.logger.Info("Preview server listening", slog.String("url", "http://"+ln.Addr().String()))

	watcher, err := s.setupFileWatcher()
	if err != nil {
		_ = srv.Close()
		return err
	}
	defer func() { _ = watcher.Close() }()

	rebuildReq, trigger := setupRebuildDebouncer(s.opts.Debounce)
	s.startRebuildWorker(ctx, rebuildReq)

	scheduler, err := s.startScheduler(trigger)
	if err != nil {
		_ = srv.Close()
		return err
	}

	err = s.runLoop(ctx, watcher, trigger, serveErr)

	s.logger.Info("Shutting down preview server")
	if scheduler != nil {
		if shErr := scheduler.Shutdown(); shErr != nil {
			s.logger.Warn("Scheduler shutdown error", logfields.Error(shErr))
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shErr := srv.Shutdown(shutdownCtx); shErr != nil {
		s.logger.Warn("HTTP server shutdown error", logfields.Error(shErr))
	}
	return err
}

// Rebuild builds into the staging directory and swaps it in on success.
// A failed build is logged and the current output stays.
func (s *Server) Rebuild(ctx context.Context) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	staging := s.opts.OutputDir + StagingSuffix
	_ = os.RemoveAll(staging)
	if err := s.build(ctx, staging); err != nil {
		_ = os.RemoveAll(staging)
		s.logger.Warn("Rebuild failed, keeping previous output", logfields.Error(err))
		s.status.setError(err)
		return
	}
	if err := publish(staging, s.opts.OutputDir); err != nil {
		s.logger.Error("Publishing build failed", logfields.Error(err))
		s.status.setError(err)
		return
	}
	s.status.setSuccess()
}

// publish replaces dst with src.
func publish(src, dst string) error {
	old := dst + ".old"
	_ = os.RemoveAll(old)
	if err := os.Rename(dst, old); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		_ = os.Rename(old, dst)
		return err
	}
	return os.RemoveAll(old)
}

func (s *Server) startScheduler(trigger func()) (gocron.Scheduler, error) {
	if s.opts.RebuildEvery <= 0 {
		return nil, nil //nolint:nilnil // no schedule configured
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(s.opts.RebuildEvery),
		gocron.NewTask(func() {
			s.logger.Debug("Scheduled rebuild")
			trigger()
		}),
		gocron.WithName("preview-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	scheduler.Start()
	s.logger.Info("Periodic rebuild scheduled", slog.Duration("every", s.opts.RebuildEvery))
	return scheduler, nil
}

func (s *Server) setupFileWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for _, dir := range s.opts.WatchDirs {
		if st, statErr := os.Stat(dir); statErr != nil || !st.IsDir() {
			continue
		}
		if err := s.addDirsRecursive(watcher, dir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}
	return watcher, nil
}

// setupRebuildDebouncer returns the rebuild channel and a trigger that
// fires it once events have been quiet for delay.
func setupRebuildDebouncer(delay time.Duration) (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	return rebuildReq, trigger
}

func (s *Server) startRebuildWorker(ctx context.Context, rebuildReq <-chan struct{}) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-rebuildReq:
				s.logger.Info("Change detected; rebuilding site")
				s.Rebuild(ctx)
			}
		}
	}()
}

func (s *Server) runLoop(ctx context.Context, watcher *fsnotify.Watcher, trigger func(), serveErr <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-serveErr:
			if ok && err != nil {
				return fmt.Errorf("preview server: %w", err)
			}
			serveErr = nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleFileEvent(watcher, ev, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (s *Server) handleFileEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) || s.isOutput(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = s.addDirsRecursive(watcher, ev.Name)
		}
	}
	s.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func (s *Server) addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") || s.isOutput(path) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			s.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// isOutput reports whether path is the output directory, its staging
// sibling or anything below them.
func (s *Server) isOutput(path string) bool {
	if s.opts.OutputDir == "" {
		return false
	}
	for _, dir := range []string{s.opts.OutputDir, s.opts.OutputDir + StagingSuffix, s.opts.OutputDir + ".old"} {
		rel, err := filepath.Rel(dir, path)
		if err == nil && (rel == "." || !strings.HasPrefix(rel, "..")) {
			return true
		}
	}
	return false
}

// shouldIgnoreEvent returns true for filesystem events that should not trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	// editor temp/swap files
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}
