package cli

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/sparqlmd/internal/graph"
)

// watch runs the pipeline, then again after every burst of changes to a
// data file, a selected document or the configuration file, until ctx is
// cancelled. Failed runs are logged and watching continues.
//
// Rewritten documents trigger one more run, which writes nothing because
// annotation is idempotent.
func (p *pipeline) watch(ctx context.Context) error {
	p.runLogged(ctx)
	if ctx.Err() != nil {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to start watcher", err)
	}
	defer fsw.Close()

	w := &watcher{
		pipeline: p,
		fsw:      fsw,
		isData:   graph.DataFileMatcher(p.settings.extensions),
	}
	if err := w.addWatches(); err != nil {
		return WrapExitError(ExitUsage, "failed to watch", err)
	}

	p.logger.Info("watching for changes",
		"targetdir", p.settings.targetDir,
		"documents", len(p.documents),
		"debounce", p.settings.debounce)
	w.loop(ctx)
	p.logger.Info("watch stopped")
	return nil
}

func (p *pipeline) runLogged(ctx context.Context) {
	if err := p.run(ctx); err != nil && ctx.Err() == nil {
		p.logger.Error("run failed", "error", err)
	}
}

type watcher struct {
	pipeline *pipeline
	fsw      *fsnotify.Watcher
	isData   func(path string) bool
}

// addWatches watches every directory under the target directory and the
// directories of the documents and the configuration file.
func (w *watcher) addWatches() error {
	s := w.pipeline.settings
	if err := w.addRecursive(s.targetDir); err != nil {
		return err
	}

	dirs := make(map[string]bool)
	for _, doc := range w.pipeline.documents {
		dirs[filepath.Dir(doc)] = true
	}
	if s.configPath != "" {
		dirs[filepath.Dir(s.configPath)] = true
	}
	for dir := range dirs {
		w.add(dir)
	}
	return nil
}

// addRecursive adds watches to all directories under root, skipping
// hidden ones.
func (w *watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		w.add(path)
		return nil
	})
}

func (w *watcher) add(dir string) {
	logger := w.pipeline.logger
	if err := w.fsw.Add(dir); err != nil {
		logger.Warn("failed to watch directory", "path", dir, "error", err)
		return
	}
	logger.Debug("watching directory", "path", dir)
}

// loop collects relevant events and re-runs the pipeline once no new event
// has arrived for the debounce delay.
func (w *watcher) loop(ctx context.Context) {
	logger := w.pipeline.logger
	delay := w.pipeline.settings.debounce

	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()
	pending := 0

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.handle(event) {
				pending++
				timer.Reset(delay)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", "error", err)

		case <-timer.C:
			logger.Info("changes detected, re-running", "events", pending)
			pending = 0
			w.pipeline.runLogged(ctx)
			if ctx.Err() != nil {
				return
			}
			// Documents matched by globs may have appeared.
			for _, doc := range w.pipeline.documents {
				w.add(filepath.Dir(doc))
			}
		}
	}
}

// handle reports whether event should trigger a run. New directories
// under the target directory are watched as they appear.
func (w *watcher) handle(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	s := w.pipeline.settings

	if event.Has(fsnotify.Create) && within(s.targetDir, event.Name) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.pipeline.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			return true
		}
	}

	relevant := w.isRelevant(event.Name)
	if relevant {
		w.pipeline.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
	}
	return relevant
}

func (w *watcher) isRelevant(path string) bool {
	s := w.pipeline.settings
	if w.isData(path) && within(s.targetDir, path) {
		return true
	}
	if s.configPath != "" && samePath(path, s.configPath) {
		return true
	}
	for _, doc := range w.pipeline.documents {
		if samePath(path, doc) {
			return true
		}
	}
	// A new file may match a document glob.
	for _, pattern := range s.patterns {
		if containsGlob(pattern) && matchGlob(pattern, path) {
			return true
		}
	}
	return false
}

func samePath(a, b string) bool {
	return absPath(a) == absPath(b)
}

// within reports whether path is dir or below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(absPath(dir), absPath(path))
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
