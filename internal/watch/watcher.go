// Package watch recompiles SODL sources as they change, recording each
// result in the compile-result store.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/sodl-lang/sodlc/internal/cache"
	"github.com/sodl-lang/sodlc/internal/compiler"
	"github.com/sodl-lang/sodlc/internal/config"
	"github.com/sodl-lang/sodlc/internal/logger"
	"github.com/sodl-lang/sodlc/internal/store"
)

var log = logger.ForComponent("watch")

const sourceExt = ".sodl"

// ResultFunc receives each fresh compile result. Used by the CLI to print
// diagnostics as files change; may be nil.
type ResultFunc func(path string, result *compiler.CompileResult)

type Watcher struct {
	config      config.WatchConfig
	fsWatcher   *fsnotify.Watcher
	fsWatcherMu sync.Mutex
	debouncer   *Debouncer
	results     *store.Store
	onResult    ResultFunc
	roots       []string
	mu          sync.RWMutex
	running     bool
	ctx         context.Context
	cancel      context.CancelFunc
}

func New(cfg config.WatchConfig, results *store.Store, onResult ResultFunc) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		config:    cfg,
		fsWatcher: fsWatcher,
		results:   results,
		onResult:  onResult,
		roots:     make([]string, 0),
	}

	w.debouncer = NewDebouncer(cfg.DebounceWindow, cfg.MaxBatchSize, w.onFlush)

	return w, nil
}

func (w *Watcher) addToWatcher(path string) error {
	w.fsWatcherMu.Lock()
	defer w.fsWatcherMu.Unlock()
	return w.fsWatcher.Add(path)
}

// AddRoot watches path recursively and compiles every source file already
// under it.
func (w *Watcher) AddRoot(path string) error {
	log.Info("adding root to watch", "path", path)

	if err := w.addToWatcher(path); err != nil {
		return err
	}

	w.mu.Lock()
	w.roots = append(w.roots, path)
	w.mu.Unlock()

	return w.walkAndAdd(path)
}

func (w *Watcher) walkAndAdd(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		log.Debug("failed to read directory", "path", path, "error", err)
		return err
	}

	for _, entry := range entries {
		fullPath := filepath.Join(path, entry.Name())

		if w.shouldIgnore(fullPath) {
			continue
		}

		if entry.IsDir() {
			if err := w.addToWatcher(fullPath); err != nil {
				log.Debug("failed to watch directory", "path", fullPath, "error", err)
				continue
			}
			w.walkAndAdd(fullPath)
		} else if strings.HasSuffix(entry.Name(), sourceExt) {
			w.compileFile(fullPath)
		}
	}

	return nil
}

func (w *Watcher) Start(ctx context.Context) error {
	log.Info("starting file watcher")

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	w.running = true
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	go w.handleEvents()

	return nil
}

func (w *Watcher) handleEvents() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			log.Debug("file event", "path", event.Name, "op", event.Op.String())

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.shouldIgnore(event.Name) {
						if err := w.addToWatcher(event.Name); err == nil {
							w.walkAndAdd(event.Name)
						}
					}
				}
			}

			fileEvent := w.convertEvent(event)
			if fileEvent != nil {
				w.debouncer.Add(*fileEvent)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Debug("watch error", "error", err)
		}
	}
}

func (w *Watcher) convertEvent(event fsnotify.Event) *FileEvent {
	if w.shouldIgnore(event.Name) {
		return nil
	}
	if !strings.HasSuffix(event.Name, sourceExt) {
		return nil
	}

	var eventType EventType

	switch {
	case event.Has(fsnotify.Create):
		eventType = EventCreate
	case event.Has(fsnotify.Write):
		eventType = EventModify
	case event.Has(fsnotify.Remove):
		eventType = EventDelete
	case event.Has(fsnotify.Rename):
		eventType = EventRename
	default:
		return nil
	}

	return &FileEvent{
		Path:      event.Name,
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

func (w *Watcher) onFlush(events []FileEvent) {
	log.Info("flushing events", "count", len(events))

	for _, event := range events {
		if event.Type == EventDelete || event.Type == EventRename {
			if w.results != nil {
				if err := w.results.Delete(event.Path); err != nil {
					log.Debug("failed to drop result", "path", event.Path, "error", err)
				}
			}
			continue
		}
		w.compileFile(event.Path)
	}
}

// compileFile recompiles one source file unless its content hash matches the
// stored result, and records the outcome.
func (w *Watcher) compileFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Debug("failed to read source", "path", path, "error", err)
		return
	}

	hash := cache.Key(data)
	if w.results != nil {
		if prev, err := w.results.Get(path); err == nil && prev != nil && prev.ContentHash == hash {
			log.Debug("unchanged, skipping", "path", path)
			return
		}
	}

	result, err := compiler.Compile(data, path)
	if err != nil {
		log.Warn("undecodable source", "path", path, "error", err)
		return
	}

	log.Info("compiled", "path", path, "success", result.Success, "diagnostics", len(result.Diagnostics))

	if w.results != nil {
		errCount, warns := splitCounts(result)
		_, err := w.results.Upsert(&store.Result{
			Path:         path,
			ContentHash:  hash,
			Success:      result.Success,
			ErrorCount:   errCount,
			WarningCount: warns,
			Diagnostics:  result.Diagnostics,
			CompiledAt:   time.Now().UTC(),
		})
		if err != nil {
			log.Warn("failed to store result", "path", path, "error", err)
		}
	}

	if w.onResult != nil {
		w.onResult(path, result)
	}
}

func splitCounts(result *compiler.CompileResult) (errors, warnings int) {
	for _, d := range result.Diagnostics {
		if d.Severity == "error" {
			errors++
		} else {
			warnings++
		}
	}
	return errors, warnings
}

func (w *Watcher) shouldIgnore(path string) bool {
	basename := filepath.Base(path)

	if strings.HasPrefix(basename, ".") {
		return true
	}

	for _, pattern := range w.config.IgnorePatterns {
		if match, _ := doublestar.Match(pattern, path); match {
			return true
		}
	}

	return false
}

func (w *Watcher) Stop() error {
	log.Info("stopping file watcher")

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}

	w.running = false
	w.cancel()
	w.mu.Unlock()

	w.debouncer.Stop()

	w.fsWatcherMu.Lock()
	defer w.fsWatcherMu.Unlock()
	return w.fsWatcher.Close()
}
