package source

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Root is the directory to watch recursively.
	Root string

	// Registry decides which file extensions are interesting.
	// Nil uses DefaultRegistry.
	Registry *Registry

	// DebounceDelay is how long to wait for more changes before
	// emitting events.
	DebounceDelay time.Duration

	// Logger for logging events.
	Logger *slog.Logger
}

// WatchOperation indicates the type of file operation.
type WatchOperation string

const (
	OpCreate WatchOperation = "create"
	OpModify WatchOperation = "modify"
	OpDelete WatchOperation = "delete"
)

// WatchEvent represents one debounced file change.
type WatchEvent struct {
	// Path is the changed file relative to the watch root.
	Path string

	// Operation is the type of change.
	Operation WatchOperation
}

// Watcher watches for source file changes and emits events after
// debouncing. Events whose content hash is unchanged are suppressed so
// editors that rewrite files on save do not trigger re-analysis.
type Watcher struct {
	config   WatcherConfig
	registry *Registry
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	// Debouncing: collect changes before emitting
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op // path → most recent operation

	// State tracking for change detection
	hashMu sync.RWMutex
	hashes map[string]string // path → content hash

	events chan WatchEvent
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	registry := config.Registry
	if registry == nil {
		registry = DefaultRegistry
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if config.DebounceDelay == 0 {
		config.DebounceDelay = 100 * time.Millisecond
	}

	return &Watcher{
		config:   config,
		registry: registry,
		watcher:  fsw,
		logger:   logger,
		pending:  make(map[string]fsnotify.Op),
		hashes:   make(map[string]string),
		events:   make(chan WatchEvent, 100),
	}, nil
}

// Events returns the channel of watch events.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Start begins watching the root for changes.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.config.Root); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("File watcher started",
		"root", w.config.Root,
		"debounce", w.config.DebounceDelay)

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.events)
	return w.watcher.Close()
}

// SetHash records the hash for a file (used after the initial run).
func (w *Watcher) SetHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

// GetHash returns the recorded hash for a file.
func (w *Watcher) GetHash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[path]
	return hash, ok
}

// addWatchesRecursive adds watches to all directories under root.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			return nil
		}

		if SkipDirName(filepath.Base(path)) && path != root {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}

		return nil
	})
}

// SkipDirName reports whether a directory name marks generated or
// third-party content that is never worth scanning or watching.
func SkipDirName(base string) bool {
	if strings.HasPrefix(base, ".") {
		return true
	}
	switch base {
	case "vendor", "node_modules", "__pycache__", "venv", "dist", "build", "target":
		return true
	}
	return false
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent processes a single fsnotify event.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := w.registry.LanguageForExtension(ext); !ok {
		// Handle directory creation so new directories get watched
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.handleNewDirectory(path)
			}
		}
		return
	}

	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("File change detected",
		"path", path,
		"op", event.Op.String())
}

// handleNewDirectory adds a watch to a newly created directory.
func (w *Watcher) handleNewDirectory(path string) {
	if SkipDirName(filepath.Base(path)) {
		return
	}

	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("Failed to watch new directory",
			"path", path,
			"error", err)
	} else {
		w.logger.Debug("Added watch for new directory", "path", path)
	}
}

// flushPending emits accumulated changes.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}

	toProcess := make(map[string]fsnotify.Op)
	for k, v := range w.pending {
		toProcess[k] = v
	}
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		relPath, err := filepath.Rel(w.config.Root, path)
		if err != nil {
			relPath = path
		}
		event := WatchEvent{Path: relPath}

		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			event.Operation = OpDelete

			w.hashMu.Lock()
			delete(w.hashes, relPath)
			w.hashMu.Unlock()

			w.sendEvent(event)
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			event.Operation = OpDelete
			w.sendEvent(event)
			continue
		}

		// Unreadable files are emitted anyway; analysis reports the
		// read failure instead of the watcher dropping it silently.
		content, err := os.ReadFile(path)
		if err == nil {
			hash := ComputeHash(content)
			oldHash, hadHash := w.GetHash(relPath)
			if hadHash && oldHash == hash {
				continue
			}
			w.SetHash(relPath, hash)
			if op.Has(fsnotify.Create) || !hadHash {
				event.Operation = OpCreate
			} else {
				event.Operation = OpModify
			}
		} else {
			event.Operation = OpModify
		}

		w.sendEvent(event)
	}
}

// sendEvent sends an event to the output channel.
func (w *Watcher) sendEvent(event WatchEvent) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event",
			"path", event.Path,
			"op", event.Operation)
	default:
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path)
	}
}
