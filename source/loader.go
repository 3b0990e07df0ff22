package source

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Loader reads files and hands them to the frontend registered for
// their extension. Loading is deterministic: identical file contents
// produce identical Files.
type Loader struct {
	registry *Registry
	logger   *slog.Logger
}

// NewLoader creates a loader over the given registry.
// A nil registry uses DefaultRegistry; a nil logger uses slog.Default().
func NewLoader(registry *Registry, logger *slog.Logger) *Loader {
	if registry == nil {
		registry = DefaultRegistry
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{registry: registry, logger: logger}
}

// Registry returns the registry the loader resolves frontends from.
func (l *Loader) Registry() *Registry {
	return l.registry
}

// Load reads and parses one file. It fails with a ReadError when the
// path cannot be read and a ParseError when the content cannot be
// decomposed into logical units.
func (l *Loader) Load(ctx context.Context, path string) (*File, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, NewReadError(path, err)
	}

	return l.parse(ctx, path, content)
}

// parse runs the frontend for the path's extension over content.
func (l *Loader) parse(ctx context.Context, path string, content []byte) (*File, error) {
	ext := strings.ToLower(filepath.Ext(path))
	frontend, err := l.registry.CreateForExtension(ext)
	if err != nil {
		return nil, NewParseError(path, err)
	}

	file, err := frontend.Parse(ctx, path, content)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("loaded source file",
		"path", path,
		"language", file.Language,
		"units", len(file.Units),
		"identifiers", len(file.Identifiers))

	return file, nil
}
