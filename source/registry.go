package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Frontend parses one language into the structural model.
type Frontend interface {
	// Language names the frontend ("go", "python", ...).
	Language() string

	// Parse decomposes content into a File. Path is recorded on the
	// File for reporting; content has already been read.
	Parse(ctx context.Context, path string, content []byte) (*File, error)
}

// FrontendFactory creates a frontend instance.
type FrontendFactory func() Frontend

// Registry maintains the registered language frontends, keyed by the
// file extensions they handle. Thread-safe for concurrent access.
type Registry struct {
	mu        sync.RWMutex
	frontends map[string]FrontendFactory // language → factory
	extMap    map[string]string          // extension → language
}

// NewRegistry creates a new empty frontend registry.
func NewRegistry() *Registry {
	return &Registry{
		frontends: make(map[string]FrontendFactory),
		extMap:    make(map[string]string),
	}
}

// Register adds a frontend factory for the given extensions.
// The first registration wins if there's an extension conflict.
// Extensions include the leading dot (e.g., ".go", ".py").
func (r *Registry) Register(language string, extensions []string, factory FrontendFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frontends[language] = factory

	for _, ext := range extensions {
		if _, exists := r.extMap[ext]; !exists {
			r.extMap[ext] = language
		}
	}
}

// LanguageForExtension returns the language registered for a file
// extension. Returns empty string and false if none is registered.
func (r *Registry) LanguageForExtension(ext string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	language, ok := r.extMap[ext]
	return language, ok
}

// CreateForExtension creates a frontend for the given file extension.
// Returns an error if no frontend is registered for the extension.
func (r *Registry) CreateForExtension(ext string) (Frontend, error) {
	r.mu.RLock()
	language, ok := r.extMap[ext]
	var factory FrontendFactory
	if ok {
		factory = r.frontends[language]
	}
	r.mu.RUnlock()

	if !ok || factory == nil {
		return nil, fmt.Errorf("no frontend registered for extension: %s", ext)
	}
	return factory(), nil
}

// Extensions returns all registered file extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	extensions := make([]string, 0, len(r.extMap))
	for ext := range r.extMap {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}

// Languages returns all registered language names, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	languages := make([]string, 0, len(r.frontends))
	for language := range r.frontends {
		languages = append(languages, language)
	}
	sort.Strings(languages)
	return languages
}

// DefaultRegistry is the global frontend registry.
// Language frontends register themselves via init() functions.
var DefaultRegistry = NewRegistry()
