package merge

import (
	"fmt"
	"sync"
)

// Registry maps document ids to loaded sources so multiple content blocks can
// reference the same document while it is parsed at most once. Safe for
// concurrent use.
type Registry struct {
	mu      sync.Mutex
	sources map[string]*Source
}

// NewRegistry returns an empty source registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]*Source)}
}

// Load parses and registers a document under the given id. If the id is
// already registered, the existing handle is returned and the data is not
// reparsed.
func (r *Registry) Load(id string, data []byte) (*Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if src, ok := r.sources[id]; ok {
		return src, nil
	}
	src, err := LoadSource(id, data)
	if err != nil {
		return nil, err
	}
	r.sources[id] = src
	return src, nil
}

// Add registers an already loaded source, replacing any previous entry with
// the same id.
func (r *Registry) Add(src *Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[src.ID] = src
}

// Get looks up a source by id, returning a *SourceError when absent.
func (r *Registry) Get(id string) (*Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[id]
	if !ok {
		return nil, &SourceError{DocumentID: id, PageIndex: -1, Err: fmt.Errorf("document not registered")}
	}
	return src, nil
}
