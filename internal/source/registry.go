package source

import (
	"fmt"

	"pagecache/internal/service"
)

// Registry is the explicit source registration table, built once at
// startup. Lookup is by the id reported in the source's meta.
type Registry struct {
	sources map[string]service.Source
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]service.Source)}
}

func (r *Registry) Register(s service.Source) error {
	id := s.Meta().ID
	if _, exists := r.sources[id]; exists {
		return fmt.Errorf("source %q already registered", id)
	}
	r.sources[id] = s
	r.order = append(r.order, id)
	return nil
}

func (r *Registry) Get(id string) (service.Source, bool) {
	s, ok := r.sources[id]
	return s, ok
}

// All returns sources in registration order.
func (r *Registry) All() []service.Source {
	out := make([]service.Source, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sources[id])
	}
	return out
}
