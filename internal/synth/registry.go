package synth

import "sort"

// Registry maps backend IDs to backends.
type Registry struct {
	backends map[ID]Backend
}

func NewRegistry(backends ...Backend) *Registry {
	r := &Registry{backends: make(map[ID]Backend, len(backends))}
	for _, b := range backends {
		r.backends[b.ID()] = b
	}
	return r
}

// Get looks up a backend by ID.
func (r *Registry) Get(id ID) (Backend, bool) {
	b, ok := r.backends[id]
	return b, ok
}

// IDs lists registered backend IDs in sorted order.
func (r *Registry) IDs() []ID {
	ids := make([]ID, 0, len(r.backends))
	for id := range r.backends {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
