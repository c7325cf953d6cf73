package engine

import (
	"fmt"
	"sync"

	"github.com/danpilch/memsample/pkg/meminfo"
)

// Descriptor identifies a discovered metric. It never changes once assigned.
type Descriptor struct {
	Name string       `json:"name"`
	ID   int64        `json:"id"`
	Unit meminfo.Unit `json:"unit"`
}

// Registry assigns stable ids to metric names in discovery order.
type Registry struct {
	mu          sync.RWMutex
	ids         map[string]int64
	descriptors []Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ids: make(map[string]int64),
	}
}

// Discover registers every metric of pass (and every derived metric report selects)
// that is not yet known and returns the descriptors report selects, in discovery
// order. It fails without registering anything when a base counter is missing.
func (r *Registry) Discover(pass meminfo.Pass, report meminfo.Matcher) ([]Descriptor, error) {
	var missing []string
	for _, name := range meminfo.MandatoryFields() {
		if _, ok := pass.Base(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	found := append([]meminfo.Sample{}, pass.Reported...)
	found = append(found, meminfo.Synthesize(pass, report)...)

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(found))
	out := make([]Descriptor, 0, len(found))
	for _, s := range found {
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		out = append(out, r.register(s))
	}
	return out, nil
}

// register must be called with r.mu held.
func (r *Registry) register(s meminfo.Sample) Descriptor {
	if id, ok := r.ids[s.Name]; ok {
		return r.descriptors[id]
	}
	d := Descriptor{Name: s.Name, ID: int64(len(r.descriptors)), Unit: s.Unit}
	r.ids[s.Name] = d.ID
	r.descriptors = append(r.descriptors, d)
	return d
}

// Resolve returns the id assigned to name.
func (r *Registry) Resolve(name string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.ids[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return id, nil
}

// Lookup returns the descriptor for id.
func (r *Registry) Lookup(id int64) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id < 0 || id >= int64(len(r.descriptors)) {
		return Descriptor{}, fmt.Errorf("%w: id %d", ErrUnknownMetric, id)
	}
	return r.descriptors[id], nil
}

// Descriptors returns every registered descriptor in id order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Matcher returns an exact matcher over the registered names.
func (r *Registry) Matcher() meminfo.Names {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make(meminfo.Names, len(r.ids))
	for name := range r.ids {
		names[name] = struct{}{}
	}
	return names
}

// Len returns the number of registered metrics.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}
