package plugin

import "strings"

// Registry is an ordered collection of entries in which two entries with
// the same path, compared case-insensitively, are the same plugin.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Add appends e unless an entry with the same path is already present.
// It reports whether e was added.
func (r *Registry) Add(e Entry) bool {
	key := strings.ToLower(e.Path)
	if _, ok := r.index[key]; ok {
		return false
	}
	r.index[key] = len(r.entries)
	r.entries = append(r.entries, e)
	return true
}

// Remove deletes the entry with e's path, if present.
func (r *Registry) Remove(e Entry) {
	key := strings.ToLower(e.Path)
	i, ok := r.index[key]
	if !ok {
		return
	}
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	delete(r.index, key)
	for k, j := range r.index {
		if j > i {
			r.index[k] = j - 1
		}
	}
}

// Contains reports whether an entry with path is present.
func (r *Registry) Contains(path string) bool {
	_, ok := r.index[strings.ToLower(path)]
	return ok
}

// Entries returns a copy of the entries in insertion order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.entries) }

// Clear removes all entries.
func (r *Registry) Clear() {
	r.entries = nil
	r.index = make(map[string]int)
}
