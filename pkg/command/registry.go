package command

// Registry is an unbounded stack of history entries.
type Registry[C any] struct {
	entries []Command[C]
}

// NewRegistry creates an empty registry.
func NewRegistry[C any]() *Registry[C] {
	return &Registry[C]{entries: make([]Command[C], 0, 16)}
}

// Register appends an entry at the tail.
func (r *Registry[C]) Register(cmd Command[C]) {
	r.entries = append(r.entries, cmd)
}

// Peek returns the most recently registered entry, or nil when empty.
func (r *Registry[C]) Peek() Command[C] {
	if len(r.entries) == 0 {
		return nil
	}
	return r.entries[len(r.entries)-1]
}

// Pop removes and returns the most recently registered entry, or nil when empty.
func (r *Registry[C]) Pop() Command[C] {
	if len(r.entries) == 0 {
		return nil
	}
	last := r.entries[len(r.entries)-1]
	r.entries[len(r.entries)-1] = nil
	r.entries = r.entries[:len(r.entries)-1]
	return last
}

// Size returns the number of entries.
func (r *Registry[C]) Size() int {
	return len(r.entries)
}

// Entries returns a copy of the entries, oldest first.
func (r *Registry[C]) Entries() []Command[C] {
	out := make([]Command[C], len(r.entries))
	copy(out, r.entries)
	return out
}

// Clear drops every entry.
func (r *Registry[C]) Clear() {
	clear(r.entries)
	r.entries = r.entries[:0]
}
