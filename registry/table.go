// Package registry provides the fixed-capacity handle tables used to track
// device objects for the lifetime of a traced process.
//
// A Table never deletes or compacts: a record keeps its slot and its id
// forever, so ids handed out earlier stay valid and record pointers stay
// stable. Lookup by handle is a linear scan. That is fine for a debugging
// tool observing a few hundred objects; it is not meant for high-churn
// allocate/free workloads.
package registry

// InvalidID is returned when a handle is not in the table or when the table
// is full.
const InvalidID = -1

type slot[H comparable, T any] struct {
	handle H
	record T
}

// Table is an append-only array of records keyed by an opaque handle.
type Table[H comparable, T any] struct {
	name  string
	slots []slot[H, T]
}

// New returns an empty table that holds at most capacity records.
func New[H comparable, T any](name string, capacity int) *Table[H, T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Table[H, T]{
		name: name,
		// Appends never exceed the capacity, so the backing array is never
		// reallocated and *T returned by Get stays valid.
		slots: make([]slot[H, T], 0, capacity),
	}
}

// Name returns the name the table was created with.
func (t *Table[H, T]) Name() string { return t.name }

// Len returns the number of records ever inserted.
func (t *Table[H, T]) Len() int { return len(t.slots) }

// Cap returns the maximum number of records.
func (t *Table[H, T]) Cap() int { return cap(t.slots) }

// Full reports whether further inserts will fail.
func (t *Table[H, T]) Full() bool { return len(t.slots) >= cap(t.slots) }

// FindID returns the id of the most recently inserted record bound to
// handle, or InvalidID.
func (t *Table[H, T]) FindID(handle H) int {
	for i := len(t.slots) - 1; i >= 0; i-- {
		if t.slots[i].handle == handle {
			return i
		}
	}
	return InvalidID
}

// Get returns the record with the given id, or nil when id is out of range.
func (t *Table[H, T]) Get(id int) *T {
	if id < 0 || id >= len(t.slots) {
		return nil
	}
	return &t.slots[id].record
}

// Handle returns the handle bound to id.
func (t *Table[H, T]) Handle(id int) (H, bool) {
	var zero H
	if id < 0 || id >= len(t.slots) {
		return zero, false
	}
	return t.slots[id].handle, true
}

// Find returns the record bound to handle, or nil.
func (t *Table[H, T]) Find(handle H) *T {
	return t.Get(t.FindID(handle))
}

// Insert appends a zero record bound to handle and returns its id, or
// InvalidID when the table is full. Insert does not check for duplicates:
// a handle reused by the native API after a release gets a new slot and
// FindID resolves to it, while the old record keeps its id.
func (t *Table[H, T]) Insert(handle H) int {
	if t.Full() {
		return InvalidID
	}
	t.slots = append(t.slots, slot[H, T]{handle: handle})
	return len(t.slots) - 1
}

// Range calls fn for every record in insertion order until fn returns false.
func (t *Table[H, T]) Range(fn func(id int, handle H, record *T) bool) {
	for i := range t.slots {
		if !fn(i, t.slots[i].handle, &t.slots[i].record) {
			return
		}
	}
}
