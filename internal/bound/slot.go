package bound

// Slot is a two-state annotation: unresolved, or resolved to a value.
//
// The zero Slot is unresolved. A resolved value of the zero T (a nil
// handle, say) is distinct from unresolved, which lets operator slots
// record "built-in semantics" explicitly.
type Slot[T comparable] struct {
	value    T
	resolved bool
}

// Get returns the resolved value and whether the slot is resolved.
func (s *Slot[T]) Get() (T, bool) {
	return s.value, s.resolved
}

// IsResolved reports whether a value has been stored.
func (s *Slot[T]) IsResolved() bool { return s.resolved }

// Set stores v. Setting the value already stored is a no-op; setting a
// different value fails with *ConflictError.
func (s *Slot[T]) Set(k Kind, name string, v T) error {
	if s.resolved {
		if s.value == v {
			return nil
		}
		return &ConflictError{Kind: k, Slot: name, Existing: s.value, Proposed: v}
	}
	s.value = v
	s.resolved = true
	return nil
}

// Rebind replaces the stored value unconditionally. Only error-recovery
// passes that re-resolve a routine use it.
func (s *Slot[T]) Rebind(v T) {
	s.value = v
	s.resolved = true
}

// Reset returns the slot to the unresolved state.
func (s *Slot[T]) Reset() {
	var zero T
	s.value = zero
	s.resolved = false
}
