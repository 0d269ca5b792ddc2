package typecheck

import (
	"fmt"
	"sort"
	"strings"
)

// mangleSeparator joins the parts of internally generated overload names,
// e.g. "toString@0@Object". It cannot appear in a source-level identifier.
const mangleSeparator = "@"

// IsMangled reports whether name is an internally generated overload or
// override name.
func IsMangled(name string) bool {
	return strings.Contains(name, mangleSeparator)
}

// Scope is a stack of name->entity frames with a pending-commit buffer on
// the base frame. Additions to nested frames are visible immediately;
// additions while the base frame is current are buffered and become visible
// only on Commit, so a compilation unit's top-level bindings land atomically
// or not at all.
type Scope[T any] struct {
	frames  []map[string]T
	pending map[string]T
}

// NewScope returns a scope with its base frame in place.
func NewScope[T any]() *Scope[T] {
	s := &Scope[T]{pending: make(map[string]T)}
	s.Push()
	return s
}

// Push enters a new innermost frame.
func (s *Scope[T]) Push() {
	s.frames = append(s.frames, make(map[string]T))
}

// Pop exits the innermost frame. The base frame can never be popped.
func (s *Scope[T]) Pop() error {
	if len(s.frames) <= 1 {
		return fmt.Errorf("typecheck: cannot pop base scope frame")
	}
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// Depth returns the number of frames.
func (s *Scope[T]) Depth() int { return len(s.frames) }

// Reset discards every frame and the pending buffer, leaving a fresh base
// frame.
func (s *Scope[T]) Reset() {
	s.frames = nil
	s.pending = make(map[string]T)
	s.Push()
}

// Add binds name in the innermost frame, or in the pending buffer when the
// innermost frame is the base frame.
func (s *Scope[T]) Add(name string, entity T) {
	if len(s.frames) > 1 {
		s.frames[len(s.frames)-1][name] = entity
		return
	}
	s.pending[name] = entity
}

// Commit moves every pending entry into the base frame. Committing an empty
// buffer is a no-op.
func (s *Scope[T]) Commit() {
	for name, entity := range s.pending {
		s.frames[0][name] = entity
	}
	s.pending = make(map[string]T)
}

// Rollback discards every pending entry without making it visible.
func (s *Scope[T]) Rollback() {
	s.pending = make(map[string]T)
}

// Lookup resolves name. climb == 0 inspects only the innermost frame
// (falling back to the pending buffer when the innermost frame is the base
// frame); climb > 0 scans innermost to outermost, then the pending buffer;
// climb < 0 inspects only the base frame, then the pending buffer.
func (s *Scope[T]) Lookup(name string, climb int) (T, bool) {
	var zero T
	switch {
	case climb == 0:
		if entity, ok := s.frames[len(s.frames)-1][name]; ok {
			return entity, true
		}
		if len(s.frames) == 1 {
			if entity, ok := s.pending[name]; ok {
				return entity, true
			}
		}
	case climb > 0:
		for i := len(s.frames) - 1; i >= 0; i-- {
			if entity, ok := s.frames[i][name]; ok {
				return entity, true
			}
		}
		if entity, ok := s.pending[name]; ok {
			return entity, true
		}
	default:
		if entity, ok := s.frames[0][name]; ok {
			return entity, true
		}
		if entity, ok := s.pending[name]; ok {
			return entity, true
		}
	}
	return zero, false
}

// GetTopLevel returns the base frame's bindings; see GetLevel.
func (s *Scope[T]) GetTopLevel(includeMangled bool) []T {
	return s.GetLevel(0, includeMangled)
}

// GetLevel returns all bindings at frame depth level, sorted by name.
// Level 0 additionally includes pending entries. Mangled names are skipped
// unless includeMangled is set.
func (s *Scope[T]) GetLevel(level int, includeMangled bool) []T {
	if level < 0 || level >= len(s.frames) {
		return nil
	}
	seen := make(map[string]bool, len(s.frames[level]))
	for name := range s.frames[level] {
		seen[name] = true
	}
	if level == 0 {
		for name := range s.pending {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]T, 0, len(names))
	for _, name := range names {
		if !includeMangled && IsMangled(name) {
			continue
		}
		if entity, ok := s.frames[level][name]; ok {
			out = append(out, entity)
			continue
		}
		out = append(out, s.pending[name])
	}
	return out
}
