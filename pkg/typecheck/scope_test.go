package typecheck

import (
	"testing"

	"github.com/go-test/deep"
)

func TestScopeBaseFrameBuffersUntilCommit(t *testing.T) {
	s := NewScope[int]()
	s.Add("x", 1)

	if _, ok := s.Lookup("x", 0); !ok {
		t.Fatalf("pending entry should resolve from the base frame")
	}
	s.Commit()
	if v, ok := s.Lookup("x", 0); !ok || v != 1 {
		t.Fatalf("committed entry should resolve, got %v %v", v, ok)
	}
	// A second commit with nothing pending changes nothing.
	s.Commit()
	if v, _ := s.Lookup("x", 0); v != 1 {
		t.Fatalf("idempotent commit clobbered entry: %v", v)
	}
}

func TestScopeRollbackDiscardsPending(t *testing.T) {
	s := NewScope[int]()
	s.Add("kept", 1)
	s.Commit()
	s.Add("doomed", 2)
	s.Rollback()

	if _, ok := s.Lookup("doomed", 1); ok {
		t.Fatalf("rolled-back entry should be gone")
	}
	if _, ok := s.Lookup("kept", 1); !ok {
		t.Fatalf("rollback should not touch committed entries")
	}
}

func TestScopeNestedFramesAreImmediate(t *testing.T) {
	s := NewScope[int]()
	s.Add("global", 1)
	s.Commit()

	s.Push()
	s.Add("local", 2)
	if v, ok := s.Lookup("local", 0); !ok || v != 2 {
		t.Fatalf("nested addition should be visible immediately, got %v %v", v, ok)
	}
	if err := s.Pop(); err != nil {
		t.Fatalf("pop failed: %v", err)
	}
	if _, ok := s.Lookup("local", 1); ok {
		t.Fatalf("popped binding should be gone")
	}
}

func TestScopePopRefusesBaseFrame(t *testing.T) {
	s := NewScope[int]()
	if err := s.Pop(); err == nil {
		t.Fatalf("expected an error popping the base frame")
	}
}

func TestScopeLookupClimbSemantics(t *testing.T) {
	s := NewScope[int]()
	s.Add("x", 1)
	s.Commit()
	s.Push()
	s.Add("x", 2)
	s.Push()
	s.Add("y", 3)

	if v, _ := s.Lookup("x", 1); v != 2 {
		t.Fatalf("climbing lookup should find the innermost shadow, got %d", v)
	}
	if _, ok := s.Lookup("x", 0); ok {
		t.Fatalf("climb 0 should only see the innermost frame")
	}
	if v, _ := s.Lookup("x", -1); v != 1 {
		t.Fatalf("climb -1 should see only the base frame, got %d", v)
	}
	if _, ok := s.Lookup("y", -1); ok {
		t.Fatalf("climb -1 should not see nested frames")
	}
}

func TestScopeGetLevelSortsAndFiltersMangled(t *testing.T) {
	s := NewScope[int]()
	s.Add("beta", 2)
	s.Commit()
	s.Add("alpha", 1)
	s.Add("gain@0@UGen", 9)

	if diff := deep.Equal(s.GetTopLevel(false), []int{1, 2}); diff != nil {
		t.Fatalf("unexpected visible entries: %v", diff)
	}
	if diff := deep.Equal(s.GetTopLevel(true), []int{1, 2, 9}); diff != nil {
		t.Fatalf("unexpected full entries: %v", diff)
	}
}
