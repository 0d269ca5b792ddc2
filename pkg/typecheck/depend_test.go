package typecheck

import "testing"

func TestDependencyLocateFlagsForwardUse(t *testing.T) {
	foo := NewValue(nil, "foo")
	var g DependencyGraph
	g.Add(ValueDependency{Value: foo, Where: 50, UseWhere: 12})

	if dep := g.Locate(30, false); dep == nil || dep.Value != foo {
		t.Fatalf("a call before the initializer should be a hazard, got %v", dep)
	}
	if dep := g.Locate(60, false); dep != nil {
		t.Fatalf("a call after the initializer is fine, got %v", dep)
	}
	// Position ties count as hazards: initialization completes at the end
	// of its statement.
	if dep := g.Locate(50, false); dep == nil {
		t.Fatalf("a call at the initializer's own position should be a hazard")
	}
}

func TestDependencyLocateFollowsCallChains(t *testing.T) {
	foo := NewValue(nil, "foo")
	var inner, outer DependencyGraph
	inner.Add(ValueDependency{Value: foo, Where: 50, UseWhere: 12})
	outer.AddGraph(&inner)

	if dep := outer.Locate(30, false); dep == nil || dep.Value != foo {
		t.Fatalf("hazard should propagate through the call chain, got %v", dep)
	}
	if dep := outer.Locate(60, false); dep != nil {
		t.Fatalf("no hazard expected after initialization, got %v", dep)
	}
}

func TestDependencyLocateSurvivesCycles(t *testing.T) {
	var a, b DependencyGraph
	a.AddGraph(&b)
	b.AddGraph(&a)
	foo := NewValue(nil, "foo")
	b.Add(ValueDependency{Value: foo, Where: 40, UseWhere: 5})

	if dep := a.Locate(10, false); dep == nil || dep.Value != foo {
		t.Fatalf("mutual recursion should still locate the hazard, got %v", dep)
	}
	if dep := a.Locate(90, false); dep != nil {
		t.Fatalf("cycle walk should terminate cleanly, got %v", dep)
	}
}

func TestDependencyLocateMemberUseInClassBody(t *testing.T) {
	m := NewValue(nil, "m")
	m.IsMember = true
	var g DependencyGraph
	g.Add(ValueDependency{Value: m, Where: 5, UseWhere: 8})

	if dep := g.Locate(100, true); dep == nil {
		t.Fatalf("member dependencies are always hazards from a class body")
	}
	if dep := g.Locate(100, false); dep != nil {
		t.Fatalf("the same dependency is fine outside a class body, got %v", dep)
	}
}

func TestDependencyGraphDedupAndClear(t *testing.T) {
	var a, b DependencyGraph
	a.AddGraph(&b)
	a.AddGraph(&b)
	a.AddGraph(&a)
	if len(a.remotes) != 1 {
		t.Fatalf("expected one remote graph, got %d", len(a.remotes))
	}

	b.Add(ValueDependency{Value: NewValue(nil, "x"), Where: 10, UseWhere: 2})
	a.Clear()
	b.Clear()
	if dep := a.Locate(1, false); dep != nil {
		t.Fatalf("cleared graph should report nothing, got %v", dep)
	}
}
