package typecheck

// ValueDependency records one access to a value from within a function or
// class body. Where is the position at which the value's initializing
// statement completes; UseWhere is the position of the access itself.
//
// Example:
//
//	5 => int foo;
//	fun void bar()
//	{
//	    foo;   // dependency on foo
//	}
//
// Calling bar() from a top-level statement before foo's initializer has run
// is a forward-dependency hazard.
type ValueDependency struct {
	Value    *Value
	Where    int
	UseWhere int
}

// DependencyGraph holds the direct value dependencies of one function or
// class body, plus the graphs of functions it calls. Dependencies are
// meaningful only within one compilation unit's declaration order; the graph
// is cleared when the owning unit compiles successfully.
type DependencyGraph struct {
	directs []ValueDependency
	remotes []*DependencyGraph
}

// Add appends a direct dependency.
func (g *DependencyGraph) Add(dep ValueDependency) {
	g.directs = append(g.directs, dep)
}

// AddGraph links another graph's dependencies in by reference, for call
// chains. Self-links are ignored; cycles between graphs are handled by
// Locate.
func (g *DependencyGraph) AddGraph(other *DependencyGraph) {
	if other == nil || other == g {
		return
	}
	for _, r := range g.remotes {
		if r == other {
			return
		}
	}
	g.remotes = append(g.remotes, other)
}

// Clear discards all records. Called once, when the owning unit's checking
// completes successfully; afterwards Locate reports no hazards.
func (g *DependencyGraph) Clear() {
	g.directs = nil
	g.remotes = nil
}

// Locate returns the first dependency that is a hazard for an invocation at
// pos: a dependency whose value is initialized at or after pos, or any
// dependency on an instance member when invoked from a class definition's
// top level. Direct records are checked before remote graphs. The walk
// carries a visited set, so reference cycles between mutually recursive
// functions terminate and each graph is inspected at most once per call.
func (g *DependencyGraph) Locate(pos int, isClassDef bool) *ValueDependency {
	if g == nil {
		return nil
	}
	visited := make(map[*DependencyGraph]bool)
	return g.locate(pos, isClassDef, visited)
}

func (g *DependencyGraph) locate(pos int, isClassDef bool, visited map[*DependencyGraph]bool) *ValueDependency {
	if visited[g] {
		return nil
	}
	visited[g] = true

	if dep := g.locateLocal(pos, isClassDef); dep != nil {
		return dep
	}
	for _, remote := range g.remotes {
		if dep := remote.locate(pos, isClassDef, visited); dep != nil {
			return dep
		}
	}
	return nil
}

func (g *DependencyGraph) locateLocal(pos int, isClassDef bool) *ValueDependency {
	for i := range g.directs {
		dep := &g.directs[i]
		if dep.Where > 0 && dep.Where >= pos {
			return dep
		}
		if isClassDef && dep.Value != nil && dep.Value.IsMember {
			return dep
		}
	}
	return nil
}
