package compiler

import "sort"

// StepGraph represents a directed acyclic graph of steps.
// It remembers declaration order so that sorting is deterministic.
type StepGraph struct {
	order      []string       // step IDs in declaration order
	index      map[string]int // step ID -> declaration position
	steps      map[string]Step
	dependsOn  map[string][]string // step ID -> list of dependency IDs
	dependedBy map[string][]string // step ID -> list of steps that depend on it
}

// NewStepGraph creates an empty StepGraph.
func NewStepGraph() *StepGraph {
	return &StepGraph{
		index:      make(map[string]int),
		steps:      make(map[string]Step),
		dependsOn:  make(map[string][]string),
		dependedBy: make(map[string][]string),
	}
}

// Len returns the number of steps in the graph.
func (g *StepGraph) Len() int {
	return len(g.steps)
}

// Add adds a step to the graph.
// Returns ErrDuplicateStep if a step with the same ID already exists.
func (g *StepGraph) Add(step Step) error {
	id := step.ID().String()

	if _, exists := g.steps[id]; exists {
		return ErrDuplicateStep
	}

	g.index[id] = len(g.order)
	g.order = append(g.order, id)
	g.steps[id] = step

	deps := step.DependsOn()
	depIDs := make([]string, 0, len(deps))
	seen := make(map[string]bool, len(deps))
	for _, dep := range deps {
		depID := dep.String()
		if seen[depID] {
			continue
		}
		seen[depID] = true
		depIDs = append(depIDs, depID)
		g.dependedBy[depID] = append(g.dependedBy[depID], id)
	}
	g.dependsOn[id] = depIDs

	return nil
}

// Get retrieves a step by ID.
func (g *StepGraph) Get(id StepID) (Step, bool) {
	step, ok := g.steps[id.String()]
	return step, ok
}

// Steps returns all steps in declaration order.
func (g *StepGraph) Steps() []Step {
	steps := make([]Step, 0, len(g.order))
	for _, id := range g.order {
		steps = append(steps, g.steps[id])
	}
	return steps
}

// Dependents returns the IDs of steps that directly depend on id, in declaration order.
func (g *StepGraph) Dependents(id StepID) []StepID {
	ids := g.dependedBy[id.String()]
	out := make([]StepID, 0, len(ids))
	for _, dep := range ids {
		if step, ok := g.steps[dep]; ok {
			out = append(out, step.ID())
		}
	}
	return out
}

// Validate checks that all dependencies exist.
// Errors are reported for the first offending step in declaration order.
func (g *StepGraph) Validate() error {
	for _, id := range g.order {
		for _, depID := range g.dependsOn[id] {
			if _, exists := g.steps[depID]; !exists {
				return NewUnknownDependencyError(id, depID)
			}
		}
	}
	return nil
}

// TopologicalSort returns steps in dependency order.
// Among steps whose dependencies are all placed, the earliest declared comes
// first. Returns a CYCLIC_DEPENDENCY BuildError naming one cycle otherwise.
func (g *StepGraph) TopologicalSort() ([]Step, error) {
	inDegree := make(map[string]int, len(g.steps))
	for _, id := range g.order {
		for _, depID := range g.dependsOn[id] {
			if _, exists := g.steps[depID]; exists {
				inDegree[id]++
			}
		}
	}

	// ready holds declaration positions, kept sorted ascending.
	ready := make([]int, 0, len(g.order))
	for i, id := range g.order {
		if inDegree[id] == 0 {
			ready = append(ready, i)
		}
	}

	sorted := make([]Step, 0, len(g.steps))
	for len(ready) > 0 {
		id := g.order[ready[0]]
		ready = ready[1:]
		sorted = append(sorted, g.steps[id])

		for _, dependentID := range g.dependedBy[id] {
			if _, exists := g.steps[dependentID]; !exists {
				continue
			}
			inDegree[dependentID]--
			if inDegree[dependentID] == 0 {
				ready = insertSorted(ready, g.index[dependentID])
			}
		}
	}

	if len(sorted) != len(g.steps) {
		return nil, NewCyclicDependencyError(g.findCycle(inDegree))
	}

	return sorted, nil
}

// findCycle walks dependency edges among unsorted steps until a step repeats.
// Every unsorted step has at least one unsorted dependency, so the walk
// always closes a loop.
func (g *StepGraph) findCycle(inDegree map[string]int) []string {
	var start string
	for _, id := range g.order {
		if inDegree[id] > 0 {
			start = id
			break
		}
	}

	visitedAt := make(map[string]int)
	path := make([]string, 0)
	current := start
	for {
		if pos, seen := visitedAt[current]; seen {
			cycle := append([]string{}, path[pos:]...)
			return append(cycle, current)
		}
		visitedAt[current] = len(path)
		path = append(path, current)

		next := ""
		for _, depID := range g.dependsOn[current] {
			if inDegree[depID] > 0 {
				next = depID
				break
			}
		}
		if next == "" {
			return path
		}
		current = next
	}
}

func insertSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
