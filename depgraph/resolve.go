// Package depgraph builds the dependency DAG over services and computes
// the orders the orchestrator walks (spec.md §3 "Dependency graph",
// §4.2).
//
// Grounded on internal/server/validate.go's detectCycle (DFS, 3-color,
// sorted iteration for deterministic cycle-path output) for cycle
// detection, generalized here to also produce the full topological order
// (Kahn's algorithm) that detectCycle's pure-DFS approach doesn't need,
// since the teacher's orchestrator derives ordering implicitly from its
// event log instead of an explicit order (see orchestrate/schedule.go's
// doc comment for that deviation).
package depgraph

import (
	"sort"

	"github.com/nauticalops/armada/armerr"
	"github.com/nauticalops/armada/model"
)

// Resolved holds, for an environment, the forward topological order of
// services, its reverse, and — per service — the transitive closure of
// requires ∪ wants_info (needed for environment composition; requires
// alone drives ordering — spec.md §4.2).
type Resolved struct {
	Forward []string // topological order over `requires`, ties broken lexicographically
	Reverse []string // Forward, reversed

	// Closure[s] is the transitive closure of requires(s) ∪ wants_info(s),
	// not including s itself. Used by compose (env composition sees both
	// kinds of dependency).
	Closure map[string]map[string]bool

	// RequiresClosure[s] is the transitive closure of requires(s) alone,
	// not including s itself. Used by orchestrate (target expansion only
	// follows hard dependencies — wants_info doesn't gate startup order).
	RequiresClosure map[string]map[string]bool

	// Levels groups Forward into the levels the orchestrator schedules
	// concurrently: Levels[0] has no unresolved requires, Levels[1]
	// depends only on Levels[0], and so on.
	Levels [][]string
}

// Resolve computes the dependency order for env. Per spec.md §9/§8
// invariant 7 and the Open Questions note, only `requires` edges are
// checked for cycles — `wants_info` cycles are permitted.
func Resolve(env *model.Environment) (*Resolved, error) {
	if cycle := detectCycle(env); cycle != nil {
		return nil, &armerr.CycleError{Cycle: cycle}
	}

	levels := kahnLevels(env)

	var forward []string
	for _, level := range levels {
		forward = append(forward, level...)
	}

	reverse := make([]string, len(forward))
	for i, name := range forward {
		reverse[len(forward)-1-i] = name
	}

	closure := make(map[string]map[string]bool, len(env.Services))
	requiresClosure := make(map[string]map[string]bool, len(env.Services))
	for name := range env.Services {
		closure[name] = transitiveClosure(env, name, true)
		requiresClosure[name] = transitiveClosure(env, name, false)
	}

	return &Resolved{
		Forward:         forward,
		Reverse:         reverse,
		Closure:         closure,
		RequiresClosure: requiresClosure,
		Levels:          levels,
	}, nil
}

// kahnLevels runs Kahn's algorithm over `requires` edges, grouping nodes
// that become ready in the same round into one level — this level
// grouping is exactly the unit orchestrate/schedule.go parallelizes.
// Ties within a round are broken by lexicographic service name for
// reproducible output (spec.md §4.2).
func kahnLevels(env *model.Environment) [][]string {
	indegree := make(map[string]int, len(env.Services))
	dependents := make(map[string][]string, len(env.Services)) // b -> [a : a requires b]

	for name := range env.Services {
		indegree[name] = 0
	}
	for name, svc := range env.Services {
		for _, dep := range svc.Requires {
			if _, ok := env.Services[dep]; !ok {
				continue // unresolved ref — caught by model.Environment.Validate
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var levels [][]string
	remaining := indegree

	for len(remaining) > 0 {
		var ready []string
		for name, deg := range remaining {
			if deg == 0 {
				ready = append(ready, name)
			}
		}
		sort.Strings(ready)
		if len(ready) == 0 {
			// Unreachable: detectCycle already ruled out cycles over
			// `requires`, so Kahn's algorithm always terminates.
			break
		}
		levels = append(levels, ready)
		for _, name := range ready {
			delete(remaining, name)
		}
		for _, name := range ready {
			for _, dependent := range dependents[name] {
				if _, ok := remaining[dependent]; ok {
					remaining[dependent]--
				}
			}
		}
	}

	return levels
}

// transitiveClosure computes requires(s), optionally unioned with
// wants_info(s), transitively, not including s.
func transitiveClosure(env *model.Environment, start string, includeWantsInfo bool) map[string]bool {
	closure := make(map[string]bool)
	var walk func(name string)
	walk = func(name string) {
		svc, ok := env.Services[name]
		if !ok {
			return
		}
		deps := append([]string{}, svc.Requires...)
		if includeWantsInfo {
			deps = append(deps, svc.WantsInfo...)
		}
		for _, dep := range deps {
			if closure[dep] {
				continue
			}
			if dep == start {
				continue
			}
			closure[dep] = true
			walk(dep)
		}
	}
	walk(start)
	return closure
}

// detectCycle walks the `requires` graph with DFS and returns a minimal
// cycle path if one exists, else nil. Grounded directly on
// internal/server/validate.go's detectCycle.
func detectCycle(env *model.Environment) []string {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make(map[string]int, len(env.Services))
	parent := make(map[string]string, len(env.Services))

	names := make([]string, 0, len(env.Services))
	for name := range env.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	var result []string

	var dfs func(name string)
	dfs = func(name string) {
		state[name] = visiting

		svc := env.Services[name]
		deps := append([]string{}, svc.Requires...)
		sort.Strings(deps)

		for _, dep := range deps {
			if result != nil {
				return
			}
			if _, ok := env.Services[dep]; !ok {
				continue
			}
			switch state[dep] {
			case visiting:
				path := []string{dep, name}
				for cur := name; cur != dep; {
					cur = parent[cur]
					path = append(path, cur)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				result = path
				return
			case unvisited:
				parent[dep] = name
				dfs(dep)
			}
		}

		state[name] = visited
	}

	for _, name := range names {
		if state[name] == unvisited {
			dfs(name)
			if result != nil {
				return result
			}
		}
	}
	return nil
}
