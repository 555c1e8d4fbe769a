package orchestrate

import (
	"context"
	"sort"
	"sync"

	"github.com/nauticalops/armada/model"
)

// perShipLocks bounds concurrent operations against a single ship's
// daemon connection to a configurable limit — the `-c N` flag (spec.md
// §4.6: "bounded per-ship parallelism", §6). A capacity of 1 (the
// default) fully serializes a ship's container operations, which avoids
// racing container-name allocation and image pulls on that daemon
// (spec.md §5, §9 "Per-ship serialization").
type perShipLocks struct {
	mu       sync.Mutex
	sems     map[string]chan struct{}
	capacity int
}

func newPerShipLocks(capacity int) *perShipLocks {
	if capacity < 1 {
		capacity = 1
	}
	return &perShipLocks{sems: make(map[string]chan struct{}), capacity: capacity}
}

func (p *perShipLocks) lock(ship string) func() {
	p.mu.Lock()
	sem, ok := p.sems[ship]
	if !ok {
		sem = make(chan struct{}, p.capacity)
		p.sems[ship] = sem
	}
	p.mu.Unlock()

	sem <- struct{}{}
	return func() { <-sem }
}

// runLevel runs op against every instance in level concurrently, one
// goroutine per instance gated by that instance's ship lock, and returns
// every instance's result keyed by name. Unless continueOnFailure is set,
// the first failure cancels the context passed to the instances still
// running or waiting for their ship lock.
//
// Grounded on server/orchestrator.go's servicePhase: a fan-out of
// run.Func goroutines over a channel, first-error-wins by default.
// Unlike servicePhase, which fans out over the *whole* environment at
// once and lets dependency order emerge from blocking on the event log,
// runLevel only ever receives one dependency-graph level at a time — the
// barrier between levels is the caller's (orchestrator.go), computed
// explicitly up front by depgraph.Resolve instead of implicitly at
// runtime.
func runLevel(ctx context.Context, level []string, ships *perShipLocks, instanceShip func(string) string, continueOnFailure bool, op func(ctx context.Context, name string) error) map[string]error {
	results := make(map[string]error, len(level))
	var mu sync.Mutex
	var wg sync.WaitGroup

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, name := range level {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			unlock := ships.lock(instanceShip(name))
			defer unlock()

			err := op(runCtx, name)

			mu.Lock()
			results[name] = err
			mu.Unlock()

			if err != nil && !continueOnFailure {
				cancel()
			}
		}(name)
	}

	wg.Wait()
	return results
}

// firstError returns the first non-nil error found in results, iterating
// names in the order given for determinism.
func firstError(results map[string]error, order []string) error {
	for _, name := range order {
		if err := results[name]; err != nil {
			return err
		}
	}
	return nil
}

// instancesByService flattens every instance belonging to the given
// service names, sorted by name for deterministic scheduling within a
// level.
func instancesByService(env *model.Environment, serviceNames []string) []*model.Instance {
	var out []*model.Instance
	for _, svcName := range serviceNames {
		svc, ok := env.Services[svcName]
		if !ok {
			continue
		}
		for _, inst := range svc.Instances {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
