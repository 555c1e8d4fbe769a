package orchestrate

import (
	"context"
	"fmt"

	"github.com/nauticalops/armada/controller"
	"github.com/nauticalops/armada/daemon"
	"github.com/nauticalops/armada/depgraph"
	"github.com/nauticalops/armada/model"
)

// Options configures one orchestration run (spec.md §4.6, §6 flags).
type Options struct {
	Targets           []string // substrings of service or instance names; empty means all non-omitted services
	Only              bool     // -o/--only: bypass target expansion
	ContinueOnFailure bool     // default true; --stop-on-failure flips this off
	ForceRefresh      bool     // -r: always pull the image, even if already cached
	ConcurrencyPerShip int     // -c N: simultaneous container operations per ship; default 1
}

// Orchestrator ties the config/depgraph/compose/controller/probe
// packages together into the operations the CLI dispatches (spec.md
// §4.6). One Orchestrator serves one Environment for the lifetime of a
// single command invocation; ship connections are dialed lazily and
// cached per ship so a level that touches the same ship twice reuses the
// connection.
type Orchestrator struct {
	Env *model.Environment
	Log *EventLog

	resolved *depgraph.Resolved
	ships    *perShipLocks
	clients  map[string]daemon.Client
}

// New resolves the dependency graph and returns a ready-to-use
// Orchestrator. Resolution failures (cycles) are fatal and reported
// before any ship is contacted, per spec.md §4.1/§4.2's load-then-act
// ordering.
func New(env *model.Environment) (*Orchestrator, error) {
	resolved, err := depgraph.Resolve(env)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		Env:      env,
		Log:      NewEventLog(),
		resolved: resolved,
		clients:  make(map[string]daemon.Client),
	}, nil
}

// Run executes cmd against the expanded target set, walking
// resolved.Levels in the direction cmd calls for (forward for
// start/restart, reverse for stop/clean), one run.Group-style fan-out
// per level with a barrier between levels (spec.md §4.6).
func (o *Orchestrator) Run(ctx context.Context, cmd Command, opts Options) error {
	targets, err := ExpandTargets(o.Env, o.resolved, cmd, opts.Targets, opts.Only)
	if err != nil {
		return err
	}
	targetSet := make(map[string]bool, len(targets))
	for _, t := range targets {
		targetSet[t] = true
	}

	levels := o.resolved.Levels
	if cmd == CmdStop || cmd == CmdClean {
		levels = reverseLevels(levels)
	}

	o.ships = newPerShipLocks(opts.ConcurrencyPerShip)

	ctrl := func(name string) (*controller.Controller, *model.Instance, error) {
		inst := o.Env.FindInstance(name)
		if inst == nil {
			return nil, nil, fmt.Errorf("orchestrate: unknown instance %q", name)
		}
		ship, ok := o.Env.Ships[inst.Ship]
		if !ok {
			return nil, nil, fmt.Errorf("orchestrate: instance %q: unknown ship %q", name, inst.Ship)
		}
		client, err := o.clientFor(ctx, ship)
		if err != nil {
			return nil, nil, err
		}
		return &controller.Controller{Env: o.Env, Resolved: o.resolved, Client: client, Ship: ship, ForceRefresh: opts.ForceRefresh}, inst, nil
	}

	instanceShip := func(name string) string {
		if inst := o.Env.FindInstance(name); inst != nil {
			return inst.Ship
		}
		return ""
	}

	var outcome error

	for levelIdx, level := range levels {
		instances := instancesByService(o.Env, filterTargeted(level, targetSet))
		if len(instances) == 0 {
			continue
		}

		names := make([]string, len(instances))
		for i, inst := range instances {
			names[i] = inst.Name
		}

		o.Log.Publish(Event{Type: EventLevelStarted, Level: levelIdx})

		results := runLevel(ctx, names, o.ships, instanceShip, opts.ContinueOnFailure, func(ctx context.Context, name string) error {
			c, inst, err := ctrl(name)
			if err != nil {
				return err
			}
			return o.dispatch(ctx, c, inst, cmd)
		})

		for _, name := range names {
			if err := results[name]; err != nil {
				o.Log.Publish(Event{Type: EventInstanceFailed, Instance: name, Error: err.Error()})
			}
		}

		o.Log.Publish(Event{Type: EventLevelCompleted, Level: levelIdx})

		if err := firstError(results, names); err != nil {
			if !opts.ContinueOnFailure {
				o.Log.Publish(Event{Type: EventOrchestrationDone, Error: err.Error()})
				return err
			}
			if outcome == nil {
				outcome = err
			}
		}
	}

	o.Log.Publish(Event{Type: EventOrchestrationDone})
	return outcome
}

func (o *Orchestrator) dispatch(ctx context.Context, c *controller.Controller, inst *model.Instance, cmd Command) error {
	switch cmd {
	case CmdStart:
		o.Log.Publish(Event{Type: EventInstanceStarting, Instance: inst.Name, Ship: inst.Ship})
		if err := c.Start(ctx, inst); err != nil {
			return err
		}
		o.Log.Publish(Event{Type: EventInstanceRunning, Instance: inst.Name, Ship: inst.Ship})
		return nil
	case CmdRestart:
		return c.Restart(ctx, inst)
	case CmdStop:
		o.Log.Publish(Event{Type: EventInstanceStopping, Instance: inst.Name, Ship: inst.Ship})
		if err := c.Stop(ctx, inst); err != nil {
			return err
		}
		o.Log.Publish(Event{Type: EventInstanceStopped, Instance: inst.Name, Ship: inst.Ship})
		return nil
	case CmdClean:
		return c.Clean(ctx, inst)
	default:
		return fmt.Errorf("orchestrate: unsupported command %q", cmd)
	}
}

// Status reports every targeted instance's current state without
// mutating anything.
func (o *Orchestrator) Status(ctx context.Context, targets []string, only bool) (map[string]daemon.Status, error) {
	names, err := ExpandTargets(o.Env, o.resolved, CmdStatus, targets, only)
	if err != nil {
		return nil, err
	}

	out := make(map[string]daemon.Status)
	for _, inst := range instancesByService(o.Env, names) {
		ship, ok := o.Env.Ships[inst.Ship]
		if !ok {
			return nil, fmt.Errorf("instance %q: unknown ship %q", inst.Name, inst.Ship)
		}
		client, err := o.clientFor(ctx, ship)
		if err != nil {
			return nil, err
		}
		c := &controller.Controller{Env: o.Env, Resolved: o.resolved, Client: client, Ship: ship}
		status, err := c.Status(ctx, inst)
		if err != nil {
			return nil, err
		}
		out[inst.Name] = status
	}
	return out, nil
}

func (o *Orchestrator) clientFor(ctx context.Context, ship *model.Ship) (daemon.Client, error) {
	if c, ok := o.clients[ship.Name]; ok {
		return c, nil
	}
	c, err := daemon.Dial(ctx, ship)
	if err != nil {
		return nil, err
	}
	o.clients[ship.Name] = c
	return c, nil
}

// Close releases every ship connection opened during this run.
func (o *Orchestrator) Close() {
	for _, c := range o.clients {
		_ = c.Close()
	}
}

func reverseLevels(levels [][]string) [][]string {
	out := make([][]string, len(levels))
	for i, l := range levels {
		out[len(levels)-1-i] = l
	}
	return out
}

func filterTargeted(level []string, targetSet map[string]bool) []string {
	var out []string
	for _, name := range level {
		if targetSet[name] {
			out = append(out, name)
		}
	}
	return out
}
