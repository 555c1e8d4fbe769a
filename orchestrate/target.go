package orchestrate

import (
	"fmt"
	"strings"

	"github.com/nauticalops/armada/depgraph"
	"github.com/nauticalops/armada/model"
)

// Command identifies the operation being orchestrated, since target
// expansion direction depends on it (spec.md §4.6).
type Command string

const (
	CmdStart   Command = "start"
	CmdRestart Command = "restart"
	CmdStop    Command = "stop"
	CmdClean   Command = "clean"
	CmdStatus  Command = "status"
)

// ExpandTargets computes the full set of service names an operation
// touches, given the user's requested names.
//
//   - start/restart: requested services plus everything they (transitively)
//     require — you can't start a service whose dependency isn't up.
//   - stop/clean: requested services plus everything that (transitively)
//     requires them — stopping a dependency out from under a running
//     dependent would leave it in a broken state.
//   - status: requested services only, no expansion.
//
// onlyRequested (the `-o`/--only flag) bypasses expansion entirely and
// returns exactly the requested set (spec.md §4.6, §6).
//
// Each requested string is resolved against every service and instance
// name by substring match (spec.md §6: "Positional arguments select
// services or instances (substring matches service name or instance
// name)"); a match against an instance name resolves to that instance's
// owning service, since ordering and scheduling both operate at service
// granularity.
func ExpandTargets(env *model.Environment, resolved *depgraph.Resolved, cmd Command, requested []string, onlyRequested bool) ([]string, error) {
	resolvedNames, err := resolveRequested(env, requested)
	if err != nil {
		return nil, err
	}
	requested = resolvedNames

	if len(requested) == 0 {
		// Empty target-set means "all non-omitted services" (spec.md §4.6).
		var all []string
		for name, svc := range env.Services {
			if svc.Omit {
				continue
			}
			all = append(all, name)
		}
		requested = all
	}

	if onlyRequested || cmd == CmdStatus {
		return dedupe(requested), nil
	}

	set := make(map[string]bool)
	for _, name := range requested {
		set[name] = true
	}

	switch cmd {
	case CmdStart, CmdRestart:
		for _, name := range requested {
			for dep := range resolved.RequiresClosure[name] {
				set[dep] = true
			}
		}
	case CmdStop, CmdClean:
		for svcName := range env.Services {
			for dep := range resolved.RequiresClosure[svcName] {
				if set[dep] {
					set[svcName] = true
					break
				}
			}
		}
	}

	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	return out, nil
}

// resolveRequested maps each raw positional argument to the service
// name(s) it designates, by substring match against every service name
// and every instance name (spec.md §6). An argument matching an instance
// resolves to that instance's owning service. An argument matching
// nothing is an error. An empty input list passes through unchanged —
// ExpandTargets treats that as "default to all".
func resolveRequested(env *model.Environment, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, nil
	}

	var out []string
	for _, arg := range requested {
		matched := false
		for svcName, svc := range env.Services {
			if strings.Contains(svcName, arg) {
				out = append(out, svcName)
				matched = true
				continue
			}
			for instName := range svc.Instances {
				if strings.Contains(instName, arg) {
					out = append(out, svcName)
					matched = true
					break
				}
			}
		}
		if !matched {
			return nil, fmt.Errorf("no service or instance matches %q", arg)
		}
	}
	return dedupe(out), nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
