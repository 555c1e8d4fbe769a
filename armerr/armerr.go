// Package armerr defines the error taxonomy described in spec.md §7.
//
// Each type wraps an underlying cause and carries just enough structured
// context (a YAML path, a cycle, a ship or instance name) for the CLI to
// print a useful message. Propagation follows spec.md's policy: load and
// resolve errors are fatal and abort before any remote I/O; per-instance
// and per-ship errors are collected by the orchestrator and summarized at
// the end.
package armerr

import "fmt"

// ConfigError reports a structural, schema, or enum-value problem found
// while loading an environment file. Fatal — no operation proceeds.
type ConfigError struct {
	Path  string // dotted YAML path, e.g. "ships.vm1.docker_port"
	Cause error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Cause)
	}
	return fmt.Sprintf("config: %s: %v", e.Path, e.Cause)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// CycleError reports a dependency cycle over `requires` edges.
// Fatal — no operation proceeds.
type CycleError struct {
	Cycle []string // e.g. []string{"a", "b", "a"}
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %v", e.Cycle)
}

// ResolveError reports a reference that fails to resolve after parsing:
// volumes_from naming an instance on a different ship, an unknown port
// name in a lifecycle check, and similar. Fatal.
type ResolveError struct {
	Context string
	Cause   error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve: %s: %v", e.Context, e.Cause)
}

func (e *ResolveError) Unwrap() error { return e.Cause }

// ConnectionError reports that a ship's daemon could not be reached.
// Per-ship fatal: every instance on that ship is reported failed for the
// operation in progress.
type ConnectionError struct {
	Ship  string
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("ship %q: connection failed: %v", e.Ship, e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// ControllerError reports that a specific daemon call failed (pull,
// create, start, stop, remove). Per-instance fatal; the rest of the walk
// continues unless --stop-on-failure was given.
type ControllerError struct {
	Instance string
	Phase    string // "pull", "create", "start", "stop", "remove", "inspect"
	Cause    error
}

func (e *ControllerError) Error() string {
	return fmt.Sprintf("instance %q: %s: %v", e.Instance, e.Phase, e.Cause)
}

func (e *ControllerError) Unwrap() error { return e.Cause }

// ProbeError reports that a lifecycle check did not pass within its
// budget (ProbeTimeout) or errored outright (ProbeFailure). Per-instance
// fatal.
type ProbeError struct {
	Instance string
	Check    string // identifying tag, e.g. "tcp(client)" or "http(default)"
	Timeout  bool
	Cause    error
}

func (e *ProbeError) Error() string {
	kind := "probe-failure"
	if e.Timeout {
		kind = "probe-timeout"
	}
	return fmt.Sprintf("instance %q: %s(%s): %v", e.Instance, kind, e.Check, e.Cause)
}

func (e *ProbeError) Unwrap() error { return e.Cause }

// InterruptedError reports user cancellation (signal).
type InterruptedError struct{}

func (e *InterruptedError) Error() string { return "interrupted" }
