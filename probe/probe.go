// Package probe implements the lifecycle checks that gate an instance's
// transition into the running/stopped state (spec.md §4.4).
//
// Grounded on internal/server/ready/ready.go's Checker interface and
// Poll loop, deliberately diverging from it in one respect: ready.Poll
// backs off exponentially (10ms up to 1s) between attempts, whereas
// spec.md §4.4 requires a FIXED 1-second interval between checks for
// every check kind (tcp, http, exec), so poll here does not grow its
// wait.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/nauticalops/armada/armerr"
	"github.com/nauticalops/armada/model"
)

// PollInterval is the fixed interval between probe attempts (spec.md
// §4.4). Unlike internal/server/ready.Poll, this never backs off.
const PollInterval = 1 * time.Second

// Checker performs a single probe attempt against an instance.
type Checker interface {
	// Check performs one probe attempt. A nil error means the check
	// passed; any other error means it hasn't yet (poll or pollAttempts
	// will retry until the check's own budget is exhausted).
	Check(ctx context.Context) error

	// Tag identifies this check for ProbeError reporting, e.g.
	// "tcp(6379)", "http(8080)" or "exec".
	Tag() string
}

// ForCheck builds a Checker for the given check definition, resolving
// "host" against the instance's ship. env is the instance's composed
// environment (compose.Compose); the exec checker extends its child
// process's environment with it (spec.md §4.4).
func ForCheck(check model.LifecycleCheck, inst *model.Instance, ship *model.Ship, env map[string]string) (Checker, error) {
	switch check.Kind {
	case "tcp":
		port, err := resolvePortName(check.TCP.Port, inst)
		if err != nil {
			return nil, err
		}
		return &tcpChecker{check: check.TCP, host: ship.IP, port: port}, nil
	case "http":
		port, err := resolvePortName(check.HTTP.Port, inst)
		if err != nil {
			return nil, err
		}
		host := check.HTTP.Host
		if host == "" {
			host = ship.IP
		}
		return &httpChecker{check: check.HTTP, host: host, port: port}, nil
	case "exec":
		return &execChecker{check: check.Exec, instance: inst.Name, env: env}, nil
	default:
		return nil, fmt.Errorf("probe: unknown check kind %q", check.Kind)
	}
}

// Gate runs every check in checks to completion, in order, each against
// its own budget (MaxWait for tcp/http, Attempts for exec). Checks are conjunctive: all must pass for the
// gate to pass (spec.md §4.4). The first check to fail aborts the
// remaining ones. env is the instance's composed environment, threaded
// through to exec checks (spec.md §4.4).
func Gate(ctx context.Context, checks []model.LifecycleCheck, inst *model.Instance, ship *model.Ship, env map[string]string) error {
	for _, check := range checks {
		checker, err := ForCheck(check, inst, ship, env)
		if err != nil {
			return &armerr.ProbeError{Instance: inst.Name, Check: check.Kind, Cause: err}
		}
		var pollErr error
		if check.Kind == "exec" {
			pollErr = pollAttempts(ctx, checker, check.Exec.Attempts, check.Exec.Delay.Duration)
		} else {
			pollErr = poll(ctx, checker, maxWait(check))
		}
		if pollErr != nil {
			timeout := ctx.Err() == nil
			return &armerr.ProbeError{
				Instance: inst.Name,
				Check:    checker.Tag(),
				Timeout:  timeout,
				Cause:    pollErr,
			}
		}
	}
	return nil
}

func maxWait(check model.LifecycleCheck) time.Duration {
	switch check.Kind {
	case "tcp":
		return check.TCP.MaxWait.Duration
	case "http":
		return check.HTTP.MaxWait.Duration
	default:
		return 0
	}
}

// poll calls checker.Check every PollInterval until it succeeds or
// budget elapses.
func poll(ctx context.Context, checker Checker, budget time.Duration) error {
	deadline := time.Now().Add(budget)

	var lastErr error
	for {
		attemptCtx, cancel := context.WithTimeout(ctx, PollInterval)
		err := checker.Check(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if time.Now().After(deadline) {
			return fmt.Errorf("check did not pass within %s (last error: %w)", budget, lastErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(PollInterval):
		}
	}
}

// pollAttempts retries an exec check a fixed number of times, sleeping
// delay (floored at PollInterval per spec.md §4.4's fixed-interval rule)
// between attempts, rather than against a time budget.
func pollAttempts(ctx context.Context, checker Checker, attempts int, delay time.Duration) error {
	wait := delay
	if wait < PollInterval {
		wait = PollInterval
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := checker.Check(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("exec check did not pass after %d attempts (last error: %w)", attempts, lastErr)
}
