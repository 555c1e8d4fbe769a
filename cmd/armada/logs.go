package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/matgreaves/run"
	"github.com/nauticalops/armada/config"
	"github.com/nauticalops/armada/daemon"
)

// LogsCmd streams or dumps container logs for one or more instances,
// supplementing the orchestration surface spec.md scopes out explicit
// log plumbing for (§1 lists "the in-container guest helpers" as out of
// scope, not the instance's own stdout/stderr).
type LogsCmd struct {
	Instances []string `arg:"" help:"instance names to show logs for"`
	Follow    bool     `help:"stream new log lines as they're written"`
	Tail      int      `default:"200" help:"number of existing lines to show before following"`
}

func (c *LogsCmd) Run(cctx *Context) error {
	env, err := config.Load(cctx.EnvFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One run.Runner per instance, all driven in parallel by run.Group —
	// grounded on the teacher's serviceLifecycle, which runs a service's
	// process and its lifecycle continuation side by side in one
	// run.Group so either can cancel the other.
	group := run.Group{}
	for _, name := range c.Instances {
		inst := env.FindInstance(name)
		if inst == nil {
			return fmt.Errorf("unknown instance %q", name)
		}
		ship, ok := env.Ships[inst.Ship]
		if !ok {
			return fmt.Errorf("instance %q: unknown ship %q", name, inst.Ship)
		}

		instName := name
		group[instName] = run.Func(func(ctx context.Context) error {
			client, err := daemon.Dial(ctx, ship)
			if err != nil {
				return fmt.Errorf("instance %q: %w", instName, err)
			}
			defer client.Close()
			return tailInstance(ctx, instName, client, c.Follow, c.Tail)
		})
	}

	return group.Run(ctx)
}

func tailInstance(ctx context.Context, name string, client daemon.Client, follow bool, tail int) error {
	rc, err := client.Logs(ctx, name, daemon.LogOptions{Follow: follow, Tail: tail})
	if err != nil {
		return fmt.Errorf("instance %q: %w", name, err)
	}
	defer rc.Close()

	// Container output arrives multiplexed per the Docker log stream
	// framing; demux stdout/stderr before prefixing lines with the
	// instance name so concurrent tails don't interleave mid-line.
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	go func() {
		_, err := stdcopy.StdCopy(stdoutW, stderrW, rc)
		stdoutW.CloseWithError(err)
		stderrW.CloseWithError(err)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanPrefixed(os.Stdout, name, stdoutR)
	}()
	scanPrefixed(os.Stdout, name, stderrR)
	<-done
	return nil
}

func scanPrefixed(w io.Writer, name string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fmt.Fprintf(w, "%s | %s\n", name, scanner.Text())
	}
}
