package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/nauticalops/armada/config"
	"github.com/nauticalops/armada/daemon"
	"github.com/nauticalops/armada/orchestrate"
)

// targetFlags is embedded by every lifecycle subcommand — the service
// names to act on, plus the -o/--only, -r/--refresh, -c/--concurrency and
// --stop-on-failure flags common to start/stop/restart/clean.
type targetFlags struct {
	Services      []string `arg:"" optional:"" help:"substrings matching service or instance names to act on (default: all non-omitted services)"`
	Only          bool     `short:"o" help:"act on exactly the named services, skipping dependency expansion"`
	Refresh       bool     `short:"r" help:"always pull the image, even if already cached on the ship"`
	Concurrency   int      `short:"c" default:"1" help:"simultaneous container operations per ship"`
	StopOnFailure bool     `help:"stop the whole run on the first instance failure instead of continuing"`
}

func (t targetFlags) options() orchestrate.Options {
	return orchestrate.Options{
		Targets:            t.Services,
		Only:               t.Only,
		ContinueOnFailure:  !t.StopOnFailure,
		ForceRefresh:       t.Refresh,
		ConcurrencyPerShip: t.Concurrency,
	}
}

func (t targetFlags) run(cctx *Context, cmd orchestrate.Command) error {
	env, err := config.Load(cctx.EnvFile)
	if err != nil {
		return err
	}
	orch, err := orchestrate.New(env)
	if err != nil {
		return err
	}
	defer orch.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cctx.Verbose {
		stop := streamEvents(ctx, orch.Log)
		defer stop()
	}

	return orch.Run(ctx, cmd, t.options())
}

type StartCmd struct{ targetFlags }

func (c *StartCmd) Run(cctx *Context) error { return c.run(cctx, orchestrate.CmdStart) }

type StopCmd struct{ targetFlags }

func (c *StopCmd) Run(cctx *Context) error { return c.run(cctx, orchestrate.CmdStop) }

type RestartCmd struct{ targetFlags }

func (c *RestartCmd) Run(cctx *Context) error { return c.run(cctx, orchestrate.CmdRestart) }

type CleanCmd struct{ targetFlags }

func (c *CleanCmd) Run(cctx *Context) error { return c.run(cctx, orchestrate.CmdClean) }

type StatusCmd struct {
	Services []string `arg:"" optional:"" help:"substrings matching service or instance names to report on (default: all)"`
	Only     bool     `short:"o" help:"report on exactly the named services"`
}

func (c *StatusCmd) Run(cctx *Context) error {
	env, err := config.Load(cctx.EnvFile)
	if err != nil {
		return err
	}
	orch, err := orchestrate.New(env)
	if err != nil {
		return err
	}
	defer orch.Close()

	statuses, err := orch.Status(context.Background(), c.Services, c.Only)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INSTANCE\tSHIP\tSTATE\tCONTAINER\tIMAGE")
	for _, inst := range env.AllInstances() {
		status, ok := statuses[inst.Name]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", inst.Name, inst.Ship, renderState(status), shortID(status.ID), shortID(status.Image))
	}
	return w.Flush()
}

func renderState(s daemon.Status) string {
	switch {
	case !s.Exists:
		return "absent"
	case s.Running:
		return "running"
	default:
		return "stopped"
	}
}

// shortID truncates a daemon-reported id to its conventional 12-character
// short form (spec.md §4.5 "status" output: {state, container-id-short,
// image-id-short}), trimming any "sha256:" digest prefix first.
func shortID(id string) string {
	if i := strings.Index(id, ":"); i >= 0 {
		id = id[i+1:]
	}
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
