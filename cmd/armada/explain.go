package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/nauticalops/armada/compose"
	"github.com/nauticalops/armada/config"
	"github.com/nauticalops/armada/depgraph"
)

// ExplainCmd is a read-only dry run: it loads and resolves an
// environment, then prints the computed start order and each
// instance's composed environment without dialing a single ship.
// Grounded on the teacher's explain command shape (cmd/rig/explain.go,
// explain/explain.go) — JSON by default, -p for a readable report.
type ExplainCmd struct {
	Instances []string `arg:"" optional:"" help:"limit the composed-env section to these instances (default: all)"`
	Pretty    bool     `short:"p" help:"print a readable report instead of JSON"`
}

// explainReport is the JSON/pretty-printed shape produced by ExplainCmd.
type explainReport struct {
	StartOrder [][]string                  `json:"start_order"`
	StopOrder  [][]string                  `json:"stop_order"`
	Env        map[string]map[string]string `json:"environment"`
}

func (c *ExplainCmd) Run(cctx *Context) error {
	env, err := config.Load(cctx.EnvFile)
	if err != nil {
		return err
	}

	resolved, err := depgraph.Resolve(env)
	if err != nil {
		return err
	}

	targets := c.Instances
	if len(targets) == 0 {
		for _, inst := range env.AllInstances() {
			targets = append(targets, inst.Name)
		}
	}

	report := explainReport{
		StartOrder: resolved.Levels,
		StopOrder:  reverseLevels(resolved.Levels),
		Env:        make(map[string]map[string]string, len(targets)),
	}
	for _, name := range targets {
		inst := env.FindInstance(name)
		if inst == nil {
			return fmt.Errorf("unknown instance %q", name)
		}
		composed, err := compose.Compose(env, resolved, inst)
		if err != nil {
			return fmt.Errorf("instance %q: %w", name, err)
		}
		report.Env[name] = composed
	}

	if c.Pretty {
		printExplainReport(os.Stdout, report)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func printExplainReport(w *os.File, report explainReport) {
	fmt.Fprintln(w, "start order:")
	for i, level := range report.StartOrder {
		fmt.Fprintf(w, "  %d: %v\n", i, level)
	}
	fmt.Fprintln(w, "stop order:")
	for i, level := range report.StopOrder {
		fmt.Fprintf(w, "  %d: %v\n", i, level)
	}
	for _, name := range report.orderedEnvNames() {
		fmt.Fprintf(w, "%s:\n", name)
		vars := report.Env[name]
		for _, k := range sortedKeys(vars) {
			fmt.Fprintf(w, "  %s=%s\n", k, vars[k])
		}
	}
}

func (r explainReport) orderedEnvNames() []string {
	names := make([]string, 0, len(r.Env))
	for name := range r.Env {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func reverseLevels(levels [][]string) [][]string {
	out := make([][]string, len(levels))
	for i, l := range levels {
		out[len(levels)-1-i] = l
	}
	return out
}
