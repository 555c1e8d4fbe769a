package probe

import (
	"context"
	"os"
	"os/exec"

	"github.com/nauticalops/armada/model"
)

// execChecker shell-interprets Command (sh -c) rather than argv-splitting
// it — a deliberate choice (spec.md §9 Open Questions) since check
// authors routinely want pipes and redirection ("pg_isready -q || exit
// 1"). Callers must quote Command carefully; this is not run through any
// sandboxing.
type execChecker struct {
	check    *model.ExecCheck
	instance string
	env      map[string]string
}

func (c *execChecker) Tag() string { return "exec" }

// Check shell-interprets Command with its environment extended by the
// instance's composed environment map (spec.md §4.4), so a check like
// "pg_isready -h $POSTGRES_DB_1_HOST" can see its own discovery vars.
// The working directory is left as the orchestrator process's own
// (spec.md §4.4: "never changed").
func (c *execChecker) Check(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", c.check.Command)
	cmd.Env = os.Environ()
	for k, v := range c.env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	return cmd.Run()
}
