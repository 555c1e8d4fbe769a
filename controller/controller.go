// Package controller drives a single instance's container through the
// four-state lifecycle spec.md §3 defines (absent, created, running,
// stopped), wiring the compose, daemon, and probe packages together
// behind the operations orchestrate/schedule.go calls per level (spec.md
// §4.5).
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/nauticalops/armada/armerr"
	"github.com/nauticalops/armada/compose"
	"github.com/nauticalops/armada/daemon"
	"github.com/nauticalops/armada/depgraph"
	"github.com/nauticalops/armada/internal/bytesize"
	"github.com/nauticalops/armada/model"
	"github.com/nauticalops/armada/probe"
)

// Controller operates one instance against its ship's daemon connection.
type Controller struct {
	Env      *model.Environment
	Resolved *depgraph.Resolved
	Client   daemon.Client
	Ship     *model.Ship

	// ForceRefresh bypasses the "already cached" check and always pulls
	// the image before create, the -r flag's effect (spec.md §4.5, §6).
	ForceRefresh bool
}

// Start brings inst from whatever state it's in to running: pulls the
// image if needed, creates the container if absent, starts it, then
// gates on its running-state lifecycle checks (spec.md §4.5, §4.4).
func (c *Controller) Start(ctx context.Context, inst *model.Instance) error {
	svc := c.Env.ServiceOf(inst.Name)
	if svc == nil {
		return fmt.Errorf("controller: instance %q has no owning service", inst.Name)
	}

	status, err := c.Client.Inspect(ctx, inst.Name)
	if err != nil {
		return &armerr.ControllerError{Instance: inst.Name, Phase: "inspect", Cause: err}
	}

	if !status.Exists {
		if err := c.pull(ctx, inst, svc); err != nil {
			return err
		}
		if err := c.create(ctx, inst, svc); err != nil {
			return err
		}
	}

	if !status.Running {
		if err := c.Client.Start(ctx, inst.Name); err != nil {
			return &armerr.ControllerError{Instance: inst.Name, Phase: "start", Cause: err}
		}
	}

	checks := inst.EffectiveLifecycle(svc, model.StateRunning)
	if len(checks) == 0 {
		return nil
	}
	env, err := compose.Compose(c.Env, c.Resolved, inst)
	if err != nil {
		return &armerr.ControllerError{Instance: inst.Name, Phase: "probe", Cause: err}
	}
	return probe.Gate(ctx, checks, inst, c.Ship, env)
}

// Stop stops inst's container (without removing it) and gates on its
// stopped-state lifecycle checks, if any.
func (c *Controller) Stop(ctx context.Context, inst *model.Instance) error {
	status, err := c.Client.Inspect(ctx, inst.Name)
	if err != nil {
		return &armerr.ControllerError{Instance: inst.Name, Phase: "inspect", Cause: err}
	}
	if !status.Exists || !status.Running {
		return nil
	}

	timeout := inst.StopTimeout.Duration
	if timeout == 0 {
		timeout = model.DefaultStopTimeoutSeconds * time.Second
	}
	if err := c.Client.Stop(ctx, inst.Name, int(timeout.Seconds())); err != nil {
		return &armerr.ControllerError{Instance: inst.Name, Phase: "stop", Cause: err}
	}

	svc := c.Env.ServiceOf(inst.Name)
	checks := inst.EffectiveLifecycle(svc, model.StateStopped)
	if len(checks) == 0 {
		return nil
	}
	env, err := compose.Compose(c.Env, c.Resolved, inst)
	if err != nil {
		return &armerr.ControllerError{Instance: inst.Name, Phase: "probe", Cause: err}
	}
	return probe.Gate(ctx, checks, inst, c.Ship, env)
}

// Restart stops then starts inst.
func (c *Controller) Restart(ctx context.Context, inst *model.Instance) error {
	if err := c.Stop(ctx, inst); err != nil {
		return err
	}
	return c.Start(ctx, inst)
}

// Clean stops (if running) and removes inst's container entirely.
func (c *Controller) Clean(ctx context.Context, inst *model.Instance) error {
	status, err := c.Client.Inspect(ctx, inst.Name)
	if err != nil {
		return &armerr.ControllerError{Instance: inst.Name, Phase: "inspect", Cause: err}
	}
	if !status.Exists {
		return nil
	}
	if status.Running {
		if err := c.Stop(ctx, inst); err != nil {
			return err
		}
	}
	if err := c.Client.Remove(ctx, inst.Name, true); err != nil {
		return &armerr.ControllerError{Instance: inst.Name, Phase: "remove", Cause: err}
	}
	return nil
}

// Status reports inst's current lifecycle state.
func (c *Controller) Status(ctx context.Context, inst *model.Instance) (daemon.Status, error) {
	status, err := c.Client.Inspect(ctx, inst.Name)
	if err != nil {
		return daemon.Status{}, &armerr.ControllerError{Instance: inst.Name, Phase: "inspect", Cause: err}
	}
	return status, nil
}

func (c *Controller) pull(ctx context.Context, inst *model.Instance, svc *model.Service) error {
	img := inst.EffectiveImage(svc)

	if !c.ForceRefresh {
		exists, err := c.Client.ImageExists(ctx, img)
		if err == nil && exists {
			return nil
		}
	}

	auth := resolveAuth(c.Env, img)
	if err := c.Client.Pull(ctx, img, auth); err != nil {
		return &armerr.ControllerError{Instance: inst.Name, Phase: "pull", Cause: err}
	}
	return nil
}

func (c *Controller) create(ctx context.Context, inst *model.Instance, svc *model.Service) error {
	env, err := compose.Compose(c.Env, c.Resolved, inst)
	if err != nil {
		return &armerr.ControllerError{Instance: inst.Name, Phase: "create", Cause: err}
	}

	spec, err := c.toContainerSpec(inst, svc, env)
	if err != nil {
		return &armerr.ControllerError{Instance: inst.Name, Phase: "create", Cause: err}
	}

	if _, err := c.Client.Create(ctx, inst.Name, spec); err != nil {
		return &armerr.ControllerError{Instance: inst.Name, Phase: "create", Cause: err}
	}
	return nil
}

func (c *Controller) toContainerSpec(inst *model.Instance, svc *model.Service, env map[string]string) (daemon.ContainerSpec, error) {
	envList := make([]string, 0, len(env))
	for k, v := range env {
		envList = append(envList, k+"="+v)
	}

	volumes := make([]model.VolumeBinding, 0, len(inst.Volumes))
	for _, v := range inst.Volumes {
		volumes = append(volumes, v)
	}

	extraHosts := make([]string, 0, len(inst.ExtraHosts))
	for host, ip := range inst.ExtraHosts {
		extraHosts = append(extraHosts, host+":"+ip)
	}

	links := make([]string, 0, len(inst.Links))
	for target, alias := range inst.Links {
		links = append(links, target+":"+alias)
	}

	netMode, err := c.netMode(inst)
	if err != nil {
		return daemon.ContainerSpec{}, err
	}

	var mem, swap, cpu int64
	if inst.Memory != "" {
		if mem, err = bytesize.Parse(inst.Memory); err != nil {
			return daemon.ContainerSpec{}, fmt.Errorf("memory: %w", err)
		}
	}
	if inst.Swap != "" {
		if swap, err = bytesize.Parse(inst.Swap); err != nil {
			return daemon.ContainerSpec{}, fmt.Errorf("swap: %w", err)
		}
	}
	if inst.CPU != "" {
		if cpu, err = bytesize.Parse(inst.CPU); err != nil {
			return daemon.ContainerSpec{}, fmt.Errorf("cpu: %w", err)
		}
	}

	return daemon.ContainerSpec{
		Image:       inst.EffectiveImage(svc),
		Env:         envList,
		Ports:       inst.Ports,
		Volumes:     volumes,
		VolumesFrom: inst.VolumesFrom,
		Privileged:  inst.Privileged,
		CapAdd:      inst.CapAdd,
		CapDrop:     inst.CapDrop,
		ExtraHosts:  extraHosts,
		Memory:      mem,
		MemorySwap:  swap,
		CPUShares:   cpu,
		LogDriver:   inst.LogDriver,
		LogOpt:      inst.LogOpt,
		Command:     inst.Command,
		NetMode:     netMode,
		DNS:         inst.DNS,
		Links:       links,
		Restart:     inst.Restart,
	}, nil
}

func (c *Controller) netMode(inst *model.Instance) (string, error) {
	spec := inst.Net()
	switch spec.Mode {
	case model.NetContainer:
		target := c.Env.FindInstance(spec.Ref)
		if target == nil {
			return "", fmt.Errorf("net: container:%s does not name a known instance", spec.Ref)
		}
		return "container:" + target.Name, nil
	case "":
		return string(model.NetBridge), nil
	default:
		return string(spec.Mode), nil
	}
}
