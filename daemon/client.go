// Package daemon connects to a ship's container daemon and exposes the
// operations the controller needs (spec.md §4.5, §3 "Ship"). Four
// connection modes are supported: plain TCP, TLS TCP, a Unix socket, and
// an SSH-tunneled TCP connection (spec.md §3, ConnMode).
package daemon

import (
	"context"
	"fmt"
	"io"

	"github.com/nauticalops/armada/model"
)

// Client is the subset of daemon operations the controller drives.
// Implemented by dockerClient; an interface so the controller can be
// tested against a fake.
type Client interface {
	Pull(ctx context.Context, image string, auth RegistryAuth) error
	// ImageExists reports whether image is already cached on this ship,
	// used to implement the "pull if missing" half of the ensure-image
	// step (spec.md §4.5) — pulling is skipped when the image is already
	// present and the caller didn't force a refresh.
	ImageExists(ctx context.Context, image string) (bool, error)
	Create(ctx context.Context, name string, cfg ContainerSpec) (id string, err error)
	Start(ctx context.Context, id string) error
	Stop(ctx context.Context, id string, timeout int) error
	Remove(ctx context.Context, id string, force bool) error
	Inspect(ctx context.Context, nameOrID string) (Status, error)
	Logs(ctx context.Context, nameOrID string, opts LogOptions) (io.ReadCloser, error)
	Close() error
}

// LogOptions controls the Logs call backing the "armada logs" command.
type LogOptions struct {
	Follow bool
	Tail   int
}

// RegistryAuth carries the credentials resolved for an image pull
// (spec.md §4.5's two-phase name-then-FQDN registry lookup, performed by
// package controller).
type RegistryAuth struct {
	Username string
	Password string
	Email    string
}

// ContainerSpec is the fully-resolved, daemon-agnostic container
// configuration the controller builds from model.Instance plus its
// composed environment (package compose).
type ContainerSpec struct {
	Image       string
	Env         []string
	Ports       []model.PortSpec
	Volumes     []model.VolumeBinding
	VolumesFrom []string
	Privileged  bool
	CapAdd      []string
	CapDrop     []string
	ExtraHosts  []string
	Memory      int64
	CPUShares   int64
	MemorySwap  int64
	LogDriver   string
	LogOpt      map[string]string
	Command     []string
	NetMode     string
	DNS         []string
	Links       []string
	Restart     model.RestartPolicy
}

// Status is a ship-reported container state, used by the controller's
// state machine (spec.md §3: absent/created/running/stopped) and by the
// "status" command's {state, container-id-short, image-id-short} report
// (spec.md §4.5).
type Status struct {
	ID      string
	Image   string
	Running bool
	Exists  bool
}

func (c ContainerSpec) validate() error {
	if c.Image == "" {
		return fmt.Errorf("container spec: image is required")
	}
	return nil
}
