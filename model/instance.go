package model

import "strings"

// NetMode selects the container's network mode (spec.md §3).
type NetMode string

const (
	NetBridge    NetMode = "bridge"
	NetHost      NetMode = "host"
	NetNone      NetMode = "none"
	NetContainer NetMode = "container" // "container:<ref>" — see Net().Ref
)

// NetSpec is the parsed form of Instance.NetRaw.
type NetSpec struct {
	Mode NetMode
	Ref  string // sibling instance name, only set when Mode == NetContainer
}

// Instance is a single container: one service + one ship + a unique
// name (spec.md §3). The name is globally unique within the
// environment and doubles as the container name and hostname.
type Instance struct {
	Name string `yaml:"-"`

	// ServiceName is filled in by Environment.Validate from the
	// containing service's key; Ship holds the ship
	// *name* as declared (a back-reference, resolved to *Ship lazily —
	// spec.md §9, "Back-references across entities").
	ServiceName string `yaml:"-"`
	Ship        string `yaml:"ship"`

	Image string `yaml:"image,omitempty"` // overrides the service image

	Ports            []PortSpec               `yaml:"ports,omitempty"`
	Volumes          map[string]VolumeBinding `yaml:"volumes,omitempty"`
	ContainerVolumes []string                 `yaml:"container_volumes,omitempty"`
	VolumesFrom      []string                 `yaml:"volumes_from,omitempty"`

	Env EnvMap `yaml:"env,omitempty"`

	Privileged bool     `yaml:"privileged,omitempty"`
	CapAdd     []string `yaml:"cap_add,omitempty"`
	CapDrop    []string `yaml:"cap_drop,omitempty"`

	ExtraHosts map[string]string `yaml:"extra_hosts,omitempty"`

	StopTimeout Duration `yaml:"stop_timeout,omitempty"`

	Memory string `yaml:"memory,omitempty"` // byte-size string, parsed by internal/bytesize at use time
	CPU    string `yaml:"cpu,omitempty"`
	Swap   string `yaml:"swap,omitempty"`

	LogDriver string            `yaml:"log_driver,omitempty"`
	LogOpt    map[string]string `yaml:"log_opt,omitempty"`

	Command []string `yaml:"command,omitempty"`

	// NetRaw is the raw "net" value ("bridge", "host", "none", or
	// "container:<ref>"). Use Net to get the parsed form.
	NetRaw string `yaml:"net,omitempty"`

	Restart RestartPolicy `yaml:"restart,omitempty"`

	DNS   []string          `yaml:"dns,omitempty"`
	Links map[string]string `yaml:"links,omitempty"`

	Lifecycle map[CheckState][]LifecycleCheck `yaml:"lifecycle,omitempty"`
}

// DefaultStopTimeoutSeconds is applied when an instance doesn't set stop_timeout.
const DefaultStopTimeoutSeconds = 10

// Net parses NetRaw into a NetSpec, defaulting to bridge mode.
func (i *Instance) Net() NetSpec {
	if i.NetRaw == "" {
		return NetSpec{Mode: NetBridge}
	}
	if ref, ok := strings.CutPrefix(i.NetRaw, "container:"); ok {
		return NetSpec{Mode: NetContainer, Ref: ref}
	}
	return NetSpec{Mode: NetMode(i.NetRaw)}
}

// EffectiveImage returns the instance's image override if set, else the
// service's image.
func (i *Instance) EffectiveImage(svc *Service) string {
	if i.Image != "" {
		return i.Image
	}
	return svc.Image
}

// EffectiveEnv merges service-level env with instance-level env,
// instance keys winning key-by-key (spec.md §3: "overrides service-level
// values key-by-key, not wholesale").
func (i *Instance) EffectiveEnv(svc *Service) map[string]string {
	merged := make(map[string]string, len(svc.Env)+len(i.Env))
	for k, v := range svc.Env {
		merged[k] = v
	}
	for k, v := range i.Env {
		merged[k] = v
	}
	return merged
}

// EffectiveLifecycle returns the checks for the given state, service
// checks followed by instance checks — additive, per spec.md §3.
func (i *Instance) EffectiveLifecycle(svc *Service, state CheckState) []LifecycleCheck {
	var checks []LifecycleCheck
	checks = append(checks, svc.Lifecycle[state]...)
	checks = append(checks, i.Lifecycle[state]...)
	return checks
}
