package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// VolumeBinding maps a host path to an in-container target and mode
// (spec.md §3). Short form `"host: container"` is sugar for
// `{target: container, mode: rw}`.
type VolumeBinding struct {
	HostPath string `yaml:"-"`
	Target   string `yaml:"target"`
	Mode     string `yaml:"mode"`
}

func (v *VolumeBinding) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var raw string
		if err := node.Decode(&raw); err != nil {
			return err
		}
		host, target, ok := strings.Cut(raw, ":")
		if !ok {
			return fmt.Errorf("volume short form %q: expected \"host: container\"", raw)
		}
		v.HostPath = strings.TrimSpace(host)
		v.Target = strings.TrimSpace(target)
		v.Mode = "rw"
		return nil
	case yaml.MappingNode:
		type longForm VolumeBinding
		var lf longForm
		if err := node.Decode(&lf); err != nil {
			return err
		}
		*v = VolumeBinding(lf)
		if v.Mode == "" {
			v.Mode = "rw"
		}
		return v.Validate()
	default:
		return fmt.Errorf("volume spec: unsupported YAML shape (kind %v)", node.Kind)
	}
}

// Validate checks the mode enum.
func (v *VolumeBinding) Validate() error {
	if v.Mode != "ro" && v.Mode != "rw" {
		return fmt.Errorf("volume %q: mode must be \"ro\" or \"rw\", got %q", v.Target, v.Mode)
	}
	return nil
}

// LongForm renders the canonical long-form map, used by the
// short-form/long-form round-trip law (spec.md §8).
func (v VolumeBinding) LongForm() map[string]string {
	return map[string]string{"target": v.Target, "mode": v.Mode}
}
