package model

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RestartPolicy configures container restart behavior. Short form
// `"name[:N]"` is sugar for `{name: name, maximum_retry_count: N}`
// (spec.md §6).
type RestartPolicy struct {
	Name              string `yaml:"name"`
	MaximumRetryCount int    `yaml:"maximum_retry_count"`
}

func (r *RestartPolicy) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var raw string
		if err := node.Decode(&raw); err != nil {
			return err
		}
		name, countStr, ok := strings.Cut(raw, ":")
		if !ok {
			r.Name = raw
			return nil
		}
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return fmt.Errorf("restart short form %q: malformed retry count: %w", raw, err)
		}
		r.Name = name
		r.MaximumRetryCount = n
		return nil
	case yaml.MappingNode:
		type longForm RestartPolicy
		var lf longForm
		if err := node.Decode(&lf); err != nil {
			return err
		}
		*r = RestartPolicy(lf)
		return nil
	default:
		return fmt.Errorf("restart spec: unsupported YAML shape (kind %v)", node.Kind)
	}
}

// LongForm renders the canonical long-form map, used by the
// short-form/long-form round-trip law (spec.md §8).
func (r RestartPolicy) LongForm() map[string]any {
	return map[string]any{"name": r.Name, "maximum_retry_count": r.MaximumRetryCount}
}
