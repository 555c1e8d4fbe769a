package model

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration with YAML marshalling as a string
// ("300s", "1m") rather than a bare integer, mirroring
// internal/spec/ready.go's JSON Duration in the teacher repo (there
// marshalled as a JSON string; here as a YAML scalar).
type Duration struct {
	time.Duration
}

func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!int" {
			var secs int64
			if err := node.Decode(&secs); err != nil {
				return err
			}
			d.Duration = time.Duration(secs) * time.Second
			return nil
		}
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		if s == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("duration: unsupported YAML node kind %v", node.Kind)
	}
}
