package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvMap is a service- or instance-level environment map. A value may be
// a scalar or an arbitrarily nested list of scalars; nested lists are
// flattened and space-joined into a single string (spec.md §4.3, §8
// scenario S6 — used for things like JVM option lists).
type EnvMap map[string]string

func (m *EnvMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("env: expected a mapping, got kind %v", node.Kind)
	}
	out := make(EnvMap, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val, err := flattenEnvValue(node.Content[i+1])
		if err != nil {
			return fmt.Errorf("env %q: %w", key, err)
		}
		out[key] = val
	}
	*m = out
	return nil
}

func flattenEnvValue(node *yaml.Node) (string, error) {
	var parts []string
	if err := collectScalars(node, &parts); err != nil {
		return "", err
	}
	return strings.Join(parts, " "), nil
}

func collectScalars(node *yaml.Node, out *[]string) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*out = append(*out, node.Value)
		return nil
	case yaml.SequenceNode:
		for _, child := range node.Content {
			if err := collectScalars(child, out); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported env value shape (kind %v)", node.Kind)
	}
}
