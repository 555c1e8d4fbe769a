// Package config loads and structurally validates an environment file
// (spec.md §4.1). It does not resolve dependencies or compose
// environments — those are package depgraph and package compose.
//
// Grounded on internal/server/validate.go's two-pass shape
// (ResolveDefaults then ValidateEnvironment) and spec/decode.go's
// shape-first decode discipline, adapted from JSON to YAML
// (gopkg.in/yaml.v3, the YAML library the retrieval pack uses in
// banksean-sand) since the source format here is YAML, not JSON.
package config

import (
	"fmt"
	"os"

	"github.com/nauticalops/armada/armerr"
	"github.com/nauticalops/armada/model"
	"gopkg.in/yaml.v3"
)

// MaxSupportedSchema is the highest __maestro.schema version this loader
// understands (spec.md §4.1).
const MaxSupportedSchema = 1

// rawFile mirrors the top-level YAML keys (spec.md §6). Ships are kept
// as raw nodes so ship_defaults can be merged in before they're decoded
// into model.Ship.
type rawFile struct {
	Maestro *struct {
		Schema int `yaml:"schema"`
	} `yaml:"__maestro"`
	Name         string                `yaml:"name"`
	Registries   map[string]*model.Registry `yaml:"registries"`
	ShipDefaults yaml.Node             `yaml:"ship_defaults"`
	Ships        map[string]yaml.Node  `yaml:"ships"`
	Services     map[string]*model.Service `yaml:"services"`
}

// Load reads, parses, defaults, normalizes, and structurally validates
// the environment file at path. It does not contact any ship and does
// not resolve the dependency graph.
func Load(path string) (*model.Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &armerr.ConfigError{Cause: fmt.Errorf("read %s: %w", path, err)}
	}
	return Decode(data)
}

// Decode parses raw YAML bytes into a validated Environment. Exported
// separately from Load so callers (and tests) can decode in-memory
// fixtures without touching the filesystem.
func Decode(data []byte) (*model.Environment, error) {
	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &armerr.ConfigError{Cause: err}
	}

	schema := 1
	if raw.Maestro != nil && raw.Maestro.Schema != 0 {
		schema = raw.Maestro.Schema
	}
	if schema > MaxSupportedSchema {
		return nil, &armerr.ConfigError{
			Path:  "__maestro.schema",
			Cause: fmt.Errorf("unsupported schema version %d (max supported: %d)", schema, MaxSupportedSchema),
		}
	}

	env := &model.Environment{
		Name:          raw.Name,
		SchemaVersion: schema,
		Registries:    raw.Registries,
		Services:      raw.Services,
		Ships:         make(map[string]*model.Ship, len(raw.Ships)),
	}

	for name, node := range raw.Ships {
		merged, err := mergeShipDefaults(&raw.ShipDefaults, node)
		if err != nil {
			return nil, &armerr.ConfigError{Path: "ships." + name, Cause: err}
		}
		var ship model.Ship
		if err := merged.Decode(&ship); err != nil {
			return nil, &armerr.ConfigError{Path: "ships." + name, Cause: err}
		}
		ship.Name = name
		ship.ApplyDefaults()
		env.Ships[name] = &ship
	}

	for name, reg := range env.Registries {
		reg.Name = name
	}

	if errs := env.Validate(); len(errs) > 0 {
		return nil, &armerr.ConfigError{Cause: joinErrors(errs)}
	}

	return env, nil
}

// mergeShipDefaults merges a ship's own YAML mapping over ship_defaults,
// key by key, with the ship's explicit value always winning (spec.md
// §4.1: "Applies ship_defaults to each ship by key (explicit ship value
// wins)"). Merging happens at the raw-node level, before either side is
// decoded into model.Ship, so that per-ship polymorphic sub-fields (e.g.
// ssh_tunnel) decode once, against the final merged shape.
func mergeShipDefaults(defaults *yaml.Node, ship yaml.Node) (*yaml.Node, error) {
	if defaults.Kind == 0 {
		return &ship, nil
	}
	if defaults.Kind != yaml.MappingNode || (ship.Kind != yaml.MappingNode && ship.Kind != 0) {
		return nil, fmt.Errorf("ship_defaults and ship entries must both be mappings")
	}

	merged := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	seen := make(map[string]int) // key -> index of value node in merged.Content

	appendPair := func(k, v *yaml.Node) {
		if idx, ok := seen[k.Value]; ok {
			merged.Content[idx] = v
			return
		}
		merged.Content = append(merged.Content, k, v)
		seen[k.Value] = len(merged.Content) - 1
	}

	for i := 0; i+1 < len(defaults.Content); i += 2 {
		appendPair(defaults.Content[i], defaults.Content[i+1])
	}
	for i := 0; i+1 < len(ship.Content); i += 2 {
		appendPair(ship.Content[i], ship.Content[i+1])
	}

	return merged, nil
}

func joinErrors(errs []error) error {
	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += "; "
		}
		msg += e.Error()
	}
	return fmt.Errorf("%s", msg)
}
