// Package model is the typed entity model for an armada environment:
// ships, registries, services, and instances (spec.md §3). Types here
// carry no YAML-loading orchestration beyond the shape-detecting
// UnmarshalYAML methods each polymorphic field needs — schema-version
// dispatch, ship-default merging, and cross-reference validation live in
// package config.
package model

import "fmt"

// Environment is a named collection with exactly one instance per
// process (spec.md §3).
type Environment struct {
	Name          string              `yaml:"name"`
	SchemaVersion int                 `yaml:"-"`
	ShipDefaults  map[string]any      `yaml:"ship_defaults,omitempty"`
	Ships         map[string]*Ship    `yaml:"ships"`
	Registries    map[string]*Registry `yaml:"registries,omitempty"`
	Services      map[string]*Service `yaml:"services"`
}

// Validate checks the cross-entity invariants spec.md §3 lists for
// Environment: every instance-referenced ship resolves, every dependency
// name resolves to a service, volumes_from only names a sibling instance
// on the same ship, and no service requires itself transitively (the
// transitive part is checked by depgraph.Resolve; this only checks the
// direct/local invariants, mirroring internal/server/validate.go's
// split between ValidateEnvironment's direct checks and detectCycle's
// graph-wide check).
func (e *Environment) Validate() []error {
	var errs []error

	if e.Name == "" {
		errs = append(errs, fmt.Errorf("environment name is required"))
	}
	if len(e.Services) == 0 {
		errs = append(errs, fmt.Errorf("environment must have at least one service"))
	}

	for shipName, ship := range e.Ships {
		ship.Name = shipName
		if err := ship.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	for svcName, svc := range e.Services {
		svc.Name = svcName
		errs = append(errs, e.validateService(svcName, svc)...)
	}

	return errs
}

func (e *Environment) validateService(svcName string, svc *Service) []error {
	var errs []error

	if svc.Image == "" {
		errs = append(errs, fmt.Errorf("service %q: image is required", svcName))
	}

	for _, dep := range svc.Requires {
		if dep == svcName {
			errs = append(errs, fmt.Errorf("service %q: requires itself", svcName))
			continue
		}
		if _, ok := e.Services[dep]; !ok {
			errs = append(errs, fmt.Errorf("service %q: requires unknown service %q", svcName, dep))
		}
	}
	for _, dep := range svc.WantsInfo {
		if _, ok := e.Services[dep]; !ok {
			errs = append(errs, fmt.Errorf("service %q: wants_info references unknown service %q", svcName, dep))
		}
	}

	for instName, inst := range svc.Instances {
		inst.Name = instName
		inst.ServiceName = svcName
		if _, ok := e.Ships[inst.Ship]; !ok {
			errs = append(errs, fmt.Errorf("instance %q: references unknown ship %q", instName, inst.Ship))
		}
		for _, ref := range inst.VolumesFrom {
			errs = append(errs, e.validateVolumesFrom(svc, inst, ref)...)
		}
		for name, link := range inst.Links {
			_ = link
			errs = append(errs, e.validateSameShipSibling(svc, inst, name, "links")...)
		}
	}

	return errs
}

// validateVolumesFrom enforces that volumes_from only names an instance
// on the same ship (spec.md §3 invariant, enforced at resolve time).
func (e *Environment) validateVolumesFrom(svc *Service, inst *Instance, ref string) []error {
	return e.validateSameShipSibling(svc, inst, ref, "volumes_from")
}

func (e *Environment) validateSameShipSibling(_ *Service, inst *Instance, ref, field string) []error {
	target := e.FindInstance(ref)
	if target == nil {
		return []error{fmt.Errorf("instance %q: %s references unknown instance %q", inst.Name, field, ref)}
	}
	if target.Ship != inst.Ship {
		return []error{fmt.Errorf("instance %q: %s %q is on ship %q, not %q", inst.Name, field, ref, target.Ship, inst.Ship)}
	}
	return nil
}

// FindInstance looks up an instance by its globally unique name across
// all services.
func (e *Environment) FindInstance(name string) *Instance {
	for _, svc := range e.Services {
		if inst, ok := svc.Instances[name]; ok {
			return inst
		}
	}
	return nil
}

// ServiceOf returns the service that owns the given instance, or nil.
func (e *Environment) ServiceOf(instanceName string) *Service {
	for _, svc := range e.Services {
		if _, ok := svc.Instances[instanceName]; ok {
			return svc
		}
	}
	return nil
}

// AllInstances returns every instance in the environment.
func (e *Environment) AllInstances() []*Instance {
	var out []*Instance
	for _, svc := range e.Services {
		for _, inst := range svc.Instances {
			out = append(out, inst)
		}
	}
	return out
}
