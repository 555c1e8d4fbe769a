// Package compose builds the environment variable map injected into each
// container instance (spec.md §4.3: "Environment composition").
//
// Grounded on server/wiring.go's BuildServiceEnv — same idea (derive
// HOST/PORT-shaped variables from what a dependency exposes, prefix them
// by name, let explicit env win over anything derived) generalized from
// rig's single-ingress/egress wiring to this spec's
// requires/wants_info dependency set and its <TARGET>_<JOB>_<PORT>
// naming (spec.md §4.3), which names variables by service+instance
// rather than by a single egress name.
package compose

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nauticalops/armada/depgraph"
	"github.com/nauticalops/armada/model"
)

// Compose builds the full set of environment variables for inst, given
// the environment it belongs to and the resolved dependency closure.
// Discovery variables are computed first from every service in
// requires(inst's service) ∪ wants_info(inst's service), plus inst's own
// service; user-supplied
// env (service-level, then instance-level) is applied last and wins on
// collision (spec.md §4.3, §9 Open Questions).
func Compose(env *model.Environment, resolved *depgraph.Resolved, inst *model.Instance) (map[string]string, error) {
	svc := env.ServiceOf(inst.Name)
	if svc == nil {
		return nil, fmt.Errorf("compose: instance %q not found in environment", inst.Name)
	}

	out := make(map[string]string)

	out["SERVICE_NAME"] = svc.Name
	out["CONTAINER_NAME"] = inst.Name
	image, tag := splitImageTag(inst.EffectiveImage(svc))
	out["DOCKER_IMAGE"] = image
	out["DOCKER_TAG"] = tag

	if ship, ok := env.Ships[inst.Ship]; ok {
		out["CONTAINER_HOST_ADDRESS"] = ship.IP
	}

	// Self-inclusion: requires(S) ∪ wants_info(S) ∪ {S} (spec.md §4.3) so
	// instances of the same service can find their siblings.
	deps := make([]string, 0, len(resolved.Closure[svc.Name])+1)
	deps = append(deps, svc.Name)
	for dep := range resolved.Closure[svc.Name] {
		deps = append(deps, dep)
	}
	sort.Strings(deps)

	for _, depSvcName := range deps {
		depSvc := env.Services[depSvcName]
		if depSvc == nil {
			continue
		}
		instNames := make([]string, 0, len(depSvc.Instances))
		for name := range depSvc.Instances {
			instNames = append(instNames, name)
		}
		sort.Strings(instNames)

		for _, depInstName := range instNames {
			depInst := depSvc.Instances[depInstName]
			addDiscoveryVars(out, env, depSvcName, depInst)
		}
	}

	// User env overrides any discovery variable, service env first, then
	// instance env on top (spec.md §3's instance-overrides-service rule,
	// applied here at the env layer too).
	for k, v := range svc.Env {
		out[normalizeVarName(k)] = v
	}
	for k, v := range inst.Env {
		out[normalizeVarName(k)] = v
	}

	return out, nil
}

// addDiscoveryVars adds the <TARGET>_<JOB>_HOST / _PORT / _INTERNAL_PORT
// variables for one dependency instance (spec.md §4.3).
func addDiscoveryVars(out map[string]string, env *model.Environment, serviceName string, dep *model.Instance) {
	prefix := normalizeVarName(serviceName) + "_" + normalizeVarName(dep.Name)

	if ship, ok := env.Ships[dep.Ship]; ok {
		out[prefix+"_HOST"] = ship.IP
	}

	for _, p := range dep.Ports {
		portPrefix := prefix + "_" + normalizeVarName(p.Name)
		if p.ExternalPort != 0 {
			out[portPrefix+"_PORT"] = strconv.Itoa(p.ExternalPort)
		}
		out[portPrefix+"_INTERNAL_PORT"] = strconv.Itoa(p.ExposedPort)
	}
}

// normalizeVarName upper-cases name and replaces '-' and '.' with
// underscores (spec.md §4.3); every other character is kept as is.
func normalizeVarName(name string) string {
	s := strings.ToUpper(name)
	s = strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}
		return r
	}, s)
	return s
}

// splitImageTag splits "repo/name:tag" into image and tag, defaulting
// the tag to "latest" when absent. A registry host containing a port
// (e.g. "localhost:5000/name") is not mistaken for a tag separator
// because the split looks only at the final path segment.
func splitImageTag(image string) (string, string) {
	lastSlash := strings.LastIndex(image, "/")
	rest := image
	prefix := ""
	if lastSlash >= 0 {
		prefix = image[:lastSlash+1]
		rest = image[lastSlash+1:]
	}
	if idx := strings.LastIndex(rest, ":"); idx >= 0 {
		return prefix + rest[:idx], rest[idx+1:]
	}
	return image, "latest"
}
