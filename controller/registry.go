package controller

import (
	"strings"

	"github.com/nauticalops/armada/daemon"
	"github.com/nauticalops/armada/model"
)

// resolveAuth looks up registry credentials for the registry host baked
// into image (see imageRegistryHost): first a registry whose key under
// `registries` equals that host, then one whose URL equals it (spec.md
// §4.5's two-phase registry lookup). An image with no host-like first
// path segment gets empty credentials; a short registry key that is not
// itself a host is never matched.
func resolveAuth(env *model.Environment, image string) daemon.RegistryAuth {
	host := imageRegistryHost(image)

	if reg, ok := env.Registries[host]; ok {
		return daemon.RegistryAuth{Username: reg.Username, Password: reg.Password, Email: reg.Email}
	}
	for _, reg := range env.Registries {
		if reg.URL == host {
			return daemon.RegistryAuth{Username: reg.Username, Password: reg.Password, Email: reg.Email}
		}
	}
	return daemon.RegistryAuth{}
}

// imageRegistryHost extracts the registry host from an image reference,
// e.g. "registry.example.com:5000/team/app:tag" -> "registry.example.com:5000",
// and "library/redis" -> "" (Docker Hub, no explicit host).
func imageRegistryHost(image string) string {
	parts := strings.SplitN(image, "/", 2)
	if len(parts) < 2 {
		return ""
	}
	first := parts[0]
	if strings.Contains(first, ".") || strings.Contains(first, ":") || first == "localhost" {
		return first
	}
	return ""
}
