package config_test

import (
	"strings"
	"testing"

	"github.com/nauticalops/armada/config"
)

const minimalYAML = `
name: prod
ships:
  vm1:
    ip: 10.0.0.5
services:
  redis:
    image: redis:7
    instances:
      redis-1:
        ship: vm1
`

func TestDecode_Minimal(t *testing.T) {
	env, err := config.Decode([]byte(minimalYAML))
	if err != nil {
		t.Fatal(err)
	}
	if env.Name != "prod" {
		t.Errorf("got name %q", env.Name)
	}
	if env.SchemaVersion != 1 {
		t.Errorf("expected default schema version 1, got %d", env.SchemaVersion)
	}
	ship := env.Ships["vm1"]
	if ship == nil || ship.Name != "vm1" {
		t.Fatal("expected ship vm1 decoded with name set")
	}
	// ApplyDefaults should have run.
	if ship.DockerPort != 2375 {
		t.Errorf("expected default docker_port, got %d", ship.DockerPort)
	}
}

func TestDecode_UnsupportedSchemaRejected(t *testing.T) {
	yamlSrc := `
__maestro:
  schema: 2
name: prod
ships:
  vm1:
    ip: 10.0.0.5
services:
  redis:
    image: redis:7
    instances:
      redis-1: {ship: vm1}
`
	_, err := config.Decode([]byte(yamlSrc))
	if err == nil {
		t.Fatal("expected error for unsupported schema version")
	}
	if !strings.Contains(err.Error(), "unsupported schema version") {
		t.Errorf("got %v", err)
	}
}

func TestDecode_ShipDefaults_ExplicitShipValueWins(t *testing.T) {
	yamlSrc := `
name: prod
ship_defaults:
  docker_port: 3000
  timeout: 30s
ships:
  vm1:
    ip: 10.0.0.5
    docker_port: 9999
  vm2:
    ip: 10.0.0.6
services:
  redis:
    image: redis:7
    instances:
      redis-1: {ship: vm1}
      redis-2: {ship: vm2}
`
	env, err := config.Decode([]byte(yamlSrc))
	if err != nil {
		t.Fatal(err)
	}
	if env.Ships["vm1"].DockerPort != 9999 {
		t.Errorf("expected explicit ship value to win, got %d", env.Ships["vm1"].DockerPort)
	}
	if env.Ships["vm2"].DockerPort != 3000 {
		t.Errorf("expected ship_defaults to apply where ship is silent, got %d", env.Ships["vm2"].DockerPort)
	}
}

func TestDecode_StructuralValidationErrorsSurface(t *testing.T) {
	yamlSrc := `
name: prod
ships:
  vm1:
    ip: 10.0.0.5
services:
  web:
    image: acme/web:1
    requires: [nonexistent]
    instances:
      web-1: {ship: vm1}
`
	_, err := config.Decode([]byte(yamlSrc))
	if err == nil {
		t.Fatal("expected validation error for unknown requires target")
	}
	if !strings.Contains(err.Error(), "nonexistent") {
		t.Errorf("got %v", err)
	}
}

func TestDecode_MalformedYAML(t *testing.T) {
	_, err := config.Decode([]byte("name: [unterminated"))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDecode_RegistryNameIsSetFromKey(t *testing.T) {
	yamlSrc := `
name: prod
registries:
  dockerhub:
    username: foo
    password: bar
ships:
  vm1: {ip: 10.0.0.5}
services:
  web:
    image: acme/web:1
    instances:
      web-1: {ship: vm1}
`
	env, err := config.Decode([]byte(yamlSrc))
	if err != nil {
		t.Fatal(err)
	}
	if env.Registries["dockerhub"].Name != "dockerhub" {
		t.Errorf("expected registry name to be set from map key, got %q", env.Registries["dockerhub"].Name)
	}
}
