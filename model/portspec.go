package model

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// PortSpec is the normalized tuple spec.md §3 describes: a symbolic name
// plus the exposed (container-side) and external (ship-side) port and
// protocol, and the address the external port binds on.
//
// Accepted source shapes, detected shape-first then value-validated
// (spec.md §9):
//
//	N            -> exposed=N/tcp, external=N/tcp, bind=0.0.0.0
//	"N/udp"      -> proto udp both sides
//	"A:B"        -> exposed=A, external=B (protocols must match)
//	{exposed, external}   -> dict form; external may be [addr, port-spec]
type PortSpec struct {
	Name          string
	ExposedPort   int
	ExposedProto  string
	ExternalPort  int
	ExternalProto string
	BindAddr      string
}

const defaultBindAddr = "0.0.0.0"

// dictPortSpec is the long (dict) form of a port spec as it appears in YAML.
type dictPortSpec struct {
	Exposed  yaml.Node `yaml:"exposed"`
	External yaml.Node `yaml:"external"`
}

// UnmarshalYAML detects the source shape and decodes into the canonical
// tuple. Name is populated separately by the caller (the map key the port
// spec was declared under), since a bare scalar/short form carries none.
func (p *PortSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return p.unmarshalScalar(node)
	case yaml.MappingNode:
		return p.unmarshalDict(node)
	default:
		return fmt.Errorf("port spec: unsupported YAML shape (kind %v)", node.Kind)
	}
}

func (p *PortSpec) unmarshalScalar(node *yaml.Node) error {
	var raw string
	if node.Tag == "!!int" {
		var n int
		if err := node.Decode(&n); err != nil {
			return err
		}
		raw = strconv.Itoa(n)
	} else if err := node.Decode(&raw); err != nil {
		return err
	}

	if a, b, ok := strings.Cut(raw, ":"); ok {
		exposedPort, exposedProto, err := parsePortProto(a, "tcp")
		if err != nil {
			return fmt.Errorf("port spec %q: %w", raw, err)
		}
		externalPort, externalProto, err := parsePortProto(b, exposedProto)
		if err != nil {
			return fmt.Errorf("port spec %q: %w", raw, err)
		}
		if exposedProto != externalProto {
			return fmt.Errorf("port spec %q: protocol mismatch (%s vs %s)", raw, exposedProto, externalProto)
		}
		p.ExposedPort, p.ExposedProto = exposedPort, exposedProto
		p.ExternalPort, p.ExternalProto = externalPort, externalProto
		p.BindAddr = defaultBindAddr
		return nil
	}

	port, proto, err := parsePortProto(raw, "tcp")
	if err != nil {
		return fmt.Errorf("port spec %q: %w", raw, err)
	}
	p.ExposedPort, p.ExposedProto = port, proto
	p.ExternalPort, p.ExternalProto = port, proto
	p.BindAddr = defaultBindAddr
	return nil
}

func (p *PortSpec) unmarshalDict(node *yaml.Node) error {
	var dict dictPortSpec
	if err := node.Decode(&dict); err != nil {
		return err
	}

	exposedPort, exposedProto, err := decodePortNode(&dict.Exposed, "tcp")
	if err != nil {
		return fmt.Errorf("port spec: exposed: %w", err)
	}

	bindAddr := defaultBindAddr
	externalProto := exposedProto
	externalPort := exposedPort

	if dict.External.Kind != 0 {
		switch dict.External.Kind {
		case yaml.SequenceNode:
			if len(dict.External.Content) != 2 {
				return fmt.Errorf("port spec: external as a list must be [addr, port-spec]")
			}
			if err := dict.External.Content[0].Decode(&bindAddr); err != nil {
				return fmt.Errorf("port spec: external bind address: %w", err)
			}
			externalPort, externalProto, err = decodePortNode(dict.External.Content[1], exposedProto)
			if err != nil {
				return fmt.Errorf("port spec: external: %w", err)
			}
		default:
			externalPort, externalProto, err = decodePortNode(&dict.External, exposedProto)
			if err != nil {
				return fmt.Errorf("port spec: external: %w", err)
			}
		}
	}

	if exposedProto != externalProto {
		return fmt.Errorf("port spec: protocol mismatch between exposed (%s) and external (%s)", exposedProto, externalProto)
	}

	p.ExposedPort, p.ExposedProto = exposedPort, exposedProto
	p.ExternalPort, p.ExternalProto = externalPort, externalProto
	p.BindAddr = bindAddr
	return nil
}

func decodePortNode(node *yaml.Node, defaultProto string) (port int, proto string, err error) {
	if node.Tag == "!!int" {
		var n int
		if err := node.Decode(&n); err != nil {
			return 0, "", err
		}
		return n, defaultProto, nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return 0, "", err
	}
	return parsePortProto(s, defaultProto)
}

func parsePortProto(s string, defaultProto string) (port int, proto string, err error) {
	portStr, protoStr, ok := strings.Cut(s, "/")
	if !ok {
		portStr, protoStr = s, defaultProto
	}
	n, err := strconv.Atoi(strings.TrimSpace(portStr))
	if err != nil {
		return 0, "", fmt.Errorf("malformed port %q: %w", s, err)
	}
	protoStr = strings.ToLower(strings.TrimSpace(protoStr))
	if protoStr != "tcp" && protoStr != "udp" {
		return 0, "", fmt.Errorf("invalid protocol %q (must be tcp or udp)", protoStr)
	}
	return n, protoStr, nil
}

// Canonicalize returns a copy with all fields defaulted/normalized, used
// to establish the round-trip law canonicalize(serialize(canonicalize(x)))
// == canonicalize(x) from spec.md §8 invariant 5.
func (p PortSpec) Canonicalize() PortSpec {
	if p.ExposedProto == "" {
		p.ExposedProto = "tcp"
	}
	if p.ExternalProto == "" {
		p.ExternalProto = p.ExposedProto
	}
	if p.BindAddr == "" {
		p.BindAddr = defaultBindAddr
	}
	return p
}

// Serialize renders the long form "exposed/proto:external/proto", the
// canonical textual form used by spec.md §8's round-trip law. Both sides
// carry their protocol explicitly (rather than leaving the exposed side
// to default to tcp on reparse) so that a non-tcp bare port round-trips:
// without it, "53/udp" would serialize to "53:53/udp" and reparsing would
// default the exposed side back to tcp, tripping the protocol-mismatch
// check invariant 5 requires never to fire on a canonical value.
func (p PortSpec) Serialize() string {
	c := p.Canonicalize()
	return fmt.Sprintf("%d/%s:%d/%s", c.ExposedPort, c.ExposedProto, c.ExternalPort, c.ExternalProto)
}
