package model_test

import (
	"testing"

	"github.com/nauticalops/armada/model"
	"gopkg.in/yaml.v3"
)

func decodePort(t *testing.T, src string) model.PortSpec {
	t.Helper()
	var p model.PortSpec
	if err := yaml.Unmarshal([]byte(src), &p); err != nil {
		t.Fatalf("unmarshal %q: %v", src, err)
	}
	return p
}

func TestPortSpec_BareInt(t *testing.T) {
	p := decodePort(t, "8080")
	if p.ExposedPort != 8080 || p.ExternalPort != 8080 {
		t.Errorf("got %+v", p)
	}
	if p.ExposedProto != "tcp" || p.ExternalProto != "tcp" {
		t.Errorf("expected tcp both sides, got %+v", p)
	}
	if p.BindAddr != "0.0.0.0" {
		t.Errorf("expected default bind addr, got %q", p.BindAddr)
	}
}

func TestPortSpec_UDP(t *testing.T) {
	p := decodePort(t, `"53/udp"`)
	if p.ExposedProto != "udp" || p.ExternalProto != "udp" {
		t.Errorf("got %+v", p)
	}
	if p.ExposedPort != 53 || p.ExternalPort != 53 {
		t.Errorf("got %+v", p)
	}
}

func TestPortSpec_ShortForm(t *testing.T) {
	p := decodePort(t, `"8080:80"`)
	if p.ExposedPort != 8080 || p.ExternalPort != 80 {
		t.Errorf("got %+v", p)
	}
}

func TestPortSpec_ShortForm_ProtocolMismatch(t *testing.T) {
	var p model.PortSpec
	err := yaml.Unmarshal([]byte(`"8080/tcp:80/udp"`), &p)
	if err == nil {
		t.Fatal("expected protocol mismatch error")
	}
}

func TestPortSpec_DictForm(t *testing.T) {
	p := decodePort(t, `
exposed: 8080
external: 80
`)
	if p.ExposedPort != 8080 || p.ExternalPort != 80 {
		t.Errorf("got %+v", p)
	}
}

func TestPortSpec_DictForm_ExternalBindAddr(t *testing.T) {
	p := decodePort(t, `
exposed: 8080
external: ["127.0.0.1", 80]
`)
	if p.BindAddr != "127.0.0.1" {
		t.Errorf("expected bind addr 127.0.0.1, got %q", p.BindAddr)
	}
	if p.ExternalPort != 80 {
		t.Errorf("got %+v", p)
	}
}

func TestPortSpec_RoundTrip(t *testing.T) {
	// canonicalize(serialize(canonicalize(x))) == canonicalize(x), spec.md §8 invariant 5.
	cases := []string{"8080", `"8080:80"`, `"53/udp"`}
	for _, src := range cases {
		p := decodePort(t, src)
		c1 := p.Canonicalize()
		serialized := c1.Serialize()

		var reparsed model.PortSpec
		if err := yaml.Unmarshal([]byte("\""+serialized+"\""), &reparsed); err != nil {
			t.Fatalf("reparse %q: %v", serialized, err)
		}
		c2 := reparsed.Canonicalize()

		if c1 != c2 {
			t.Errorf("round trip broke for %q: %+v != %+v", src, c1, c2)
		}
	}
}
