package model_test

import (
	"testing"
	"time"

	"github.com/nauticalops/armada/model"
)

func TestShip_ApplyDefaults(t *testing.T) {
	s := model.Ship{Name: "vm1", IP: "10.0.0.5"}
	s.ApplyDefaults()

	if s.Endpoint != "10.0.0.5" {
		t.Errorf("expected endpoint to default to ip, got %q", s.Endpoint)
	}
	if s.DockerPort != 2375 {
		t.Errorf("expected default docker_port 2375, got %d", s.DockerPort)
	}
	if s.Timeout.Duration != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", s.Timeout.Duration)
	}
}

func TestShip_ApplyDefaults_ExplicitEndpointWins(t *testing.T) {
	s := model.Ship{Name: "vm1", IP: "10.0.0.5", Endpoint: "vm1.internal"}
	s.ApplyDefaults()
	if s.Endpoint != "vm1.internal" {
		t.Errorf("explicit endpoint should win, got %q", s.Endpoint)
	}
}

func TestShip_ConnMode_DefaultsToTCP(t *testing.T) {
	s := model.Ship{Name: "vm1", IP: "10.0.0.5"}
	if s.ConnMode() != model.ConnTCP {
		t.Errorf("expected ConnTCP, got %v", s.ConnMode())
	}
}

func TestShip_ConnMode_SSHTunnel(t *testing.T) {
	s := model.Ship{Name: "vm1", IP: "10.0.0.5", SSHTunnel: &model.SSHTunnel{User: "deploy", KeyPath: "/key"}}
	if s.ConnMode() != model.ConnSSHTunnel {
		t.Errorf("expected ConnSSHTunnel, got %v", s.ConnMode())
	}
}

func TestShip_ConnMode_Socket(t *testing.T) {
	s := model.Ship{Name: "vm1", IP: "10.0.0.5", SocketPath: "/var/run/docker.sock"}
	if s.ConnMode() != model.ConnSocket {
		t.Errorf("expected ConnSocket, got %v", s.ConnMode())
	}
}

func TestShip_Validate_RequiresIP(t *testing.T) {
	s := model.Ship{Name: "vm1"}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for missing ip")
	}
}

func TestShip_Validate_MutuallyExclusiveConnModes(t *testing.T) {
	s := model.Ship{
		Name:       "vm1",
		IP:         "10.0.0.5",
		SocketPath: "/var/run/docker.sock",
		SSHTunnel:  &model.SSHTunnel{User: "deploy", KeyPath: "/key"},
	}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error: socket_path and ssh_tunnel are mutually exclusive")
	}
}

func TestShip_Validate_SSHTunnelRequiresUserAndKey(t *testing.T) {
	s := model.Ship{Name: "vm1", IP: "10.0.0.5", SSHTunnel: &model.SSHTunnel{}}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error: ssh_tunnel requires user and key")
	}
}

func TestShip_Validate_TLSRequiresCertTriple(t *testing.T) {
	s := model.Ship{Name: "vm1", IP: "10.0.0.5", TLS: model.TLSConfig{Enabled: true}}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error: tls requires ca/cert/key")
	}
}
