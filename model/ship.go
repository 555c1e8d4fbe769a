package model

import (
	"fmt"
	"time"
)

// ConnMode identifies which of the four mutually exclusive ways armada
// reaches a ship's container daemon (spec.md §3).
type ConnMode int

const (
	ConnTCP ConnMode = iota
	ConnTLS
	ConnSSHTunnel
	ConnSocket
)

func (m ConnMode) String() string {
	switch m {
	case ConnTLS:
		return "tls"
	case ConnSSHTunnel:
		return "ssh_tunnel"
	case ConnSocket:
		return "socket"
	default:
		return "tcp"
	}
}

// SSHTunnel configures an SSH-forwarded connection to a ship's daemon.
type SSHTunnel struct {
	User    string `yaml:"user"`
	KeyPath string `yaml:"key"`
	Port    int    `yaml:"port"`
}

// TLSConfig configures a TLS connection to a ship's daemon.
type TLSConfig struct {
	Enabled bool   `yaml:"tls"`
	Verify  bool   `yaml:"tls_verify"`
	CACert  string `yaml:"tls_ca_cert"`
	Key     string `yaml:"tls_key"`
	Cert    string `yaml:"tls_cert"`
}

// Ship is a host machine running a container daemon (spec.md §3). Ships
// are created at config load and are immutable thereafter.
type Ship struct {
	Name string `yaml:"-"`

	IP         string `yaml:"ip"`
	Endpoint   string `yaml:"endpoint"`
	DockerPort int    `yaml:"docker_port"`
	APIVersion string `yaml:"api_version"`
	Timeout    Duration `yaml:"timeout"`
	SSHTimeout Duration `yaml:"ssh_timeout"`

	SSHTunnel  *SSHTunnel `yaml:"ssh_tunnel,omitempty"`
	SocketPath string     `yaml:"socket_path,omitempty"`

	TLS TLSConfig `yaml:",inline"`
}

// ApplyDefaults fills in zero-valued fields using ship-level defaults.
// Explicit ship values always win (spec.md §4.1).
func (s *Ship) ApplyDefaults() {
	if s.Endpoint == "" {
		s.Endpoint = s.IP
	}
	if s.DockerPort == 0 {
		s.DockerPort = 2375
	}
	if s.Timeout.Duration == 0 {
		s.Timeout.Duration = defaultShipTimeout
	}
	if s.SSHTimeout.Duration == 0 {
		s.SSHTimeout.Duration = defaultShipTimeout
	}
}

const defaultShipTimeout = 10 * time.Second

// ConnMode reports which connection mode this ship is configured for.
func (s *Ship) ConnMode() ConnMode {
	switch {
	case s.SSHTunnel != nil:
		return ConnSSHTunnel
	case s.SocketPath != "":
		return ConnSocket
	case s.TLS.Enabled:
		return ConnTLS
	default:
		return ConnTCP
	}
}

// Validate checks the ship's invariants: required fields and mutually
// exclusive connection modes (spec.md §3).
func (s *Ship) Validate() error {
	if s.IP == "" {
		return fmt.Errorf("ship %q: ip is required", s.Name)
	}

	modes := 0
	if s.SSHTunnel != nil {
		modes++
	}
	if s.SocketPath != "" {
		modes++
	}
	if s.TLS.Enabled {
		modes++
	}
	if modes > 1 {
		return fmt.Errorf("ship %q: connection modes are mutually exclusive (ssh_tunnel, socket_path, tls)", s.Name)
	}

	if s.SSHTunnel != nil {
		if s.SSHTunnel.User == "" {
			return fmt.Errorf("ship %q: ssh_tunnel.user is required", s.Name)
		}
		if s.SSHTunnel.KeyPath == "" {
			return fmt.Errorf("ship %q: ssh_tunnel.key is required", s.Name)
		}
	}

	if s.TLS.Enabled {
		if s.TLS.CACert == "" || s.TLS.Cert == "" || s.TLS.Key == "" {
			return fmt.Errorf("ship %q: tls requires tls_ca_cert, tls_cert, and tls_key", s.Name)
		}
	}

	return nil
}

// Registry holds credentials for authenticating image pulls whose image
// name's registry prefix matches (spec.md §3).
type Registry struct {
	Name     string `yaml:"-"`
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email,omitempty"`
}
