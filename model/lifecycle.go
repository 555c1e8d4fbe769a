package model

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// CheckState is the target state a lifecycle check gates a transition
// into (spec.md §3).
type CheckState string

const (
	StateRunning CheckState = "running"
	StateStopped CheckState = "stopped"
)

// LifecycleCheck is the tagged variant over the three probe kinds
// (spec.md §3/§4.4). Exactly one of TCP, HTTP, Exec is populated,
// selected by Kind.
type LifecycleCheck struct {
	Kind string // "tcp", "http", "exec"

	TCP  *TCPCheck
	HTTP *HTTPCheck
	Exec *ExecCheck
}

// TCPCheck polls for a successful TCP connect to a named port.
type TCPCheck struct {
	Port    string   `yaml:"port"`
	MaxWait Duration `yaml:"max_wait"`
}

// HTTPCheck polls an HTTP endpoint until it returns a 2xx, or, when
// MatchRegex is set, until the response body matches it (the status code
// is then not checked).
type HTTPCheck struct {
	Port         string         `yaml:"port"` // named port, or a numeric literal
	Host         string         `yaml:"host"`
	Scheme       string         `yaml:"scheme"`
	Method       string         `yaml:"method"`
	Path         string         `yaml:"path"`
	MatchRegex   string         `yaml:"match_regex"`
	MaxWait      Duration       `yaml:"max_wait"`
	ExtraOptions map[string]any `yaml:"extra_options,omitempty"`
}

// ExecCheck shell-executes Command in a child process, retrying until it
// exits 0 or Attempts is exhausted (spec.md §4.4, §9 open question: the
// command string is shell-interpreted, not argv-split — quote
// accordingly, since that means shell metacharacters in Command are
// honored).
type ExecCheck struct {
	Command  string   `yaml:"command"`
	Attempts int      `yaml:"attempts"`
	Delay    Duration `yaml:"delay"`
}

const (
	defaultMaxWaitSeconds  = 300
	defaultExecAttempts    = 180
	defaultExecDelaySecond = 1
)

func (c *LifecycleCheck) UnmarshalYAML(node *yaml.Node) error {
	var tagged struct {
		Type string `yaml:"type"`
	}
	if err := node.Decode(&tagged); err != nil {
		return err
	}
	c.Kind = tagged.Type

	switch tagged.Type {
	case "tcp":
		var t TCPCheck
		if err := node.Decode(&t); err != nil {
			return fmt.Errorf("tcp check: %w", err)
		}
		if t.Port == "" {
			return fmt.Errorf("tcp check: port is required")
		}
		if t.MaxWait.Duration == 0 {
			t.MaxWait.Duration = defaultMaxWaitSeconds * time.Second
		}
		c.TCP = &t
	case "http":
		var h HTTPCheck
		if err := node.Decode(&h); err != nil {
			return fmt.Errorf("http check: %w", err)
		}
		if h.Scheme == "" {
			h.Scheme = "http"
		}
		if h.Method == "" {
			h.Method = "GET"
		}
		if h.Path == "" {
			h.Path = "/"
		}
		if h.MaxWait.Duration == 0 {
			h.MaxWait.Duration = defaultMaxWaitSeconds * time.Second
		}
		c.HTTP = &h
	case "exec":
		var e ExecCheck
		if err := node.Decode(&e); err != nil {
			return fmt.Errorf("exec check: %w", err)
		}
		if e.Command == "" {
			return fmt.Errorf("exec check: command is required")
		}
		if e.Attempts == 0 {
			e.Attempts = defaultExecAttempts
		}
		if e.Delay.Duration == 0 {
			e.Delay.Duration = defaultExecDelaySecond * time.Second
		}
		c.Exec = &e
	default:
		return fmt.Errorf("lifecycle check: unknown type %q (must be tcp, http, or exec)", tagged.Type)
	}
	return nil
}
