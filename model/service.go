package model

// Service is a named group of interchangeable container instances
// produced from one image (spec.md §3).
type Service struct {
	Name string `yaml:"-"`

	Image     string            `yaml:"image"`
	Env       EnvMap            `yaml:"env,omitempty"`
	Lifecycle map[CheckState][]LifecycleCheck `yaml:"lifecycle,omitempty"`
	Omit      bool              `yaml:"omit,omitempty"`
	Requires  []string          `yaml:"requires,omitempty"`
	WantsInfo []string          `yaml:"wants_info,omitempty"`

	Instances map[string]*Instance `yaml:"instances"`
}
