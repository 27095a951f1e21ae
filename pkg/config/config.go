// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/vadecode/pkg/adapters/nullaccel"
	"github.com/user/vadecode/pkg/orchestrator"
	"github.com/user/vadecode/pkg/ports"
	"github.com/user/vadecode/pkg/stages/report"
	"github.com/user/vadecode/pkg/vadecode"
)

// Accelerator backends.
const (
	BackendNull  = "nullaccel"
	BackendVAAPI = "vaapi"
)

// Config represents the full configuration for vadecode.
type Config struct {
	// Accelerator
	Backend string `yaml:"backend"`
	// Device is a render node path; empty selects every node.
	Device string `yaml:"device"`
	// Implementation overrides the driver detected from the vendor string.
	Implementation string `yaml:"implementation"`

	// Decoding
	MissingRefPolicy string `yaml:"missing_ref_policy"`
	StaticPool       bool   `yaml:"static_pool"`
	ExtraSurfaces    int    `yaml:"extra_surfaces"`

	// Orchestration
	Workers  int  `yaml:"workers"`
	FailFast bool `yaml:"fail_fast"`

	// Output
	OutputDir      string `yaml:"output_dir"`
	Timeline       bool   `yaml:"timeline"`
	TimelineFrames int    `yaml:"timeline_frames"`
	LogLevel       string `yaml:"log_level"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`

	Null NullConfig `yaml:"nullaccel"`
}

// NullConfig configures the in-memory accelerator.
type NullConfig struct {
	// Profiles restricts the advertised profiles; empty advertises all.
	Profiles     []string `yaml:"profiles"`
	MaxWidth     int      `yaml:"max_width"`
	MaxHeight    int      `yaml:"max_height"`
	FailEndEvery int      `yaml:"fail_end_every"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Backend: BackendVAAPI,

		ExtraSurfaces: vadecode.DefaultExtraSurfaces,

		Workers:        2,
		Timeline:       true,
		TimelineFrames: 120,
		LogLevel:       "info",

		DebugDir: "./debug",

		Null: NullConfig{
			MaxWidth:  8192,
			MaxHeight: 8192,
		},
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks the enumerated fields.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendNull, BackendVAAPI:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.Implementation != "" {
		if _, ok := ports.ParseImplementation(c.Implementation); !ok {
			return fmt.Errorf("config: unknown implementation %q", c.Implementation)
		}
	}
	if c.MissingRefPolicy != "" {
		if _, err := vadecode.ParseMissingRefPolicy(c.MissingRefPolicy); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if c.ExtraSurfaces < 0 {
		return fmt.Errorf("config: extra_surfaces must not be negative")
	}
	if _, err := c.nullProfiles(); err != nil {
		return err
	}
	return nil
}

// ResolveImplementation returns the configured implementation, or detected
// when none is configured.
func (c Config) ResolveImplementation(detected ports.Implementation) ports.Implementation {
	if impl, ok := ports.ParseImplementation(c.Implementation); ok && c.Implementation != "" {
		return impl
	}
	return detected
}

// DecodeOptions returns the core options for an accelerator implementation.
// Without a configured policy the implementation's known policy applies.
func (c Config) DecodeOptions(impl ports.Implementation) (vadecode.Options, error) {
	policy := vadecode.PolicyForImplementation(c.ResolveImplementation(impl))
	if c.MissingRefPolicy != "" {
		p, err := vadecode.ParseMissingRefPolicy(c.MissingRefPolicy)
		if err != nil {
			return vadecode.Options{}, err
		}
		policy = p
	}
	return vadecode.Options{
		Policy:        policy,
		StaticPool:    c.StaticPool,
		ExtraSurfaces: c.ExtraSurfaces,
	}, nil
}

// NullOptions returns the options of the in-memory accelerator.
func (c Config) NullOptions() (nullaccel.Options, error) {
	profiles, err := c.nullProfiles()
	if err != nil {
		return nullaccel.Options{}, err
	}
	impl, _ := ports.ParseImplementation(c.Implementation)
	return nullaccel.Options{
		Profiles:       profiles,
		Implementation: impl,
		MaxWidth:       c.Null.MaxWidth,
		MaxHeight:      c.Null.MaxHeight,
		FailEndEvery:   c.Null.FailEndEvery,
	}, nil
}

func (c Config) nullProfiles() ([]ports.Profile, error) {
	if len(c.Null.Profiles) == 0 {
		return nil, nil
	}
	byName := make(map[string]ports.Profile)
	for _, p := range nullaccel.AllProfiles() {
		byName[p.String()] = p
	}
	profiles := make([]ports.Profile, 0, len(c.Null.Profiles))
	for _, name := range c.Null.Profiles {
		p, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("config: unknown profile %q", name)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig(files []string) orchestrator.Config {
	return orchestrator.Config{
		Files:    files,
		Workers:  c.Workers,
		FailFast: c.FailFast,
	}
}

// ReportOptions returns the options of the report stage.
func (c Config) ReportOptions() report.Options {
	return report.Options{
		OutputDir:      c.OutputDir,
		Timeline:       c.Timeline,
		TimelineFrames: c.TimelineFrames,
	}
}
