// Package config loads the driver-level run configuration. These are knobs
// on how a compile is driven, never on language semantics: the core passes
// stay pure functions of the resolved AST (spec.md §6.3).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultMaxArenaHandles bounds arena growth well before the handle space
// itself overflows, so a runaway input fails with a clear limit error
// instead of exhausting memory first.
const defaultMaxArenaHandles = 1 << 24

// RunConfig controls one pipeline run.
type RunConfig struct {
	// WarningsAsErrors promotes any warning (todo expressions, failed goal
	// assertions) to a pipeline failure after type checking completes.
	WarningsAsErrors bool `yaml:"warnings_as_errors"`

	// PositivityAllowlist names inductive types exempted from strict
	// positivity checking, for bring-up of sources that predate the
	// validator. Applies per type name; everything else is still checked.
	PositivityAllowlist []string `yaml:"positivity_allowlist"`

	// MaxArenaHandles caps how many term nodes one compile may intern. 0
	// means the default cap.
	MaxArenaHandles int `yaml:"max_arena_handles"`

	// TraceStages makes the driver print each pass name as it runs.
	TraceStages bool `yaml:"trace_stages"`
}

// Default returns the configuration used when no file is supplied.
func Default() *RunConfig {
	return &RunConfig{MaxArenaHandles: defaultMaxArenaHandles}
}

// Load reads a RunConfig from a YAML file and validates it.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a RunConfig from YAML bytes.
func Parse(data []byte) (*RunConfig, error) {
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxArenaHandles == 0 {
		cfg.MaxArenaHandles = defaultMaxArenaHandles
	}
	return &cfg, nil
}

// Validate rejects configurations the pipeline cannot honor.
func (c *RunConfig) Validate() error {
	if c.MaxArenaHandles < 0 {
		return fmt.Errorf("config: max_arena_handles must be >= 0, got %d", c.MaxArenaHandles)
	}
	seen := make(map[string]bool, len(c.PositivityAllowlist))
	for _, name := range c.PositivityAllowlist {
		if name == "" {
			return fmt.Errorf("config: positivity_allowlist contains an empty name")
		}
		if seen[name] {
			return fmt.Errorf("config: positivity_allowlist lists %q twice", name)
		}
		seen[name] = true
	}
	return nil
}

// Allowlisted reports whether an inductive type name is exempt from
// positivity checking.
func (c *RunConfig) Allowlisted(name string) bool {
	for _, n := range c.PositivityAllowlist {
		if n == name {
			return true
		}
	}
	return false
}
