package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.False(t, cfg.WarningsAsErrors)
	require.False(t, cfg.TraceStages)
	require.Empty(t, cfg.PositivityAllowlist)
	require.Equal(t, 1<<24, cfg.MaxArenaHandles)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
warnings_as_errors: true
positivity_allowlist:
  - LegacyTree
  - LegacyForest
max_arena_handles: 4096
trace_stages: true
`))
	require.NoError(t, err)
	require.True(t, cfg.WarningsAsErrors)
	require.True(t, cfg.TraceStages)
	require.Equal(t, 4096, cfg.MaxArenaHandles)
	require.True(t, cfg.Allowlisted("LegacyTree"))
	require.True(t, cfg.Allowlisted("LegacyForest"))
	require.False(t, cfg.Allowlisted("Nat"))
}

func TestParseAppliesDefaultCap(t *testing.T) {
	cfg, err := Parse([]byte(`warnings_as_errors: true`))
	require.NoError(t, err)
	require.Equal(t, 1<<24, cfg.MaxArenaHandles)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "{"},
		{"negative cap", "max_arena_handles: -1"},
		{"empty allowlist name", "positivity_allowlist: ['']"},
		{"duplicate allowlist name", "positivity_allowlist: [A, A]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corecheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trace_stages: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.TraceStages)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
