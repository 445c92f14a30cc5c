// Package testutil provides golden-file comparison for tests that snapshot
// JSON output (diagnostics, typed-IR dumps, normal forms).
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// UpdateGoldens rewrites golden files instead of comparing against them.
// Set via: UPDATE_GOLDENS=true go test ./...
var UpdateGoldens = os.Getenv("UPDATE_GOLDENS") == "true"

// GoldenPath returns the path of a named golden file, relative to the
// calling test's package directory.
func GoldenPath(name string) string {
	return filepath.Join("testdata", name+".golden.json")
}

// CompareJSON compares actualJSON against the named golden file,
// structurally (key order and whitespace don't matter). In update mode it
// writes the golden file instead.
func CompareJSON(t *testing.T, name string, actualJSON []byte) {
	t.Helper()

	var actual interface{}
	if err := json.Unmarshal(actualJSON, &actual); err != nil {
		t.Fatalf("actual output is not valid JSON: %v", err)
	}

	path := GoldenPath(name)
	if UpdateGoldens {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create golden directory: %v", err)
		}
		pretty, err := json.MarshalIndent(actual, "", "  ")
		if err != nil {
			t.Fatalf("failed to marshal golden data: %v", err)
		}
		if err := os.WriteFile(path, append(pretty, '\n'), 0o644); err != nil {
			t.Fatalf("failed to write golden file: %v", err)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	expectedJSON, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("golden file does not exist: %s\nrun with UPDATE_GOLDENS=true to create it", path)
		}
		t.Fatalf("failed to read golden file: %v", err)
	}

	var expected interface{}
	if err := json.Unmarshal(expectedJSON, &expected); err != nil {
		t.Fatalf("golden file %s is not valid JSON: %v", path, err)
	}

	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("golden mismatch for %s (-want +got):\n%s", name, diff)
	}
}

// CompareValue marshals v to JSON and compares it against the named golden
// file.
func CompareValue(t *testing.T, name string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal value: %v", err)
	}
	CompareJSON(t, name, data)
}
