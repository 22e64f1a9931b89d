// Package testutil provides shared test helpers for swimform packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFile writes data to name in a fresh temporary directory and returns
// the path.
func WriteFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// WriteConfig writes a config.yaml with body and returns its path.
func WriteConfig(t *testing.T, body string) string {
	t.Helper()
	return WriteFile(t, "config.yaml", []byte(body))
}
