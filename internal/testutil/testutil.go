// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that build package fixtures
// on disk, reducing boilerplate and keeping error handling consistent.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to dir/name, creating parent directories as
// needed. The test fails immediately on error.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// WriteManifest writes a package.xml with the given body into dir.
func WriteManifest(t testing.TB, dir, body string) string {
	t.Helper()
	return WriteFile(t, dir, "package.xml", body)
}

// MkdirAll creates dir/name and returns its path. The test fails
// immediately on error.
func MkdirAll(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
	return path
}

// SimpleManifest returns a minimal valid package.xml for the given name,
// version and extra body (dependency tags, export section, etc.).
func SimpleManifest(name, version, extra string) string {
	return `<?xml version="1.0"?>
<package format="3">
  <name>` + name + `</name>
  <version>` + version + `</version>
` + extra + `
</package>
`
}
