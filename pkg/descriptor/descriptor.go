// SPDX-License-Identifier: MPL-2.0

// Package descriptor defines the package descriptor model shared between
// the identification pipeline and its callers. A descriptor is created by
// the scanner, mutated in place during identification and augmentation, and
// owned by the caller throughout.
package descriptor

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Dependency category keys for PackageDescriptor.Dependencies.
const (
	DependencyBuild = "build"
	DependencyRun   = "run"
	DependencyTest  = "test"
)

type (
	// PackageDescriptor describes one package candidate, keyed by its
	// filesystem path. Path is set at construction and never changed.
	PackageDescriptor struct {
		// Path is the package directory.
		Path string
		// Type is the classification tag (e.g. "ros.ament_cmake").
		// Empty means not yet classified.
		Type string
		// Name is the package name. Empty means not yet named; a pre-set
		// name is never overridden by identification.
		Name string
		// Dependencies holds the build, run and test dependency sets.
		Dependencies map[string]DependencySet
		// Metadata is an open mapping for auxiliary values such as the
		// package version or a deferred build-option accessor.
		Metadata map[string]any
	}

	// DependencySet is a set of dependencies deduplicated by name.
	DependencySet map[string]DependencyDescriptor
)

// New creates a descriptor for the given path with empty dependency sets.
func New(path string) *PackageDescriptor {
	return &PackageDescriptor{
		Path: path,
		Dependencies: map[string]DependencySet{
			DependencyBuild: {},
			DependencyRun:   {},
			DependencyTest:  {},
		},
		Metadata: map[string]any{},
	}
}

// Add inserts d unless a dependency with the same name is already present.
// Identity is by name only, so the first-added metadata for a name wins.
func (s DependencySet) Add(d DependencyDescriptor) {
	if _, exists := s[d.Name]; exists {
		return
	}
	s[d.Name] = d
}

// Has reports whether the set contains a dependency with the given name.
func (s DependencySet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the dependency names in sorted order.
func (s DependencySet) Names() []string {
	names := maps.Keys(s)
	slices.Sort(names)
	return names
}
