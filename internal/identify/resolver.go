// SPDX-License-Identifier: MPL-2.0

package identify

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rospect/rospect/pkg/descriptor"
	"github.com/rospect/rospect/pkg/rosmanifest"
)

const (
	// FamilyTag is the ecosystem family prefix of descriptor types set by
	// this package ("ros.<build_type>").
	FamilyTag = "ros"

	// Ignore marker filenames. Either one excludes a directory from
	// identification.
	IgnoreMarkerCatkin = "CATKIN_IGNORE"
	IgnoreMarkerAment  = "AMENT_IGNORE"

	// BuildTypeAmentPython is the build type that requires a companion
	// setup script.
	BuildTypeAmentPython = "ament_python"
	// SetupScriptFilename is the companion build script required by
	// BuildTypeAmentPython packages.
	SetupScriptFilename = "setup.py"

	// MetadataVersion is the descriptor metadata key for the manifest's
	// version string.
	MetadataVersion = "version"
	// MetadataSetupOptions is the descriptor metadata key for the deferred
	// setup-option accessor attached to ament_python packages.
	MetadataSetupOptions = "get_python_setup_options"
)

// ErrSkipLocation signals that a directory is intentionally excluded from
// identification: callers must claim nothing there and must not offer the
// path to other identifiers. It is a control signal, not a failure, in the
// manner of fs.SkipDir.
var ErrSkipLocation = errors.New("location excluded from package identification")

// Resolver identifies ROS packages and populates their descriptors. All
// manifest access goes through the shared per-session cache.
type Resolver struct {
	cache *ManifestCache
}

// NewResolver creates a resolver backed by the given cache. The cache must
// be shared with the Augmenter of the same scan session.
func NewResolver(cache *ManifestCache) *Resolver {
	return &Resolver{cache: cache}
}

// Identify inspects desc.Path and, if it holds a ROS package, fills in the
// descriptor's type, name, version metadata and dependency sets. It returns
// ErrSkipLocation when the directory is intentionally excluded, nil when the
// directory is simply not a ROS package (descriptor untouched), and any
// other error only on an internal invariant violation.
func (r *Resolver) Identify(desc *descriptor.PackageDescriptor) error {
	// Defer to whatever already classified this descriptor differently.
	if desc.Type != "" && !isFamilyType(desc.Type) {
		return nil
	}

	if markerExists(desc.Path, IgnoreMarkerCatkin) || markerExists(desc.Path, IgnoreMarkerAment) {
		return ErrSkipLocation
	}

	m, buildType := r.cache.LookupOrLoad(desc.Path)
	if m == nil || buildType == "" {
		// A rosbuild-era package must not be claimed by a less specific
		// identifier either (e.g. as a plain CMake project).
		if markerExists(desc.Path, rosmanifest.LegacyManifestFilename) {
			return ErrSkipLocation
		}
		return nil
	}

	if buildType == BuildTypeAmentPython && !markerExists(desc.Path, SetupScriptFilename) {
		slog.Error("ROS package has no setup script",
			"path", desc.Path, "build_type", buildType, "file", SetupScriptFilename)
		return ErrSkipLocation
	}

	desc.Type = FamilyTag + "." + buildType

	// The name from the manifest never overrides an externally pre-set one.
	if desc.Name == "" {
		desc.Name = m.Name
	}
	desc.Metadata[MetadataVersion] = m.Version

	if err := addDependencies(desc.Dependencies[descriptor.DependencyBuild],
		m.BuildDepends, m.BuildtoolDepends); err != nil {
		return fmt.Errorf("package at %s: %w", desc.Path, err)
	}
	if err := addDependencies(desc.Dependencies[descriptor.DependencyRun],
		m.BuildExportDepends, m.BuildtoolExportDepends, m.ExecDepends); err != nil {
		return fmt.Errorf("package at %s: %w", desc.Path, err)
	}
	if err := addDependencies(desc.Dependencies[descriptor.DependencyTest],
		m.TestDepends); err != nil {
		return fmt.Errorf("package at %s: %w", desc.Path, err)
	}

	if buildType == BuildTypeAmentPython {
		desc.Metadata[MetadataSetupOptions] = SetupOptions{
			Path: filepath.Join(desc.Path, SetupScriptFilename),
		}
	}

	return nil
}

// addDependencies routes manifest dependency lists into a descriptor set.
// Dependencies whose evaluated condition is false are dropped. A nil
// evaluated condition is an invariant violation: the loader guarantees
// evaluation, so encountering one aborts this identification call.
func addDependencies(set descriptor.DependencySet, lists ...[]*rosmanifest.Dependency) error {
	for _, list := range lists {
		for _, d := range list {
			if d.EvaluatedCondition == nil {
				return fmt.Errorf("dependency %q has no evaluated condition", d.Name)
			}
			if !*d.EvaluatedCondition {
				continue
			}
			set.Add(descriptor.NewDependency(d.Name, versionMetadata(d)))
		}
	}
	return nil
}

// versionMetadata extracts the declared version bounds of a dependency.
func versionMetadata(d *rosmanifest.Dependency) map[string]string {
	return map[string]string{
		descriptor.VersionLTE: d.VersionLTE,
		descriptor.VersionLT:  d.VersionLT,
		descriptor.VersionGTE: d.VersionGTE,
		descriptor.VersionGT:  d.VersionGT,
		descriptor.VersionEQ:  d.VersionEQ,
	}
}

// isFamilyType reports whether a descriptor type belongs to this ecosystem
// (the bare family tag or a family-qualified build type).
func isFamilyType(t string) bool {
	return t == FamilyTag || strings.HasPrefix(t, FamilyTag+".")
}

// markerExists reports whether a marker file exists directly in dir.
func markerExists(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}
