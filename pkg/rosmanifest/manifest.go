// SPDX-License-Identifier: MPL-2.0

// Package rosmanifest parses ROS package manifests (package.xml) into a
// typed structure. It covers manifest formats 1 through 3 (REP-127, REP-140,
// REP-149), including conditional dependencies and group dependencies.
package rosmanifest

import (
	"errors"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	// ManifestFilename is the manifest file expected in a package directory.
	ManifestFilename = "package.xml"
	// LegacyManifestFilename is the rosbuild-era manifest. It is never
	// parsed; its presence only marks a directory as a legacy package.
	LegacyManifestFilename = "manifest.xml"

	// DefaultBuildType is assumed when a manifest declares no build type.
	DefaultBuildType = "catkin"
)

var (
	// ErrInvalidManifest is the sentinel error wrapped by InvalidManifestError.
	ErrInvalidManifest = errors.New("invalid package manifest")
	// ErrMultipleBuildTypes is the sentinel error wrapped by MultipleBuildTypesError.
	ErrMultipleBuildTypes = errors.New("multiple build types declared")
)

type (
	// Manifest is a parsed package.xml. Dependency slices hold pointers so
	// that condition evaluation can annotate entries in place.
	Manifest struct {
		// Name is the declared package name.
		Name string
		// Version is the declared package version.
		Version string
		// Format is the manifest format (1, 2 or 3).
		Format int

		// BuildDepends lists <build_depend> entries plus expanded <depend> entries.
		BuildDepends []*Dependency
		// BuildtoolDepends lists <buildtool_depend> entries.
		BuildtoolDepends []*Dependency
		// BuildExportDepends lists <build_export_depend> entries plus
		// expanded <depend> and format-1 <run_depend> entries.
		BuildExportDepends []*Dependency
		// BuildtoolExportDepends lists <buildtool_export_depend> entries.
		BuildtoolExportDepends []*Dependency
		// ExecDepends lists <exec_depend> entries plus expanded <depend>
		// and format-1 <run_depend> entries.
		ExecDepends []*Dependency
		// TestDepends lists <test_depend> entries.
		TestDepends []*Dependency

		// GroupDepends lists <group_depend> entries.
		GroupDepends []*GroupDependency
		// MemberOfGroups lists <member_of_group> entries.
		MemberOfGroups []*GroupMembership

		// BuildTypeExports lists <build_type> entries from the <export> section.
		BuildTypeExports []*BuildTypeExport

		// FilePath is the absolute path of the parsed manifest file.
		FilePath string
	}

	// Dependency is a single dependency declaration with optional version
	// bounds and an optional condition attribute.
	Dependency struct {
		// Name is the depended-on package name.
		Name string

		// Version bounds; empty means the bound is not declared.
		VersionLT  string
		VersionLTE string
		VersionEQ  string
		VersionGTE string
		VersionGT  string

		// Condition is the raw condition attribute ("" means unconditional).
		Condition string
		// EvaluatedCondition is nil until EvaluateConditions has run.
		EvaluatedCondition *bool
	}

	// GroupDependency is a <group_depend> declaration. Members is populated
	// only by an explicit ExtractGroupMembers call.
	GroupDependency struct {
		// Name is the dependency group name.
		Name string
		// Condition is the raw condition attribute ("" means unconditional).
		Condition string
		// EvaluatedCondition is nil until EvaluateConditions has run.
		EvaluatedCondition *bool
		// Members holds the resolved member package names, sorted.
		Members []string
	}

	// GroupMembership is a <member_of_group> declaration.
	GroupMembership struct {
		// Group is the dependency group name.
		Group string
		// Condition is the raw condition attribute ("" means unconditional).
		Condition string
		// EvaluatedCondition is nil until EvaluateConditions has run.
		EvaluatedCondition *bool
	}

	// BuildTypeExport is a <build_type> entry from the <export> section.
	BuildTypeExport struct {
		// Value is the declared build type (e.g. "ament_cmake").
		Value string
		// Condition is the raw condition attribute ("" means unconditional).
		Condition string
		// EvaluatedCondition is nil until EvaluateConditions has run.
		EvaluatedCondition *bool
	}

	// InvalidManifestError is returned when a manifest file exists but is
	// malformed or fails structural validation. It wraps ErrInvalidManifest
	// for errors.Is() compatibility.
	InvalidManifestError struct {
		Path   string
		Reason string
		Cause  error
	}

	// MultipleBuildTypesError is returned by BuildType when a manifest
	// declares more than one distinct build type. It wraps
	// ErrMultipleBuildTypes for errors.Is() compatibility.
	MultipleBuildTypesError struct {
		Package string
		Types   []string
	}
)

// Error implements the error interface for InvalidManifestError.
func (e *InvalidManifestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid package manifest at %s: %s: %v", e.Path, e.Reason, e.Cause)
	}
	return fmt.Sprintf("invalid package manifest at %s: %s", e.Path, e.Reason)
}

// Unwrap returns ErrInvalidManifest for errors.Is() compatibility.
func (e *InvalidManifestError) Unwrap() error { return ErrInvalidManifest }

// Error implements the error interface for MultipleBuildTypesError.
func (e *MultipleBuildTypesError) Error() string {
	return fmt.Sprintf("package %q declares more than one build type: %v", e.Package, e.Types)
}

// Unwrap returns ErrMultipleBuildTypes for errors.Is() compatibility.
func (e *MultipleBuildTypesError) Unwrap() error { return ErrMultipleBuildTypes }

// BuildType returns the build type declared in the manifest's export
// section, considering only entries whose condition holds. A manifest with
// no applicable build_type entry defaults to DefaultBuildType. More than one
// distinct applicable value yields a MultipleBuildTypesError.
func (m *Manifest) BuildType() (string, error) {
	var types []string
	for _, bt := range m.BuildTypeExports {
		if bt.EvaluatedCondition != nil && !*bt.EvaluatedCondition {
			continue
		}
		if !slices.Contains(types, bt.Value) {
			types = append(types, bt.Value)
		}
	}
	switch len(types) {
	case 0:
		return DefaultBuildType, nil
	case 1:
		return types[0], nil
	default:
		return "", &MultipleBuildTypesError{Package: m.Name, Types: types}
	}
}

// EvaluateConditions evaluates the condition attribute of every dependency,
// group dependency, group membership and build_type export against env,
// populating their EvaluatedCondition fields. An empty condition evaluates
// to true. A syntax error in any condition aborts the evaluation and is
// returned.
func (m *Manifest) EvaluateConditions(env map[string]string) error {
	for _, deps := range [][]*Dependency{
		m.BuildDepends,
		m.BuildtoolDepends,
		m.BuildExportDepends,
		m.BuildtoolExportDepends,
		m.ExecDepends,
		m.TestDepends,
	} {
		for _, d := range deps {
			result, err := EvaluateCondition(d.Condition, env)
			if err != nil {
				return fmt.Errorf("dependency %q: %w", d.Name, err)
			}
			d.EvaluatedCondition = &result
		}
	}
	for _, g := range m.GroupDepends {
		result, err := EvaluateCondition(g.Condition, env)
		if err != nil {
			return fmt.Errorf("group dependency %q: %w", g.Name, err)
		}
		g.EvaluatedCondition = &result
	}
	for _, mem := range m.MemberOfGroups {
		result, err := EvaluateCondition(mem.Condition, env)
		if err != nil {
			return fmt.Errorf("group membership %q: %w", mem.Group, err)
		}
		mem.EvaluatedCondition = &result
	}
	for _, bt := range m.BuildTypeExports {
		result, err := EvaluateCondition(bt.Condition, env)
		if err != nil {
			return fmt.Errorf("build_type export %q: %w", bt.Value, err)
		}
		bt.EvaluatedCondition = &result
	}
	return nil
}

// ExtractGroupMembers resolves the group's members against the given
// name-to-manifest mapping. Members are the mapped packages that declare
// membership of this group with a condition that holds; packages outside the
// mapping are invisible. The result replaces any previously extracted members.
func (g *GroupDependency) ExtractGroupMembers(manifests map[string]*Manifest) {
	members := make([]string, 0)
	for _, name := range sortedKeys(manifests) {
		if manifests[name].memberOf(g.Name) {
			members = append(members, name)
		}
	}
	g.Members = members
}

// memberOf reports whether the manifest declares membership of the named
// group. A membership whose condition evaluated false does not count; an
// unevaluated condition does.
func (m *Manifest) memberOf(group string) bool {
	for _, mem := range m.MemberOfGroups {
		if mem.Group != group {
			continue
		}
		if mem.EvaluatedCondition != nil && !*mem.EvaluatedCondition {
			continue
		}
		return true
	}
	return false
}

func sortedKeys(manifests map[string]*Manifest) []string {
	keys := maps.Keys(manifests)
	slices.Sort(keys)
	return keys
}
