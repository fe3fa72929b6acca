// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version-bound metadata keys for DependencyDescriptor.Metadata.
const (
	VersionLTE = "version_lte"
	VersionLT  = "version_lt"
	VersionGTE = "version_gte"
	VersionGT  = "version_gt"
	VersionEQ  = "version_eq"
)

// versionBoundOperators maps metadata keys to constraint operators, in the
// order bounds are rendered.
var versionBoundOperators = []struct {
	key string
	op  string
}{
	{VersionLTE, "<="},
	{VersionLT, "<"},
	{VersionGTE, ">="},
	{VersionGT, ">"},
	{VersionEQ, "="},
}

// DependencyDescriptor is an immutable dependency reference: a name plus
// optional version-bound metadata. Metadata does not participate in set
// identity.
type DependencyDescriptor struct {
	// Name is the depended-on package name.
	Name string
	// Metadata holds version bounds keyed by the Version* constants.
	// Only declared bounds are present.
	Metadata map[string]string
}

// NewDependency creates a dependency descriptor. Empty-valued metadata
// entries are dropped so that only declared bounds are recorded.
func NewDependency(name string, metadata map[string]string) DependencyDescriptor {
	d := DependencyDescriptor{Name: name}
	for key, value := range metadata {
		if value == "" {
			continue
		}
		if d.Metadata == nil {
			d.Metadata = map[string]string{}
		}
		d.Metadata[key] = value
	}
	return d
}

// String renders the dependency with its bounds, e.g. "foo (>=1.2, <2.0)".
func (d DependencyDescriptor) String() string {
	bounds := d.boundStrings()
	if len(bounds) == 0 {
		return d.Name
	}
	return fmt.Sprintf("%s (%s)", d.Name, strings.Join(bounds, ", "))
}

// VersionConstraint renders the recorded bounds as a semver constraint set.
// Returns (nil, nil) when no bounds are recorded, and an error when a bound
// value is not a valid version.
func (d DependencyDescriptor) VersionConstraint() (*semver.Constraints, error) {
	bounds := d.boundStrings()
	if len(bounds) == 0 {
		return nil, nil
	}
	c, err := semver.NewConstraint(strings.Join(bounds, ", "))
	if err != nil {
		return nil, fmt.Errorf("dependency %q has an invalid version bound: %w", d.Name, err)
	}
	return c, nil
}

func (d DependencyDescriptor) boundStrings() []string {
	var bounds []string
	for _, b := range versionBoundOperators {
		if value, ok := d.Metadata[b.key]; ok {
			bounds = append(bounds, b.op+value)
		}
	}
	return bounds
}
