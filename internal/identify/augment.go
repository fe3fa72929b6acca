// SPDX-License-Identifier: MPL-2.0

package identify

import (
	"fmt"
	"log/slog"

	"github.com/rospect/rospect/pkg/descriptor"
	"github.com/rospect/rospect/pkg/rosmanifest"
)

// Augmenter expands group dependencies across a batch of identified
// descriptors. It must run strictly after every Identify call of the batch,
// since it only sees manifests already present in the shared cache.
type Augmenter struct {
	cache *ManifestCache
}

// NewAugmenter creates an augmenter backed by the same cache the Resolver
// populated during identification.
func NewAugmenter(cache *ManifestCache) *Augmenter {
	return &Augmenter{cache: cache}
}

// Augment resolves the group dependencies declared by packages in batch and
// injects each resolved member as both a build and a run dependency of the
// declaring descriptor. Member resolution is scoped to the batch: packages
// not in it are invisible and silently excluded. Descriptors whose path was
// never visited, or whose path holds no usable manifest, are ignored.
// Resolution keys packages by name; should two batch packages share a name,
// only the last one's group memberships are visible, and a warning is logged.
func (a *Augmenter) Augment(batch []*descriptor.PackageDescriptor) error {
	type entry struct {
		manifest *rosmanifest.Manifest
		desc     *descriptor.PackageDescriptor
	}

	manifests := map[string]*rosmanifest.Manifest{}
	var entries []entry
	for _, desc := range batch {
		m, _, visited := a.cache.Lookup(desc.Path)
		if !visited || m == nil {
			continue
		}
		if prev, dup := manifests[m.Name]; dup && prev != m {
			slog.Warn("duplicate package name in batch",
				"name", m.Name, "path", desc.Path, "shadows", prev.FilePath)
		}
		manifests[m.Name] = m
		entries = append(entries, entry{manifest: m, desc: desc})
	}

	for _, e := range entries {
		for _, g := range e.manifest.GroupDepends {
			if g.EvaluatedCondition == nil {
				return fmt.Errorf("package %q: group dependency %q has no evaluated condition",
					e.manifest.Name, g.Name)
			}
			if !*g.EvaluatedCondition {
				continue
			}
			g.ExtractGroupMembers(manifests)
			for _, name := range g.Members {
				e.desc.Dependencies[descriptor.DependencyBuild].Add(descriptor.NewDependency(name, nil))
				e.desc.Dependencies[descriptor.DependencyRun].Add(descriptor.NewDependency(name, nil))
			}
		}
	}
	return nil
}
