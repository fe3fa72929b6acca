// SPDX-License-Identifier: MPL-2.0

// Package scan walks a workspace tree, identifies ROS packages in it and
// runs the batch augmentation pass. It owns the descriptor batch protocol:
// one Identify call per candidate directory, then one Augment call over the
// complete batch.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/rospect/rospect/internal/identify"
	"github.com/rospect/rospect/pkg/descriptor"
)

// WorkspaceIgnoreMarker excludes a directory and everything below it from
// the workspace scan. It is a scanner-level marker, distinct from the
// package-level ignore markers consulted during identification.
const WorkspaceIgnoreMarker = "COLCON_IGNORE"

// Scanner discovers ROS packages under a workspace root.
type Scanner struct {
	resolver  *identify.Resolver
	augmenter *identify.Augmenter
	skipNames map[string]struct{}
}

// New creates a scanner for one scan session. The cache is shared between
// the resolver and the augmenter so the augmentation pass sees every
// manifest loaded during identification. skipDirs lists directory names
// (such as build output directories) that are never descended into.
func New(cache *identify.ManifestCache, skipDirs []string) *Scanner {
	skipNames := make(map[string]struct{}, len(skipDirs))
	for _, name := range skipDirs {
		skipNames[name] = struct{}{}
	}
	return &Scanner{
		resolver:  identify.NewResolver(cache),
		augmenter: identify.NewAugmenter(cache),
		skipNames: skipNames,
	}
}

// Scan walks root, identifies every ROS package beneath it, augments group
// dependencies across the batch and returns the identified descriptors
// sorted by path. Identified package directories are not descended into:
// packages do not nest.
func (s *Scanner) Scan(root string) ([]*descriptor.PackageDescriptor, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root %q: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to access workspace root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %q is not a directory", root)
	}

	var batch []*descriptor.PackageDescriptor
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != absRoot {
			name := d.Name()
			if strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			if _, skip := s.skipNames[name]; skip {
				return fs.SkipDir
			}
		}
		if fileExists(filepath.Join(path, WorkspaceIgnoreMarker)) {
			return fs.SkipDir
		}

		desc := descriptor.New(path)
		switch identifyErr := s.resolver.Identify(desc); {
		case errors.Is(identifyErr, identify.ErrSkipLocation):
			return fs.SkipDir
		case identifyErr != nil:
			// Fatal to this directory only; the scan continues elsewhere.
			slog.Error("package identification failed", "path", path, "error", identifyErr)
			return fs.SkipDir
		}

		if desc.Type != "" {
			batch = append(batch, desc)
			return fs.SkipDir
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to walk workspace %q: %w", root, walkErr)
	}

	// The augmentation barrier: all Identify calls of the batch are done.
	if err := s.augmenter.Augment(batch); err != nil {
		return nil, err
	}

	slices.SortFunc(batch, func(a, b *descriptor.PackageDescriptor) int {
		return strings.Compare(a.Path, b.Path)
	})
	return batch, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
