// SPDX-License-Identifier: MPL-2.0

// Package identify implements the ROS package identification pipeline:
// manifest loading with a per-session cache, build-type classification,
// descriptor resolution and batch-wide group-dependency augmentation.
package identify

import (
	"path/filepath"
	"sync"

	"github.com/rospect/rospect/pkg/rosmanifest"
)

type (
	// ManifestCache memoizes manifest loading per scan session: each
	// normalized path is parsed at most once, and absence is cached too.
	// There is no expiry or invalidation; the cache assumes the filesystem
	// does not change during a scan. The mutex covers the check-then-insert
	// sequence so a parallel scanner can share one cache.
	ManifestCache struct {
		mu      sync.Mutex
		entries map[string]cacheEntry
	}

	// cacheEntry pairs a loaded manifest with its classified build type.
	// A nil manifest records a path with no usable manifest; an empty
	// build type records an unclassifiable manifest.
	cacheEntry struct {
		manifest  *rosmanifest.Manifest
		buildType string
	}
)

// NewManifestCache creates an empty cache for one scan session.
func NewManifestCache() *ManifestCache {
	return &ManifestCache{entries: map[string]cacheEntry{}}
}

// LookupOrLoad returns the manifest and build type for path, loading and
// classifying on the first call and serving the stored pair afterwards.
// A (nil, "") result is stored and returned for paths without a usable
// manifest; it is never retried.
func (c *ManifestCache) LookupOrLoad(path string) (*rosmanifest.Manifest, string) {
	key := filepath.Clean(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		entry.manifest = loadManifest(key)
		if entry.manifest != nil {
			entry.buildType = classifyBuildType(entry.manifest, key)
		}
		c.entries[key] = entry
	}
	return entry.manifest, entry.buildType
}

// Lookup returns the cached pair for path without loading. The third result
// reports whether the path has been visited.
func (c *ManifestCache) Lookup(path string) (*rosmanifest.Manifest, string, bool) {
	key := filepath.Clean(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	return entry.manifest, entry.buildType, ok
}

// Clear drops all cached entries. Intended for test isolation.
func (c *ManifestCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]cacheEntry{}
}
