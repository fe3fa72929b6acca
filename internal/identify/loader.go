// SPDX-License-Identifier: MPL-2.0

package identify

import (
	"log/slog"
	"os"
	"strings"

	"github.com/rospect/rospect/pkg/rosmanifest"
)

// loadManifest loads the package manifest in dir, or nil if the directory
// holds no usable manifest. An invalid or malformed manifest degrades to nil
// rather than an error: a broken package must not abort the whole scan. On
// success every condition in the manifest has been evaluated against the
// current process environment, so EvaluatedCondition fields are non-nil for
// all downstream consumers.
func loadManifest(dir string) *rosmanifest.Manifest {
	if !rosmanifest.ExistsAt(dir) {
		return nil
	}
	m, err := rosmanifest.Parse(dir)
	if err != nil {
		slog.Debug("ignoring invalid package manifest", "path", dir, "error", err)
		return nil
	}
	if err := m.EvaluateConditions(environMap()); err != nil {
		slog.Debug("ignoring manifest with unevaluable conditions", "path", dir, "error", err)
		return nil
	}
	return m
}

// classifyBuildType derives the canonical build type of a loaded manifest.
// A manifest declaring more than one build type is unclassifiable: a warning
// is logged and the empty string returned.
func classifyBuildType(m *rosmanifest.Manifest, dir string) string {
	buildType, err := m.BuildType()
	if err != nil {
		slog.Warn("ROS package has more than one build type", "package", m.Name, "path", dir)
		return ""
	}
	return buildType
}

// environMap snapshots the process environment as a map for condition
// evaluation.
func environMap() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if key, value, ok := strings.Cut(kv, "="); ok {
			env[key] = value
		}
	}
	return env
}
