// SPDX-License-Identifier: MPL-2.0

package identify

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	// setupKeywordPattern matches simple string-literal keyword arguments
	// of a setup() call, one per line (name='value' or name="value").
	setupKeywordPattern = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(?:'([^']*)'|"([^"]*)")\s*,?\s*$`)
	// environLookupPattern matches os.environ.get('NAME', 'default') and
	// os.environ['NAME'] value expressions.
	environLookupPattern = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*os\.environ(?:\.get\(\s*['"]([^'"]+)['"]\s*(?:,\s*['"]([^'"]*)['"]\s*)?\)|\[\s*['"]([^'"]+)['"]\s*\])\s*,?\s*$`)
)

// SetupOptions lazily derives the setup options declared in a package's
// setup script. The value only captures the script path; every Evaluate call
// re-reads and re-derives the options from the file, so edits between calls
// are observed. This is deliberately the opposite of the manifest cache.
type SetupOptions struct {
	// Path is the setup script location captured at identification time.
	Path string
}

// Evaluate extracts the string-valued setup() keyword arguments from the
// script. Environment lookups in the script are resolved against env rather
// than the process environment, so callers control the evaluation context.
func (s SetupOptions) Evaluate(env map[string]string) (map[string]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read setup script: %w", err)
	}

	options := map[string]string{}
	inSetup := false
	for _, line := range strings.Split(string(data), "\n") {
		if !inSetup {
			if strings.Contains(line, "setup(") {
				inSetup = true
			}
			continue
		}
		if match := setupKeywordPattern.FindStringSubmatch(line); match != nil {
			value := match[2]
			if value == "" {
				value = match[3]
			}
			options[match[1]] = value
			continue
		}
		if match := environLookupPattern.FindStringSubmatch(line); match != nil {
			name := match[2]
			if name == "" {
				name = match[4]
			}
			value, ok := env[name]
			if !ok {
				value = match[3]
			}
			options[match[1]] = value
		}
	}
	if !inSetup {
		return nil, fmt.Errorf("no setup() call found in %s", s.Path)
	}
	return options, nil
}
