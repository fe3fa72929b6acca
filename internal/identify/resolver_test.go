// SPDX-License-Identifier: MPL-2.0

package identify

import (
	"errors"
	"testing"

	"github.com/rospect/rospect/internal/testutil"
	"github.com/rospect/rospect/pkg/descriptor"
)

func newTestResolver() *Resolver {
	return NewResolver(NewManifestCache())
}

// assertUnmodified fails unless desc looks exactly like a freshly
// constructed descriptor for its path.
func assertUnmodified(t *testing.T, desc *descriptor.PackageDescriptor) {
	t.Helper()
	if desc.Type != "" {
		t.Errorf("Type = %q, want unset", desc.Type)
	}
	if desc.Name != "" {
		t.Errorf("Name = %q, want unset", desc.Name)
	}
	if len(desc.Metadata) != 0 {
		t.Errorf("Metadata = %v, want empty", desc.Metadata)
	}
	for category, set := range desc.Dependencies {
		if len(set) != 0 {
			t.Errorf("dependency set %q = %v, want empty", category, set.Names())
		}
	}
}

func TestIdentify_NoManifest(t *testing.T) {
	dir := t.TempDir()
	desc := descriptor.New(dir)

	if err := newTestResolver().Identify(desc); err != nil {
		t.Fatalf("Identify() returned error: %v", err)
	}
	assertUnmodified(t, desc)
}

func TestIdentify_IgnoreMarkers(t *testing.T) {
	for _, marker := range []string{IgnoreMarkerCatkin, IgnoreMarkerAment} {
		t.Run(marker, func(t *testing.T) {
			dir := t.TempDir()
			testutil.WriteManifest(t, dir, testutil.SimpleManifest("pkg", "1.0.0", ""))
			testutil.WriteFile(t, dir, marker, "")

			desc := descriptor.New(dir)
			err := newTestResolver().Identify(desc)
			if !errors.Is(err, ErrSkipLocation) {
				t.Fatalf("Identify() = %v, want ErrSkipLocation", err)
			}
			assertUnmodified(t, desc)
		})
	}
}

func TestIdentify_ForeignTypePreserved(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteManifest(t, dir, testutil.SimpleManifest("pkg", "1.0.0", ""))

	desc := descriptor.New(dir)
	desc.Type = "cmake"
	if err := newTestResolver().Identify(desc); err != nil {
		t.Fatalf("Identify() returned error: %v", err)
	}
	if desc.Type != "cmake" {
		t.Errorf("Type = %q, want %q", desc.Type, "cmake")
	}
	if desc.Name != "" {
		t.Errorf("Name = %q, foreign descriptor must not be touched", desc.Name)
	}
}

func TestIdentify_PopulatesDescriptor(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteManifest(t, dir, testutil.SimpleManifest("nav_stack", "2.4.1", `
  <build_depend>eigen</build_depend>
  <export><build_type>ament_cmake</build_type></export>`))

	desc := descriptor.New(dir)
	if err := newTestResolver().Identify(desc); err != nil {
		t.Fatalf("Identify() returned error: %v", err)
	}

	if desc.Type != "ros.ament_cmake" {
		t.Errorf("Type = %q, want %q", desc.Type, "ros.ament_cmake")
	}
	if desc.Name != "nav_stack" {
		t.Errorf("Name = %q, want %q", desc.Name, "nav_stack")
	}
	if got := desc.Metadata[MetadataVersion]; got != "2.4.1" {
		t.Errorf("Metadata[version] = %v, want %q", got, "2.4.1")
	}
	if !desc.Dependencies[descriptor.DependencyBuild].Has("eigen") {
		t.Error("build dependencies missing eigen")
	}
}

func TestIdentify_DefaultBuildType(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteManifest(t, dir, testutil.SimpleManifest("old_school", "0.9.0", ""))

	desc := descriptor.New(dir)
	if err := newTestResolver().Identify(desc); err != nil {
		t.Fatalf("Identify() returned error: %v", err)
	}
	if desc.Type != "ros.catkin" {
		t.Errorf("Type = %q, want %q", desc.Type, "ros.catkin")
	}
}

func TestIdentify_NamePrecedence(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteManifest(t, dir, testutil.SimpleManifest("manifest_name", "1.0.0", ""))

	desc := descriptor.New(dir)
	desc.Name = "preset_name"
	if err := newTestResolver().Identify(desc); err != nil {
		t.Fatalf("Identify() returned error: %v", err)
	}
	if desc.Name != "preset_name" {
		t.Errorf("Name = %q, pre-set name must be retained", desc.Name)
	}
}

func TestIdentify_DependencyRouting(t *testing.T) {
	t.Setenv("ROS_VERSION", "2")

	dir := t.TempDir()
	testutil.WriteManifest(t, dir, testutil.SimpleManifest("router", "1.0.0", `
  <build_depend condition="$ROS_VERSION == 2">kept_build</build_depend>
  <exec_depend condition="$ROS_VERSION == 1">dropped_exec</exec_depend>`))

	desc := descriptor.New(dir)
	if err := newTestResolver().Identify(desc); err != nil {
		t.Fatalf("Identify() returned error: %v", err)
	}

	build := desc.Dependencies[descriptor.DependencyBuild]
	if !build.Has("kept_build") || len(build) != 1 {
		t.Errorf("build dependencies = %v, want exactly [kept_build]", build.Names())
	}
	if run := desc.Dependencies[descriptor.DependencyRun]; len(run) != 0 {
		t.Errorf("run dependencies = %v, want empty", run.Names())
	}
}

func TestIdentify_CategoryMapping(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteManifest(t, dir, testutil.SimpleManifest("mapper", "1.0.0", `
  <build_depend>b1</build_depend>
  <buildtool_depend>b2</buildtool_depend>
  <build_export_depend>r1</build_export_depend>
  <buildtool_export_depend>r2</buildtool_export_depend>
  <exec_depend>r3</exec_depend>
  <test_depend>t1</test_depend>`))

	desc := descriptor.New(dir)
	if err := newTestResolver().Identify(desc); err != nil {
		t.Fatalf("Identify() returned error: %v", err)
	}

	checks := []struct {
		category string
		want     []string
	}{
		{descriptor.DependencyBuild, []string{"b1", "b2"}},
		{descriptor.DependencyRun, []string{"r1", "r2", "r3"}},
		{descriptor.DependencyTest, []string{"t1"}},
	}
	for _, c := range checks {
		got := desc.Dependencies[c.category].Names()
		if len(got) != len(c.want) {
			t.Errorf("%s dependencies = %v, want %v", c.category, got, c.want)
			continue
		}
		for i := range c.want {
			if got[i] != c.want[i] {
				t.Errorf("%s dependencies = %v, want %v", c.category, got, c.want)
				break
			}
		}
	}
}

func TestIdentify_VersionBoundMetadata(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteManifest(t, dir, testutil.SimpleManifest("bounded", "1.0.0", `
  <build_depend version_gte="1.2">eigen</build_depend>`))

	desc := descriptor.New(dir)
	if err := newTestResolver().Identify(desc); err != nil {
		t.Fatalf("Identify() returned error: %v", err)
	}

	dep := desc.Dependencies[descriptor.DependencyBuild]["eigen"]
	if len(dep.Metadata) != 1 {
		t.Fatalf("Metadata = %v, want exactly one bound", dep.Metadata)
	}
	if got := dep.Metadata[descriptor.VersionGTE]; got != "1.2" {
		t.Errorf("Metadata[version_gte] = %q, want %q", got, "1.2")
	}
}

func TestIdentify_MultipleBuildTypes(t *testing.T) {
	body := testutil.SimpleManifest("confused", "1.0.0", `
  <export>
    <build_type>ament_cmake</build_type>
    <build_type>ament_python</build_type>
  </export>`)

	t.Run("without legacy manifest", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteManifest(t, dir, body)

		desc := descriptor.New(dir)
		if err := newTestResolver().Identify(desc); err != nil {
			t.Fatalf("Identify() = %v, want nil", err)
		}
		assertUnmodified(t, desc)
	})

	t.Run("with legacy manifest", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteManifest(t, dir, body)
		testutil.WriteFile(t, dir, "manifest.xml", "<package/>")

		desc := descriptor.New(dir)
		if err := newTestResolver().Identify(desc); !errors.Is(err, ErrSkipLocation) {
			t.Fatalf("Identify() = %v, want ErrSkipLocation", err)
		}
		assertUnmodified(t, desc)
	})
}

func TestIdentify_LegacyManifestOnly(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "manifest.xml", "<package/>")

	desc := descriptor.New(dir)
	if err := newTestResolver().Identify(desc); !errors.Is(err, ErrSkipLocation) {
		t.Fatalf("Identify() = %v, want ErrSkipLocation", err)
	}
	assertUnmodified(t, desc)
}

func TestIdentify_InvalidManifestSoftFails(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteManifest(t, dir, "<package><name>broken")

	desc := descriptor.New(dir)
	if err := newTestResolver().Identify(desc); err != nil {
		t.Fatalf("Identify() = %v, want nil", err)
	}
	assertUnmodified(t, desc)
}

func TestIdentify_AmentPython(t *testing.T) {
	body := testutil.SimpleManifest("pylib", "1.0.0", `
  <export><build_type>ament_python</build_type></export>`)

	t.Run("missing setup.py", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteManifest(t, dir, body)

		desc := descriptor.New(dir)
		if err := newTestResolver().Identify(desc); !errors.Is(err, ErrSkipLocation) {
			t.Fatalf("Identify() = %v, want ErrSkipLocation", err)
		}
		assertUnmodified(t, desc)
	})

	t.Run("with setup.py", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteManifest(t, dir, body)
		testutil.WriteFile(t, dir, "setup.py", "from setuptools import setup\nsetup(\n    name='pylib',\n)\n")

		desc := descriptor.New(dir)
		if err := newTestResolver().Identify(desc); err != nil {
			t.Fatalf("Identify() returned error: %v", err)
		}
		if desc.Type != "ros.ament_python" {
			t.Errorf("Type = %q, want %q", desc.Type, "ros.ament_python")
		}

		accessor, ok := desc.Metadata[MetadataSetupOptions].(SetupOptions)
		if !ok {
			t.Fatalf("Metadata[%s] = %T, want SetupOptions", MetadataSetupOptions, desc.Metadata[MetadataSetupOptions])
		}
		options, err := accessor.Evaluate(nil)
		if err != nil {
			t.Fatalf("Evaluate() returned error: %v", err)
		}
		if options["name"] != "pylib" {
			t.Errorf("options[name] = %q, want %q", options["name"], "pylib")
		}
	})
}

func TestIdentify_Idempotent(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteManifest(t, dir, testutil.SimpleManifest("stable", "1.0.0", `
  <build_depend>dep</build_depend>`))

	resolver := newTestResolver()

	first := descriptor.New(dir)
	if err := resolver.Identify(first); err != nil {
		t.Fatal(err)
	}

	// Break the file on disk: a second identification of the same path must
	// be served from the cache and still produce the full mutation.
	testutil.WriteManifest(t, dir, "<package>garbage")

	second := descriptor.New(dir)
	if err := resolver.Identify(second); err != nil {
		t.Fatal(err)
	}
	if second.Type != first.Type || second.Name != first.Name {
		t.Errorf("second descriptor (%q, %q) differs from first (%q, %q)",
			second.Type, second.Name, first.Type, first.Name)
	}
	if !second.Dependencies[descriptor.DependencyBuild].Has("dep") {
		t.Error("second descriptor missing build dependency")
	}
}
