// SPDX-License-Identifier: MPL-2.0

package identify

import (
	"testing"

	"github.com/rospect/rospect/internal/testutil"
	"github.com/rospect/rospect/pkg/descriptor"
)

// identifyAll runs Identify over every directory and returns the batch.
func identifyAll(t *testing.T, resolver *Resolver, dirs ...string) []*descriptor.PackageDescriptor {
	t.Helper()
	var batch []*descriptor.PackageDescriptor
	for _, dir := range dirs {
		desc := descriptor.New(dir)
		if err := resolver.Identify(desc); err != nil {
			t.Fatalf("Identify(%s) returned error: %v", dir, err)
		}
		batch = append(batch, desc)
	}
	return batch
}

func TestAugment_GroupExpansion(t *testing.T) {
	tmp := t.TempDir()
	dirA := testutil.MkdirAll(t, tmp, "a")
	dirB := testutil.MkdirAll(t, tmp, "b")
	testutil.WriteManifest(t, dirA, testutil.SimpleManifest("pkg_a", "1.0.0", `
  <group_depend>sensors</group_depend>`))
	testutil.WriteManifest(t, dirB, testutil.SimpleManifest("pkg_b", "1.0.0", `
  <member_of_group>sensors</member_of_group>`))

	cache := NewManifestCache()
	batch := identifyAll(t, NewResolver(cache), dirA, dirB)

	if err := NewAugmenter(cache).Augment(batch); err != nil {
		t.Fatalf("Augment() returned error: %v", err)
	}

	descA, descB := batch[0], batch[1]
	if !descA.Dependencies[descriptor.DependencyBuild].Has("pkg_b") {
		t.Error("pkg_a build dependencies missing group member pkg_b")
	}
	if !descA.Dependencies[descriptor.DependencyRun].Has("pkg_b") {
		t.Error("pkg_a run dependencies missing group member pkg_b")
	}
	for category, set := range descB.Dependencies {
		if len(set) != 0 {
			t.Errorf("pkg_b %s dependencies = %v, want empty", category, set.Names())
		}
	}
}

func TestAugment_MemberOutsideBatchInvisible(t *testing.T) {
	tmp := t.TempDir()
	dirA := testutil.MkdirAll(t, tmp, "a")
	dirB := testutil.MkdirAll(t, tmp, "b")
	testutil.WriteManifest(t, dirA, testutil.SimpleManifest("pkg_a", "1.0.0", `
  <group_depend>sensors</group_depend>`))
	testutil.WriteManifest(t, dirB, testutil.SimpleManifest("pkg_b", "1.0.0", `
  <member_of_group>sensors</member_of_group>`))

	cache := NewManifestCache()
	batch := identifyAll(t, NewResolver(cache), dirA, dirB)

	// pkg_b was identified but is not part of the augmented batch.
	if err := NewAugmenter(cache).Augment(batch[:1]); err != nil {
		t.Fatalf("Augment() returned error: %v", err)
	}

	descA := batch[0]
	if descA.Dependencies[descriptor.DependencyBuild].Has("pkg_b") {
		t.Error("group member outside the batch leaked into build dependencies")
	}
	if descA.Dependencies[descriptor.DependencyRun].Has("pkg_b") {
		t.Error("group member outside the batch leaked into run dependencies")
	}
}

func TestAugment_FalseConditionIgnored(t *testing.T) {
	t.Setenv("ROS_VERSION", "2")

	tmp := t.TempDir()
	dirA := testutil.MkdirAll(t, tmp, "a")
	dirB := testutil.MkdirAll(t, tmp, "b")
	testutil.WriteManifest(t, dirA, testutil.SimpleManifest("pkg_a", "1.0.0", `
  <group_depend condition="$ROS_VERSION == 1">sensors</group_depend>`))
	testutil.WriteManifest(t, dirB, testutil.SimpleManifest("pkg_b", "1.0.0", `
  <member_of_group>sensors</member_of_group>`))

	cache := NewManifestCache()
	batch := identifyAll(t, NewResolver(cache), dirA, dirB)

	if err := NewAugmenter(cache).Augment(batch); err != nil {
		t.Fatalf("Augment() returned error: %v", err)
	}
	if batch[0].Dependencies[descriptor.DependencyBuild].Has("pkg_b") {
		t.Error("group with false condition was expanded")
	}
}

func TestAugment_FalseMembershipConditionExcluded(t *testing.T) {
	t.Setenv("ROS_VERSION", "2")

	tmp := t.TempDir()
	dirA := testutil.MkdirAll(t, tmp, "a")
	dirB := testutil.MkdirAll(t, tmp, "b")
	dirC := testutil.MkdirAll(t, tmp, "c")
	testutil.WriteManifest(t, dirA, testutil.SimpleManifest("pkg_a", "1.0.0", `
  <group_depend>sensors</group_depend>`))
	testutil.WriteManifest(t, dirB, testutil.SimpleManifest("pkg_b", "1.0.0", `
  <member_of_group condition="$ROS_VERSION == 1">sensors</member_of_group>`))
	testutil.WriteManifest(t, dirC, testutil.SimpleManifest("pkg_c", "1.0.0", `
  <member_of_group condition="$ROS_VERSION == 2">sensors</member_of_group>`))

	cache := NewManifestCache()
	batch := identifyAll(t, NewResolver(cache), dirA, dirB, dirC)

	if err := NewAugmenter(cache).Augment(batch); err != nil {
		t.Fatalf("Augment() returned error: %v", err)
	}

	build := batch[0].Dependencies[descriptor.DependencyBuild]
	if build.Has("pkg_b") {
		t.Error("pkg_b joined the group despite its false membership condition")
	}
	if !build.Has("pkg_c") {
		t.Error("pkg_c with a true membership condition missing from group members")
	}
}

func TestAugment_DuplicateNameLastWins(t *testing.T) {
	tmp := t.TempDir()
	dirA := testutil.MkdirAll(t, tmp, "a")
	dirB1 := testutil.MkdirAll(t, tmp, "b1")
	dirB2 := testutil.MkdirAll(t, tmp, "b2")
	testutil.WriteManifest(t, dirA, testutil.SimpleManifest("pkg_a", "1.0.0", `
  <group_depend>sensors</group_depend>`))
	testutil.WriteManifest(t, dirB1, testutil.SimpleManifest("pkg_b", "1.0.0", ""))
	testutil.WriteManifest(t, dirB2, testutil.SimpleManifest("pkg_b", "2.0.0", `
  <member_of_group>sensors</member_of_group>`))

	cache := NewManifestCache()
	batch := identifyAll(t, NewResolver(cache), dirA, dirB1, dirB2)

	// Two packages share a name; the last-seen manifest's memberships apply.
	if err := NewAugmenter(cache).Augment(batch); err != nil {
		t.Fatalf("Augment() returned error: %v", err)
	}
	if !batch[0].Dependencies[descriptor.DependencyBuild].Has("pkg_b") {
		t.Error("group member from the last-seen duplicate missing from build dependencies")
	}
}

func TestAugment_UnvisitedDescriptorsIgnored(t *testing.T) {
	tmp := t.TempDir()
	dirA := testutil.MkdirAll(t, tmp, "a")
	testutil.WriteManifest(t, dirA, testutil.SimpleManifest("pkg_a", "1.0.0", ""))

	cache := NewManifestCache()
	batch := identifyAll(t, NewResolver(cache), dirA)

	// A descriptor whose path never went through identification.
	stranger := descriptor.New(testutil.MkdirAll(t, tmp, "never_visited"))
	batch = append(batch, stranger)

	if err := NewAugmenter(cache).Augment(batch); err != nil {
		t.Fatalf("Augment() returned error: %v", err)
	}
	assertUnmodified(t, stranger)
}
