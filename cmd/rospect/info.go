// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rospect/rospect/internal/identify"
	"github.com/rospect/rospect/pkg/descriptor"
)

var infoCmd = &cobra.Command{
	Use:   "info <path>",
	Short: "Identify a single package directory",
	Long: `Identify the package in one directory and print its descriptor in
detail, including version bounds on dependencies. Group dependencies are not
expanded: expansion is scoped to a workspace scan.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	path := args[0]
	resolver := identify.NewResolver(identify.NewManifestCache())

	desc := descriptor.New(path)
	err := resolver.Identify(desc)
	switch {
	case errors.Is(err, identify.ErrSkipLocation):
		return fmt.Errorf("directory %s is excluded from identification", path)
	case err != nil:
		return err
	case desc.Type == "":
		return fmt.Errorf("no ROS package found at %s", path)
	}

	out := cmd.OutOrStdout()
	version, _ := desc.Metadata[identify.MetadataVersion].(string)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Name:"), desc.Name)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Type:"), desc.Type)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Version:"), version)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Path:"), desc.Path)

	printDependencies(cmd, desc, descriptor.DependencyBuild, "Build dependencies")
	printDependencies(cmd, desc, descriptor.DependencyRun, "Run dependencies")
	printDependencies(cmd, desc, descriptor.DependencyTest, "Test dependencies")
	return nil
}

func printDependencies(cmd *cobra.Command, desc *descriptor.PackageDescriptor, category, title string) {
	set := desc.Dependencies[category]
	if len(set) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", labelStyle.Render(title+":"))
	for _, name := range set.Names() {
		dep := set[name]
		fmt.Fprintf(out, "  %s\n", dep.String())
		// Bounds that do not form a valid version constraint are worth a
		// heads-up but never fail the command.
		if _, err := dep.VersionConstraint(); err != nil {
			slog.Warn("unparsable version bound", "dependency", name, "error", err)
		}
	}
}
