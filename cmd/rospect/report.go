// SPDX-License-Identifier: MPL-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/rospect/rospect/internal/config"
	"github.com/rospect/rospect/internal/identify"
	"github.com/rospect/rospect/pkg/descriptor"
)

type (
	// packageReport is the serializable projection of an identified
	// descriptor, shared by every output format.
	packageReport struct {
		Name         string   `json:"name" yaml:"name" toml:"name"`
		Type         string   `json:"type" yaml:"type" toml:"type"`
		Version      string   `json:"version" yaml:"version" toml:"version"`
		Path         string   `json:"path" yaml:"path" toml:"path"`
		BuildDepends []string `json:"build_depends,omitempty" yaml:"build_depends,omitempty" toml:"build_depends,omitempty"`
		RunDepends   []string `json:"run_depends,omitempty" yaml:"run_depends,omitempty" toml:"run_depends,omitempty"`
		TestDepends  []string `json:"test_depends,omitempty" yaml:"test_depends,omitempty" toml:"test_depends,omitempty"`
	}

	// scanReport wraps the package list so TOML and YAML output have a
	// stable top-level shape.
	scanReport struct {
		Packages []packageReport `json:"packages" yaml:"packages" toml:"packages"`
	}
)

// newPackageReport projects a descriptor into its report form.
func newPackageReport(desc *descriptor.PackageDescriptor) packageReport {
	version, _ := desc.Metadata[identify.MetadataVersion].(string)
	return packageReport{
		Name:         desc.Name,
		Type:         desc.Type,
		Version:      version,
		Path:         desc.Path,
		BuildDepends: desc.Dependencies[descriptor.DependencyBuild].Names(),
		RunDepends:   desc.Dependencies[descriptor.DependencyRun].Names(),
		TestDepends:  desc.Dependencies[descriptor.DependencyTest].Names(),
	}
}

// renderReport writes the report in the requested format.
func renderReport(w io.Writer, report scanReport, format string) error {
	switch format {
	case config.FormatTable:
		return renderTable(w, report)
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(report)
	case config.FormatTOML:
		return toml.NewEncoder(w).Encode(report)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderTable(w io.Writer, report scanReport) error {
	if len(report.Packages) == 0 {
		_, err := fmt.Fprintln(w, "no packages found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		headerStyle.Render("NAME"),
		headerStyle.Render("TYPE"),
		headerStyle.Render("VERSION"),
		headerStyle.Render("PATH"))
	for _, p := range report.Packages {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Type, p.Version, p.Path)
	}
	return tw.Flush()
}
