// SPDX-License-Identifier: MPL-2.0

package rosmanifest

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// xmlPackage mirrors the package.xml document structure. It is decoded and
// then converted into a Manifest so the XML shape stays private.
type xmlPackage struct {
	Format                 string          `xml:"format,attr"`
	Name                   string          `xml:"name"`
	Version                string          `xml:"version"`
	Depends                []xmlDependency `xml:"depend"`
	BuildDepends           []xmlDependency `xml:"build_depend"`
	BuildtoolDepends       []xmlDependency `xml:"buildtool_depend"`
	BuildExportDepends     []xmlDependency `xml:"build_export_depend"`
	BuildtoolExportDepends []xmlDependency `xml:"buildtool_export_depend"`
	ExecDepends            []xmlDependency `xml:"exec_depend"`
	RunDepends             []xmlDependency `xml:"run_depend"`
	TestDepends            []xmlDependency `xml:"test_depend"`
	GroupDepends           []xmlDependency `xml:"group_depend"`
	MemberOfGroups         []xmlDependency `xml:"member_of_group"`
	Export                 xmlExport       `xml:"export"`
}

type xmlDependency struct {
	Name       string `xml:",chardata"`
	Condition  string `xml:"condition,attr"`
	VersionLT  string `xml:"version_lt,attr"`
	VersionLTE string `xml:"version_lte,attr"`
	VersionEQ  string `xml:"version_eq,attr"`
	VersionGTE string `xml:"version_gte,attr"`
	VersionGT  string `xml:"version_gt,attr"`
}

type xmlExport struct {
	BuildTypes []xmlBuildType `xml:"build_type"`
}

type xmlBuildType struct {
	Value     string `xml:",chardata"`
	Condition string `xml:"condition,attr"`
}

// ExistsAt reports whether a package manifest file exists in dir.
func ExistsAt(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ManifestFilename))
	return err == nil && !info.IsDir()
}

// Parse reads and parses the package manifest in dir. A missing file is an
// ordinary read error; a file that cannot be decoded or fails structural
// validation yields an InvalidManifestError.
func Parse(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest at %s: %w", path, err)
	}
	return ParseBytes(data, path)
}

// ParseBytes parses manifest content from bytes. The path is used for error
// reporting and recorded as the manifest's FilePath.
func ParseBytes(data []byte, path string) (*Manifest, error) {
	var doc xmlPackage
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &InvalidManifestError{Path: path, Reason: "malformed XML", Cause: err}
	}

	format := 1
	if doc.Format != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(doc.Format))
		if err != nil || parsed < 1 || parsed > 3 {
			return nil, &InvalidManifestError{Path: path, Reason: fmt.Sprintf("unsupported format attribute %q", doc.Format)}
		}
		format = parsed
	}

	m := &Manifest{
		Name:     strings.TrimSpace(doc.Name),
		Version:  strings.TrimSpace(doc.Version),
		Format:   format,
		FilePath: path,
	}
	if m.Name == "" {
		return nil, &InvalidManifestError{Path: path, Reason: "missing package name"}
	}
	if m.Version == "" {
		return nil, &InvalidManifestError{Path: path, Reason: "missing package version"}
	}
	if format == 1 && (len(doc.ExecDepends) > 0 || len(doc.Depends) > 0 ||
		len(doc.GroupDepends) > 0 || len(doc.MemberOfGroups) > 0) {
		return nil, &InvalidManifestError{Path: path, Reason: "format 1 manifest uses tags introduced in later formats"}
	}
	if format >= 2 && len(doc.RunDepends) > 0 {
		return nil, &InvalidManifestError{Path: path, Reason: "run_depend is only valid in format 1 manifests"}
	}

	for _, d := range doc.Depends {
		// <depend> is shorthand for a build, build_export and exec dependency.
		m.BuildDepends = append(m.BuildDepends, newDependency(d))
		m.BuildExportDepends = append(m.BuildExportDepends, newDependency(d))
		m.ExecDepends = append(m.ExecDepends, newDependency(d))
	}
	for _, d := range doc.RunDepends {
		// Format-1 <run_depend> maps onto build_export and exec dependencies.
		m.BuildExportDepends = append(m.BuildExportDepends, newDependency(d))
		m.ExecDepends = append(m.ExecDepends, newDependency(d))
	}
	for _, d := range doc.BuildDepends {
		m.BuildDepends = append(m.BuildDepends, newDependency(d))
	}
	for _, d := range doc.BuildtoolDepends {
		m.BuildtoolDepends = append(m.BuildtoolDepends, newDependency(d))
	}
	for _, d := range doc.BuildExportDepends {
		m.BuildExportDepends = append(m.BuildExportDepends, newDependency(d))
	}
	for _, d := range doc.BuildtoolExportDepends {
		m.BuildtoolExportDepends = append(m.BuildtoolExportDepends, newDependency(d))
	}
	for _, d := range doc.ExecDepends {
		m.ExecDepends = append(m.ExecDepends, newDependency(d))
	}
	for _, d := range doc.TestDepends {
		m.TestDepends = append(m.TestDepends, newDependency(d))
	}

	for _, d := range doc.GroupDepends {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, &InvalidManifestError{Path: path, Reason: "group_depend with empty group name"}
		}
		m.GroupDepends = append(m.GroupDepends, &GroupDependency{Name: name, Condition: d.Condition})
	}
	for _, g := range doc.MemberOfGroups {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			return nil, &InvalidManifestError{Path: path, Reason: "member_of_group with empty group name"}
		}
		m.MemberOfGroups = append(m.MemberOfGroups, &GroupMembership{Group: name, Condition: g.Condition})
	}

	for _, bt := range doc.Export.BuildTypes {
		value := strings.TrimSpace(bt.Value)
		if value == "" {
			return nil, &InvalidManifestError{Path: path, Reason: "build_type export with empty value"}
		}
		m.BuildTypeExports = append(m.BuildTypeExports, &BuildTypeExport{Value: value, Condition: bt.Condition})
	}

	for _, deps := range [][]*Dependency{
		m.BuildDepends, m.BuildtoolDepends, m.BuildExportDepends,
		m.BuildtoolExportDepends, m.ExecDepends, m.TestDepends,
	} {
		for _, d := range deps {
			if d.Name == "" {
				return nil, &InvalidManifestError{Path: path, Reason: "dependency with empty package name"}
			}
		}
	}

	return m, nil
}

func newDependency(d xmlDependency) *Dependency {
	return &Dependency{
		Name:       strings.TrimSpace(d.Name),
		Condition:  d.Condition,
		VersionLT:  d.VersionLT,
		VersionLTE: d.VersionLTE,
		VersionEQ:  d.VersionEQ,
		VersionGTE: d.VersionGTE,
		VersionGT:  d.VersionGT,
	}
}
