// SPDX-License-Identifier: MPL-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/rospect/rospect/internal/config"
	"github.com/rospect/rospect/internal/identify"
	"github.com/rospect/rospect/internal/scan"
)

var (
	scanFormat string

	scanCmd = &cobra.Command{
		Use:   "scan [path]",
		Short: "Identify all ROS packages under a directory",
		Long: `Walk a directory tree, identify every ROS package by its package.xml
manifest and report each package with its build type, version and direct
dependencies. Group dependencies are expanded against the packages found in
the same scan.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScan,
	}
)

func init() {
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "", "output format: table, json, yaml or toml")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	scanner := scan.New(identify.NewManifestCache(), cfg.SkipDirectories)
	batch, err := scanner.Scan(root)
	if err != nil {
		return err
	}

	report := scanReport{Packages: make([]packageReport, 0, len(batch))}
	for _, desc := range batch {
		report.Packages = append(report.Packages, newPackageReport(desc))
	}

	format := cfg.OutputFormat
	if scanFormat != "" {
		format = scanFormat
	}
	return renderReport(cmd.OutOrStdout(), report, format)
}
