// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"

	// verbose enables debug-level logging.
	verbose bool
	// cfgFile allows specifying a custom config file.
	cfgFile string

	// rootCmd is the base command when called without subcommands.
	rootCmd = &cobra.Command{
		Use:   "rospect",
		Short: "Inspect ROS packages in a workspace",
		Long: TitleStyle.Render("rospect") + SubtitleStyle.Render(" - ROS workspace package inspector") + `

rospect scans a directory tree for ROS packages, identifies each by its
package.xml manifest, classifies the build type and computes the direct
build, run and test dependencies, including dependency-group expansion
across the scanned workspace.

` + SubtitleStyle.Render("Examples:") + `
  rospect scan .                Identify all packages under the current directory
  rospect scan src -f yaml      Emit the package list as YAML
  rospect info src/my_pkg       Show one package in detail
  rospect config show           Show the resolved configuration`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/rospect/config.cue)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(configCmd)
}

// setupLogging routes log/slog through a charmbracelet handler on stderr so
// identification warnings and errors render consistently with CLI output.
func setupLogging() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	slog.SetDefault(slog.New(logger))
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
