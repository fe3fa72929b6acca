// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rospect/rospect/internal/config"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage rospect configuration",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", labelStyle.Render("# resolved configuration"))
			enc := yaml.NewEncoder(out)
			defer enc.Close()
			return enc.Encode(map[string]any{
				"skip_directories": cfg.SkipDirectories,
				"output_format":    cfg.OutputFormat,
			})
		},
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, config.ConfigFileName))
			return nil
		},
	}
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
