// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd wires the nmlcc command-line surface: loading a LEMS registry
// and an instance fragment, collapsing, optionally simplifying, and
// printing the result.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute builds the root command and runs it against os.Args.
func Execute() error {
	rootCmd := &cobra.Command{
		Use:   "nmlcc",
		Short: "nmlcc lowers a LEMS ComponentType registry and instance into a flat, simplified symbolic IR",
	}

	cfgFile := rootCmd.PersistentFlags().String("config_file", "", "Path to a config file providing defaults for any flag below.")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if *cfgFile != "" {
			viper.SetConfigFile(*cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("reading config file: %w", err)
			}
		}
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		viper.AutomaticEnv()
		return nil
	}

	rootCmd.AddCommand(newCollapseCmd())

	return rootCmd.Execute()
}
