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

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/brenthuisman/nmlcc/collapse"
	"github.com/brenthuisman/nmlcc/instance"
	"github.com/brenthuisman/nmlcc/internal/xmltree"
	"github.com/brenthuisman/nmlcc/lems"
)

func newCollapseCmd() *cobra.Command {
	collapseCmd := &cobra.Command{
		Use:   "collapse",
		Short: "Collapse a LEMS ComponentType registry + instance fragment into a flat IR, optionally simplified.",
		RunE:  runCollapse,
	}
	collapseCmd.Flags().String("lems", "", "Path to the LEMS document declaring ComponentTypes.")
	collapseCmd.Flags().String("instance", "", "Path to the XML fragment describing the Component instance to lower.")
	collapseCmd.Flags().String("filter", "", "Parameter retention filter for the simplify pass (e.g. \"+*,-k\"). Empty skips simplify.")
	collapseCmd.Flags().Bool("use-name", false, "Seed the root instance's symbol namespace with its own id (or \"Unknown\" if it has none).")
	collapseCmd.MarkFlagRequired("lems")
	collapseCmd.MarkFlagRequired("instance")
	return collapseCmd
}

func runCollapse(cmd *cobra.Command, args []string) error {
	viper.BindPFlags(cmd.Flags())

	lemsPath := viper.GetString("lems")
	instPath := viper.GetString("instance")
	filter := viper.GetString("filter")
	useName := viper.GetBool("use-name")

	reg, err := loadRegistry(lemsPath)
	if err != nil {
		return fmt.Errorf("loading LEMS document %q: %w", lemsPath, err)
	}

	inst, err := loadInstance(reg, instPath)
	if err != nil {
		return fmt.Errorf("loading instance fragment %q: %w", instPath, err)
	}

	coll, err := collapse.From(inst, useName)
	if err != nil {
		return fmt.Errorf("collapse: %w", err)
	}
	glog.V(1).Infof("collapsed %d variables, %d transitions", len(coll.Variables), len(coll.Transitions))

	if filter != "" {
		coll, err = coll.Simplify(filter)
		if err != nil {
			return fmt.Errorf("simplify: %w", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(toJSON(coll))
}

func loadRegistry(path string) (*lems.Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	root, err := xmltree.Parse(f)
	if err != nil {
		return nil, err
	}
	return lems.ParseDocument(root)
}

func loadInstance(reg *lems.Registry, path string) (*instance.Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	root, err := xmltree.Parse(f)
	if err != nil {
		return nil, err
	}
	return instance.Build(reg, root)
}
