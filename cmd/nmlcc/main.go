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

// Command nmlcc lowers a LEMS ComponentType registry plus one instance
// fragment into a flat, single-namespace Collapsed IR, optionally running
// the parameter-retention + constant-propagation simplify pass before
// printing the result as JSON.
package main

import (
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/brenthuisman/nmlcc/cmd/nmlcc/cmd"
)

func main() {
	flag.Parse() // parses glog's -v/-logtostderr flags
	defer glog.Flush()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
