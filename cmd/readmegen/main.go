// Copyright © 2024 Meroxa, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command readmegen renders the README of a connector shipped with dbcommons.
// The README contains readmegen tags, e.g. <!-- readmegen:source.parameters.table -->,
// whose content is replaced with the generated text.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/conduitio/conduit-connector-dbcommons/cmd/readmegen/util"
	"github.com/conduitio/conduit-connector-dbcommons/connectors"
)

var (
	connector = flag.String("connector", "", "The connector to generate the README for, one of: "+strings.Join(connectors.Names(), ", "))
	readme    = flag.String("readme", "README.md", "Path of the README containing readmegen tags")
	version   = flag.String("version", "(devel)", "Version included in the specification")
)

func main() {
	flag.Parse()

	conn, err := connectors.New(*connector, *version)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	d, err := connectors.Dialect(*connector)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = util.Generate(conn, util.GenerateOptions{
		ReadmePath: *readme,
		Output:     os.Stdout,
		Dialect:    d,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
