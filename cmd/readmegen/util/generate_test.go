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

package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dbcommons "github.com/conduitio/conduit-connector-dbcommons"
	"github.com/conduitio/conduit-connector-dbcommons/dialect/sqlite"
	"github.com/matryer/is"
)

type testSource struct {
	dbcommons.UnimplementedSource
}

func (testSource) Parameters() map[string]dbcommons.Parameter {
	return map[string]dbcommons.Parameter{
		"table": {
			Description: "Table to read from.",
			Type:        dbcommons.ParameterTypeString,
			Validations: []dbcommons.Validation{dbcommons.ValidationRequired{}},
		},
		"fetchSize": {
			Default:     "1000",
			Description: "Number of rows fetched at once.",
			Type:        dbcommons.ParameterTypeInt,
		},
	}
}

func TestGenerate(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "README.md")
	is.NoErr(os.WriteFile(path, []byte(`# <!-- readmegen:name -->old<!-- /readmegen:name -->

<!-- readmegen:source.parameters.table -->
old table
<!-- /readmegen:source.parameters.table -->
`), 0o600))

	var out bytes.Buffer
	err := Generate(dbcommons.Connector{
		NewSpecification: func() dbcommons.Specification {
			return dbcommons.Specification{Name: "sqlite"}
		},
		NewSource: func() dbcommons.Source { return testSource{} },
	}, GenerateOptions{ReadmePath: path, Output: &out})
	is.NoErr(err)

	got := out.String()
	is.True(strings.HasPrefix(got, "# <!-- readmegen:name -->Sqlite<!-- /readmegen:name -->"))
	is.True(strings.Contains(got, "| `fetchSize` | int | `1000` | false | Number of rows fetched at once. |\n"))
	is.True(strings.Contains(got, "| `table` | string |  | true | Table to read from. |\n"))
	is.True(!strings.Contains(got, "old table"))
}

func TestGenerate_Dialect(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "README.md")
	is.NoErr(os.WriteFile(path, []byte(`Driver: <!-- readmegen:dialect.driver --><!-- /readmegen:dialect.driver -->

<!-- readmegen:dialect.types.table --><!-- /readmegen:dialect.types.table -->
`), 0o600))

	var out bytes.Buffer
	err := Generate(dbcommons.Connector{}, GenerateOptions{
		ReadmePath: path,
		Output:     &out,
		Dialect:    sqlite.New(),
	})
	is.NoErr(err)

	got := out.String()
	is.True(strings.Contains(got, "Driver: <!-- readmegen:dialect.driver -->`sqlite`<!-- /readmegen:dialect.driver -->"))
	is.True(strings.Contains(got, "| `BIGINT` | long |\n"))
	is.True(strings.Contains(got, "| `TIMESTAMP` | timestamp-micros |\n"))
	is.True(strings.Contains(got, "| `JAVA_OBJECT` | unsupported |\n"))
}

func TestFormatCommentYAML(t *testing.T) {
	is := is.New(t)

	got := formatCommentYAML("Short line.\n\nSecond paragraph that is long enough to be wrapped at the line length of eighty characters.", 4)
	is.Equal(got, "# Short line.\n"+
		"    # Second paragraph that is long enough to be wrapped at the line length of\n"+
		"    # eighty characters.")
}
