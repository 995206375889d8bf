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
	"errors"
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestPreprocess(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{{
		name: "no sections",
		in:   "# SQLite\n\nplain text",
		want: "# SQLite\n\nplain text",
	}, {
		name: "single section",
		in:   "<!-- readmegen:name --> old <!-- /readmegen:name -->",
		want: "<!-- readmegen:name -->{{ title .specification.Name }}<!-- /readmegen:name -->",
	}, {
		name: "whitespace in tags",
		in:   "<!--readmegen:dialect.driver   -->sqlite<!--   /readmegen:dialect.driver-->",
		want: "<!--readmegen:dialect.driver   -->`{{ .driver }}`<!--   /readmegen:dialect.driver-->",
	}, {
		name: "type table between parameter tables",
		in: `## Types

<!-- readmegen:dialect.types.table -->
| old |
<!-- /readmegen:dialect.types.table -->

## Source

<!-- readmegen:source.parameters.table --><!-- /readmegen:source.parameters.table -->
`,
		want: `## Types

<!-- readmegen:dialect.types.table -->{{ template "types.table" .types }}<!-- /readmegen:dialect.types.table -->

## Source

<!-- readmegen:source.parameters.table -->{{ template "parameters.table" args "specification" .specification "parameters" .sourceParams }}<!-- /readmegen:source.parameters.table -->
`,
	}}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			got, err := Preprocess(tc.in)
			is.NoErr(err)
			is.Equal(got, tc.want)
		})
	}
}

func TestPreprocess_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		in      string
		wantErr error
		line    string
	}{{
		name:    "close tag missing",
		in:      "<!-- readmegen:name --> old",
		wantErr: ErrUnclosedSection,
		line:    "line 1: ",
	}, {
		name:    "close tag of another section",
		in:      "text\n<!-- readmegen:name --> old <!-- /readmegen:version -->",
		wantErr: ErrUnclosedSection,
		line:    "line 2: ",
	}, {
		name:    "close tag not terminated",
		in:      "<!-- readmegen:name --> old <!-- /readmegen:name",
		wantErr: ErrUnclosedSection,
		line:    "line 1: ",
	}, {
		name:    "unknown section",
		in:      "\n\n<!-- readmegen:dialect.placeholders --><!-- /readmegen:dialect.placeholders -->",
		wantErr: ErrUnknownSection,
		line:    "line 3: ",
	}, {
		name:    "open tag not terminated",
		in:      "<!-- readmegen:name",
		wantErr: ErrMalformedTag,
		line:    "line 1: ",
	}, {
		name:    "nested sections",
		in:      "<!-- readmegen:name -->\n<!-- readmegen:version --><!-- /readmegen:version --><!-- /readmegen:name -->",
		wantErr: ErrMalformedTag,
		line:    "line 2: ",
	}}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			_, err := Preprocess(tc.in)
			is.True(errors.Is(err, tc.wantErr))
			is.True(strings.HasPrefix(err.Error(), tc.line))
		})
	}
}
