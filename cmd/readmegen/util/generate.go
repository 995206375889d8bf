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
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	dbcommons "github.com/conduitio/conduit-connector-dbcommons"
	"github.com/conduitio/conduit-connector-dbcommons/dialect"
	"github.com/conduitio/conduit-connector-dbcommons/sqltype"
)

//go:embed templates/*
var templates embed.FS

type GenerateOptions struct {
	// ReadmePath is the README containing readmegen tags.
	ReadmePath string
	Output     io.Writer
	// Dialect of the connector, renders the dialect sections. May be nil.
	Dialect dialect.Dialect
}

// Generate renders the README of the connector, replacing the content of
// readmegen tags.
func Generate(conn dbcommons.Connector, opts GenerateOptions) error {
	readme, err := os.ReadFile(opts.ReadmePath)
	if err != nil {
		return fmt.Errorf("could not read readme file %v: %w", opts.ReadmePath, err)
	}
	readmeTmpl, err := Preprocess(string(readme))
	if err != nil {
		return fmt.Errorf("could not preprocess readme file %v: %w", opts.ReadmePath, err)
	}

	t := template.New("readme").Funcs(sprig.TxtFuncMap()).Funcs(funcMap)
	t = template.Must(t.ParseFS(templates, "templates/*.tmpl"))
	t, err = t.Parse(readmeTmpl)
	if err != nil {
		return fmt.Errorf("could not parse readme file %v: %w", opts.ReadmePath, err)
	}

	data := map[string]any{"driver": "", "types": []typeMapping(nil)}
	if opts.Dialect != nil {
		data["driver"] = opts.Dialect.DriverName()
		data["types"] = typeMappings(opts.Dialect)
	}
	if conn.NewSpecification != nil {
		data["specification"] = conn.NewSpecification()
	}
	if conn.NewSource != nil {
		data["sourceParams"] = conn.NewSource().Parameters()
	}
	if conn.NewDestination != nil {
		data["destinationParams"] = conn.NewDestination().Parameters()
	}
	return t.Execute(opts.Output, data)
}

// typeMapping is a row of the type table of a dialect.
type typeMapping struct {
	SQLType string
	Field   string
}

// typeMappings maps every SQL type with the schema mapper of d, including its
// overrides. Types without a mapping are reported as unsupported.
func typeMappings(d dialect.Dialect) []typeMapping {
	types := sqltype.Types()
	slices.SortFunc(types, func(a, b sqltype.Type) int { return strings.Compare(a.String(), b.String()) })

	m := dialect.Mapper(d)
	out := make([]typeMapping, 0, len(types))
	for _, t := range types {
		field := "unsupported"
		if f, err := m.MapColumn(sqltype.ColumnType{Name: t.String(), Type: t}); err == nil {
			field = f.TypeString()
		}
		out = append(out, typeMapping{SQLType: t.String(), Field: field})
	}
	return out
}

var funcMap = template.FuncMap{
	"formatCommentYAML": formatCommentYAML,
	"args":              args,
	"parameterNames":    parameterNames,
	"parameterType":     parameterType,
	"required":          dbcommons.Parameter.Required,
}

func args(kvs ...any) (map[string]any, error) {
	if len(kvs)%2 != 0 {
		return nil, errors.New("args requires even number of arguments")
	}
	m := make(map[string]any)
	for i := 0; i < len(kvs); i += 2 {
		s, ok := kvs[i].(string)
		if !ok {
			return nil, errors.New("even args must be strings")
		}
		m[s] = kvs[i+1]
	}
	return m, nil
}

func parameterNames(params map[string]dbcommons.Parameter) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func parameterType(t dbcommons.ParameterType) string {
	switch t {
	case dbcommons.ParameterTypeInt:
		return "int"
	case dbcommons.ParameterTypeFloat:
		return "float"
	case dbcommons.ParameterTypeBool:
		return "bool"
	case dbcommons.ParameterTypeFile:
		return "file"
	case dbcommons.ParameterTypeDuration:
		return "duration"
	default:
		return "string"
	}
}

// formatCommentYAML takes a markdown text and formats it as a comment in a YAML
// file. The comment is prefixed with the given indent level and "# ". The lines
// are wrapped at 80 characters.
func formatCommentYAML(text string, indent int) string {
	const (
		prefix  = "# "
		lineLen = 80
	)

	// keep paragraphs, join the lines within a paragraph
	paragraphs := strings.Split(text, "\n\n")
	for i, p := range paragraphs {
		paragraphs[i] = strings.ReplaceAll(p, "\n", " ")
	}

	comment := formatMultiline(strings.Join(paragraphs, "\n"), strings.Repeat(" ", indent)+prefix, lineLen)
	// remove first indent and last new line
	return comment[indent : len(comment)-1]
}

func formatMultiline(input string, prefix string, maxLineLen int) string {
	textLen := maxLineLen - len(prefix)

	var out strings.Builder
	for _, line := range strings.Split(input, "\n") {
		var current string
		for _, word := range strings.Fields(line) {
			if current != "" && len(current)+1+len(word) > textLen {
				out.WriteString(prefix + current + "\n")
				current = ""
			}
			if current != "" {
				current += " "
			}
			current += word
		}
		out.WriteString(prefix + current + "\n")
	}
	return out.String()
}
