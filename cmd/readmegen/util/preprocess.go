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
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrUnknownSection  = errors.New("unknown readmegen section")
	ErrMalformedTag    = errors.New("malformed readmegen tag")
	ErrUnclosedSection = errors.New("readmegen section not closed")
)

// sections maps the readmegen sections to the templates rendering them.
// Parameter sections render the merged parameters of the connector, the
// dialect sections describe the database the connector is built for.
var sections = map[string]string{
	"name":        `{{ title .specification.Name }}`,
	"summary":     `{{ .specification.Summary }}`,
	"description": `{{ .specification.Description }}`,
	"version":     `{{ .specification.Version }}`,
	"author":      `{{ .specification.Author }}`,

	"source.parameters.yaml":       `{{ template "parameters.yaml" args "specification" .specification "parameters" .sourceParams }}`,
	"source.parameters.table":      `{{ template "parameters.table" args "specification" .specification "parameters" .sourceParams }}`,
	"destination.parameters.yaml":  `{{ template "parameters.yaml" args "specification" .specification "parameters" .destinationParams }}`,
	"destination.parameters.table": `{{ template "parameters.table" args "specification" .specification "parameters" .destinationParams }}`,

	"dialect.driver":      "`{{ .driver }}`",
	"dialect.types.table": `{{ template "types.table" .types }}`,
}

var (
	openTag = regexp.MustCompile(`<!--\s*readmegen:([\w.]+)\s*-->`)
	// anyTag finds tags openTag doesn't accept.
	anyTag = regexp.MustCompile(`<!--\s*/?readmegen:`)
)

// section is the content between <!-- readmegen:tag --> and
// <!-- /readmegen:tag -->. Offsets are relative to the preprocessed text.
type section struct {
	tag string
	// start is the offset after the open tag.
	start int
	// end is the offset of the close tag, closeEnd the offset after it.
	end, closeEnd int
}

// Preprocess replaces the content of every readmegen section of a README with
// the template rendering it. Sections can't be nested. Errors report the line
// of the offending tag.
func Preprocess(readme string) (string, error) {
	var out strings.Builder
	rest, offset := readme, 0
	for {
		s, found, err := nextSection(rest)
		if err != nil {
			return "", fmt.Errorf("line %d: %w", lineOf(readme, offset+s.start), err)
		}
		if !found {
			out.WriteString(rest)
			return out.String(), nil
		}
		out.WriteString(rest[:s.start])
		out.WriteString(sections[s.tag])
		out.WriteString(rest[s.end:s.closeEnd])
		rest, offset = rest[s.closeEnd:], offset+s.closeEnd
	}
}

func nextSection(text string) (section, bool, error) {
	loc := openTag.FindStringSubmatchIndex(text)
	if loc == nil {
		if l := anyTag.FindStringIndex(text); l != nil {
			return section{start: l[0]}, false, ErrMalformedTag
		}
		return section{}, false, nil
	}
	s := section{tag: text[loc[2]:loc[3]], start: loc[1]}
	if _, ok := sections[s.tag]; !ok {
		return section{start: loc[0]}, false, fmt.Errorf("%w %q", ErrUnknownSection, s.tag)
	}

	closeTag := regexp.MustCompile(`<!--\s*/readmegen:` + regexp.QuoteMeta(s.tag) + `\s*-->`)
	c := closeTag.FindStringIndex(text[s.start:])
	if c == nil {
		return section{start: loc[0]}, false, fmt.Errorf("%w: %q", ErrUnclosedSection, s.tag)
	}
	s.end, s.closeEnd = s.start+c[0], s.start+c[1]
	if nested := anyTag.FindStringIndex(text[s.start:s.end]); nested != nil {
		return section{start: s.start + nested[0]}, false, fmt.Errorf("%w: tag inside section %q", ErrMalformedTag, s.tag)
	}
	return s, true, nil
}

func lineOf(text string, offset int) int {
	return strings.Count(text[:offset], "\n") + 1
}
