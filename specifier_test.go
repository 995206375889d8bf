// Copyright © 2022 Meroxa, Inc.
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

package dbcommons

import (
	"context"
	"errors"
	"testing"

	"github.com/conduitio/conduit-connector-dbcommons/validate"
	"github.com/conduitio/conduit-connector-protocol/cpluginv1"
	"github.com/matryer/is"
)

func TestSpecifier_NilSource(t *testing.T) {
	is := is.New(t)
	// ensure that having a connector without a source still works
	p := NewSpecifierPlugin(Specification{}, nil, UnimplementedDestination{})
	_, err := p.Specify(context.Background(), cpluginv1.SpecifierSpecifyRequest{})
	is.NoErr(err)
}

func TestSpecifier_NilDestination(t *testing.T) {
	is := is.New(t)
	// ensure that having a connector without a destination still works
	p := NewSpecifierPlugin(Specification{}, UnimplementedSource{}, nil)
	_, err := p.Specify(context.Background(), cpluginv1.SpecifierSpecifyRequest{})
	is.NoErr(err)
}

type paramSource struct {
	UnimplementedSource
}

func (paramSource) Parameters() map[string]Parameter {
	return map[string]Parameter{
		"importQuery": {
			Description: "Query that selects the rows.",
			Type:        ParameterTypeString,
			Validations: []Validation{ValidationRequired{}},
		},
	}
}

func TestSpecifier_Parameters(t *testing.T) {
	is := is.New(t)

	p := NewSpecifierPlugin(Specification{Name: "postgres", Version: "v0.1.0"}, paramSource{}, nil)
	resp, err := p.Specify(context.Background(), cpluginv1.SpecifierSpecifyRequest{})
	is.NoErr(err)

	is.Equal(resp.Name, "postgres")
	is.Equal(resp.Version, "v0.1.0")

	importQuery, ok := resp.SourceParams["importQuery"]
	is.True(ok)
	is.True(importQuery.Required)
	is.Equal(importQuery.Type, cpluginv1.ParameterTypeString)
	is.Equal(len(importQuery.Validations), 1)

	// adapter parameters are part of the specification
	_, ok = resp.SourceParams[configSourceRatePerSecond]
	is.True(ok)
	batchSize, ok := resp.DestinationParams[configDestinationBatchSize]
	is.True(ok)
	is.Equal(batchSize.Default, "1")
	is.True(!batchSize.Required)
}

type badDefaultDestination struct {
	UnimplementedDestination
}

func (badDefaultDestination) Parameters() map[string]Parameter {
	return map[string]Parameter{
		"transactionIsolationLevel": {
			Default:     "TRANSACTION_SNAPSHOT",
			Type:        ParameterTypeString,
			Validations: []Validation{ValidationInclusion{List: []string{"TRANSACTION_NONE", "TRANSACTION_READ_COMMITTED"}}},
		},
	}
}

func TestSpecifier_InvalidDefault(t *testing.T) {
	is := is.New(t)

	defer func() {
		r := recover()
		err, ok := r.(error)
		is.True(ok)
		is.True(errors.Is(err, ErrInclusionValidationFail))
		errs := validate.Errors(err)
		is.Equal(len(errs), 1)
		is.Equal(errs[0].Parameter, "transactionIsolationLevel")
	}()
	NewSpecifierPlugin(Specification{Name: "mysql"}, nil, badDefaultDestination{})
	t.Fatal("expected panic")
}

func TestParameter_Required(t *testing.T) {
	is := is.New(t)

	is.True(Parameter{Validations: []Validation{ValidationGreaterThan{0}, ValidationRequired{}}}.Required())
	is.True(!Parameter{Validations: []Validation{ValidationGreaterThan{0}}}.Required())
	is.True(!Parameter{}.Required())
}
