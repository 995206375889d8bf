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
	"regexp"
	"sort"

	"github.com/conduitio/conduit-commons/config"
	"github.com/conduitio/conduit-connector-dbcommons/validate"
	"github.com/conduitio/conduit-connector-protocol/cpluginv1"
)

var (
	ErrUnrecognizedParameter    = config.ErrUnrecognizedParameter
	ErrInvalidParameterValue    = config.ErrInvalidParameterValue
	ErrInvalidParameterType     = config.ErrInvalidParameterType
	ErrInvalidValidationType    = config.ErrInvalidValidationType
	ErrRequiredParameterMissing = config.ErrRequiredParameterMissing

	ErrLessThanValidationFail    = config.ErrLessThanValidationFail
	ErrGreaterThanValidationFail = config.ErrGreaterThanValidationFail
	ErrInclusionValidationFail   = config.ErrInclusionValidationFail
	ErrExclusionValidationFail   = config.ErrExclusionValidationFail
	ErrRegexValidationFail       = config.ErrRegexValidationFail
)

const (
	ParameterTypeString ParameterType = iota + 1
	ParameterTypeInt
	ParameterTypeFloat
	ParameterTypeBool
	ParameterTypeFile
	ParameterTypeDuration
)

type ParameterType config.ParameterType

func _() {
	// An "invalid array index" compiler error signifies that the constant values have changed.
	var cTypes [1]struct{}
	_ = cTypes[int(ParameterTypeString)-int(cpluginv1.ParameterTypeString)]
	_ = cTypes[int(ParameterTypeInt)-int(cpluginv1.ParameterTypeInt)]
	_ = cTypes[int(ParameterTypeFloat)-int(cpluginv1.ParameterTypeFloat)]
	_ = cTypes[int(ParameterTypeBool)-int(cpluginv1.ParameterTypeBool)]
	_ = cTypes[int(ParameterTypeFile)-int(cpluginv1.ParameterTypeFile)]
	_ = cTypes[int(ParameterTypeDuration)-int(cpluginv1.ParameterTypeDuration)]

	_ = cTypes[int(ParameterTypeString)-int(config.ParameterTypeString)]
	_ = cTypes[int(ParameterTypeInt)-int(config.ParameterTypeInt)]
	_ = cTypes[int(ParameterTypeFloat)-int(config.ParameterTypeFloat)]
	_ = cTypes[int(ParameterTypeBool)-int(config.ParameterTypeBool)]
	_ = cTypes[int(ParameterTypeFile)-int(config.ParameterTypeFile)]
	_ = cTypes[int(ParameterTypeDuration)-int(config.ParameterTypeDuration)]

	_ = cTypes[int(config.ValidationTypeRequired)-int(cpluginv1.ValidationTypeRequired)]
	_ = cTypes[int(config.ValidationTypeGreaterThan)-int(cpluginv1.ValidationTypeGreaterThan)]
	_ = cTypes[int(config.ValidationTypeLessThan)-int(cpluginv1.ValidationTypeLessThan)]
	_ = cTypes[int(config.ValidationTypeInclusion)-int(cpluginv1.ValidationTypeInclusion)]
	_ = cTypes[int(config.ValidationTypeExclusion)-int(cpluginv1.ValidationTypeExclusion)]
	_ = cTypes[int(config.ValidationTypeRegex)-int(cpluginv1.ValidationTypeRegex)]
}

// Validation is a builtin check of a parameter value, run by the adapters
// before the configuration reaches the connector.
type Validation interface {
	configValidation() config.Validation
}

type ValidationRequired struct{}

func (v ValidationRequired) configValidation() config.Validation {
	return config.ValidationRequired(v)
}

type ValidationLessThan struct {
	Value float64
}

func (v ValidationLessThan) configValidation() config.Validation {
	return config.ValidationLessThan{V: v.Value}
}

type ValidationGreaterThan struct {
	Value float64
}

func (v ValidationGreaterThan) configValidation() config.Validation {
	return config.ValidationGreaterThan{V: v.Value}
}

type ValidationInclusion struct {
	List []string
}

func (v ValidationInclusion) configValidation() config.Validation {
	return config.ValidationInclusion{List: v.List}
}

type ValidationExclusion struct {
	List []string
}

func (v ValidationExclusion) configValidation() config.Validation {
	return config.ValidationExclusion{List: v.List}
}

type ValidationRegex struct {
	Regex *regexp.Regexp
}

func (v ValidationRegex) configValidation() config.Validation {
	return config.ValidationRegex{Regex: v.Regex}
}

func convertValidations(validations []Validation) []cpluginv1.ParameterValidation {
	if validations == nil {
		return nil
	}
	out := make([]cpluginv1.ParameterValidation, len(validations))
	for i, v := range validations {
		val := v.configValidation()
		out[i] = cpluginv1.ParameterValidation{
			Type:  cpluginv1.ValidationType(val.Type()),
			Value: val.Value(),
		}
	}
	return out
}

// validator converts the parameters of a connector into their
// conduit-commons representation and validates configurations against them.
type validator map[string]Parameter

// Validate checks that every key in cfg is a known parameter, that required
// parameters are present and that values pass the type and builtin checks.
// All problems are reported at once, each as a *validate.Error naming the
// parameter, in the order of the parameter names.
func (v validator) Validate(cfg map[string]string) error {
	cfg = config.Config(cfg).Sanitize()
	params := v.configParameters()

	var errs validate.Collector
	for _, name := range sortedKeys(cfg) {
		if _, ok := params[name]; !ok {
			errs.Add(name, ErrUnrecognizedParameter)
		}
	}
	for _, name := range sortedKeys(params) {
		single := config.Config{}
		if val, ok := cfg[name]; ok {
			single[name] = val
		}
		errs.Add(name, single.Validate(config.Parameters{name: params[name]}))
	}
	return errs.Err()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplyDefaults returns a copy of cfg with the defaults of all parameters
// that are not set.
func (v validator) ApplyDefaults(cfg map[string]string) map[string]string {
	return config.Config(cfg).Sanitize().ApplyDefaults(v.configParameters())
}

func (v validator) configParameters() config.Parameters {
	params := make(config.Parameters, len(v))
	for name, p := range v {
		validations := make([]config.Validation, len(p.Validations))
		for i, val := range p.Validations {
			validations[i] = val.configValidation()
		}
		params[name] = config.Parameter{
			Default:     p.Default,
			Description: p.Description,
			Type:        config.ParameterType(p.Type),
			Validations: validations,
		}
	}
	return params
}
