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

// Package validate collects configuration errors, so that all problems of a
// configuration are reported at once.
package validate

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Error is a problem with a single configuration parameter.
type Error struct {
	Parameter string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("error validating %q: %v", e.Parameter, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Collector accumulates errors. The zero value is ready to use.
type Collector struct {
	err error
}

// Add records err for the parameter, nil errors are ignored.
func (c *Collector) Add(parameter string, err error) {
	if err == nil {
		return
	}
	c.err = multierr.Append(c.err, &Error{Parameter: parameter, Err: err})
}

// Addf records a formatted error for the parameter.
func (c *Collector) Addf(parameter string, format string, args ...any) {
	c.Add(parameter, fmt.Errorf(format, args...))
}

// Merge records all errors contained in err as they are.
func (c *Collector) Merge(err error) {
	c.err = multierr.Append(c.err, err)
}

// Err returns the combined error or nil.
func (c *Collector) Err() error { return c.err }

// Errors returns the parameter errors contained in err.
func Errors(err error) []*Error {
	var out []*Error
	for _, e := range multierr.Errors(err) {
		var ve *Error
		if errors.As(e, &ve) {
			out = append(out, ve)
		}
	}
	return out
}
