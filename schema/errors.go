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

package schema

import (
	"errors"
	"fmt"

	"github.com/conduitio/conduit-connector-dbcommons/sqltype"
)

var (
	ErrUnsupportedType = errors.New("unsupported SQL type")
	ErrSchemaMismatch  = errors.New("schema mismatch")
)

// UnsupportedTypeError is returned when a column has a SQL type that has no
// schema mapping and no dialect override.
type UnsupportedTypeError struct {
	Column           string
	Type             sqltype.Type
	DatabaseTypeName string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("column %q has unsupported SQL type %s (%s)", e.Column, e.Type, e.DatabaseTypeName)
}

func (e *UnsupportedTypeError) Unwrap() error { return ErrUnsupportedType }

// MismatchError is returned when a user supplied schema disagrees with the
// schema derived from the database.
type MismatchError struct {
	Field  string
	Reason string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("schema field %q: %s", e.Field, e.Reason)
}

func (e *MismatchError) Unwrap() error { return ErrSchemaMismatch }
