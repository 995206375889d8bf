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

// Package generic is a dialect for any database/sql driver. It relies on the
// ANSI defaults and needs the connection string to be configured explicitly.
package generic

import (
	"errors"
	"strconv"

	"github.com/conduitio/conduit-connector-dbcommons/dialect"
)

// BindVar is the placeholder style of a driver.
type BindVar string

const (
	BindQuestion BindVar = "?"  // ?
	BindDollar   BindVar = "$"  // $1
	BindAt       BindVar = "@p" // @p1
	BindColon    BindVar = ":"  // :1
)

type Dialect struct {
	dialect.Base
	driver  string
	bindVar BindVar
}

func New(driverName string, bindVar BindVar) *Dialect {
	if bindVar == "" {
		bindVar = BindQuestion
	}
	return &Dialect{driver: driverName, bindVar: bindVar}
}

func (d *Dialect) Name() string       { return d.driver }
func (d *Dialect) DriverName() string { return d.driver }

func (*Dialect) ConnectionString(dialect.Params) (string, error) {
	return "", errors.New("the generic dialect needs an explicit connection string")
}

func (d *Dialect) Placeholder(i int) string {
	if d.bindVar == BindQuestion {
		return "?"
	}
	return string(d.bindVar) + strconv.Itoa(i)
}

func (d *Dialect) TableExistsQuery(table string) (string, []any) {
	return dialect.InformationSchemaTableExists(table, d.Placeholder, "")
}
