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

package connection

import (
	dbcommons "github.com/conduitio/conduit-connector-dbcommons"
)

// Parameters returns the connection parameters shared by sources and
// destinations.
func Parameters() map[string]dbcommons.Parameter {
	return map[string]dbcommons.Parameter{
		ParamHost: {
			Description: "Host of the database server.",
			Type:        dbcommons.ParameterTypeString,
		},
		ParamPort: {
			Description: "Port of the database server, 0 selects the default port of the database.",
			Default:     "0",
			Type:        dbcommons.ParameterTypeInt,
		},
		ParamDatabase: {
			Description: "Name of the database.",
			Type:        dbcommons.ParameterTypeString,
		},
		ParamUser: {
			Description: "User used to connect to the database.",
			Type:        dbcommons.ParameterTypeString,
		},
		ParamPassword: {
			Description: "Password used to connect to the database.",
			Type:        dbcommons.ParameterTypeString,
		},
		ParamConnectionString: {
			Description: "Connection string passed to the driver as is. Overrides host, port, database, user, password and connectionArguments.",
			Type:        dbcommons.ParameterTypeString,
		},
		ParamConnectionArguments: {
			Description: "Additional driver arguments as a list of key=value pairs separated by ';'.",
			Type:        dbcommons.ParameterTypeString,
		},
		ParamDriverPath: {
			Description: "Path of a Go plugin exporting the database/sql driver as symbol 'Driver'.",
			Type:        dbcommons.ParameterTypeFile,
		},
		ParamInitQueries: {
			Description: "Queries separated by ';' that are executed on every new connection.",
			Type:        dbcommons.ParameterTypeString,
		},
	}
}
