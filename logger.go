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

package dbcommons

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

// Logger returns the logger stored in the context. If there is no logger in
// the context, the logger initialized by Serve is returned, or a disabled
// logger when the plugin is not served.
func Logger(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// initStandaloneModeLogger sets the default context logger. Conduit collects
// everything written to stderr and parses it as JSON.
func initStandaloneModeLogger(level zerolog.Level) {
	logger := zerolog.New(os.Stderr).
		Level(level).
		With().
		Timestamp().
		Logger()
	zerolog.DefaultContextLogger = &logger
}
