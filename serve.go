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
	"errors"
	"fmt"
	"os"

	"github.com/conduitio/conduit-connector-protocol/cpluginv1"
	"github.com/conduitio/conduit-connector-protocol/cpluginv1/server"
	"github.com/rs/zerolog"
)

// envLogLevel is the environment variable Conduit uses to pass the log level
// to a standalone connector.
const envLogLevel = "CONDUIT_LOG_LEVEL"

// Serve starts the plugin and takes care of its whole lifecycle by blocking
// until the plugin can safely stop running. Any fixable errors will be output
// to os.Stderr and the process will exit with a status code of 1. Serve will
// panic for unexpected conditions where a user's fix is unknown.
//
// It is essential that nothing gets written to stdout or stderr before this
// function is called, as the first output is used to perform the initial
// handshake.
//
// Plugins should call Serve in their main() functions.
func Serve(c Connector) {
	err := serve(c)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error running plugin: %+v", err)
		os.Exit(1)
	}
}

func serve(c Connector) error {
	initStandaloneModeLogger(connectorLogLevel())

	if c.NewSpecification == nil {
		return errors.New("Connector.NewSpecification is a required field")
	}
	if c.NewSource == nil {
		c.NewSource = func() Source { return nil }
	}
	if c.NewDestination == nil {
		c.NewDestination = func() Destination { return nil }
	}

	return server.Serve(
		func() cpluginv1.SpecifierPlugin {
			return NewSpecifierPlugin(c.NewSpecification(), c.NewSource(), c.NewDestination())
		},
		func() cpluginv1.SourcePlugin { return NewSourcePlugin(c.NewSource()) },
		func() cpluginv1.DestinationPlugin { return NewDestinationPlugin(c.NewDestination()) },
	)
}

// connectorLogLevel returns the log level to be used by the connector. It
// defaults to TRACE, logs get filtered by Conduit.
func connectorLogLevel() zerolog.Level {
	l, err := zerolog.ParseLevel(os.Getenv(envLogLevel))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.TraceLevel
	}
	return l
}
