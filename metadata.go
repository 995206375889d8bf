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
	"fmt"
	"strconv"
	"time"

	"github.com/conduitio/conduit-connector-protocol/cpluginv1"
)

const (
	// MetadataOpenCDCVersion is a Record.Metadata key for the version of the
	// OpenCDC format (e.g. "v1").
	MetadataOpenCDCVersion = cpluginv1.MetadataOpenCDCVersion
	// MetadataReadAt is a Record.Metadata key for the time when the record was
	// read from the database. The expected format is a unix timestamp in
	// nanoseconds.
	MetadataReadAt = cpluginv1.MetadataReadAt

	// MetadataSplit is a Record.Metadata key for the predicate of the split
	// the row was read from.
	MetadataSplit = "dbcommons.split"
	// MetadataPayloadFormat is a Record.Metadata key for the encoding of the
	// payload (structured, avro or kafkaconnect).
	MetadataPayloadFormat = "dbcommons.payload.format"
	// MetadataPayloadSchema is a Record.Metadata key for the Avro schema of the
	// payload.
	MetadataPayloadSchema = "dbcommons.payload.schema"
)

// SetOpenCDCVersion sets the metadata value for key MetadataOpenCDCVersion to
// the current version of OpenCDC used.
func (m Metadata) SetOpenCDCVersion() {
	m[MetadataOpenCDCVersion] = cpluginv1.OpenCDCVersion
}

// GetReadAt parses the value for key MetadataReadAt as a unix timestamp. If
// the value does not exist or the value is empty the function returns
// ErrMetadataFieldNotFound.
func (m Metadata) GetReadAt() (time.Time, error) {
	raw, err := m.getValue(MetadataReadAt)
	if err != nil {
		return time.Time{}, err
	}

	unixNano, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse value for %q: %w", MetadataReadAt, err)
	}

	return time.Unix(0, unixNano), nil
}

// SetReadAt sets the metadata value for key MetadataReadAt as a unix
// timestamp in nanoseconds.
func (m Metadata) SetReadAt(readAt time.Time) {
	m[MetadataReadAt] = strconv.FormatInt(readAt.UnixNano(), 10)
}

func (m Metadata) GetSplit() (string, error) {
	return m.getValue(MetadataSplit)
}

func (m Metadata) SetSplit(predicate string) {
	m[MetadataSplit] = predicate
}

func (m Metadata) GetPayloadFormat() (string, error) {
	return m.getValue(MetadataPayloadFormat)
}

func (m Metadata) SetPayloadFormat(format string) {
	m[MetadataPayloadFormat] = format
}

// GetPayloadSchema returns the Avro schema of the payload.
func (m Metadata) GetPayloadSchema() (string, error) {
	return m.getValue(MetadataPayloadSchema)
}

func (m Metadata) SetPayloadSchema(avroSchema string) {
	m[MetadataPayloadSchema] = avroSchema
}

// getValue returns the value for a specific key. If the value does not exist
// or is empty the function returns ErrMetadataFieldNotFound.
func (m Metadata) getValue(key string) (string, error) {
	str := m[key]
	if str == "" {
		return "", fmt.Errorf("failed to get value for %q: %w", key, ErrMetadataFieldNotFound)
	}
	return str, nil
}
