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

package source

import (
	"fmt"

	dbcommons "github.com/conduitio/conduit-connector-dbcommons"
	"github.com/goccy/go-json"
)

// Position identifies the last row read by a source: the index of its split
// and the number of rows read from that split.
type Position struct {
	Split int   `json:"split"`
	Row   int64 `json:"row"`
}

// ParsePosition parses a position produced by Position.ToRecordPosition. An
// empty position is the start of the first split.
func ParsePosition(p dbcommons.Position) (Position, error) {
	var pos Position
	if len(p) == 0 {
		return pos, nil
	}
	if err := json.Unmarshal(p, &pos); err != nil {
		return Position{}, fmt.Errorf("invalid position %q: %w", p, err)
	}
	if pos.Split < 0 || pos.Row < 0 {
		return Position{}, fmt.Errorf("invalid position %q: negative index", p)
	}
	return pos, nil
}

func (p Position) ToRecordPosition() dbcommons.Position {
	b, err := json.Marshal(p)
	if err != nil {
		// a struct of two integers always marshals
		panic(err)
	}
	return b
}
