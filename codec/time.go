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

package codec

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/conduitio/conduit-connector-dbcommons/schema"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	schema.DateLayout,
}

var timeOfDayLayouts = []string{
	"15:04:05.999999999",
	"15:04:05.999999999Z07:00",
	"15:04",
}

// NullTime scans time values from drivers that return time.Time as well as
// from drivers that return their textual representation.
type NullTime struct {
	Time  time.Time
	Valid bool
}

var _ sql.Scanner = (*NullTime)(nil)

func (n *NullTime) Scan(src any) error {
	if src == nil {
		n.Time, n.Valid = time.Time{}, false
		return nil
	}
	t, err := toTime(src)
	if err != nil {
		return err
	}
	n.Time, n.Valid = t, true
	return nil
}

// NullTimeOfDay scans TIME columns into a duration since midnight.
type NullTimeOfDay struct {
	Duration time.Duration
	Valid    bool
}

var _ sql.Scanner = (*NullTimeOfDay)(nil)

func (n *NullTimeOfDay) Scan(src any) error {
	if src == nil {
		n.Duration, n.Valid = 0, false
		return nil
	}
	d, err := toTimeOfDay(src)
	if err != nil {
		return err
	}
	n.Duration, n.Valid = d, true
	return nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", s)
}

func parseTimeOfDay(s string) (time.Duration, error) {
	for _, layout := range timeOfDayLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return timeOfDay(t), nil
		}
	}
	// some drivers render TIME as a full timestamp
	t, err := parseTime(s)
	if err != nil {
		return 0, fmt.Errorf("unrecognized time of day format %q", s)
	}
	return timeOfDay(t), nil
}

func timeOfDay(t time.Time) time.Duration {
	d := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
	return d.Truncate(time.Microsecond)
}

// dateOf returns midnight UTC of the calendar date of t in its own location.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// timestampOf normalizes t to UTC with microsecond precision. time.Time uses
// the proleptic Gregorian calendar, dates before the Gregorian cutover are
// kept as they are.
func timestampOf(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
