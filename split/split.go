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

// Package split partitions the import query of a source into sub-queries
// over equal-width ranges of a numeric column.
package split

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/conduitio/conduit-connector-dbcommons/validate"
	"github.com/shopspring/decimal"
)

// Conditions is the token in the import query that is replaced with the
// predicate of a split.
const Conditions = "$CONDITIONS"

const (
	ParamImportQuery   = "importQuery"
	ParamBoundingQuery = "boundingQuery"
	ParamSplitBy       = "splitBy"
	ParamNumSplits     = "numSplits"
)

type Config struct {
	ImportQuery   string
	BoundingQuery string
	SplitBy       string
	NumSplits     int
}

// Validate reports all problems of the configuration. With a single split
// the import query runs as is and the other parameters are not needed.
func (c Config) Validate() error {
	var errs validate.Collector
	if strings.TrimSpace(c.ImportQuery) == "" {
		errs.Add(ParamImportQuery, errors.New("import query is required"))
	}
	if c.NumSplits < 1 {
		errs.Addf(ParamNumSplits, "number of splits must be at least 1, got %d", c.NumSplits)
	}
	if c.NumSplits > 1 {
		if c.ImportQuery != "" && !strings.Contains(c.ImportQuery, Conditions) {
			errs.Addf(ParamImportQuery, "import query must contain %s when number of splits is %d", Conditions, c.NumSplits)
		}
		if strings.TrimSpace(c.SplitBy) == "" {
			errs.Addf(ParamSplitBy, "split column is required when number of splits is %d", c.NumSplits)
		}
		if strings.TrimSpace(c.BoundingQuery) == "" {
			errs.Addf(ParamBoundingQuery, "bounding query is required when number of splits is %d", c.NumSplits)
		}
	}
	return errs.Err()
}

// Split is one partition of the import query.
type Split struct {
	Column string
	Lower  decimal.Decimal
	Upper  decimal.Decimal
	// UpperInclusive is only set on the last split of a range.
	UpperInclusive bool
	// IsNull selects the rows where Column is NULL.
	IsNull bool
	// Whole selects all rows, the import query is not partitioned.
	Whole bool
}

// Predicate returns the SQL condition selecting the rows of the split.
func (s Split) Predicate() string {
	switch {
	case s.Whole:
		return "1 = 1"
	case s.IsNull:
		return s.Column + " IS NULL"
	case s.UpperInclusive:
		return fmt.Sprintf("%s >= %s AND %s <= %s", s.Column, s.Lower, s.Column, s.Upper)
	default:
		return fmt.Sprintf("%s >= %s AND %s < %s", s.Column, s.Lower, s.Column, s.Upper)
	}
}

// Query returns the import query with the conditions token replaced by the
// predicate of the split.
func (s Split) Query(importQuery string) string {
	return strings.ReplaceAll(importQuery, Conditions, s.Predicate())
}

// Contains reports whether v falls into the range of the split. It is always
// false for null splits and always true for whole splits.
func (s Split) Contains(v decimal.Decimal) bool {
	switch {
	case s.Whole:
		return true
	case s.IsNull:
		return false
	case s.UpperInclusive:
		return v.GreaterThanOrEqual(s.Lower) && v.LessThanOrEqual(s.Upper)
	default:
		return v.GreaterThanOrEqual(s.Lower) && v.LessThan(s.Upper)
	}
}

func (s Split) String() string { return s.Predicate() }

// Calculate partitions [lower, upper] into at most n equal-width splits.
// Integral bounds are split at integral boundaries using exact arithmetic.
// Boundaries that coincide because the range is narrower than n are
// collapsed, so fewer than n splits may be returned.
func Calculate(lower, upper decimal.Decimal, n int, column string, integral bool) ([]Split, error) {
	if n < 1 {
		return nil, fmt.Errorf("number of splits must be at least 1, got %d", n)
	}
	if lower.GreaterThan(upper) {
		return nil, fmt.Errorf("lower bound %s is greater than upper bound %s", lower, upper)
	}

	var bounds []decimal.Decimal
	if integral {
		bounds = integralBoundaries(lower, upper, n)
	} else {
		bounds = decimalBoundaries(lower, upper, n)
	}

	// collapse duplicates, the boundaries are sorted
	distinct := bounds[:1]
	for _, b := range bounds[1:] {
		if !b.Equal(distinct[len(distinct)-1]) {
			distinct = append(distinct, b)
		}
	}
	if len(distinct) == 1 {
		return []Split{{Column: column, Lower: lower, Upper: upper, UpperInclusive: true}}, nil
	}

	splits := make([]Split, len(distinct)-1)
	for i := range splits {
		splits[i] = Split{
			Column:         column,
			Lower:          distinct[i],
			Upper:          distinct[i+1],
			UpperInclusive: i == len(splits)-1,
		}
	}
	return splits, nil
}

// integralBoundaries returns b_i = lower + floor((upper-lower)*i/n) for
// i in [0, n), followed by upper.
func integralBoundaries(lower, upper decimal.Decimal, n int) []decimal.Decimal {
	lo, hi := lower.BigInt(), upper.BigInt()
	width := new(big.Int).Sub(hi, lo)
	bigN := big.NewInt(int64(n))

	bounds := make([]decimal.Decimal, 0, n+1)
	for i := 0; i < n; i++ {
		b := new(big.Int).Mul(width, big.NewInt(int64(i)))
		b.Div(b, bigN)
		b.Add(b, lo)
		bounds = append(bounds, decimal.NewFromBigInt(b, 0))
	}
	return append(bounds, decimal.NewFromBigInt(hi, 0))
}

func decimalBoundaries(lower, upper decimal.Decimal, n int) []decimal.Decimal {
	width := upper.Sub(lower)
	bigN := decimal.NewFromInt(int64(n))

	bounds := make([]decimal.Decimal, 0, n+1)
	for i := 0; i < n; i++ {
		b := lower.Add(width.Mul(decimal.NewFromInt(int64(i))).Div(bigN))
		bounds = append(bounds, b)
	}
	return append(bounds, upper)
}

// Querier is implemented by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Plan computes the splits of a source. With a single split the bounding
// query is not executed. If both bounds are NULL a single split selecting
// the NULL values is returned.
func Plan(ctx context.Context, q Querier, cfg Config) ([]Split, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.NumSplits == 1 {
		return []Split{{Column: cfg.SplitBy, Whole: true}}, nil
	}

	var rawLower, rawUpper any
	if err := q.QueryRowContext(ctx, cfg.BoundingQuery).Scan(&rawLower, &rawUpper); err != nil {
		return nil, fmt.Errorf("failed to run bounding query: %w", err)
	}

	lower, lowerIntegral, lowerNull, err := parseBound(rawLower)
	if err != nil {
		return nil, fmt.Errorf("invalid lower bound: %w", err)
	}
	upper, upperIntegral, upperNull, err := parseBound(rawUpper)
	if err != nil {
		return nil, fmt.Errorf("invalid upper bound: %w", err)
	}
	switch {
	case lowerNull && upperNull:
		return []Split{{Column: cfg.SplitBy, IsNull: true}}, nil
	case lowerNull || upperNull:
		return nil, fmt.Errorf("bounding query returned a NULL bound: lower %v, upper %v", rawLower, rawUpper)
	}

	return Calculate(lower, upper, cfg.NumSplits, cfg.SplitBy, lowerIntegral && upperIntegral)
}

func parseBound(v any) (d decimal.Decimal, integral bool, isNull bool, err error) {
	switch v := v.(type) {
	case nil:
		return decimal.Decimal{}, false, true, nil
	case int64:
		return decimal.NewFromInt(v), true, false, nil
	case int32:
		return decimal.NewFromInt(int64(v)), true, false, nil
	case int:
		return decimal.NewFromInt(int64(v)), true, false, nil
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0), true, false, nil
	case float64:
		return decimal.NewFromFloat(v), false, false, nil
	case float32:
		return decimal.NewFromFloat32(v), false, false, nil
	case []byte:
		return parseBound(string(v))
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Decimal{}, false, false, fmt.Errorf("bound %q is not numeric", v)
		}
		return d, !strings.ContainsAny(v, ".eE"), false, nil
	default:
		return decimal.Decimal{}, false, false, fmt.Errorf("unsupported bound type %T", v)
	}
}
