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
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/conduitio/conduit-connector-dbcommons/schema"
	"github.com/shopspring/decimal"
)

// Coerce converts a value read from the database into the representation of
// field f. Nil is returned unchanged.
func Coerce(f schema.Field, v any) (any, error) {
	if v == nil || f.Type == schema.TypeNull {
		return nil, nil
	}
	switch f.Logical {
	case schema.LogicalDecimal:
		return toDecimal(v)
	case schema.LogicalDate:
		t, err := toTime(v)
		if err != nil {
			return nil, err
		}
		return dateOf(t), nil
	case schema.LogicalTimeMicros:
		return toTimeOfDay(v)
	case schema.LogicalTimestampMicros:
		t, err := toTime(v)
		if err != nil {
			return nil, err
		}
		return timestampOf(t), nil
	}

	switch f.Type {
	case schema.TypeBool:
		return toBool(v)
	case schema.TypeInt:
		i, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		if i < math.MinInt32 || i > math.MaxInt32 {
			return nil, fmt.Errorf("value %d overflows int", i)
		}
		return int32(i), nil
	case schema.TypeLong:
		return toInt64(v)
	case schema.TypeFloat:
		f, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case schema.TypeDouble:
		return toFloat64(v)
	case schema.TypeString:
		return toString(v)
	case schema.TypeBytes:
		return toBytes(v)
	default:
		return nil, fmt.Errorf("unsupported field type %s", f.Type)
	}
}

func toBool(v any) (bool, error) {
	switch v := v.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	case []byte:
		// BIT(1) columns are returned as a single byte
		if len(v) == 1 && v[0] <= 1 {
			return v[0] == 1, nil
		}
		return strconv.ParseBool(string(v))
	}
	i, err := toInt64(v)
	if err != nil {
		return false, fmt.Errorf("cannot convert %T to bool", v)
	}
	return i != 0, nil
}

func toInt64(v any) (int64, error) {
	switch v := v.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", v)
		}
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", v)
		}
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case json.Number:
		return toInt64(string(v))
	case []byte:
		return toInt64(string(v))
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to integer", v)
		}
		return toInt64(d)
	case decimal.Decimal:
		if !v.Equal(v.Truncate(0)) {
			return 0, fmt.Errorf("value %s is not integral", v)
		}
		bi := v.BigInt()
		if !bi.IsInt64() {
			return 0, fmt.Errorf("value %s overflows int64", v)
		}
		return bi.Int64(), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to integer", v)
	}
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("value %v is not integral", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("value %v overflows int64", f)
	}
	return int64(f), nil
}

func toFloat64(v any) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case decimal.Decimal:
		f, _ := v.Float64()
		return f, nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	}
	i, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
	return float64(i), nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch v := v.(type) {
	case decimal.Decimal:
		return v, nil
	case decimal.NullDecimal:
		if !v.Valid {
			return decimal.Decimal{}, fmt.Errorf("cannot convert NULL to decimal")
		}
		return v.Decimal, nil
	case *big.Rat:
		// exact for rationals produced by decimal values
		d, err := decimal.NewFromString(v.FloatString(ratScale(v)))
		if err != nil {
			return decimal.Decimal{}, err
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case json.Number:
		return decimal.NewFromString(string(v))
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case []byte:
		return decimal.NewFromString(string(v))
	}
	i, err := toInt64(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("cannot convert %T to decimal", v)
	}
	return decimal.NewFromInt(i), nil
}

// ratScale returns the number of fractional digits needed to represent r
// exactly, capped for denominators that are not a power of ten.
func ratScale(r *big.Rat) int {
	denom := new(big.Int).Set(r.Denom())
	ten := big.NewInt(10)
	rem := new(big.Int)
	for scale := 0; scale < 38; scale++ {
		if denom.Cmp(big.NewInt(1)) == 0 {
			return scale
		}
		q, m := new(big.Int).QuoRem(denom, ten, rem)
		if m.Sign() != 0 {
			break
		}
		denom = q
	}
	return 38
}

func toString(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case time.Duration:
		return schema.FormatTimeOfDay(v), nil
	case decimal.Decimal:
		return v.String(), nil
	case fmt.Stringer:
		return v.String(), nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", v)
	}
}

func toBytes(v any) ([]byte, error) {
	switch v := v.(type) {
	case []byte:
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("cannot convert %T to bytes", v)
	}
}

func toTime(v any) (time.Time, error) {
	switch v := v.(type) {
	case time.Time:
		return v, nil
	case string:
		return parseTime(strings.TrimSpace(v))
	case []byte:
		return parseTime(string(v))
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to time", v)
	}
}

func toTimeOfDay(v any) (time.Duration, error) {
	switch v := v.(type) {
	case time.Duration:
		if v < 0 || v >= 24*time.Hour {
			return 0, fmt.Errorf("time of day %v out of range", v)
		}
		return v.Truncate(time.Microsecond), nil
	case time.Time:
		return timeOfDay(v), nil
	case string:
		return parseTimeOfDay(strings.TrimSpace(v))
	case []byte:
		return parseTimeOfDay(string(v))
	default:
		return 0, fmt.Errorf("cannot convert %T to time of day", v)
	}
}
