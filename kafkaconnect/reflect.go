// Copyright © 2023 Meroxa, Inc.
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

package kafkaconnect

import (
	"fmt"
	"reflect"
	"strings"
)

// Reflect uses reflection to extract a kafka connect compatible schema from
// v. It supports structs of scalar fields, which is what source blocks are
// made of. Nil values yield a nil schema.
func Reflect(v any) *Schema {
	if v == nil {
		return nil // untyped nil
	}
	return reflectType(reflect.TypeOf(v))
}

func reflectType(t reflect.Type) *Schema {
	switch t.Kind() {
	case reflect.Bool:
		return &Schema{Type: TypeBoolean}
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64, reflect.Uint32: // uints might overflow int64, but we take the risk
		return &Schema{Type: TypeInt64}
	case reflect.Int32, reflect.Uint16:
		return &Schema{Type: TypeInt32}
	case reflect.Int16, reflect.Uint8:
		return &Schema{Type: TypeInt16}
	case reflect.Int8:
		return &Schema{Type: TypeInt8}
	case reflect.Float32:
		return &Schema{Type: TypeFloat}
	case reflect.Float64:
		return &Schema{Type: TypeDouble}
	case reflect.String:
		return &Schema{Type: TypeString}
	case reflect.Pointer:
		s := reflectType(t.Elem())
		s.Optional = true // pointers can be nil
		return s
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return &Schema{Type: TypeBytes, Optional: true}
		}
	case reflect.Struct:
		s := &Schema{Type: TypeStruct}
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			name, ok := jsonFieldName(sf)
			if !ok {
				continue // skip this field
			}
			fs := reflectType(sf.Type)
			fs.Field = name
			s.Fields = append(s.Fields, *fs)
		}
		return s
	}
	panic(fmt.Errorf("unsupported type: %v", t))
}

func jsonFieldName(sf reflect.StructField) (string, bool) {
	if !sf.IsExported() {
		return "", false
	}
	jsonTag := strings.Split(sf.Tag.Get("json"), ",")[0] // ignore tag options (omitempty)
	if jsonTag == "-" {
		return "", false
	}
	if jsonTag != "" {
		return jsonTag, true
	}
	return sf.Name, true
}
