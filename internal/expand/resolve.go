package expand

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Resolve walks a dot-separated path through nested maps.
// The second return value is false when any segment is missing or
// the value at that step is not a map.
func Resolve(ctx map[string]any, path string) (any, bool) {
	var cur any = ctx
	for _, seg := range strings.Split(path, ".") {
		next, ok := field(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// field looks up a single key in a map-shaped value
func field(v any, key string) (any, bool) {
	switch m := v.(type) {
	case map[string]any:
		val, ok := m[key]
		return val, ok
	case map[string]string:
		val, ok := m[key]
		return val, ok
	}

	rv, ok := stringKeyedMap(v)
	if !ok {
		return nil, false
	}
	val := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
	if !val.IsValid() {
		return nil, false
	}
	return val.Interface(), true
}

// stringKeyedMap reports whether v is any map type keyed by a string kind
func stringKeyedMap(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return reflect.Value{}, false
	}
	return rv, true
}

// Stringify converts a resolved value to its interpolated form.
// Absent values, nil, maps and lists all render as the empty string.
func Stringify(v any, ok bool) string {
	if !ok || v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.FormatInt(int64(val), 10)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return formatFloat(float64(val), 32)
	case float64:
		return formatFloat(val, 64)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if f, err := val.Float64(); err == nil {
			return formatFloat(f, 64)
		}
		return val.String()
	case []byte:
		return string(val)
	}

	// Named scalar types such as `type Hours float64`
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return formatFloat(rv.Float(), 32)
	case reflect.Float64:
		return formatFloat(rv.Float(), 64)
	}
	return ""
}

// formatFloat produces the shortest round-trip decimal, switching to
// exponent form outside [1e-6, 1e21) like ECMAScript Number#toString
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(f, 'e', -1, bitSize)
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}

// asList returns the items of an iteration source, or false when the
// value is not an ordered list
func asList(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []map[string]any:
		items := make([]any, len(list))
		for i, item := range list {
			items[i] = item
		}
		return items, true
	case []map[string]string:
		items := make([]any, len(list))
		for i, item := range list {
			items[i] = item
		}
		return items, true
	case []byte:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// merge builds the per-item context: outer fields overlaid by item fields
func merge(outer map[string]any, item any) map[string]any {
	merged := make(map[string]any, len(outer)+8)
	for k, v := range outer {
		merged[k] = v
	}

	switch fields := item.(type) {
	case map[string]any:
		for k, v := range fields {
			merged[k] = v
		}
	case map[string]string:
		for k, v := range fields {
			merged[k] = v
		}
	default:
		if rv, ok := stringKeyedMap(item); ok {
			iter := rv.MapRange()
			for iter.Next() {
				merged[iter.Key().String()] = iter.Value().Interface()
			}
		}
	}
	return merged
}
