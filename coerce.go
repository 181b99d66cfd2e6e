package attrib

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// typeName reports a short descriptor of the dynamic type of v for error
// reporting.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case []byte:
		return "bytes"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "int"
	case float32, float64:
		return "float"
	case json.Number:
		return "number"
	case time.Time:
		return "time"
	case []any:
		return "list"
	case map[string]any:
		return "map"
	case *Record:
		return "record"
	}
	return reflect.TypeOf(v).String()
}

// coerceScalar converts v into the canonical representation for kind. The
// failure code distinguishes malformed text (invalid_format) from plain type
// mismatches (coercion_failed). Strict mode accepts only same-type input.
func coerceScalar(kind Kind, v any, strict bool) (any, string, bool) {
	switch kind {
	case KindString:
		return coerceString(v, strict)
	case KindInt:
		return coerceInt(v, strict)
	case KindFloat:
		return coerceFloat(v, strict)
	case KindBool:
		return coerceBool(v, strict)
	case KindBytes:
		return coerceBytes(v, strict)
	case KindTime:
		return coerceTime(v, strict)
	}
	return nil, CodeCoercionFailed, false
}

func coerceString(v any, strict bool) (any, string, bool) {
	switch s := v.(type) {
	case string:
		return s, "", true
	case []byte:
		if strict {
			break
		}
		if !utf8.Valid(s) {
			return nil, CodeInvalidFormat, false
		}
		return string(s), "", true
	case json.Number:
		if strict {
			break
		}
		return s.String(), "", true
	case bool:
		if strict {
			break
		}
		return strconv.FormatBool(s), "", true
	case int:
		if strict {
			break
		}
		return strconv.FormatInt(int64(s), 10), "", true
	case int64:
		if strict {
			break
		}
		return strconv.FormatInt(s, 10), "", true
	case float64:
		if strict {
			break
		}
		return strconv.FormatFloat(s, 'g', -1, 64), "", true
	}
	return nil, CodeCoercionFailed, false
}

func coerceInt(v any, strict bool) (any, string, bool) {
	switch n := v.(type) {
	case int64:
		return n, "", true
	case int:
		return int64(n), "", true
	case int8:
		return int64(n), "", true
	case int16:
		return int64(n), "", true
	case int32:
		return int64(n), "", true
	case uint8:
		return int64(n), "", true
	case uint16:
		return int64(n), "", true
	case uint32:
		return int64(n), "", true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return nil, CodeCoercionFailed, false
		}
		return int64(n), "", true
	case uint64:
		if n > math.MaxInt64 {
			return nil, CodeCoercionFailed, false
		}
		return int64(n), "", true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, "", true
		}
		if !strict {
			if f, err := n.Float64(); err == nil {
				if i, ok := wholeToInt64(f); ok {
					return i, "", true
				}
			}
		}
		return nil, CodeCoercionFailed, false
	case float64:
		if strict {
			break
		}
		if i, ok := wholeToInt64(n); ok {
			return i, "", true
		}
		return nil, CodeCoercionFailed, false
	case float32:
		if strict {
			break
		}
		if i, ok := wholeToInt64(float64(n)); ok {
			return i, "", true
		}
		return nil, CodeCoercionFailed, false
	case string:
		if strict {
			break
		}
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, "", true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if i, ok := wholeToInt64(f); ok {
				return i, "", true
			}
		}
		return nil, CodeCoercionFailed, false
	}
	return nil, CodeCoercionFailed, false
}

// wholeToInt64 converts a fraction-free float in int64 range.
func wholeToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func coerceFloat(v any, strict bool) (any, string, bool) {
	switch n := v.(type) {
	case float64:
		return n, "", true
	case float32:
		return float64(n), "", true
	case int:
		return float64(n), "", true
	case int8:
		return float64(n), "", true
	case int16:
		return float64(n), "", true
	case int32:
		return float64(n), "", true
	case int64:
		return float64(n), "", true
	case uint:
		return float64(n), "", true
	case uint8:
		return float64(n), "", true
	case uint16:
		return float64(n), "", true
	case uint32:
		return float64(n), "", true
	case uint64:
		return float64(n), "", true
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, "", true
		}
		return nil, CodeCoercionFailed, false
	case string:
		if strict {
			break
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, "", true
		}
		return nil, CodeCoercionFailed, false
	}
	return nil, CodeCoercionFailed, false
}

func coerceBool(v any, strict bool) (any, string, bool) {
	switch b := v.(type) {
	case bool:
		return b, "", true
	case string:
		if strict {
			break
		}
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "1", "t", "true", "y", "yes", "on":
			return true, "", true
		case "0", "f", "false", "n", "no", "off":
			return false, "", true
		}
		return nil, CodeCoercionFailed, false
	case json.Number:
		if strict {
			break
		}
		switch b.String() {
		case "0":
			return false, "", true
		case "1":
			return true, "", true
		}
		return nil, CodeCoercionFailed, false
	case int:
		if strict {
			break
		}
		switch b {
		case 0:
			return false, "", true
		case 1:
			return true, "", true
		}
		return nil, CodeCoercionFailed, false
	case int64:
		if strict {
			break
		}
		switch b {
		case 0:
			return false, "", true
		case 1:
			return true, "", true
		}
		return nil, CodeCoercionFailed, false
	}
	return nil, CodeCoercionFailed, false
}

func coerceBytes(v any, strict bool) (any, string, bool) {
	switch b := v.(type) {
	case []byte:
		return b, "", true
	case string:
		if strict {
			break
		}
		raw, err := base64.StdEncoding.DecodeString(b)
		if err != nil {
			return nil, CodeInvalidFormat, false
		}
		return raw, "", true
	}
	return nil, CodeCoercionFailed, false
}

func coerceTime(v any, strict bool) (any, string, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, "", true
	case string:
		if strict {
			break
		}
		parsed, err := parseRFC3339(t)
		if err != nil {
			return nil, CodeInvalidFormat, false
		}
		return parsed, "", true
	}
	return nil, CodeCoercionFailed, false
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func formatRFC3339Canonical(t time.Time) string {
	// Normalize to UTC and format using RFC3339Nano (Go trims trailing zeros)
	return t.UTC().Format(time.RFC3339Nano)
}

func encodeBase64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// asSlice widens typed slices into []any. Strings and byte slices are not
// treated as lists.
func asSlice(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	switch v.(type) {
	case nil, string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AsNumber extracts a numeric value for ordering checks. Custom validators
// can use it to treat ints, floats and json.Number uniformly.
func AsNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// LengthOf measures sized values. Strings count runes, not bytes.
func LengthOf(v any) (int, bool) {
	switch s := v.(type) {
	case string:
		return utf8.RuneCountInString(s), true
	case []byte:
		return len(s), true
	case []any:
		return len(s), true
	case map[string]any:
		return len(s), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len(), true
	}
	return 0, false
}

// equalValue compares membership candidates, treating numerics uniformly.
func equalValue(a, b any) bool {
	if af, ok := AsNumber(a); ok {
		if bf, ok := AsNumber(b); ok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}
