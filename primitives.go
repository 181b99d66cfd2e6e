package attrib

import (
	"context"
	"strconv"
	"strings"
)

// String returns an adapter for text values. Non-strict mode coerces numbers,
// booleans and UTF-8 byte slices to text.
func String() *Adapter { return &Adapter{kind: KindString} }

// Int returns an adapter for 64-bit integers. Non-strict mode accepts
// fraction-free floats and decimal strings.
func Int() *Adapter { return &Adapter{kind: KindInt} }

// IntBase returns an Int adapter whose string coercion parses in the given
// base (2..36, or 0 for Go prefix detection). Non-string input follows the
// plain Int rules.
func IntBase(base int) *Adapter {
	a := Int()
	return a.WithDeserializer(func(ctx context.Context, v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			out, code, converted := coerceScalar(KindInt, v, false)
			if !converted {
				d := newDetail(code, nil)
				d.Expected = "int"
				d.Got = typeName(v)
				return nil, Details{d}
			}
			return out, nil
		}
		i, err := strconv.ParseInt(strings.TrimSpace(s), base, 64)
		if err != nil {
			d := newDetail(CodeCoercionFailed, nil)
			d.Expected = "int"
			d.Got = typeName(v)
			d.Cause = err
			return nil, Details{d}
		}
		return i, nil
	})
}

// Float returns an adapter for 64-bit floats.
func Float() *Adapter { return &Adapter{kind: KindFloat} }

// Bool returns an adapter for booleans. Non-strict mode accepts the usual
// truthy/falsy strings and 0/1 numbers.
func Bool() *Adapter { return &Adapter{kind: KindBool} }

// Bytes returns an adapter for byte slices. Non-strict mode decodes base64
// text; the JSON serializer emits base64.
func Bytes() *Adapter { return &Adapter{kind: KindBytes} }

// Time returns an adapter for time.Time. Non-strict mode parses RFC3339
// strings; the JSON serializer emits canonical UTC RFC3339.
func Time() *Adapter { return &Adapter{kind: KindTime} }

// Any returns an adapter that passes values through untouched.
func Any() *Adapter { return &Adapter{kind: KindAny} }

// List returns an adapter for ordered sequences of elem. A nil elem means
// elements pass through untouched.
func List(elem *Adapter) *Adapter {
	if elem == nil {
		elem = Any()
	}
	return &Adapter{kind: KindList, elem: elem}
}

// Map returns an adapter for string-keyed maps whose values go through value.
func Map(value *Adapter) *Adapter {
	if value == nil {
		value = Any()
	}
	return &Adapter{kind: KindMap, value: value}
}

// Union returns an adapter that tries members in declared order and keeps the
// first that deserializes successfully.
func Union(members ...*Adapter) *Adapter {
	return &Adapter{kind: KindUnion, members: members}
}

// Ref returns an unresolved reference to a schema or adapter registered in
// the namespace at Build time. Using it before Build is a ConfigurationError.
func Ref(name string) *Adapter { return &Adapter{kind: KindRef, ref: name, name: name} }

// RecordOf returns an adapter that deserializes maps into records of s.
func RecordOf(s *Schema) *Adapter {
	return &Adapter{kind: KindRecord, schema: s, name: s.name}
}

// ---- Inline constraint sugar ----

// Min attaches a lower-bound check for numeric values.
func (a *Adapter) Min(min float64) *Adapter {
	return a.WithValidator(func(ctx context.Context, v any) error {
		f, ok := AsNumber(v)
		if !ok || f >= min {
			return nil
		}
		d := newDetail(CodeValueTooSmall, nil).withParams(map[string]any{"min": min, "got": v})
		return Details{d}
	})
}

// Max attaches an upper-bound check for numeric values.
func (a *Adapter) Max(max float64) *Adapter {
	return a.WithValidator(func(ctx context.Context, v any) error {
		f, ok := AsNumber(v)
		if !ok || f <= max {
			return nil
		}
		d := newDetail(CodeValueTooLarge, nil).withParams(map[string]any{"max": max, "got": v})
		return Details{d}
	})
}

// MinLen attaches a minimum-length check for sized values.
func (a *Adapter) MinLen(n int) *Adapter {
	return a.WithValidator(func(ctx context.Context, v any) error {
		ln, ok := LengthOf(v)
		if !ok || ln >= n {
			return nil
		}
		d := newDetail(CodeLengthTooShort, nil).withParams(map[string]any{"min_length": n, "got": ln})
		return Details{d}
	})
}

// MaxLen attaches a maximum-length check for sized values.
func (a *Adapter) MaxLen(n int) *Adapter {
	return a.WithValidator(func(ctx context.Context, v any) error {
		ln, ok := LengthOf(v)
		if !ok || ln <= n {
			return nil
		}
		d := newDetail(CodeLengthTooLong, nil).withParams(map[string]any{"max_length": n, "got": ln})
		return Details{d}
	})
}

// Choices restricts the typed value to the listed candidates.
func (a *Adapter) Choices(allowed ...any) *Adapter {
	candidates := append([]any(nil), allowed...)
	return a.WithValidator(func(ctx context.Context, v any) error {
		for _, c := range candidates {
			if equalValue(v, c) {
				return nil
			}
		}
		d := newDetail(CodeValidationFailed, nil).withParams(map[string]any{"choices": candidates, "got": v})
		d.Message = "value not in allowed choices"
		return Details{d}
	})
}
