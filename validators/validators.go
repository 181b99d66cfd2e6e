// Package validators provides composable checks for adapter pipelines.
//
// Every validator follows the attrib contract: it receives an already-typed
// value and returns attrib.Details on failure. Combinators honor the
// fail-fast flag carried by the context.
package validators

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	attrib "github.com/attribkit/attrib"
)

func detail(code string, params map[string]any) attrib.Detail {
	return attrib.Detail{Code: code, Message: attrib.DetailMessage(code, params), Params: params}
}

// And runs validators in order, collecting every failure unless the context
// requests fail-fast.
func And(vs ...attrib.Validator) attrib.Validator {
	return func(ctx context.Context, v any) error {
		var details attrib.Details
		for _, check := range vs {
			if check == nil {
				continue
			}
			if err := check(ctx, v); err != nil {
				ds, ok := attrib.AsDetails(err)
				if !ok {
					return err
				}
				details = attrib.AppendDetails(details, ds...)
				if attrib.IsFailFast(ctx) {
					return details
				}
			}
		}
		if len(details) > 0 {
			return details
		}
		return nil
	}
}

// Or accepts the value as soon as one validator passes. When every attempt
// fails, a single validation_failed Detail carries all attempt errors.
func Or(vs ...attrib.Validator) attrib.Validator {
	return func(ctx context.Context, v any) error {
		if len(vs) == 0 {
			return nil
		}
		attempts := make([]string, 0, len(vs))
		for _, check := range vs {
			if check == nil {
				continue
			}
			err := check(ctx, v)
			if err == nil {
				return nil
			}
			attempts = append(attempts, err.Error())
		}
		if len(attempts) == 0 {
			return nil
		}
		d := detail(attrib.CodeValidationFailed, map[string]any{"attempts": attempts})
		d.Message = "no alternative accepted the value"
		return attrib.Details{d}
	}
}

// Not inverts v, failing with msg when v passes.
func Not(v attrib.Validator, msg string) attrib.Validator {
	return func(ctx context.Context, val any) error {
		if err := v(ctx, val); err != nil {
			return nil
		}
		d := detail(attrib.CodeValidationFailed, nil)
		if msg != "" {
			d.Message = msg
		}
		return attrib.Details{d}
	}
}

// Optional passes nil through and applies v to everything else.
func Optional(v attrib.Validator) attrib.Validator {
	return func(ctx context.Context, val any) error {
		if val == nil {
			return nil
		}
		return v(ctx, val)
	}
}

func bound(code string, params map[string]any, ok func(float64) bool) attrib.Validator {
	return func(ctx context.Context, v any) error {
		f, isNum := attrib.AsNumber(v)
		if !isNum || ok(f) {
			return nil
		}
		p := map[string]any{"got": v}
		for k, pv := range params {
			p[k] = pv
		}
		return attrib.Details{detail(code, p)}
	}
}

// Gte requires value >= min.
func Gte(min float64) attrib.Validator {
	return bound(attrib.CodeValueTooSmall, map[string]any{"min": min}, func(f float64) bool { return f >= min })
}

// Gt requires value > min.
func Gt(min float64) attrib.Validator {
	return bound(attrib.CodeValueTooSmall, map[string]any{"min": min, "exclusive": true}, func(f float64) bool { return f > min })
}

// Lte requires value <= max.
func Lte(max float64) attrib.Validator {
	return bound(attrib.CodeValueTooLarge, map[string]any{"max": max}, func(f float64) bool { return f <= max })
}

// Lt requires value < max.
func Lt(max float64) attrib.Validator {
	return bound(attrib.CodeValueTooLarge, map[string]any{"max": max, "exclusive": true}, func(f float64) bool { return f < max })
}

// Range requires min <= value <= max.
func Range(min, max float64) attrib.Validator {
	return And(Gte(min), Lte(max))
}

// MinLength requires at least n elements (runes for strings).
func MinLength(n int) attrib.Validator {
	return func(ctx context.Context, v any) error {
		ln, ok := attrib.LengthOf(v)
		if !ok || ln >= n {
			return nil
		}
		return attrib.Details{detail(attrib.CodeLengthTooShort, map[string]any{"min_length": n, "got": ln})}
	}
}

// MaxLength requires at most n elements (runes for strings).
func MaxLength(n int) attrib.Validator {
	return func(ctx context.Context, v any) error {
		ln, ok := attrib.LengthOf(v)
		if !ok || ln <= n {
			return nil
		}
		return attrib.Details{detail(attrib.CodeLengthTooLong, map[string]any{"max_length": n, "got": ln})}
	}
}

// Length requires min <= len <= max.
func Length(min, max int) attrib.Validator {
	return And(MinLength(min), MaxLength(max))
}

// Pattern requires string values to match expr, a Go regular expression.
// Malformed expressions panic at construction time.
func Pattern(expr string) attrib.Validator {
	re := regexp.MustCompile(expr)
	return func(ctx context.Context, v any) error {
		s, ok := v.(string)
		if !ok || re.MatchString(s) {
			return nil
		}
		d := detail(attrib.CodeInvalidFormat, map[string]any{"pattern": expr, "got": s})
		d.Message = fmt.Sprintf("value does not match %s", expr)
		return attrib.Details{d}
	}
}

// In restricts the value to the listed candidates.
func In(choices ...any) attrib.Validator {
	candidates := append([]any(nil), choices...)
	return func(ctx context.Context, v any) error {
		for _, c := range candidates {
			if equalCandidate(v, c) {
				return nil
			}
		}
		d := detail(attrib.CodeValidationFailed, map[string]any{"choices": candidates, "got": v})
		d.Message = "value not in allowed choices"
		return attrib.Details{d}
	}
}

// NotIn rejects the listed candidates.
func NotIn(choices ...any) attrib.Validator {
	return Not(In(choices...), "value is in the rejected set")
}

// NonBlank requires a string with at least one non-whitespace rune.
func NonBlank() attrib.Validator {
	return func(ctx context.Context, v any) error {
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) != "" {
			return nil
		}
		return attrib.Details{detail(attrib.CodeLengthTooShort, map[string]any{"min_length": 1, "got": 0})}
	}
}

func equalCandidate(a, b any) bool {
	if af, ok := attrib.AsNumber(a); ok {
		bf, ok := attrib.AsNumber(b)
		return ok && af == bf
	}
	return reflect.DeepEqual(a, b)
}
