package attrib

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Kind identifies the shape an Adapter handles.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindBytes
	KindTime
	KindList
	KindMap
	KindUnion
	KindRecord
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindUnion:
		return "union"
	case KindRecord:
		return "record"
	case KindRef:
		return "ref"
	}
	return "unknown"
}

// Format names for serializer selection. Formats without a registered
// serializer fall back to the native representation.
const (
	FormatNative = "native"
	FormatJSON   = "json"
)

// DefaultMaxDepth bounds reference resolution during Build.
const DefaultMaxDepth = 16

// Deserializer converts raw input into a typed value.
type Deserializer func(ctx context.Context, v any) (any, error)

// Serializer converts a typed value into an output representation.
type Serializer func(ctx context.Context, v any) (any, error)

// Validator checks an already-typed value and returns Details on failure.
type Validator func(ctx context.Context, v any) error

// Namespace resolves references by name during Build. Values must be
// *Adapter or *Schema.
type Namespace map[string]any

// Adapter is the unit pipeline {deserialize, validate, serialize} for one
// shape. Configure an Adapter fully before building or sharing it; once built
// it must be treated as immutable.
type Adapter struct {
	kind   Kind
	name   string
	strict bool

	elem    *Adapter   // list element
	value   *Adapter   // map value
	members []*Adapter // union alternatives, in declared order
	schema  *Schema    // record shape
	ref     string     // reference name, resolved at Build

	deserializer Deserializer
	validator    Validator
	serializers  map[string]Serializer

	built  atomic.Bool
	mu     sync.Mutex
	target *Adapter // resolved reference target, published by Build
}

// Kind reports the shape this adapter handles.
func (a *Adapter) Kind() Kind { return a.kind }

// Name returns the display name: the explicit name when set, else the kind.
func (a *Adapter) Name() string {
	if a.name != "" {
		return a.name
	}
	return a.kind.String()
}

// Named sets the display name used in configuration errors.
func (a *Adapter) Named(name string) *Adapter {
	a.name = name
	return a
}

// Strict disables cross-type coercion for this adapter and everything below
// it in the pipeline.
func (a *Adapter) Strict() *Adapter {
	a.strict = true
	return a
}

// WithDeserializer replaces the built-in coercion with fn.
func (a *Adapter) WithDeserializer(fn Deserializer) *Adapter {
	a.deserializer = fn
	return a
}

// WithSerializer registers fn for the given format name.
func (a *Adapter) WithSerializer(format string, fn Serializer) *Adapter {
	if a.serializers == nil {
		a.serializers = map[string]Serializer{}
	}
	a.serializers[format] = fn
	return a
}

// WithValidator appends v to the adapter's validator chain. Earlier validators
// run first; all of them run unless the context requests fail-fast.
func (a *Adapter) WithValidator(v Validator) *Adapter {
	prev := a.validator
	if prev == nil {
		a.validator = v
		return a
	}
	a.validator = func(ctx context.Context, val any) error {
		var details Details
		if err := prev(ctx, val); err != nil {
			if isContractError(err) {
				return err
			}
			details = AppendDetails(details, detailsOf(err)...)
			if IsFailFast(ctx) {
				return details
			}
		}
		if err := v(ctx, val); err != nil {
			if isContractError(err) {
				return err
			}
			details = AppendDetails(details, detailsOf(err)...)
		}
		if len(details) > 0 {
			return details
		}
		return nil
	}
	return a
}

// Build resolves references against ns and marks the adapter ready. It is
// idempotent and safe for concurrent use; racing builders may compute
// redundantly but only one result is published. maxDepth bounds reference
// chains; values <= 0 select DefaultMaxDepth.
func (a *Adapter) Build(ns Namespace, maxDepth int) error {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return a.build(ns, maxDepth, map[*Adapter]bool{})
}

func (a *Adapter) build(ns Namespace, depth int, visiting map[*Adapter]bool) error {
	if a.built.Load() || visiting[a] {
		return nil
	}
	if depth <= 0 {
		return configErrorf("adapter %s: reference resolution exceeded max depth", a.Name())
	}
	visiting[a] = true

	var target *Adapter
	switch a.kind {
	case KindRef:
		resolved, ok := ns[a.ref]
		if !ok {
			ce := configErrorf("unresolved reference %q", a.ref)
			ce.Hint = "register the schema or adapter in the namespace before Build"
			return ce
		}
		switch rv := resolved.(type) {
		case *Adapter:
			if err := rv.build(ns, depth-1, visiting); err != nil {
				return err
			}
			target = rv
		case *Schema:
			target = RecordOf(rv)
			if err := target.build(ns, depth-1, visiting); err != nil {
				return err
			}
		default:
			return configErrorf("namespace entry %q is %T, want *Adapter or *Schema", a.ref, resolved)
		}
	case KindList:
		if err := a.elem.build(ns, depth-1, visiting); err != nil {
			return err
		}
	case KindMap:
		if err := a.value.build(ns, depth-1, visiting); err != nil {
			return err
		}
	case KindUnion:
		for _, m := range a.members {
			if err := m.build(ns, depth-1, visiting); err != nil {
				return err
			}
		}
	case KindRecord:
		for _, f := range a.schema.fields {
			if err := f.adapter.build(ns, depth-1, visiting); err != nil {
				return err
			}
		}
	}

	// First publish wins; redundant results from racing builders are discarded.
	a.mu.Lock()
	if !a.built.Load() {
		a.target = target
		a.built.Store(true)
	}
	a.mu.Unlock()
	return nil
}

// resolved follows reference targets. It fails when a reference is used
// before Build resolved it.
func (a *Adapter) resolved() (*Adapter, error) {
	if a.kind != KindRef {
		return a, nil
	}
	if !a.built.Load() || a.target == nil {
		ce := configErrorf("reference %q used before build", a.ref)
		ce.Hint = "call Build with a namespace containing the target"
		return nil, ce
	}
	return a.target.resolved()
}

// CheckType reports whether v is already this adapter's typed representation.
// Containers check element-wise.
func (a *Adapter) CheckType(v any) bool {
	ad, err := a.resolved()
	if err != nil {
		return false
	}
	if ad != a {
		return ad.CheckType(v)
	}
	switch a.kind {
	case KindAny:
		return true
	case KindString:
		_, ok := v.(string)
		return ok
	case KindInt:
		_, ok := v.(int64)
		return ok
	case KindFloat:
		_, ok := v.(float64)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindBytes:
		_, ok := v.([]byte)
		return ok
	case KindTime:
		_, ok := v.(time.Time)
		return ok
	case KindList:
		items, ok := v.([]any)
		if !ok {
			return false
		}
		for _, it := range items {
			if !a.elem.CheckType(it) {
				return false
			}
		}
		return true
	case KindMap:
		m, ok := v.(map[string]any)
		if !ok {
			return false
		}
		for _, mv := range m {
			if !a.value.CheckType(mv) {
				return false
			}
		}
		return true
	case KindUnion:
		for _, m := range a.members {
			if m.CheckType(v) {
				return true
			}
		}
		return false
	case KindRecord:
		rec, ok := v.(*Record)
		return ok && rec.schema == a.schema
	}
	return false
}

// matchesWireNumber reports whether v is a decoder-produced json.Number that
// the numeric kinds admit under strict rules. Wire numbers carry no type of
// their own, so strict handling treats them as already matching.
func (a *Adapter) matchesWireNumber(v any) bool {
	ad, err := a.resolved()
	if err != nil {
		return false
	}
	n, ok := v.(json.Number)
	if !ok {
		return false
	}
	switch ad.kind {
	case KindInt:
		_, err := n.Int64()
		return err == nil
	case KindFloat:
		_, err := n.Float64()
		return err == nil
	case KindUnion:
		for _, m := range ad.members {
			if m.matchesWireNumber(n) {
				return true
			}
		}
	}
	return false
}

// Deserialize converts raw input into the adapter's typed value. Containers
// recurse element-wise and report element failures with index path segments.
func (a *Adapter) Deserialize(ctx context.Context, v any) (any, error) {
	return a.deserialize(ctx, v, a.strict)
}

func (a *Adapter) deserialize(ctx context.Context, v any, strict bool) (any, error) {
	ad, err := a.resolved()
	if err != nil {
		return nil, err
	}
	if ad != a {
		return ad.deserialize(ctx, v, strict || ad.strict)
	}
	strict = strict || a.strict

	if a.deserializer != nil {
		out, derr := a.deserializer(ctx, v)
		if derr != nil {
			if ds, ok := AsDetails(derr); ok {
				return nil, ds
			}
			if isContractError(derr) {
				return nil, derr
			}
			d := newDetail(CodeCoercionFailed, nil)
			d.Expected = a.kind.String()
			d.Got = typeName(v)
			d.Cause = derr
			return nil, Details{d}
		}
		return out, nil
	}

	switch a.kind {
	case KindAny:
		return v, nil
	case KindString, KindInt, KindFloat, KindBool, KindBytes, KindTime:
		out, code, ok := coerceScalar(a.kind, v, strict)
		if !ok {
			d := newDetail(code, nil)
			d.Expected = a.kind.String()
			d.Got = typeName(v)
			return nil, Details{d}
		}
		return out, nil
	case KindList:
		return a.deserializeList(ctx, v, strict)
	case KindMap:
		return a.deserializeMap(ctx, v, strict)
	case KindUnion:
		return a.deserializeUnion(ctx, v, strict)
	case KindRecord:
		return a.deserializeRecord(ctx, v)
	}
	return v, nil
}

func (a *Adapter) deserializeList(ctx context.Context, v any, strict bool) (any, error) {
	items, ok := asSlice(v)
	if !ok {
		d := newDetail(CodeInvalidType, nil)
		d.Expected = "list"
		d.Got = typeName(v)
		return nil, Details{d}
	}
	out := make([]any, len(items))
	var details Details
	failFast := IsFailFast(ctx)
	for i, it := range items {
		ev, err := a.elem.deserialize(ctx, it, strict)
		if err != nil {
			if isContractError(err) {
				return nil, err
			}
			details = AppendDetails(details, rebaseDetails(Index(i), err)...)
			if failFast {
				return nil, details
			}
			continue
		}
		out[i] = ev
	}
	if len(details) > 0 {
		return nil, details
	}
	return out, nil
}

func (a *Adapter) deserializeMap(ctx context.Context, v any, strict bool) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		d := newDetail(CodeInvalidType, nil)
		d.Expected = "map"
		d.Got = typeName(v)
		return nil, Details{d}
	}
	out := make(map[string]any, len(m))
	var details Details
	failFast := IsFailFast(ctx)
	for _, k := range sortedKeys(m) {
		mv, err := a.value.deserialize(ctx, m[k], strict)
		if err != nil {
			if isContractError(err) {
				return nil, err
			}
			details = AppendDetails(details, rebaseDetails(k, err)...)
			if failFast {
				return nil, details
			}
			continue
		}
		out[k] = mv
	}
	if len(details) > 0 {
		return nil, details
	}
	return out, nil
}

// deserializeUnion tries members in declared order and keeps the first
// success. When every member fails, the attempt errors are carried in Params
// for diagnostics.
func (a *Adapter) deserializeUnion(ctx context.Context, v any, strict bool) (any, error) {
	attempts := make([]string, 0, len(a.members))
	for _, m := range a.members {
		out, err := m.deserialize(ctx, v, strict)
		if err == nil {
			return out, nil
		}
		if isContractError(err) {
			return nil, err
		}
		attempts = append(attempts, m.Name()+": "+err.Error())
	}
	d := newDetail(CodeCoercionFailed, nil).withParams(map[string]any{"attempts": attempts})
	d.Expected = a.Name()
	d.Got = typeName(v)
	return nil, Details{d}
}

func (a *Adapter) deserializeRecord(ctx context.Context, v any) (any, error) {
	if rec, ok := v.(*Record); ok && rec.schema == a.schema {
		return rec, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		d := newDetail(CodeInvalidType, nil)
		d.Expected = a.schema.name
		d.Got = typeName(v)
		return nil, Details{d}
	}
	cfg := configFromContext(ctx)
	cfg.FailFast = cfg.FailFast || IsFailFast(ctx)
	rec, err := Deserialize(ctx, a.schema, m, cfg)
	if err != nil {
		if isContractError(err) {
			return nil, err
		}
		ds, _ := AsDetails(err)
		return nil, ds
	}
	return rec, nil
}

// Validate runs validators against an already-typed value. Containers recurse
// element-wise before the adapter's own validator chain runs.
func (a *Adapter) Validate(ctx context.Context, v any) error {
	ad, err := a.resolved()
	if err != nil {
		return err
	}
	if ad != a {
		return ad.Validate(ctx, v)
	}

	var details Details
	failFast := IsFailFast(ctx)

	switch a.kind {
	case KindList:
		if items, ok := v.([]any); ok {
			for i, it := range items {
				if err := a.elem.Validate(ctx, it); err != nil {
					if isContractError(err) {
						return err
					}
					details = AppendDetails(details, rebaseDetails(Index(i), err)...)
					if failFast {
						return details
					}
				}
			}
		}
	case KindMap:
		if m, ok := v.(map[string]any); ok {
			for _, k := range sortedKeys(m) {
				if err := a.value.Validate(ctx, m[k]); err != nil {
					if isContractError(err) {
						return err
					}
					details = AppendDetails(details, rebaseDetails(k, err)...)
					if failFast {
						return details
					}
				}
			}
		}
	case KindUnion:
		for _, m := range a.members {
			if m.CheckType(v) {
				if err := m.Validate(ctx, v); err != nil {
					if isContractError(err) {
						return err
					}
					details = AppendDetails(details, detailsOf(err)...)
					if failFast {
						return details
					}
				}
				break
			}
		}
	case KindRecord:
		if rec, ok := v.(*Record); ok {
			if err := validateRecord(ctx, rec); err != nil {
				if isContractError(err) {
					return err
				}
				details = AppendDetails(details, detailsOf(err)...)
				if failFast {
					return details
				}
			}
		}
	}

	if a.validator != nil {
		if err := a.validator(ctx, v); err != nil {
			if isContractError(err) {
				return err
			}
			details = AppendDetails(details, detailsOf(err)...)
		}
	}
	if len(details) > 0 {
		return details
	}
	return nil
}

// Adapt deserializes then validates in one step.
func (a *Adapter) Adapt(ctx context.Context, v any) (any, error) {
	out, err := a.Deserialize(ctx, v)
	if err != nil {
		return nil, err
	}
	if err := a.Validate(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Serialize converts a typed value into the representation registered for
// format. Formats without a registered serializer get the built-in
// conversion; unknown formats fall back to the native representation.
func (a *Adapter) Serialize(ctx context.Context, v any, format string) (any, error) {
	ad, err := a.resolved()
	if err != nil {
		return nil, err
	}
	if ad != a {
		return ad.Serialize(ctx, v, format)
	}
	if s, ok := a.serializers[format]; ok {
		out, serr := s(ctx, v)
		if serr != nil {
			if ds, ok := AsDetails(serr); ok {
				return nil, ds
			}
			d := newDetail(CodeInvalidFormat, nil)
			d.Cause = serr
			return nil, Details{d}
		}
		return out, nil
	}
	if v == nil {
		return nil, nil
	}

	switch a.kind {
	case KindList:
		items, ok := v.([]any)
		if !ok {
			return v, nil
		}
		out := make([]any, len(items))
		for i, it := range items {
			sv, err := a.elem.Serialize(ctx, it, format)
			if err != nil {
				return nil, rebaseDetails(Index(i), err)
			}
			out[i] = sv
		}
		return out, nil
	case KindMap:
		m, ok := v.(map[string]any)
		if !ok {
			return v, nil
		}
		out := make(map[string]any, len(m))
		for _, k := range sortedKeys(m) {
			sv, err := a.value.Serialize(ctx, m[k], format)
			if err != nil {
				return nil, rebaseDetails(k, err)
			}
			out[k] = sv
		}
		return out, nil
	case KindUnion:
		for _, m := range a.members {
			if m.CheckType(v) {
				return m.Serialize(ctx, v, format)
			}
		}
		return v, nil
	case KindRecord:
		rec, ok := v.(*Record)
		if !ok {
			return v, nil
		}
		st := serializeStateFromContext(ctx)
		// recursion is governed by the enclosing record's options
		o := st.active
		if o.NoRecurse || (o.Depth > 0 && st.depth+1 >= o.Depth) {
			return rec, nil
		}
		return serializeRecord(ctx, rec, format, st.opts, st.depth+1)
	case KindTime:
		t, ok := v.(time.Time)
		if ok && format == FormatJSON {
			return formatRFC3339Canonical(t), nil
		}
		return v, nil
	case KindBytes:
		b, ok := v.([]byte)
		if ok && format == FormatJSON {
			return encodeBase64(b), nil
		}
		return v, nil
	}
	return v, nil
}
