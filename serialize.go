package attrib

import "context"

// Options shape serialization for one record type.
type Options struct {
	// Include lists the only field names to emit. Mutually exclusive with
	// Exclude.
	Include []string
	// Exclude lists field names to drop.
	Exclude []string
	// ByAlias emits serialization aliases instead of declared names.
	ByAlias bool
	// ExcludeUnset drops fields that were never explicitly assigned, such as
	// applied defaults.
	ExcludeUnset bool
	// NoRecurse emits this type's nested records as-is instead of descending
	// into them, whether they sit in a field directly or inside a list or
	// map.
	NoRecurse bool
	// Depth bounds recursion into nested records; 0 means unlimited. Records
	// beyond the budget are emitted as-is. Like NoRecurse, the budget is read
	// from the enclosing record's Options.
	Depth int
}

// OptionSet maps schema names to their Options. The empty name keys the
// defaults applied to types without an entry.
type OptionSet map[string]Options

// NewOptionSet validates per-type options. Declaring both Include and
// Exclude for one type is a ConfigurationError.
func NewOptionSet(opts map[string]Options) (OptionSet, error) {
	out := make(OptionSet, len(opts))
	for name, o := range opts {
		if len(o.Include) > 0 && len(o.Exclude) > 0 {
			return nil, configErrorf("serialize options for %q declare both include and exclude", name)
		}
		out[name] = o
	}
	return out, nil
}

func (os OptionSet) forSchema(name string) Options {
	if os == nil {
		return Options{}
	}
	if o, ok := os[name]; ok {
		return o
	}
	return os[""]
}

// serializeState rides the context so nested records reached through lists
// and maps keep the caller's options and depth. active holds the Options of
// the record being serialized, which govern recursion into its children.
type serializeState struct {
	opts   OptionSet
	depth  int
	active Options
}

func withSerializeState(ctx context.Context, st serializeState) context.Context {
	return context.WithValue(ctx, _ctxKeySerState, st)
}

func serializeStateFromContext(ctx context.Context) serializeState {
	st, _ := ctx.Value(_ctxKeySerState).(serializeState)
	return st
}

// Serialize renders rec into a map using the serializers registered for
// format. Field failures are collected into one AggregateError;
// configuration errors surface immediately and unwrapped.
func Serialize(ctx context.Context, rec *Record, format string, opts OptionSet) (map[string]any, error) {
	if rec == nil {
		return nil, configErrorf("nil record")
	}
	if format == "" {
		format = FormatNative
	}
	return serializeRecord(ctx, rec, format, opts, 0)
}

func serializeRecord(ctx context.Context, rec *Record, format string, opts OptionSet, depth int) (map[string]any, error) {
	o := opts.forSchema(rec.schema.name)
	include := nameSet(o.Include)
	exclude := nameSet(o.Exclude)
	ctx = withSerializeState(ctx, serializeState{opts: opts, depth: depth, active: o})

	out := make(map[string]any, len(rec.schema.fields))
	var details Details
	failFast := IsFailFast(ctx)
	for _, f := range rec.schema.fields {
		if len(include) > 0 {
			if !include[f.name] {
				continue
			}
		} else if exclude[f.name] {
			continue
		}
		if !rec.present[f.index] {
			continue
		}
		if o.ExcludeUnset && !rec.set[f.index] {
			continue
		}

		key := f.serializationKey(o.ByAlias)
		v := rec.values[f.index]
		if v == nil {
			out[key] = nil
			continue
		}

		if nested, ok := v.(*Record); ok {
			if o.NoRecurse || (o.Depth > 0 && depth+1 >= o.Depth) {
				out[key] = nested
				continue
			}
			sub, err := serializeRecord(ctx, nested, format, opts, depth+1)
			if err != nil {
				if isContractError(err) {
					return nil, err
				}
				details = AppendDetails(details, rebaseDetails(f.name, err)...)
				if failFast {
					return nil, &AggregateError{Record: rec.schema.name, Details: details}
				}
				continue
			}
			out[key] = sub
			continue
		}

		sv, err := f.adapter.Serialize(ctx, v, format)
		if err != nil {
			if isContractError(err) {
				return nil, err
			}
			details = AppendDetails(details, rebaseDetails(f.name, err)...)
			if failFast {
				return nil, &AggregateError{Record: rec.schema.name, Details: details}
			}
			continue
		}
		out[key] = sv
	}
	if len(details) > 0 {
		return nil, &AggregateError{Record: rec.schema.name, Details: details}
	}
	return out, nil
}

func nameSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

// ToMap renders the record in the native format with default options.
func (r *Record) ToMap(ctx context.Context) (map[string]any, error) {
	return Serialize(ctx, r, FormatNative, nil)
}
