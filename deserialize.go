package attrib

import "context"

// DeserializeConfig controls one engine run.
type DeserializeConfig struct {
	// FailFast stops at the first Detail instead of collecting all of them.
	FailFast bool
	// ByName looks input keys up by declared field name only, ignoring
	// aliases.
	ByName bool
	// PreValidated marks input as already validated; values are type-cast
	// but validators do not run again.
	PreValidated bool
	// IgnoreExtras accepts unknown input keys instead of reporting them.
	IgnoreExtras bool
}

// Deserialize converts a raw map into a record of s. Field failures are
// collected into one AggregateError unless FailFast is set; configuration
// errors surface immediately and unwrapped. The config propagates through
// nested record adapters.
func Deserialize(ctx context.Context, s *Schema, raw map[string]any, cfg DeserializeConfig) (*Record, error) {
	if s == nil {
		return nil, configErrorf("nil schema")
	}
	if raw == nil {
		d := newDetail(CodeInvalidType, nil)
		d.Expected = s.name
		d.Got = "null"
		return nil, &AggregateError{Record: s.name, Details: Details{d}}
	}
	if cfg.FailFast {
		ctx = WithFailFast(ctx, true)
	}
	ctx = withConfig(ctx, cfg)

	rec := s.NewRecord()
	var details Details

	if !cfg.IgnoreExtras {
		for _, k := range sortedKeys(raw) {
			if _, ok := s.fieldForKey(k, cfg.ByName); ok {
				continue
			}
			details = AppendDetails(details, newDetail(CodeUnknownField, Path{k}))
			if cfg.FailFast {
				return nil, &AggregateError{Record: s.name, Details: details}
			}
		}
	}

	for _, f := range s.fields {
		v, found := lookupKey(raw, f, cfg.ByName)
		if !found {
			if f.required {
				details = AppendDetails(details, newDetail(CodeRequiredField, Path{f.name}))
				if cfg.FailFast {
					return nil, &AggregateError{Record: s.name, Details: details}
				}
				continue
			}
			if f.hasDefault {
				if err := applyDefault(ctx, rec, f); err != nil {
					if isContractError(err) {
						return nil, err
					}
					details = AppendDetails(details, rebaseDetails(f.name, err)...)
					if cfg.FailFast {
						return nil, &AggregateError{Record: s.name, Details: details}
					}
				}
			}
			continue
		}

		var out any
		var err error
		if cfg.PreValidated {
			out, err = f.castOnly(ctx, v)
		} else {
			out, err = f.adapt(ctx, v)
		}
		if err != nil {
			if isContractError(err) {
				return nil, err
			}
			details = AppendDetails(details, rebaseDetails(f.name, err)...)
			if cfg.FailFast {
				return nil, &AggregateError{Record: s.name, Details: details}
			}
			continue
		}
		rec.setSlot(f.index, out, true)
	}

	if len(details) > 0 {
		return nil, &AggregateError{Record: s.name, Details: details}
	}
	return rec, nil
}

// Adapt deserializes raw with the default configuration.
func Adapt(ctx context.Context, s *Schema, raw map[string]any) (*Record, error) {
	return Deserialize(ctx, s, raw, DeserializeConfig{})
}

// lookupKey finds the input value for f: the effective key (alias) first,
// then the declared name as a fallback.
func lookupKey(raw map[string]any, f *Field, byName bool) (any, bool) {
	if byName {
		v, ok := raw[f.name]
		return v, ok
	}
	if v, ok := raw[f.effectiveName()]; ok {
		return v, true
	}
	if f.alias != "" {
		if v, ok := raw[f.name]; ok {
			return v, true
		}
	}
	return nil, false
}

// applyDefault fills an absent field from its default. Defaults do not mark
// the slot as explicitly set, and skip the pipeline unless the field always
// coerces.
func applyDefault(ctx context.Context, rec *Record, f *Field) error {
	def := f.Default()
	if f.alwaysCoerce && def != nil {
		out, err := f.adapt(ctx, def)
		if err != nil {
			return err
		}
		rec.setSlot(f.index, out, false)
		return nil
	}
	rec.setSlot(f.index, def, false)
	return nil
}
