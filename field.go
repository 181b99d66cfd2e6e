package attrib

import "context"

// Field binds a name to an adapter plus per-field policy: default values,
// aliases, null handling, strictness and participation flags. Conflicting
// options are reported as a ConfigurationError when the schema is built.
type Field struct {
	name     string
	adapter  *Adapter
	alias    string
	outAlias string

	required        bool
	allowNull       bool
	strict          bool
	alwaysCoerce    bool
	checkCoerced    bool
	skipValidator   bool
	validateDefault bool
	failFast        bool

	hasDefault     bool
	defaultValue   any
	defaultFactory func() any

	validator Validator

	inInit bool
	inRepr bool
	inEq   bool
	hashed bool
	order  int

	index  int // slot index, assigned on bind
	parent *Schema
}

// FieldOption configures a Field at construction time.
type FieldOption func(*Field)

// NewField declares a field named name whose values flow through ad.
func NewField(name string, ad *Adapter, opts ...FieldOption) *Field {
	if ad == nil {
		ad = Any()
	}
	f := &Field{name: name, adapter: ad, inInit: true, inRepr: true, inEq: true, order: -1, index: -1}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Required marks the field as mandatory on deserialization. Mutually
// exclusive with a default.
func Required() FieldOption { return func(f *Field) { f.required = true } }

// WithDefault supplies the value used when input omits the field.
func WithDefault(v any) FieldOption {
	return func(f *Field) {
		f.hasDefault = true
		f.defaultValue = v
	}
}

// WithFactory supplies a default produced fresh per record, for mutable
// defaults such as slices and maps.
func WithFactory(fn func() any) FieldOption {
	return func(f *Field) {
		f.hasDefault = true
		f.defaultFactory = fn
	}
}

// WithAlias sets the input key looked up before the field name.
func WithAlias(alias string) FieldOption { return func(f *Field) { f.alias = alias } }

// WithOutputAlias sets the key emitted when serializing by alias.
func WithOutputAlias(alias string) FieldOption { return func(f *Field) { f.outAlias = alias } }

// AllowNull permits explicit nulls; they bypass coercion and validation.
func AllowNull() FieldOption { return func(f *Field) { f.allowNull = true } }

// Strict rejects input whose type does not already match the adapter instead
// of coercing it. Decoder-produced json.Number values count as matching the
// numeric kinds. Mutually exclusive with AlwaysCoerce.
func Strict() FieldOption { return func(f *Field) { f.strict = true } }

// AlwaysCoerce runs the deserializer even when the input already matches the
// adapter's type, so normalizing deserializers always apply.
func AlwaysCoerce() FieldOption { return func(f *Field) { f.alwaysCoerce = true } }

// CheckCoerced re-checks the deserializer's output type, guarding custom
// deserializers that may return the wrong shape.
func CheckCoerced() FieldOption { return func(f *Field) { f.checkCoerced = true } }

// SkipValidator disables validation for this field.
func SkipValidator() FieldOption { return func(f *Field) { f.skipValidator = true } }

// ValidateDefault runs the validator chain against the default while the
// schema is built; failures surface as a ConfigurationError.
func ValidateDefault() FieldOption { return func(f *Field) { f.validateDefault = true } }

// FailFast stops this field's validator chain at the first Detail even when
// the engine is collecting.
func FailFast() FieldOption { return func(f *Field) { f.failFast = true } }

// WithValidator attaches an extra field-level validator run after the
// adapter's own chain.
func WithValidator(v Validator) FieldOption { return func(f *Field) { f.validator = v } }

// NoInit excludes the field from construction input.
func NoInit() FieldOption { return func(f *Field) { f.inInit = false } }

// NoRepr excludes the field from the record's string form.
func NoRepr() FieldOption { return func(f *Field) { f.inRepr = false } }

// NoEq excludes the field from equality comparison.
func NoEq() FieldOption { return func(f *Field) { f.inEq = false } }

// Hashed includes the field in hash key derivation.
func Hashed() FieldOption { return func(f *Field) { f.hashed = true } }

// Ordered assigns a sort priority used when the schema sorts fields on build.
func Ordered(priority int) FieldOption { return func(f *Field) { f.order = priority } }

// Name returns the declared field name.
func (f *Field) Name() string { return f.name }

// Adapter returns the field's adapter.
func (f *Field) Adapter() *Adapter { return f.adapter }

// Required reports whether the field must be present on deserialization.
func (f *Field) Required() bool { return f.required }

// HasDefault reports whether a default value or factory is configured.
func (f *Field) HasDefault() bool { return f.hasDefault }

// Default produces the default value. Factories are invoked fresh per call.
func (f *Field) Default() any {
	if f.defaultFactory != nil {
		return f.defaultFactory()
	}
	return f.defaultValue
}

// effectiveName is the input key: the alias when set, else the field name.
func (f *Field) effectiveName() string {
	if f.alias != "" {
		return f.alias
	}
	return f.name
}

// serializationKey is the output key for the given aliasing mode.
func (f *Field) serializationKey(byAlias bool) string {
	if !byAlias {
		return f.name
	}
	if f.outAlias != "" {
		return f.outAlias
	}
	return f.effectiveName()
}

// validateConfig rejects option combinations that cannot be satisfied.
func (f *Field) validateConfig() error {
	if f.required && f.hasDefault {
		return configErrorf("field %q: required fields cannot carry a default", f.name)
	}
	if f.strict && f.alwaysCoerce {
		return configErrorf("field %q: strict and always-coerce are mutually exclusive", f.name)
	}
	if f.hasDefault && f.defaultFactory == nil && f.defaultValue == nil && !f.allowNull {
		return configErrorf("field %q: null default requires AllowNull", f.name)
	}
	return nil
}

// adapt runs the field pipeline: null policy, coercion, output type check,
// then validation. Returned Details are relative to the field; callers
// rebase them under the field name.
func (f *Field) adapt(ctx context.Context, v any) (any, error) {
	if v == nil {
		if f.allowNull {
			return nil, nil
		}
		return nil, singleDetail(CodeNullNotAllowed, nil)
	}

	var out any
	var err error
	switch {
	case f.alwaysCoerce:
		out, err = f.adapter.Deserialize(ctx, v)
	case f.adapter.CheckType(v):
		out = v
	case f.strict:
		if !f.adapter.matchesWireNumber(v) {
			d := newDetail(CodeInvalidType, nil)
			d.Expected = f.adapter.Name()
			d.Got = typeName(v)
			return nil, Details{d}
		}
		out, err = f.adapter.Deserialize(ctx, v)
	default:
		out, err = f.adapter.Deserialize(ctx, v)
	}
	if err != nil {
		return nil, err
	}

	if f.checkCoerced && !f.adapter.CheckType(out) {
		d := newDetail(CodeInvalidType, nil)
		d.Expected = f.adapter.Name()
		d.Got = typeName(out)
		return nil, Details{d}
	}

	if err := f.validate(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// validate runs the adapter chain then the field-level validator.
func (f *Field) validate(ctx context.Context, v any) error {
	if f.skipValidator {
		return nil
	}
	if f.failFast {
		ctx = WithFailFast(ctx, true)
	}
	var details Details
	if err := f.adapter.Validate(ctx, v); err != nil {
		if isContractError(err) {
			return err
		}
		details = AppendDetails(details, detailsOf(err)...)
		if IsFailFast(ctx) {
			return details
		}
	}
	if f.validator != nil {
		if err := f.validator(ctx, v); err != nil {
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

// castOnly type-casts without re-running validators, for input marked as
// already validated.
func (f *Field) castOnly(ctx context.Context, v any) (any, error) {
	if v == nil {
		if f.allowNull {
			return nil, nil
		}
		return nil, singleDetail(CodeNullNotAllowed, nil)
	}
	if f.adapter.CheckType(v) {
		return v, nil
	}
	return f.adapter.Deserialize(ctx, v)
}

// Get reads the field's slot from rec. The second result reports whether the
// slot holds a value.
func (f *Field) Get(rec *Record) (any, bool) {
	if rec == nil || rec.schema != f.parent || f.index < 0 {
		return nil, false
	}
	if !rec.present[f.index] {
		return nil, false
	}
	return rec.values[f.index], true
}

// Set assigns v through the field pipeline. Frozen records reject every
// assignment, valid or not.
func (f *Field) Set(ctx context.Context, rec *Record, v any) error {
	if rec == nil || rec.schema != f.parent {
		return configErrorf("field %q is not bound to this record", f.name)
	}
	if rec.schema.frozen {
		return &FrozenInstanceError{Record: rec.schema.name, Field: f.name}
	}
	out, err := f.adapt(ctx, v)
	if err != nil {
		if isContractError(err) {
			return err
		}
		return rebaseDetails(f.name, err)
	}
	rec.setSlot(f.index, out, true)
	return nil
}
