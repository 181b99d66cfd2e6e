package attrib

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// SchemaOption configures schema construction.
type SchemaOption func(*schemaConfig)

type schemaConfig struct {
	frozen     bool
	sortFields bool
	deferBuild bool
	ns         Namespace
	maxDepth   int
}

// Frozen makes every record of the schema immutable after construction.
func Frozen() SchemaOption { return func(c *schemaConfig) { c.frozen = true } }

// SortFields reorders fields on build by their Ordered priority. Fields
// without a priority keep their insertion position after ordered ones.
func SortFields() SchemaOption { return func(c *schemaConfig) { c.sortFields = true } }

// DeferBuild skips reference resolution; call Schema.Build before use. Needed
// for self-referential schemas that must register themselves first.
func DeferBuild() SchemaOption { return func(c *schemaConfig) { c.deferBuild = true } }

// WithNamespace supplies the reference namespace used by the immediate build.
func WithNamespace(ns Namespace) SchemaOption { return func(c *schemaConfig) { c.ns = ns } }

// WithMaxDepth bounds reference resolution depth.
func WithMaxDepth(n int) SchemaOption { return func(c *schemaConfig) { c.maxDepth = n } }

// Schema is the immutable description of one record type: named fields bound
// to slots in declaration order.
type Schema struct {
	name   string
	fields []*Field
	byName map[string]int
	byKey  map[string]int // effective input key -> slot
	frozen bool
}

// NewSchema binds fields into a record description. Conflicting field options,
// duplicate names and alias collisions are rejected here rather than at first
// use.
func NewSchema(name string, fields []*Field, opts ...SchemaOption) (*Schema, error) {
	cfg := schemaConfig{maxDepth: DefaultMaxDepth}
	for _, o := range opts {
		o(&cfg)
	}
	if name == "" {
		return nil, configErrorf("schema name must not be empty")
	}

	s := &Schema{name: name, frozen: cfg.frozen}
	s.fields = append([]*Field(nil), fields...)
	if cfg.sortFields {
		sort.SliceStable(s.fields, func(i, j int) bool {
			oi, oj := s.fields[i].order, s.fields[j].order
			if oi < 0 || oj < 0 {
				return oj < 0 && oi >= 0
			}
			return oi < oj
		})
	}

	s.byName = make(map[string]int, len(s.fields))
	s.byKey = make(map[string]int, len(s.fields))
	for i, f := range s.fields {
		if f == nil {
			return nil, configErrorf("schema %q: nil field at position %d", name, i)
		}
		if f.parent != nil && f.parent != s {
			return nil, configErrorf("schema %q: field %q is already bound to %q", name, f.name, f.parent.name)
		}
		if _, dup := s.byName[f.name]; dup {
			return nil, configErrorf("schema %q: duplicate field %q", name, f.name)
		}
		if err := f.validateConfig(); err != nil {
			return nil, err
		}
		f.index = i
		f.parent = s
		s.byName[f.name] = i
	}
	for i, f := range s.fields {
		key := f.effectiveName()
		if j, dup := s.byKey[key]; dup && j != i {
			return nil, configErrorf("schema %q: alias %q collides with field %q", name, key, s.fields[j].name)
		}
		s.byKey[key] = i
	}

	if !cfg.deferBuild {
		if err := s.Build(cfg.ns, cfg.maxDepth); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustSchema is NewSchema that panics on configuration errors.
func MustSchema(name string, fields []*Field, opts ...SchemaOption) *Schema {
	s, err := NewSchema(name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Build resolves every field adapter against ns and verifies defaults marked
// ValidateDefault. Safe to call repeatedly; already-built adapters are
// skipped.
func (s *Schema) Build(ns Namespace, maxDepth int) error {
	for _, f := range s.fields {
		if err := f.adapter.Build(ns, maxDepth); err != nil {
			return err
		}
	}
	for _, f := range s.fields {
		if !f.hasDefault || !f.validateDefault {
			continue
		}
		def := f.Default()
		if def == nil {
			continue
		}
		if _, err := f.adapt(context.Background(), def); err != nil {
			return configErrorf("schema %q: default for field %q failed validation: %v", s.name, f.name, err)
		}
	}
	return nil
}

// Name returns the schema's type name.
func (s *Schema) Name() string { return s.name }

// Frozen reports whether records of this schema are immutable.
func (s *Schema) Frozen() bool { return s.frozen }

// Fields returns the bound fields in slot order.
func (s *Schema) Fields() []*Field { return append([]*Field(nil), s.fields...) }

// Field looks a field up by its declared name.
func (s *Schema) Field(name string) (*Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.fields[i], true
}

// fieldForKey resolves an input key: the effective key (alias) first, then
// the plain field name as a fallback.
func (s *Schema) fieldForKey(key string, byName bool) (*Field, bool) {
	if byName {
		i, ok := s.byName[key]
		if !ok {
			return nil, false
		}
		return s.fields[i], true
	}
	if i, ok := s.byKey[key]; ok {
		return s.fields[i], true
	}
	if i, ok := s.byName[key]; ok {
		return s.fields[i], true
	}
	return nil, false
}

// NewRecord allocates an empty record with no slots populated.
func (s *Schema) NewRecord() *Record {
	n := len(s.fields)
	return &Record{
		schema:  s,
		values:  make([]any, n),
		present: make([]bool, n),
		set:     make([]bool, n),
	}
}

// Record is one instance of a schema: a dense slot array aligned with the
// schema's fields, plus per-slot presence and explicitly-set tracking.
type Record struct {
	schema  *Schema
	values  []any
	present []bool
	set     []bool
}

// Schema returns the record's type description.
func (r *Record) Schema() *Schema { return r.schema }

func (r *Record) setSlot(i int, v any, explicit bool) {
	r.values[i] = v
	r.present[i] = true
	if explicit {
		r.set[i] = true
	}
}

// Get reads a field value by name. The second result reports whether the
// slot holds a value.
func (r *Record) Get(name string) (any, bool) {
	f, ok := r.schema.Field(name)
	if !ok {
		return nil, false
	}
	return f.Get(r)
}

// Set assigns a field by name through its pipeline. Frozen records reject
// every assignment.
func (r *Record) Set(ctx context.Context, name string, v any) error {
	if r.schema.frozen {
		return &FrozenInstanceError{Record: r.schema.name, Field: name}
	}
	f, ok := r.schema.Field(name)
	if !ok {
		return configErrorf("record %q has no field %q", r.schema.name, name)
	}
	return f.Set(ctx, r, v)
}

// IsSet reports whether the field was explicitly assigned, as opposed to
// populated from a default.
func (r *Record) IsSet(name string) bool {
	f, ok := r.schema.Field(name)
	if !ok {
		return false
	}
	return r.set[f.index]
}

// Equal compares two records field-wise, honoring each field's equality
// participation flag.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.schema != other.schema {
		return false
	}
	for _, f := range r.schema.fields {
		if !f.inEq {
			continue
		}
		if r.present[f.index] != other.present[f.index] {
			return false
		}
		if !equalValue(r.values[f.index], other.values[f.index]) {
			return false
		}
	}
	return true
}

// HashKey derives a map key from the hashed fields, falling back to the
// equality fields when none are marked.
func (r *Record) HashKey() string {
	b := &strings.Builder{}
	b.WriteString(r.schema.name)
	hashed := false
	for _, f := range r.schema.fields {
		if f.hashed {
			hashed = true
			break
		}
	}
	for _, f := range r.schema.fields {
		if hashed && !f.hashed {
			continue
		}
		if !hashed && !f.inEq {
			continue
		}
		fmt.Fprintf(b, "|%s=%v", f.name, r.values[f.index])
	}
	return b.String()
}

// String renders the record for debugging, honoring repr participation.
func (r *Record) String() string {
	b := &strings.Builder{}
	b.WriteString(r.schema.name)
	b.WriteByte('(')
	first := true
	for _, f := range r.schema.fields {
		if !f.inRepr || !r.present[f.index] {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(b, "%s=%v", f.name, r.values[f.index])
	}
	b.WriteByte(')')
	return b.String()
}

// Copy clones rec and applies update values through each field's pipeline.
// The clone is writable during construction even for frozen schemas, so Copy
// is the way to derive changed frozen records.
func Copy(ctx context.Context, rec *Record, update map[string]any) (*Record, error) {
	out := rec.schema.NewRecord()
	copy(out.values, rec.values)
	copy(out.present, rec.present)
	copy(out.set, rec.set)

	var details Details
	failFast := IsFailFast(ctx)
	for _, key := range sortedKeys(update) {
		f, ok := rec.schema.fieldForKey(key, true)
		if !ok {
			d := newDetail(CodeUnknownField, Path{key})
			details = AppendDetails(details, d)
			if failFast {
				break
			}
			continue
		}
		v, err := f.adapt(ctx, update[key])
		if err != nil {
			if isContractError(err) {
				return nil, err
			}
			details = AppendDetails(details, rebaseDetails(f.name, err)...)
			if failFast {
				break
			}
			continue
		}
		out.setSlot(f.index, v, true)
	}
	if len(details) > 0 {
		return nil, &AggregateError{Record: rec.schema.name, Details: details}
	}
	return out, nil
}

// validateRecord re-runs field validators against a typed record.
func validateRecord(ctx context.Context, rec *Record) error {
	var details Details
	failFast := IsFailFast(ctx)
	for _, f := range rec.schema.fields {
		if !rec.present[f.index] {
			if f.required {
				details = AppendDetails(details, newDetail(CodeRequiredField, Path{f.name}))
				if failFast {
					return details
				}
			}
			continue
		}
		v := rec.values[f.index]
		if v == nil {
			continue
		}
		if err := f.validate(ctx, v); err != nil {
			if isContractError(err) {
				return err
			}
			details = AppendDetails(details, rebaseDetails(f.name, err)...)
			if failFast {
				return details
			}
		}
	}
	if len(details) > 0 {
		return details
	}
	return nil
}
