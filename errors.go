package attrib

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/attribkit/attrib/i18n"
)

// Detail codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType      = "invalid_type"
	CodeCoercionFailed   = "coercion_failed"
	CodeValidationFailed = "validation_failed"
	CodeRequiredField    = "required_field"
	CodeNullNotAllowed   = "null_not_allowed"
	CodeInvalidFormat    = "invalid_format"
	CodeValueTooSmall    = "value_too_small"
	CodeValueTooLarge    = "value_too_large"
	CodeLengthTooShort   = "length_too_short"
	CodeLengthTooLong    = "length_too_long"
	CodeUnknownField     = "unknown_field"
	CodeConfiguration    = "configuration_error"
	CodeFrozenInstance   = "frozen_instance"
)

// Path locates a value inside a record tree. Each segment is either a field
// name or a decimal element index.
type Path []string

// Child returns a new Path with seg appended. The receiver is not mutated.
func (p Path) Child(seg string) Path {
	out := make(Path, 0, len(p)+1)
	out = append(out, p...)
	return append(out, seg)
}

// Index formats an element index as a path segment.
func Index(i int) string { return strconv.Itoa(i) }

func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, seg := range p {
		b.WriteByte('/')
		b.WriteString(seg)
	}
	return b.String()
}

// Detail represents a single deserialization or validation entry.
type Detail struct {
	Path    Path   // Location of the offending value (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	// Expected and Got describe the wanted and received shapes for type and
	// coercion failures.
	Expected string
	Got      string
	Cause    error // Optional: underlying error.
	// Params carries structured parameters (e.g., {"min":1, "got":42})
	// for i18n and observability.
	Params map[string]any
}

// Details is a collection of failure entries that implements error.
type Details []Detail

// Error summarizes the first few details.
func (ds Details) Error() string {
	if len(ds) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(ds)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		d := ds[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", d.Code, d.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendDetails appends details to the destination, initializing the slice
// when needed.
func AppendDetails(dst Details, more ...Detail) Details {
	if dst == nil {
		dst = Details{}
	}
	dst = append(dst, more...)
	return dst
}

// AsDetails extracts Details from an error using errors.As internally.
func AsDetails(err error) (Details, bool) {
	if err == nil {
		return nil, false
	}
	var ds Details
	if errors.As(err, &ds) {
		return ds, true
	}
	return nil, false
}

// newDetail builds a Detail with the default localized message for code.
func newDetail(code string, path Path) Detail {
	return Detail{Path: path, Code: code, Message: i18n.T(code, nil)}
}

// DetailMessage renders the localized message for code, forwarding params to
// the installed Translator as string metadata.
func DetailMessage(code string, params map[string]any) string {
	if len(params) == 0 {
		return i18n.T(code, nil)
	}
	data := make(map[string]string, len(params))
	for k, v := range params {
		data[k] = fmt.Sprint(v)
	}
	return i18n.T(code, data)
}

// withParams attaches params and re-renders the message so the Translator
// sees the metadata.
func (d Detail) withParams(params map[string]any) Detail {
	d.Params = params
	d.Message = DetailMessage(d.Code, params)
	return d
}

func singleDetail(code string, path Path) Details {
	return Details{newDetail(code, path)}
}

// rebaseDetails prefixes every detail path with seg. Non-Details errors are
// wrapped into a single coercion_failed entry carrying the cause.
func rebaseDetails(seg string, err error) Details {
	ds, ok := AsDetails(err)
	if !ok {
		d := newDetail(CodeCoercionFailed, Path{seg})
		d.Cause = err
		return Details{d}
	}
	out := make(Details, len(ds))
	for i, d := range ds {
		d.Path = append(Path{seg}, d.Path...)
		out[i] = d
	}
	return out
}

// detailsOf normalizes an arbitrary validator error into Details.
func detailsOf(err error) Details {
	if ds, ok := AsDetails(err); ok {
		return ds
	}
	d := newDetail(CodeValidationFailed, nil)
	d.Message = err.Error()
	d.Cause = err
	return Details{d}
}

// AggregateError is the uniform failure shape returned by the deserialize and
// serialize engines. It carries the record type name and every Detail
// collected before the run stopped.
type AggregateError struct {
	Record  string
	Details Details
}

func (e *AggregateError) Error() string {
	if e.Record == "" {
		return e.Details.Error()
	}
	return e.Record + ": " + e.Details.Error()
}

func (e *AggregateError) Unwrap() error { return e.Details }

// ConfigurationError reports a contract violation detected at definition or
// build time, such as conflicting field options or an unresolved reference.
type ConfigurationError struct {
	Msg  string
	Hint string // Optional: remediation hints.
}

func (e *ConfigurationError) Error() string {
	if e.Hint == "" {
		return CodeConfiguration + ": " + e.Msg
	}
	return CodeConfiguration + ": " + e.Msg + " (" + e.Hint + ")"
}

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// FrozenInstanceError reports a mutation attempt on a frozen record.
type FrozenInstanceError struct {
	Record string
	Field  string
}

func (e *FrozenInstanceError) Error() string {
	return fmt.Sprintf("%s: cannot assign %q on frozen record %s", CodeFrozenInstance, e.Field, e.Record)
}

// isContractError reports whether err is a definition-time failure that must
// surface as-is rather than being folded into an aggregate.
func isContractError(err error) bool {
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return true
	}
	var fe *FrozenInstanceError
	return errors.As(err, &fe)
}
