package codec

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	attrib "github.com/attribkit/attrib"
)

// DecodeYAML decodes data into generic values with string-keyed maps all the
// way down.
func DecodeYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		d := attrib.Detail{Code: attrib.CodeInvalidFormat, Message: "malformed YAML", Cause: err}
		return nil, attrib.Details{d}
	}
	return normalizeYAML(v), nil
}

// ParseYAML decodes a YAML mapping and deserializes it into a record of s.
func ParseYAML(ctx context.Context, s *attrib.Schema, data []byte, cfg attrib.DeserializeConfig) (*attrib.Record, error) {
	v, err := DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		d := attrib.Detail{
			Code:     attrib.CodeInvalidType,
			Message:  "top-level YAML value must be a mapping",
			Expected: "mapping",
			Got:      fmt.Sprintf("%T", v),
		}
		return nil, attrib.Details{d}
	}
	return attrib.Deserialize(ctx, s, m, cfg)
}

// MarshalYAML serializes rec and encodes it as YAML. The json format is used
// for scalar conversion so times and bytes come out as portable strings.
func MarshalYAML(ctx context.Context, rec *attrib.Record, opts attrib.OptionSet) ([]byte, error) {
	m, err := attrib.Serialize(ctx, rec, attrib.FormatJSON, opts)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(m)
}

// normalizeYAML rewrites interface-keyed maps into string-keyed ones so the
// engine sees one map shape regardless of the YAML input.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, mv := range t {
			out[k] = normalizeYAML(mv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, mv := range t {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(mv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, it := range t {
			out[i] = normalizeYAML(it)
		}
		return out
	}
	return v
}
