// Package codec bridges wire formats and attrib schemas: raw bytes in,
// records out, and back.
package codec

import (
	"bytes"
	"context"
	"fmt"

	gojson "github.com/goccy/go-json"

	attrib "github.com/attribkit/attrib"
)

// DecodeJSON decodes data into generic values. Numbers stay json.Number so
// integer precision survives the trip into adapters.
func DecodeJSON(data []byte) (any, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		d := attrib.Detail{Code: attrib.CodeInvalidFormat, Message: "malformed JSON", Cause: err}
		return nil, attrib.Details{d}
	}
	return v, nil
}

// ParseJSON decodes a JSON object and deserializes it into a record of s.
func ParseJSON(ctx context.Context, s *attrib.Schema, data []byte, cfg attrib.DeserializeConfig) (*attrib.Record, error) {
	v, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		d := attrib.Detail{
			Code:     attrib.CodeInvalidType,
			Message:  "top-level JSON value must be an object",
			Expected: "object",
			Got:      fmt.Sprintf("%T", v),
		}
		return nil, attrib.Details{d}
	}
	return attrib.Deserialize(ctx, s, m, cfg)
}

// MarshalJSON serializes rec with the json format serializers and encodes
// the result.
func MarshalJSON(ctx context.Context, rec *attrib.Record, opts attrib.OptionSet) ([]byte, error) {
	m, err := attrib.Serialize(ctx, rec, attrib.FormatJSON, opts)
	if err != nil {
		return nil, err
	}
	return gojson.Marshal(m)
}
