package attrib

// Package attrib provides:
//
// - Declarative record schemas built from fields bound to type adapters
// - A unit pipeline per adapter: deserialize (coerce), validate, serialize
// - A stable error model via Details (path, code, message) aggregated per run
// - Named references with build-time resolution for recursive shapes
//
// Design policy:
// - Keep only public APIs in the root package; composable validators live
//   under validators/ and wire codecs under codec/.
// - Deserialization collects every failure by default; fail-fast is opt-in
//   per run or per field.
// - Definition-time mistakes (conflicting field options, unresolved
//   references) surface as ConfigurationError, never as data errors.
//
// Typical usage:
//
//  user := attrib.MustSchema("User", []*attrib.Field{
//      attrib.NewField("name", attrib.String().MinLen(3), attrib.Required()),
//      attrib.NewField("age", attrib.Int().Min(0)),
//  })
//  rec, err := attrib.Deserialize(ctx, user, raw, attrib.DeserializeConfig{})
//  out, err := attrib.Serialize(ctx, rec, attrib.FormatJSON, nil)
//
