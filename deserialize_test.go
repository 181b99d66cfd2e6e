package attrib_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	attrib "github.com/attribkit/attrib"
)

func userSchema(t *testing.T) *attrib.Schema {
	t.Helper()
	s, err := attrib.NewSchema("User", []*attrib.Field{
		attrib.NewField("name", attrib.String().MinLen(3), attrib.Required()),
		attrib.NewField("age", attrib.Int().Min(0)),
		attrib.NewField("email", attrib.String(), attrib.WithDefault(nil), attrib.AllowNull()),
	})
	require.NoError(t, err)
	return s
}

func TestDeserialize_CollectsAllFailures(t *testing.T) {
	ctx := context.Background()
	s := userSchema(t)

	_, err := attrib.Deserialize(ctx, s, map[string]any{"name": "A", "age": -5}, attrib.DeserializeConfig{})
	require.Error(t, err)

	var agg *attrib.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Equal(t, "User", agg.Record)
	require.Len(t, agg.Details, 2)

	require.Equal(t, attrib.CodeLengthTooShort, agg.Details[0].Code)
	require.Equal(t, "/name", agg.Details[0].Path.String())
	require.Equal(t, attrib.CodeValueTooSmall, agg.Details[1].Code)
	require.Equal(t, "/age", agg.Details[1].Path.String())
}

func TestDeserialize_FailFastStopsAtFirstDetail(t *testing.T) {
	ctx := context.Background()
	s := userSchema(t)

	_, err := attrib.Deserialize(ctx, s, map[string]any{"name": "A", "age": -5}, attrib.DeserializeConfig{FailFast: true})
	var agg *attrib.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Details, 1)
	require.Equal(t, attrib.CodeLengthTooShort, agg.Details[0].Code)
}

func TestDeserialize_DefaultsApplyWithoutMarkingSet(t *testing.T) {
	ctx := context.Background()
	s := userSchema(t)

	rec, err := attrib.Deserialize(ctx, s, map[string]any{"name": "bob"}, attrib.DeserializeConfig{})
	require.NoError(t, err)

	v, ok := rec.Get("email")
	require.True(t, ok)
	require.Nil(t, v)
	require.False(t, rec.IsSet("email"))
	require.True(t, rec.IsSet("name"))
}

func TestDeserialize_RequiredFieldMissing(t *testing.T) {
	ctx := context.Background()
	s := userSchema(t)

	_, err := attrib.Deserialize(ctx, s, map[string]any{"age": 1}, attrib.DeserializeConfig{})
	var agg *attrib.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Details, 1)
	require.Equal(t, attrib.CodeRequiredField, agg.Details[0].Code)
	require.Equal(t, "/name", agg.Details[0].Path.String())
}

func TestDeserialize_NullPolicy(t *testing.T) {
	ctx := context.Background()
	s := userSchema(t)

	rec, err := attrib.Deserialize(ctx, s, map[string]any{"name": "bob", "email": nil}, attrib.DeserializeConfig{})
	require.NoError(t, err)
	v, ok := rec.Get("email")
	require.True(t, ok)
	require.Nil(t, v)
	require.True(t, rec.IsSet("email"))

	_, err = attrib.Deserialize(ctx, s, map[string]any{"name": nil}, attrib.DeserializeConfig{})
	var agg *attrib.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Equal(t, attrib.CodeNullNotAllowed, agg.Details[0].Code)
	require.Equal(t, "/name", agg.Details[0].Path.String())
}

func TestDeserialize_UnknownKeys(t *testing.T) {
	ctx := context.Background()
	s := userSchema(t)

	_, err := attrib.Deserialize(ctx, s, map[string]any{"name": "bob", "nickname": "b"}, attrib.DeserializeConfig{})
	var agg *attrib.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Details, 1)
	require.Equal(t, attrib.CodeUnknownField, agg.Details[0].Code)
	require.Equal(t, "/nickname", agg.Details[0].Path.String())

	rec, err := attrib.Deserialize(ctx, s, map[string]any{"name": "bob", "nickname": "b"}, attrib.DeserializeConfig{IgnoreExtras: true})
	require.NoError(t, err)
	_, ok := rec.Get("nickname")
	require.False(t, ok)
}

func TestDeserialize_AliasLookup(t *testing.T) {
	ctx := context.Background()
	s, err := attrib.NewSchema("Profile", []*attrib.Field{
		attrib.NewField("name", attrib.String(), attrib.WithAlias("userName")),
	})
	require.NoError(t, err)

	rec, err := attrib.Deserialize(ctx, s, map[string]any{"userName": "bob"}, attrib.DeserializeConfig{})
	require.NoError(t, err)
	v, _ := rec.Get("name")
	require.Equal(t, "bob", v)

	// plain name works as a fallback
	rec, err = attrib.Deserialize(ctx, s, map[string]any{"name": "eve"}, attrib.DeserializeConfig{})
	require.NoError(t, err)
	v, _ = rec.Get("name")
	require.Equal(t, "eve", v)

	// ByName ignores aliases entirely
	_, err = attrib.Deserialize(ctx, s, map[string]any{"userName": "bob"}, attrib.DeserializeConfig{ByName: true})
	var agg *attrib.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Equal(t, attrib.CodeUnknownField, agg.Details[0].Code)
}

func TestDeserialize_PreValidatedSkipsValidators(t *testing.T) {
	ctx := context.Background()
	s, err := attrib.NewSchema("Limits", []*attrib.Field{
		attrib.NewField("n", attrib.Int().Min(10)),
	})
	require.NoError(t, err)

	rec, err := attrib.Deserialize(ctx, s, map[string]any{"n": "3"}, attrib.DeserializeConfig{PreValidated: true})
	require.NoError(t, err)
	v, _ := rec.Get("n")
	require.Equal(t, int64(3), v)
}

func TestDeserialize_ListElementPaths(t *testing.T) {
	ctx := context.Background()
	s, err := attrib.NewSchema("Bag", []*attrib.Field{
		attrib.NewField("tags", attrib.List(attrib.Int())),
	})
	require.NoError(t, err)

	rec, err := attrib.Deserialize(ctx, s, map[string]any{"tags": []any{"1", 2}}, attrib.DeserializeConfig{})
	require.NoError(t, err)
	v, _ := rec.Get("tags")
	require.Equal(t, []any{int64(1), int64(2)}, v)

	_, err = attrib.Deserialize(ctx, s, map[string]any{"tags": []any{1, "x", true}}, attrib.DeserializeConfig{})
	var agg *attrib.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Details, 2)
	require.Equal(t, attrib.CodeCoercionFailed, agg.Details[0].Code)
	require.Equal(t, "/tags/1", agg.Details[0].Path.String())
	require.Equal(t, "/tags/2", agg.Details[1].Path.String())
}

func TestDeserialize_NestedRecordPaths(t *testing.T) {
	ctx := context.Background()
	addr, err := attrib.NewSchema("Address", []*attrib.Field{
		attrib.NewField("city", attrib.String().MinLen(2), attrib.Required()),
	})
	require.NoError(t, err)
	person, err := attrib.NewSchema("Person", []*attrib.Field{
		attrib.NewField("name", attrib.String(), attrib.Required()),
		attrib.NewField("home", attrib.RecordOf(addr)),
	})
	require.NoError(t, err)

	rec, err := attrib.Deserialize(ctx, person, map[string]any{
		"name": "bob",
		"home": map[string]any{"city": "Oslo"},
	}, attrib.DeserializeConfig{})
	require.NoError(t, err)
	home, _ := rec.Get("home")
	city, _ := home.(*attrib.Record).Get("city")
	require.Equal(t, "Oslo", city)

	_, err = attrib.Deserialize(ctx, person, map[string]any{
		"name": "bob",
		"home": map[string]any{"city": "X"},
	}, attrib.DeserializeConfig{})
	var agg *attrib.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Details, 1)
	require.Equal(t, attrib.CodeLengthTooShort, agg.Details[0].Code)
	require.Equal(t, "/home/city", agg.Details[0].Path.String())
}

func TestDeserialize_NilInput(t *testing.T) {
	ctx := context.Background()
	s := userSchema(t)

	_, err := attrib.Deserialize(ctx, s, nil, attrib.DeserializeConfig{})
	var agg *attrib.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Equal(t, attrib.CodeInvalidType, agg.Details[0].Code)
}

func TestDeserialize_FactoryDefaultsAreFresh(t *testing.T) {
	ctx := context.Background()
	s, err := attrib.NewSchema("Bucket", []*attrib.Field{
		attrib.NewField("items", attrib.List(attrib.Any()), attrib.WithFactory(func() any { return []any{} })),
	})
	require.NoError(t, err)

	a, err := attrib.Adapt(ctx, s, map[string]any{})
	require.NoError(t, err)
	b, err := attrib.Adapt(ctx, s, map[string]any{})
	require.NoError(t, err)

	av, _ := a.Get("items")
	bv, _ := b.Get("items")
	require.NotNil(t, av)
	require.NotNil(t, bv)

	// mutating one default must not leak into the other record
	al := append(av.([]any), "x")
	require.Len(t, al, 1)
	require.Empty(t, bv.([]any))
}
