package validators_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	attrib "github.com/attribkit/attrib"
	"github.com/attribkit/attrib/i18n"
	"github.com/attribkit/attrib/validators"
)

func details(t *testing.T, err error) attrib.Details {
	t.Helper()
	ds, ok := attrib.AsDetails(err)
	require.True(t, ok, "expected Details, got %v", err)
	return ds
}

func TestBounds(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, validators.Gte(3)(ctx, int64(3)))
	ds := details(t, validators.Gte(3)(ctx, int64(2)))
	require.Equal(t, attrib.CodeValueTooSmall, ds[0].Code)

	require.NoError(t, validators.Gt(3)(ctx, 3.5))
	ds = details(t, validators.Gt(3)(ctx, int64(3)))
	require.Equal(t, attrib.CodeValueTooSmall, ds[0].Code)

	require.NoError(t, validators.Lte(3)(ctx, int64(3)))
	ds = details(t, validators.Lt(3)(ctx, int64(3)))
	require.Equal(t, attrib.CodeValueTooLarge, ds[0].Code)

	// non-numeric values pass through bounds untouched
	require.NoError(t, validators.Gte(3)(ctx, "hello"))
}

func TestRangeCollectsBothEnds(t *testing.T) {
	ctx := context.Background()
	check := validators.Range(1, 10)

	require.NoError(t, check(ctx, int64(5)))
	ds := details(t, check(ctx, int64(0)))
	require.Len(t, ds, 1)
	require.Equal(t, attrib.CodeValueTooSmall, ds[0].Code)
}

func TestLengths(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, validators.MinLength(3)(ctx, "abc"))
	ds := details(t, validators.MinLength(3)(ctx, "ab"))
	require.Equal(t, attrib.CodeLengthTooShort, ds[0].Code)
	require.Equal(t, 2, ds[0].Params["got"])

	// runes, not bytes
	require.NoError(t, validators.MaxLength(3)(ctx, "日本語"))

	ds = details(t, validators.MaxLength(1)(ctx, []any{1, 2}))
	require.Equal(t, attrib.CodeLengthTooLong, ds[0].Code)
}

func TestAndCollectsAll(t *testing.T) {
	ctx := context.Background()
	check := validators.And(validators.MinLength(5), validators.Pattern(`^[a-z]+$`))

	ds := details(t, check(ctx, "AB"))
	require.Len(t, ds, 2)

	// fail-fast stops at the first Detail
	ds = details(t, check(attrib.WithFailFast(ctx, true), "AB"))
	require.Len(t, ds, 1)
	require.Equal(t, attrib.CodeLengthTooShort, ds[0].Code)
}

func TestOrAcceptsAnyAlternative(t *testing.T) {
	ctx := context.Background()
	check := validators.Or(validators.Gte(10), validators.Lte(0))

	require.NoError(t, check(ctx, int64(42)))
	require.NoError(t, check(ctx, int64(-1)))

	ds := details(t, check(ctx, int64(5)))
	require.Len(t, ds, 1)
	require.Equal(t, attrib.CodeValidationFailed, ds[0].Code)
	attempts := ds[0].Params["attempts"].([]string)
	require.Len(t, attempts, 2)
}

func TestOrSkipsNilMembers(t *testing.T) {
	ctx := context.Background()
	check := validators.Or(nil, validators.Gte(10))

	require.NoError(t, check(ctx, int64(42)))
	ds := details(t, check(ctx, int64(3)))
	require.Equal(t, attrib.CodeValidationFailed, ds[0].Code)
	attempts := ds[0].Params["attempts"].([]string)
	require.Len(t, attempts, 1)

	// vacuously true with no effective members, like And
	require.NoError(t, validators.Or(nil, nil)(ctx, int64(3)))
}

func TestNotInverts(t *testing.T) {
	ctx := context.Background()
	check := validators.Not(validators.In("admin", "root"), "reserved name")

	require.NoError(t, check(ctx, "bob"))
	ds := details(t, check(ctx, "root"))
	require.Equal(t, "reserved name", ds[0].Message)
}

func TestPattern(t *testing.T) {
	ctx := context.Background()
	check := validators.Pattern(`^\d{4}-\d{2}$`)

	require.NoError(t, check(ctx, "2026-08"))
	ds := details(t, check(ctx, "aug 2026"))
	require.Equal(t, attrib.CodeInvalidFormat, ds[0].Code)

	require.Panics(t, func() { validators.Pattern(`([`) })
}

func TestInMatchesAcrossNumericTypes(t *testing.T) {
	ctx := context.Background()
	check := validators.In(1, 2, 3)

	require.NoError(t, check(ctx, int64(2)))
	require.NoError(t, check(ctx, 2.0))
	ds := details(t, check(ctx, int64(4)))
	require.Equal(t, attrib.CodeValidationFailed, ds[0].Code)
}

func TestOptionalSkipsNil(t *testing.T) {
	ctx := context.Background()
	check := validators.Optional(validators.MinLength(3))

	require.NoError(t, check(ctx, nil))
	require.Error(t, check(ctx, "ab"))
}

func TestNonBlank(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, validators.NonBlank()(ctx, "x"))
	require.Error(t, validators.NonBlank()(ctx, "   "))
}

type capturingTranslator struct {
	code string
	data map[string]string
}

func (c *capturingTranslator) Message(code string, data map[string]string) string {
	c.code = code
	c.data = data
	return code
}

func TestValidatorsForwardParamsToTranslator(t *testing.T) {
	tr := &capturingTranslator{}
	i18n.SetTranslator(tr)
	defer i18n.SetTranslator(nil)

	require.Error(t, validators.Gte(5)(context.Background(), int64(1)))
	require.Equal(t, attrib.CodeValueTooSmall, tr.code)
	require.Equal(t, "5", tr.data["min"])
	require.Equal(t, "1", tr.data["got"])
}

func TestValidatorsComposeWithAdapters(t *testing.T) {
	ctx := context.Background()
	s := attrib.MustSchema("Form", []*attrib.Field{
		attrib.NewField("code", attrib.String().WithValidator(
			validators.And(validators.Length(2, 8), validators.Pattern(`^[A-Z]+$`)),
		), attrib.Required()),
	})

	_, err := attrib.Adapt(ctx, s, map[string]any{"code": "x"})
	var agg *attrib.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Details, 2)
	require.Equal(t, "/code", agg.Details[0].Path.String())

	rec, err := attrib.Adapt(ctx, s, map[string]any{"code": "ABC"})
	require.NoError(t, err)
	v, _ := rec.Get("code")
	require.Equal(t, "ABC", v)
}
