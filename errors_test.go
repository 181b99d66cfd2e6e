package attrib_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	attrib "github.com/attribkit/attrib"
	"github.com/attribkit/attrib/i18n"
)

func TestPath_StringAndChild(t *testing.T) {
	require.Equal(t, "/", attrib.Path{}.String())

	p := attrib.Path{"items"}.Child(attrib.Index(2)).Child("price")
	require.Equal(t, "/items/2/price", p.String())

	// Child does not mutate the receiver
	base := attrib.Path{"a"}
	_ = base.Child("b")
	require.Equal(t, "/a", base.String())
}

func TestDetails_ErrorSummaryTruncates(t *testing.T) {
	ds := attrib.Details{
		{Path: attrib.Path{"a"}, Code: attrib.CodeInvalidType},
		{Path: attrib.Path{"b"}, Code: attrib.CodeRequiredField},
		{Path: attrib.Path{"c"}, Code: attrib.CodeValueTooSmall},
		{Path: attrib.Path{"d"}, Code: attrib.CodeValueTooLarge},
	}
	msg := ds.Error()
	require.Contains(t, msg, "invalid_type at /a")
	require.Contains(t, msg, "(total 4)")
	require.NotContains(t, msg, "/d")
}

func TestAsDetails_UnwrapsAggregate(t *testing.T) {
	agg := &attrib.AggregateError{
		Record:  "User",
		Details: attrib.Details{{Path: attrib.Path{"x"}, Code: attrib.CodeInvalidType}},
	}
	wrapped := fmt.Errorf("request failed: %w", agg)

	ds, ok := attrib.AsDetails(wrapped)
	require.True(t, ok)
	require.Len(t, ds, 1)
	require.Equal(t, "/x", ds[0].Path.String())

	_, ok = attrib.AsDetails(nil)
	require.False(t, ok)
}

type echoTranslator struct {
	code string
	data map[string]string
}

func (e *echoTranslator) Message(code string, data map[string]string) string {
	e.code = code
	e.data = data
	return code
}

func TestDetailMessage_ForwardsParamsToTranslator(t *testing.T) {
	tr := &echoTranslator{}
	i18n.SetTranslator(tr)
	defer i18n.SetTranslator(nil)

	err := attrib.Int().Min(10).Validate(context.Background(), int64(3))
	var ds attrib.Details
	require.ErrorAs(t, err, &ds)
	require.Equal(t, attrib.CodeValueTooSmall, tr.code)
	require.Equal(t, "10", tr.data["min"])
	require.Equal(t, "3", tr.data["got"])
	require.Equal(t, int64(3), ds[0].Params["got"])

	require.Equal(t, attrib.CodeRequiredField,
		attrib.DetailMessage(attrib.CodeRequiredField, nil))
}

func TestConfigurationError_Message(t *testing.T) {
	ce := &attrib.ConfigurationError{Msg: "bad option", Hint: "remove the default"}
	require.Contains(t, ce.Error(), "configuration_error")
	require.Contains(t, ce.Error(), "bad option")
	require.Contains(t, ce.Error(), "remove the default")
}

func TestFrozenInstanceError_Message(t *testing.T) {
	fe := &attrib.FrozenInstanceError{Record: "Point", Field: "x"}
	require.Contains(t, fe.Error(), "frozen_instance")
	require.Contains(t, fe.Error(), "Point")
	require.Contains(t, fe.Error(), `"x"`)
}
