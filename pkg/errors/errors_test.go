package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataFor(t *testing.T) {
	cases := []struct {
		code Code
		want Metadata
	}{
		{CodeValidation, Metadata{http.StatusBadRequest, false, "validation failed", true}},
		{CodeNotFound, Metadata{http.StatusNotFound, false, "resource not found", false}},
		{CodeUnauthorized, Metadata{http.StatusUnauthorized, false, "authentication required", false}},
		{CodeForbidden, Metadata{http.StatusForbidden, false, "insufficient permissions", false}},
		{CodeStateConflict, Metadata{http.StatusUnprocessableEntity, false, "state transition disallowed", true}},
		{CodePayment, Metadata{http.StatusPaymentRequired, false, "payment has not been confirmed", true}},
		{CodeDependency, Metadata{http.StatusServiceUnavailable, true, "dependency unavailable", true}},
		{"SOMETHING_UNKNOWN", Metadata{http.StatusInternalServerError, true, "internal server error", false}},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			require.Equal(t, tc.want, MetadataFor(tc.code))
		})
	}
}

func TestErrorAccessors(t *testing.T) {
	e := New(CodeValidation, "total must be >= 0")
	require.Equal(t, CodeValidation, e.Code())
	require.Equal(t, "VALIDATION_ERROR: total must be >= 0", e.Error())
	require.Nil(t, e.Details())

	e.WithDetails(map[string]any{"field": "total_cents"})
	require.Equal(t, map[string]any{"field": "total_cents"}, e.Details())

	var missing *Error
	require.Equal(t, CodeInternal, missing.Code())
	require.Nil(t, missing.WithDetails("x"))
	require.Empty(t, missing.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "upload agreement")
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, "DEPENDENCY_ERROR: upload agreement: boom", wrapped.Error())
	require.Equal(t, "NOT_FOUND: gone", Wrap(CodeNotFound, nil, "gone").Error())
}

func TestCombinedErrors(t *testing.T) {
	combined := Combine(nil, New(CodeDependency, "notification failed"), stderrors.New("plain"))

	require.True(t, IsCode(combined, CodeDependency))
	require.False(t, IsCode(combined, CodeValidation))
	require.Len(t, Errors(combined), 2)
	require.NoError(t, Combine(nil, nil))
}

func TestAs(t *testing.T) {
	require.Equal(t, CodeNotFound, As(New(CodeNotFound, "booking missing")).Code())
	require.Nil(t, As(nil))
	require.Nil(t, As(stderrors.New("plain")))
}
