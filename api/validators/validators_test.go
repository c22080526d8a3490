package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
)

type sampleBody struct {
	Strategy    string `json:"strategy" validate:"required,payment_strategy"`
	Category    string `json:"category" validate:"omitempty,product_category"`
	WeddingDate string `json:"weddingDate" validate:"omitempty,iso_date"`
	TotalCents  int64  `json:"totalCents" validate:"gt=0"`
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"strategy":"deposit_then_monthly","category":"venue","weddingDate":"2026-09-12","totalCents":1200000}`))
	var body sampleBody
	require.NoError(t, DecodeJSONBody(req, &body))
	require.Equal(t, int64(1200000), body.TotalCents)
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"strategy":"weekly","category":"florist","weddingDate":"12/09/2026","totalCents":0}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	require.Equal(t, "must be pay_in_full or deposit_then_monthly", details["strategy"])
	require.Equal(t, "must be venue, catering or dessert", details["category"])
	require.Equal(t, "must be a YYYY-MM-DD date", details["weddingDate"])
	require.Equal(t, "must be greater than 0", details["totalCents"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"strategy":"pay_in_full","totalCents":5,"coupon":"x"}`))
	var body sampleBody
	require.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))
}

func TestParseUUIDParam(t *testing.T) {
	rc := chi.NewRouteContext()
	rc.URLParams.Add("bookingId", "not-a-uuid")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	_, err := ParseUUIDParam(req, "bookingId")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseOptionalDate(t *testing.T) {
	got, err := ParseOptionalDate(nil, "weddingDate")
	require.NoError(t, err)
	require.Nil(t, got)

	raw := "2026-09-12"
	got, err = ParseOptionalDate(&raw, "weddingDate")
	require.NoError(t, err)
	require.Equal(t, 12, got.Day())

	bad := "soon"
	_, err = ParseOptionalDate(&bad, "weddingDate")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryIntBounds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	_, err := ParseQueryInt(req, "limit", 20, 1, 100)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	v, err := ParseQueryInt(req, "limit", 20, 1, 100)
	require.NoError(t, err)
	require.Equal(t, 20, v)
}

func TestParseQueryIntRejectsGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=ten", nil)
	_, err := ParseQueryInt(req, "limit", 20, 1, 100)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	require.Equal(t, "must be an integer", details["limit"])
}

func TestSanitizeString(t *testing.T) {
	require.Equal(t, "Rose Garden Pavilion", SanitizeString("  Rose \t Garden\n\nPavilion ", 0))
	require.Equal(t, "Ana", SanitizeString("Ana\x00", 10))
	require.Equal(t, "Crème", SanitizeString("Crème brûlée", 5))
	require.Equal(t, "Rose", SanitizeString("Rose Garden", 5))
}
