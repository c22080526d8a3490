package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apiError {
	t.Helper()
	var body errorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body.Error
}

func TestWriteSuccessStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"booking_id": "b-1"})

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"data":{"booking_id":"b-1"}}`, w.Body.String())
}

func TestWriteErrorExposesValidationDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "wedding_date"})
	WriteError(WithRequestID(context.Background(), "req-9"), logger.Nop(), w, err)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	require.Equal(t, string(pkgerrors.CodeValidation), body.Code)
	require.Equal(t, "bad input", body.Message)
	require.Equal(t, "req-9", body.RequestID)
	require.Equal(t, map[string]any{"field": "wedding_date"}, body.Details)
}

func TestWriteErrorPaymentNotConfirmed(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodePayment, "payment has not succeeded")
	WriteError(context.Background(), nil, w, err)

	require.Equal(t, http.StatusPaymentRequired, w.Code)
	require.Equal(t, "payment has not succeeded", decodeError(t, w).Message)
}

func TestWriteErrorHidesInternalMessages(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), logger.Nop(), w, errors.New("pq: connection refused"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	require.Equal(t, string(pkgerrors.CodeInternal), body.Code)
	require.Equal(t, "internal server error", body.Message)
	require.Nil(t, body.Details)
	require.Empty(t, body.RequestID)
}

func TestWriteErrorUsesGenericMessageForDependencies(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("redis down"), "check idempotency")
	WriteError(context.Background(), logger.Nop(), w, err)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NotContains(t, decodeError(t, w).Message, "redis")
}
