package responses

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
)

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "ok"})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "ok", data["status"])
}

func TestWriteErrorMapsCodes(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "validation exposes message",
			err:        pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive"),
			wantStatus: http.StatusBadRequest,
			wantCode:   string(pkgerrors.CodeValidation),
			wantMsg:    "amount must be positive",
		},
		{
			name:       "insufficient funds maps to 422",
			err:        pkgerrors.New(pkgerrors.CodeInsufficientFunds, "available balance below requested amount"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   string(pkgerrors.CodeInsufficientFunds),
			wantMsg:    "available balance below requested amount",
		},
		{
			name:       "internal hides details",
			err:        pkgerrors.New(pkgerrors.CodeInternal, "ledger mismatch for abc"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   string(pkgerrors.CodeInternal),
			wantMsg:    "internal server error",
		},
		{
			name:       "untyped errors become internal",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusInternalServerError,
			wantCode:   string(pkgerrors.CodeInternal),
			wantMsg:    "internal server error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tc.err)

			require.Equal(t, tc.wantStatus, rec.Code)
			var envelope ErrorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
			require.Equal(t, tc.wantCode, envelope.Error.Code)
			require.Equal(t, tc.wantMsg, envelope.Error.Message)
		})
	}
}

func TestWriteErrorIncludesAllowedDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{"amount_cents": "must be at least 1"})
	WriteError(context.Background(), nil, rec, err)

	var envelope ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	details, ok := envelope.Error.Details.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "must be at least 1", details["amount_cents"])
}
