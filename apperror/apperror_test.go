package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastmemo/store"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    Kind
		message string
	}{
		{"already normalized", NotFound("No note found with that ID"), KindNotFound, "No note found with that ID"},
		{"wrapped app error", fmt.Errorf("ctx: %w", Forbidden("nope")), KindForbidden, "nope"},
		{"invalid id", &store.InvalidIDError{Field: "id", Value: "zzz"}, KindValidation, "Invalid id: zzz"},
		{"duplicate", fmt.Errorf("insert user: %w", store.ErrDuplicate), KindConflict, MsgDuplicate},
		{"not found", store.ErrNotFound, KindNotFound, "No document found with that ID"},
		{"body too large", &http.MaxBytesError{Limit: 10}, KindValidation, "Request body too large"},
		{"anything else", errors.New("disk on fire"), KindInternal, MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.message, got.Message)
		})
	}

	assert.Nil(t, Normalize(nil))
}

func TestKindStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, KindUnauthenticated.Status())
	assert.Equal(t, http.StatusForbidden, KindForbidden.Status())
	assert.Equal(t, http.StatusNotFound, KindNotFound.Status())
	assert.Equal(t, http.StatusBadRequest, KindValidation.Status())
	assert.Equal(t, http.StatusBadRequest, KindConflict.Status())
	assert.Equal(t, http.StatusTooManyRequests, KindTooManyRequests.Status())
	assert.Equal(t, http.StatusInternalServerError, KindUnavailable.Status())
	assert.Equal(t, http.StatusInternalServerError, KindInternal.Status())
}

func TestRenderMasksInternalErrorsInProduction(t *testing.T) {
	err := errors.New("pq: connection refused")

	code, body := Render(err, false)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, MsgInternal, body.Message)
	assert.Empty(t, body.Error)

	code, body = Render(err, true)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "pq: connection refused", body.Message)
	assert.Contains(t, body.Error, "connection refused")
	assert.Equal(t, "internal", body.Kind)
}

func TestRenderOperational(t *testing.T) {
	code, body := Render(Validation("Invalid input"), false)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "fail", body.Status)
	assert.Equal(t, "Invalid input", body.Message)

	code, body = Render(Unavailable("There was an error sending the email. Try again later!", errors.New("smtp down")), false)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "There was an error sending the email. Try again later!", body.Message)
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, NotFound("No note found with that ID"), false)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "No note found with that ID", body["message"])
	assert.NotContains(t, body, "error")
}
