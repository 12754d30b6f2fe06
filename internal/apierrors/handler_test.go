package apierrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashdeckhq/flashdeck/internal/response"
)

func newTestMapper(production bool) *Mapper {
	return NewMapper(production, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func respond(t *testing.T, m *Mapper, err error) (int, response.Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Respond(rec, err)
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestValidationErrorKeepsFields(t *testing.T) {
	m := newTestMapper(false)
	err := &ValidationError{Fields: map[string][]string{
		"name": {"name is required"},
		"back": {"back is required", "back too long"},
	}}

	code, env := respond(t, m, err)
	assert.Equal(t, 422, code)
	assert.Equal(t, response.StatusValidationError, env.Status)
	assert.Equal(t, []string{"name is required"}, env.Errors["name"])
	assert.Len(t, env.Errors["back"], 2)
}

func TestValidationErrorPriorityOverWrapping(t *testing.T) {
	m := newTestMapper(false)
	wrapped := fmt.Errorf("create deck: %w", NewValidationError("name", "required"))

	code, env := respond(t, m, wrapped)
	assert.Equal(t, 422, code)
	assert.Equal(t, response.StatusValidationError, env.Status)
	assert.NotEmpty(t, env.Errors)
}

func TestAPIErrorContract(t *testing.T) {
	m := newTestMapper(false)

	tests := []struct {
		err    error
		code   int
		status response.Status
		ecode  string
	}{
		{&NotFoundError{Resource: "deck", ID: "42"}, 404, response.StatusNotFound, "DECK_NOT_FOUND"},
		{&AccessDeniedError{Resource: "flashcard"}, 403, response.StatusForbidden, "FLASHCARD_ACCESS_DENIED"},
		{&UnauthorizedError{}, 401, response.StatusUnauthorized, "INVALID_API_TOKEN"},
		{&InvalidOperationError{Operation: "publish"}, 400, response.StatusBadRequest, "INVALID_OPERATION"},
		{&CreationFailedError{Resource: "token", Err: errors.New("boom")}, 400, response.StatusBadRequest, "TOKEN_CREATION_FAILED"},
		{&ServiceError{Code: 503, Message: "down"}, 500, response.StatusServerError, "SERVICE_ERROR"},
		{&ServiceError{Code: 999, Message: "odd"}, 400, response.StatusError, "SERVICE_ERROR"},
	}

	for _, tt := range tests {
		code, env := respond(t, m, tt.err)
		assert.Equal(t, tt.code, code, "%T", tt.err)
		assert.Equal(t, tt.status, env.Status, "%T", tt.err)
		assert.Equal(t, tt.ecode, env.Meta["error_code"], "%T", tt.err)
	}
}

func TestInvalidOperationCarriesReasons(t *testing.T) {
	m := newTestMapper(false)
	err := &InvalidOperationError{
		Operation: "publish",
		Reasons:   map[string][]string{"deck": {"deck has no cards"}},
	}

	code, env := respond(t, m, err)
	assert.Equal(t, 400, code)
	assert.Equal(t, response.StatusBadRequest, env.Status)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, []string{"deck has no cards"}, env.Errors["deck"])
	assert.Equal(t, "publish", env.Meta["operation"])
	assert.Equal(t, "INVALID_OPERATION", env.Meta["error_code"])
}

func TestInvalidOperationSurvivesWrapping(t *testing.T) {
	m := newTestMapper(false)
	inner := &InvalidOperationError{
		Operation: "reposition",
		Reasons:   map[string][]string{"position": {"position 9 is beyond the last card (3)"}},
	}

	_, env := respond(t, m, fmt.Errorf("move card: %w", inner))
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "reposition", env.Meta["operation"])
}

func TestRateLimitCarriesRetryAfter(t *testing.T) {
	m := newTestMapper(false)
	rec := httptest.NewRecorder()
	m.Respond(rec, &RateLimitError{RetryAfter: 90 * time.Second})

	assert.Equal(t, 429, rec.Code)
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))

	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, response.StatusTooManyRequests, env.Status)
	assert.EqualValues(t, 90, env.Meta["retry_after"])
}

func TestStorageNotFoundTranslated(t *testing.T) {
	m := newTestMapper(false)
	code, env := respond(t, m, fmt.Errorf("get deck: %w", pgx.ErrNoRows))

	assert.Equal(t, 404, code)
	assert.Equal(t, response.StatusNotFound, env.Status)
	assert.Equal(t, "RECORD_NOT_FOUND", env.Meta["error_code"])
}

func TestCatchAllRedactsInProduction(t *testing.T) {
	dev := newTestMapper(false)
	code, env := respond(t, dev, errors.New("pq: connection refused"))
	assert.Equal(t, 400, code)
	assert.Equal(t, response.StatusError, env.Status)
	assert.Equal(t, "pq: connection refused", env.Message)

	prod := newTestMapper(true)
	code, env = respond(t, prod, errors.New("pq: connection refused"))
	assert.Equal(t, 400, code)
	assert.Equal(t, response.StatusError, env.Status)
	assert.Equal(t, "An error occurred", env.Message)
	assert.NotContains(t, env.Message, "connection refused")
}
