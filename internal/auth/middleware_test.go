package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashdeckhq/flashdeck/internal/models"
	"github.com/flashdeckhq/flashdeck/internal/response"
)

func newTestMiddleware(t *testing.T) (*Middleware, *InMemoryStore, *TokenService) {
	t.Helper()
	store := NewInMemoryStore()
	svc := NewTokenService(store, TokenConfig{})
	mw := NewMiddleware(svc, store, DefaultResolverChain("X-API-Key"))
	return mw, store, svc
}

func issueToken(t *testing.T, store *InMemoryStore, svc *TokenService, abilities []string) (models.User, string) {
	t.Helper()
	user := models.User{ID: uuid.New(), Name: "alice", Email: "alice@example.com", CreatedAt: time.Now()}
	store.AddUser(user)
	_, plaintext, err := svc.CreateToken(context.Background(), user.ID, "test", abilities, nil)
	require.NoError(t, err)
	return user, plaintext
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestAuthenticateMissingToken(t *testing.T) {
	mw, _, _ := newTestMiddleware(t)

	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, response.StatusUnauthorized, env.Status)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	mw, _, _ := newTestMiddleware(t)

	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer not-a-real-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateAttachesContext(t *testing.T) {
	mw, store, svc := newTestMiddleware(t)
	user, plaintext := issueToken(t, store, svc, []string{"read"})

	var gotUser *models.User
	var gotToken *models.APIToken
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserFromContext(r.Context())
		gotToken = TokenFromContext(r.Context())
		response.Success(w, nil)
	}))

	for _, set := range []func(*http.Request){
		func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+plaintext) },
		func(r *http.Request) { r.Header.Set("X-API-Key", plaintext) },
	} {
		r := httptest.NewRequest("GET", "/", nil)
		set(r)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotUser)
		assert.Equal(t, user.ID, gotUser.ID)
		require.NotNil(t, gotToken)
		assert.Equal(t, user.ID, gotToken.UserID)
	}
}

func TestRequireAbility(t *testing.T) {
	mw, store, svc := newTestMiddleware(t)
	_, plaintext := issueToken(t, store, svc, []string{"read"})

	protected := mw.Authenticate(RequireAbility("write")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, nil)
	})))

	r := httptest.NewRequest("POST", "/", nil)
	r.Header.Set("Authorization", "Bearer "+plaintext)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, response.StatusForbidden, env.Status)

	allowed := mw.Authenticate(RequireAbility("read")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, nil)
	})))

	r = httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+plaintext)
	rec = httptest.NewRecorder()
	allowed.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAbilityWildcard(t *testing.T) {
	mw, store, svc := newTestMiddleware(t)
	_, plaintext := issueToken(t, store, svc, []string{"*"})

	handler := mw.Authenticate(RequireAbility("write")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, nil)
	})))

	r := httptest.NewRequest("POST", "/", nil)
	r.Header.Set("Authorization", "Bearer "+plaintext)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
}
