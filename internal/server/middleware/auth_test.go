package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTokenValidator accepts only the tokens registered with it.
type testTokenValidator struct {
	validTokens map[string]uuid.UUID
}

func newTestTokenValidator() *testTokenValidator {
	return &testTokenValidator{validTokens: make(map[string]uuid.UUID)}
}

func (v *testTokenValidator) addValidToken(token string, userID uuid.UUID) {
	v.validTokens[token] = userID
}

func (v *testTokenValidator) ValidateToken(tokenString string) (UserIDGetter, error) {
	userID, ok := v.validTokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return &testClaims{userID: userID}, nil
}

type testClaims struct {
	userID uuid.UUID
}

func (c *testClaims) GetUserID() uuid.UUID {
	return c.userID
}

// serveOptional runs a request through OptionalAuth and returns the user ID
// the handler saw, or nil for anonymous.
func serveOptional(t *testing.T, validator TokenValidator, authHeader string) (*uuid.UUID, int) {
	t.Helper()

	handlerCalled := false
	var seen *uuid.UUID
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		seen = OptionalUserID(r)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/transcribe/rephrase", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	OptionalAuth(validator)(handler).ServeHTTP(w, req)

	require.True(t, handlerCalled, "optional auth must never block the request")
	return seen, w.Code
}

func TestOptionalAuth_ValidToken(t *testing.T) {
	validator := newTestTokenValidator()
	userID := uuid.New()
	validator.addValidToken("valid-test-token-123", userID)

	seen, code := serveOptional(t, validator, "Bearer valid-test-token-123")
	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, seen)
	assert.Equal(t, userID, *seen)
}

func TestOptionalAuth_CaseInsensitiveScheme(t *testing.T) {
	validator := newTestTokenValidator()
	userID := uuid.New()
	validator.addValidToken("token123", userID)

	for _, header := range []string{"bearer token123", "BeArEr token123", "Bearer  token123"} {
		t.Run(header, func(t *testing.T) {
			seen, _ := serveOptional(t, validator, header)
			require.NotNil(t, seen)
			assert.Equal(t, userID, *seen)
		})
	}
}

func TestOptionalAuth_AnonymousFallback(t *testing.T) {
	validator := newTestTokenValidator()
	validator.addValidToken("token123", uuid.New())

	tests := []struct {
		name       string
		authHeader string
	}{
		{name: "no header", authHeader: ""},
		{name: "missing scheme", authHeader: "token123"},
		{name: "only scheme", authHeader: "Bearer"},
		{name: "wrong scheme", authHeader: "Basic dXNlcjpwYXNz"},
		{name: "unknown token", authHeader: "Bearer not.a.valid.jwt"},
		{name: "extra parts", authHeader: "Bearer token123 extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen, code := serveOptional(t, validator, tt.authHeader)
			assert.Nil(t, seen)
			assert.Equal(t, http.StatusOK, code)
		})
	}
}

func TestOptionalAuth_NilValidator(t *testing.T) {
	seen, code := serveOptional(t, nil, "Bearer anything")
	assert.Nil(t, seen)
	assert.Equal(t, http.StatusOK, code)
}

func TestGetUserID_Success(t *testing.T) {
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), userIDKey, userID))

	extractedUserID, err := GetUserID(req)
	require.NoError(t, err)
	assert.Equal(t, userID, extractedUserID)
}

func TestGetUserID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	userID, err := GetUserID(req)
	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, userID)
	assert.Contains(t, err.Error(), "user ID not found")
	assert.Nil(t, OptionalUserID(req))
}

func TestGetUserID_InvalidType(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), userIDKey, "not-a-uuid"))

	userID, err := GetUserID(req)
	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, userID)
}
