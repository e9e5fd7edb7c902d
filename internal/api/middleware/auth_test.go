package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskhub-api/internal/service/auth"
)

// stubJWTService returns canned validation results so the middleware can be
// tested without real tokens.
type stubJWTService struct {
	claims      *auth.Claims
	validateErr error
}

func (s *stubJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	return s.claims, nil
}

func (s *stubJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubJWTService) ValidateRefreshToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	return nil, errors.New("not implemented")
}

func runAuthenticate(t *testing.T, svc *stubJWTService, header string) (*httptest.ResponseRecorder, uuid.UUID, bool) {
	t.Helper()

	var (
		gotID uuid.UUID
		gotOK bool
	)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = GetUserID(r)
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()

	NewAuthMiddleware(svc).Authenticate(next).ServeHTTP(w, r)
	return w, gotID, gotOK
}

func TestAuthenticate(t *testing.T) {
	t.Run("valid token puts the user ID in context", func(t *testing.T) {
		userID := uuid.New()
		svc := &stubJWTService{claims: &auth.Claims{UserID: userID}}

		w, gotID, gotOK := runAuthenticate(t, svc, "Bearer some-token")
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, gotOK)
		assert.Equal(t, userID, gotID)
	})

	t.Run("missing header is 401", func(t *testing.T) {
		w, _, gotOK := runAuthenticate(t, &stubJWTService{}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, gotOK)
	})

	t.Run("malformed header is 401", func(t *testing.T) {
		w, _, _ := runAuthenticate(t, &stubJWTService{}, "Token abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	// The validation errors may come back wrapped; the middleware must still
	// recognize them.
	t.Run("wrapped expired token is 401", func(t *testing.T) {
		svc := &stubJWTService{validateErr: fmt.Errorf("validating access token: %w", auth.ErrExpiredToken)}

		w, _, gotOK := runAuthenticate(t, svc, "Bearer stale-token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Token expired")
		assert.False(t, gotOK)
	})

	t.Run("wrapped invalid token is 401", func(t *testing.T) {
		svc := &stubJWTService{validateErr: fmt.Errorf("validating access token: %w", auth.ErrInvalidToken)}

		w, _, _ := runAuthenticate(t, svc, "Bearer garbage")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid token")
	})

	t.Run("unrecognized validation failure is 500", func(t *testing.T) {
		svc := &stubJWTService{validateErr: errors.New("keystore unavailable")}

		w, _, _ := runAuthenticate(t, svc, "Bearer some-token")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
