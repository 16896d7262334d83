package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/planhub/planhub-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockJWTService is a mock implementation of auth.JWTService for testing
type mockJWTService struct {
	validateTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)
}

func (m *mockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return "mock-token", nil
}

func (m *mockJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.validateTokenFn != nil {
		return m.validateTokenFn(ctx, tokenString)
	}
	return nil, auth.ErrInvalidToken
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	fixedUserID := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	tests := []struct {
		name           string
		authHeader     string
		validateFn     func(ctx context.Context, tokenString string) (*auth.Claims, error)
		expectedStatus int
		expectNext     bool
	}{
		{
			name:       "valid_token",
			authHeader: "Bearer good-token",
			validateFn: func(ctx context.Context, tokenString string) (*auth.Claims, error) {
				assert.Equal(t, "good-token", tokenString)
				return &auth.Claims{UserID: fixedUserID}, nil
			},
			expectedStatus: http.StatusOK,
			expectNext:     true,
		},
		{
			name:           "missing_header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong_scheme",
			authHeader:     "Basic abc123",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired_token",
			authHeader: "Bearer stale-token",
			validateFn: func(ctx context.Context, tokenString string) (*auth.Claims, error) {
				return nil, auth.ErrExpiredToken
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid_token",
			authHeader: "Bearer garbage",
			validateFn: func(ctx context.Context, tokenString string) (*auth.Claims, error) {
				return nil, auth.ErrInvalidToken
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := NewAuthMiddleware(&mockJWTService{validateTokenFn: tt.validateFn})

			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true

				userID, ok := GetUserID(r)
				require.True(t, ok)
				assert.Equal(t, fixedUserID, userID)

				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			middleware.Authenticate(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectNext, nextCalled)
		})
	}
}
