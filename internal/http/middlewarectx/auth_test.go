package middlewarectx_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/users-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/users-api/internal/models"
	authservice "github.com/magabrotheeeer/users-api/internal/services/auth"
)

// Mock for auth service
type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) ValidateToken(ctx context.Context, token string) (*models.Principal, error) {
	args := m.Called(ctx, token)
	resp, _ := args.Get(0).(*models.Principal)
	return resp, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	principal := &models.Principal{ID: "3f0b9a8e-8c1d-4e25-9f59-0f0c6a3c1e11", Username: "testuser", IsStaff: true}

	tests := []struct {
		name           string
		authHeader     string
		mockResp       *models.Principal
		mockErr        error
		callsService   bool
		wantStatusCode int
		wantCalled     bool
		wantBody       string
	}{
		{
			name:           "missing Authorization header",
			authHeader:     "",
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `"error":"authentication credentials were not provided"`,
		},
		{
			name:           "invalid Authorization header prefix",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer token",
			mockErr:        fmt.Errorf("op: %w", authservice.ErrInvalidToken),
			callsService:   true,
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `"error":"invalid or expired token"`,
		},
		{
			name:           "storage failure",
			authHeader:     "Bearer token",
			mockErr:        errors.New("db down"),
			callsService:   true,
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer token",
			mockResp:       principal,
			callsService:   true,
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthServiceMock)
			if tt.callsService {
				authMock.On("ValidateToken", mock.Anything, "token").Return(tt.mockResp, tt.mockErr).Once()
			}

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				got, ok := middlewarectx.PrincipalFromContext(r.Context())
				assert.True(t, ok)
				assert.Equal(t, principal, got)
				w.WriteHeader(http.StatusOK)
			})
			handler := middlewarectx.JWTMiddleware(authMock, newNoopLogger())(next)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatusCode, w.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			if tt.wantBody != "" {
				assert.True(t, strings.Contains(w.Body.String(), tt.wantBody), w.Body.String())
			}
			authMock.AssertExpectations(t)
		})
	}
}

func TestPrincipalFromContext_Missing(t *testing.T) {
	_, ok := middlewarectx.PrincipalFromContext(context.Background())
	assert.False(t, ok)

	var nilPrincipal *models.Principal
	_, ok = middlewarectx.PrincipalFromContext(middlewarectx.WithPrincipal(context.Background(), nilPrincipal))
	assert.False(t, ok)
}
