package list

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/users-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/users-api/internal/models"
	services "github.com/magabrotheeeer/users-api/internal/services/users"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, caller *models.Principal) error {
	return m.Called(ctx, caller).Error(0)
}

func TestListHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("список отключен даже для администратора", func(t *testing.T) {
		admin := &models.Principal{ID: "admin-id", IsStaff: true, IsSuperuser: true}
		mockService := new(MockService)
		mockService.On("List", mock.Anything, admin).Return(services.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/", nil)
		req = req.WithContext(middlewarectx.WithPrincipal(req.Context(), admin))
		w := httptest.NewRecorder()

		New(logger, mockService).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"status":"Error","error":"not found"}`, w.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("без аутентификации", func(t *testing.T) {
		mockService := new(MockService)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/", nil)
		w := httptest.NewRecorder()

		New(logger, mockService).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockService.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}
