package create

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/users-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/users-api/internal/models"
	services "github.com/magabrotheeeer/users-api/internal/services/users"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, caller *models.Principal, in services.UserInput) (*models.DetailedUser, error) {
	args := m.Called(ctx, caller, in)
	user, _ := args.Get(0).(*models.DetailedUser)
	return user, args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	staff := &models.Principal{ID: "staff-id", Username: "staff", IsStaff: true}

	fields := &services.ValidationError{Fields: map[string][]string{
		"username": {"A user with that username already exists."},
	}}

	tests := []struct {
		name           string
		caller         *models.Principal
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "успешное создание",
			caller: staff,
			body:   `{"username":"u1","email":"u1@example.com","password":"barO1234FFF","repeat_password":"barO1234FFF","groups":["sales"]}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, staff, mock.MatchedBy(func(in services.UserInput) bool {
					return in.Username != nil && *in.Username == "u1" && len(in.Groups) == 1
				})).Return(&models.DetailedUser{
					ID:           "new-id",
					Username:     "u1",
					Groups:       []string{"sales"},
					Subscription: "active",
				}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"subscription":"active"`,
		},
		{
			name:           "без аутентификации",
			caller:         nil,
			body:           `{}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"authentication credentials were not provided"}`,
		},
		{
			name:           "некорректный json",
			caller:         staff,
			body:           `{"username":`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "пустое тело",
			caller:         staff,
			body:           ``,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid request body"`,
		},
		{
			name:   "недостаточно прав",
			caller: &models.Principal{ID: "plain-id", Username: "plain"},
			body:   `{"username":"u1"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil, services.ErrForbidden)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"error":"you do not have permission to perform this action"`,
		},
		{
			name:   "ошибка валидации",
			caller: staff,
			body:   `{"username":"taken"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, staff, mock.Anything).Return(nil, fields)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"fields":{"username":["A user with that username already exists."]}`,
		},
		{
			name:   "сервис подписок недоступен",
			caller: staff,
			body:   `{"username":"u1"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, staff, mock.Anything).Return(nil, services.ErrUpstreamUnavailable)
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `"error":"subscription service unavailable"`,
		},
		{
			name:   "внутренняя ошибка",
			caller: staff,
			body:   `{"username":"u1"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, staff, mock.Anything).Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"internal error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/users/", strings.NewReader(tt.body))
			if tt.caller != nil {
				req = req.WithContext(middlewarectx.WithPrincipal(req.Context(), tt.caller))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestCreateHandler_NoPasswordInResponse(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	staff := &models.Principal{ID: "staff-id", IsStaff: true}

	mockService := new(MockService)
	mockService.On("Create", mock.Anything, staff, mock.Anything).
		Return(&models.DetailedUser{ID: "new-id", Username: "u1", Groups: []string{}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/",
		strings.NewReader(`{"username":"u1","password":"barO1234FFF","repeat_password":"barO1234FFF"}`))
	req = req.WithContext(middlewarectx.WithPrincipal(req.Context(), staff))
	w := httptest.NewRecorder()

	New(logger, mockService).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "OK", got["status"])
	data, ok := got["data"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, data, "password")
	assert.NotContains(t, data, "repeat_password")
	assert.Equal(t, "u1", data["username"])
}
