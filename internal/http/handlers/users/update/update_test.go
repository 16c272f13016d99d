package update

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/users-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/users-api/internal/models"
	services "github.com/magabrotheeeer/users-api/internal/services/users"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Update(ctx context.Context, caller *models.Principal, id string, in services.UserInput) (*models.DetailedUser, error) {
	args := m.Called(ctx, caller, id, in)
	user, _ := args.Get(0).(*models.DetailedUser)
	return user, args.Error(1)
}

func (m *MockService) PartialUpdate(ctx context.Context, caller *models.Principal, id string, in services.UserInput) (*models.DetailedUser, error) {
	args := m.Called(ctx, caller, id, in)
	user, _ := args.Get(0).(*models.DetailedUser)
	return user, args.Error(1)
}

func TestUpdateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	caller := &models.Principal{ID: "self-id", Username: "self"}

	oldPasswordMissing := &services.ValidationError{Fields: map[string][]string{
		"old_password": {"Previous password is required"},
	}}

	tests := []struct {
		name           string
		partial        bool
		method         string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "частичное изменение себя",
			partial: true,
			method:  http.MethodPatch,
			body:    `{"first_name":"Jane","old_password":"barO1234FFF"}`,
			setupMock: func(m *MockService) {
				m.On("PartialUpdate", mock.Anything, caller, "self-id", mock.MatchedBy(func(in services.UserInput) bool {
					return in.FirstName != nil && *in.FirstName == "Jane" &&
						in.OldPassword != nil && *in.OldPassword == "barO1234FFF"
				})).Return(&models.DetailedUser{ID: "self-id", Username: "self", FirstName: "Jane"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"first_name":"Jane"`,
		},
		{
			name:    "пустое тело допустимо",
			partial: true,
			method:  http.MethodPatch,
			body:    ``,
			setupMock: func(m *MockService) {
				m.On("PartialUpdate", mock.Anything, caller, "self-id", services.UserInput{}).
					Return(nil, oldPasswordMissing)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"fields":{"old_password":["Previous password is required"]}`,
		},
		{
			name:   "полное изменение",
			method: http.MethodPut,
			body:   `{"username":"self","first_name":"J","last_name":"S","email":"s@example.com","password":"barO1234FFF","old_password":"barO1234FFF"}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, caller, "self-id", mock.Anything).
					Return(&models.DetailedUser{ID: "self-id", Username: "self", Email: "s@example.com"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"email":"s@example.com"`,
		},
		{
			name:   "пользователь не найден",
			method: http.MethodPut,
			body:   `{}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, caller, "self-id", mock.Anything).Return(nil, services.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"not found"}`,
		},
		{
			name:           "некорректный json",
			partial:        true,
			method:         http.MethodPatch,
			body:           `[1,2`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid request body"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)
			if tt.partial {
				handler = NewPartial(logger, mockService)
			}

			req := httptest.NewRequest(tt.method, "/api/v1/users/self-id/", strings.NewReader(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "self-id")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithPrincipal(ctx, caller))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
