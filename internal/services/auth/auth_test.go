package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	customjwt "github.com/magabrotheeeer/users-api/internal/lib/jwt"
	"github.com/magabrotheeeer/users-api/internal/lib/password"
	"github.com/magabrotheeeer/users-api/internal/models"
	services "github.com/magabrotheeeer/users-api/internal/services/auth"
	"github.com/magabrotheeeer/users-api/internal/storage"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type PasswordsMock struct {
	mock.Mock
}

func (m *PasswordsMock) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *PasswordsMock) Verify(user *models.User, candidate string) bool {
	return m.Called(user, candidate).Bool(0)
}

func newUser(t *testing.T, rawPassword string) *models.User {
	t.Helper()
	hash, err := password.GetHash(rawPassword, bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "7c0f3a56-1b7e-4c0e-9a57-5a4f8f7f9b10",
		Username:     "testuser",
		PasswordHash: hash,
		IsStaff:      true,
	}
}

func TestAuthService_Login(t *testing.T) {
	const rawPassword = "correctpassword"
	user := newUser(t, rawPassword)

	tests := []struct {
		name       string
		username   string
		password   string
		setupMocks func(r *UserRepoMock)
		wantErr    error
	}{
		{
			name:     "successful login",
			username: "testuser",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByUsername", mock.Anything, "testuser").Return(user, nil).Once()
			},
		},
		{
			name:     "wrong password",
			username: "testuser",
			password: "wrongpassword",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByUsername", mock.Anything, "testuser").Return(user, nil).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:     "unknown user",
			username: "ghost",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, storage.ErrUserNotFound).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMocks(repo)
			maker := customjwt.NewJWTMaker("secret", time.Hour)
			svc := services.NewAuthService(repo, password.NewManager(bcrypt.MinCost, nil), maker)

			token, err := svc.Login(context.Background(), tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, token)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Bearer", token.TokenType)
				assert.Equal(t, int64(3600), token.ExpiresIn)

				claims, err := maker.ParseToken(token.AccessToken)
				require.NoError(t, err)
				assert.Equal(t, user.ID, claims.Subject)
				assert.Equal(t, user.Username, claims.Username)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login_RepositoryError(t *testing.T) {
	repo := new(UserRepoMock)
	repo.On("GetUserByUsername", mock.Anything, "testuser").Return(nil, errors.New("db error")).Once()
	svc := services.NewAuthService(repo, password.NewManager(bcrypt.MinCost, nil), customjwt.NewJWTMaker("secret", time.Hour))

	_, err := svc.Login(context.Background(), "testuser", "whatever")
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "db error")
}

func TestAuthService_Login_UnknownUserChecksPassword(t *testing.T) {
	repo := new(UserRepoMock)
	repo.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, storage.ErrUserNotFound).Twice()

	passwords := new(PasswordsMock)
	passwords.On("Hash", mock.AnythingOfType("string")).Return("dummy-hash", nil).Once()
	passwords.On("Verify", mock.MatchedBy(func(u *models.User) bool {
		return u != nil && u.PasswordHash == "dummy-hash"
	}), "secret").Return(false).Twice()

	svc := services.NewAuthService(repo, passwords, customjwt.NewJWTMaker("secret", time.Hour))

	for range 2 {
		token, err := svc.Login(context.Background(), "ghost", "secret")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
		assert.Nil(t, token)
	}

	repo.AssertExpectations(t)
	passwords.AssertExpectations(t)
}

func TestAuthService_Login_UnknownUserCostsAsMuchAsWrongPassword(t *testing.T) {
	const cost = 10
	hash, err := password.GetHash("correctpassword", cost)
	require.NoError(t, err)
	user := &models.User{ID: "7c0f3a56-1b7e-4c0e-9a57-5a4f8f7f9b10", Username: "testuser", PasswordHash: hash}

	repo := new(UserRepoMock)
	repo.On("GetUserByUsername", mock.Anything, "testuser").Return(user, nil)
	repo.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, storage.ErrUserNotFound)
	svc := services.NewAuthService(repo, password.NewManager(cost, nil), customjwt.NewJWTMaker("secret", time.Hour))

	ctx := context.Background()
	// Первый промах вычисляет хэш-заглушку.
	_, err = svc.Login(ctx, "ghost", "wrongpassword")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)

	start := time.Now()
	_, err = svc.Login(ctx, "testuser", "wrongpassword")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)
	known := time.Since(start)

	start = time.Now()
	_, err = svc.Login(ctx, "ghost", "wrongpassword")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)
	unknown := time.Since(start)

	assert.Greater(t, unknown, known/4)
}

func TestAuthService_ValidateToken(t *testing.T) {
	user := newUser(t, "correctpassword")
	maker := customjwt.NewJWTMaker("secret", time.Hour)
	valid, err := maker.GenerateToken(user.ID, user.Username)
	require.NoError(t, err)
	foreign, err := customjwt.NewJWTMaker("other-secret", time.Hour).GenerateToken(user.ID, user.Username)
	require.NoError(t, err)

	tests := []struct {
		name       string
		token      string
		setupMocks func(r *UserRepoMock)
		want       *models.Principal
		wantErr    error
	}{
		{
			name:  "valid token",
			token: valid,
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, user.ID).Return(user, nil).Once()
			},
			want: &models.Principal{ID: user.ID, Username: user.Username, IsStaff: true},
		},
		{
			name:       "foreign signature",
			token:      foreign,
			setupMocks: func(_ *UserRepoMock) {},
			wantErr:    services.ErrInvalidToken,
		},
		{
			name:       "garbage",
			token:      "not-a-token",
			setupMocks: func(_ *UserRepoMock) {},
			wantErr:    services.ErrInvalidToken,
		},
		{
			name:  "deleted user",
			token: valid,
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUser", mock.Anything, user.ID).Return(nil, storage.ErrUserNotFound).Once()
			},
			wantErr: services.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMocks(repo)
			svc := services.NewAuthService(repo, password.NewManager(bcrypt.MinCost, nil), maker)

			got, err := svc.ValidateToken(context.Background(), tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			repo.AssertExpectations(t)
		})
	}
}
