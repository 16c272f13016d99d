// Package services содержит логику аутентификации: выдачу токенов доступа
// по имени пользователя и паролю и проверку предъявленных токенов.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/users-api/internal/lib/jwt"
	"github.com/magabrotheeeer/users-api/internal/models"
	"github.com/magabrotheeeer/users-api/internal/storage"
)

var (
	// ErrInvalidCredentials — неверное имя пользователя или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken — токен не прошёл проверку или пользователь удалён.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// TokenType — тип выдаваемого токена для заголовка Authorization.
const TokenType = "Bearer"

// UserRepository описывает контракт для чтения пользователей из хранилища.
type UserRepository interface {
	// GetUser возвращает пользователя по ID.
	GetUser(ctx context.Context, id string) (*models.User, error)
	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Passwords хеширует и проверяет пароли пользователей.
type Passwords interface {
	Hash(password string) (string, error)
	Verify(user *models.User, candidate string) bool
}

// Token — выданный токен доступа.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AuthService отвечает за выдачу и проверку JWT.
type AuthService struct {
	users     UserRepository
	passwords Passwords
	jwtMaker  jwt.Maker

	dummyOnce sync.Once
	dummyUser *models.User
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, passwords Passwords, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		jwtMaker:  jwtMaker,
	}
}

// Login проверяет пароль пользователя и выдаёт токен доступа.
// Отсутствующий пользователь и неверный пароль неразличимы для вызывающего.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (*Token, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.verifyDummy(rawPassword)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !s.passwords.Verify(user, rawPassword) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Token{
		AccessToken: token,
		TokenType:   TokenType,
		ExpiresIn:   int64(s.jwtMaker.TTL().Seconds()),
	}, nil
}

// verifyDummy сверяет пароль с хэшем случайного значения. Вызывается для неизвестного имени пользователя.
func (s *AuthService) verifyDummy(rawPassword string) {
	s.dummyOnce.Do(func() {
		hash, err := s.passwords.Hash(uuid.NewString())
		if err != nil {
			return
		}
		s.dummyUser = &models.User{PasswordHash: hash}
	})
	if s.dummyUser != nil {
		_ = s.passwords.Verify(s.dummyUser, rawPassword)
	}
}

// ValidateToken проверяет JWT и возвращает актуальные данные пользователя.
// Пользователь перечитывается из хранилища, поэтому токен удалённого пользователя недействителен.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.Principal, error) {
	const op = "services.auth.ValidateToken"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}

	user, err := s.users.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	principal := user.Principal()
	return &principal, nil
}
