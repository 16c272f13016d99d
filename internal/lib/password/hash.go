// Package password реализует функции для безопасного хеширования и проверки паролей,
// а также набор правил проверки сложности пароля.
//
// GetHash создает bcrypt-хеш пароля для безопасного хранения.
// CompareHash сравнивает исходный bcrypt-хеш с введённым паролем, проверяя их соответствие.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/users-api/internal/models"
)

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
//
// Если cost выходит за допустимые пределы, используется bcrypt.DefaultCost.
func GetHash(password string, cost int) (string, error) {
	const op = "password.GetHash"
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Возвращает nil, если пароль соответствует хэшу, иначе ошибку.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Manager объединяет хеширование и проверку сложности пароля.
type Manager struct {
	cost      int
	validator *Validator
}

// NewManager создает Manager с заданной стоимостью bcrypt и набором правил.
func NewManager(cost int, validator *Validator) *Manager {
	if validator == nil {
		validator = NewValidator()
	}
	return &Manager{
		cost:      cost,
		validator: validator,
	}
}

// Hash возвращает хэш пароля.
func (m *Manager) Hash(password string) (string, error) {
	return GetHash(password, m.cost)
}

// Verify проверяет пароль пользователя.
func (m *Manager) Verify(user *models.User, candidate string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	return CompareHash(user.PasswordHash, candidate) == nil
}

// Validate возвращает список нарушений правил сложности.
func (m *Manager) Validate(password string, user *models.User) []string {
	return m.validator.Validate(password, user)
}
