package password

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/magabrotheeeer/users-api/internal/models"
)

// Rule проверяет пароль и возвращает текст нарушения или пустую строку.
type Rule func(password string, user *models.User) string

// Validator применяет набор правил к паролю.
type Validator struct {
	rules []Rule
}

// NewValidator создает Validator из переданных правил.
func NewValidator(rules ...Rule) *Validator {
	return &Validator{rules: rules}
}

// DefaultValidator возвращает набор правил по умолчанию.
func DefaultValidator(minLength int) *Validator {
	return NewValidator(
		UserAttributeSimilarity(0.7),
		MinimumLength(minLength),
		NotCommon(commonPasswords),
		NotNumeric(),
	)
}

// Validate применяет все правила и возвращает найденные нарушения.
func (v *Validator) Validate(password string, user *models.User) []string {
	var violations []string
	for _, rule := range v.rules {
		if msg := rule(password, user); msg != "" {
			violations = append(violations, msg)
		}
	}
	return violations
}

// MinimumLength требует пароль не короче n символов.
func MinimumLength(n int) Rule {
	return func(password string, _ *models.User) string {
		if len([]rune(password)) < n {
			return fmt.Sprintf("This password is too short. It must contain at least %d characters.", n)
		}
		return ""
	}
}

// NotNumeric запрещает пароли, состоящие только из цифр.
func NotNumeric() Rule {
	return func(password string, _ *models.User) string {
		if password == "" {
			return ""
		}
		for _, r := range password {
			if !unicode.IsDigit(r) {
				return ""
			}
		}
		return "This password is entirely numeric."
	}
}

// NotCommon запрещает пароли из списка распространённых.
func NotCommon(list []string) Rule {
	set := make(map[string]struct{}, len(list))
	for _, p := range list {
		set[strings.ToLower(p)] = struct{}{}
	}
	return func(password string, _ *models.User) string {
		if _, ok := set[strings.ToLower(strings.TrimSpace(password))]; ok {
			return "This password is too common."
		}
		return ""
	}
}

var nonWord = regexp.MustCompile(`\W+`)

// UserAttributeSimilarity запрещает пароли, похожие на атрибуты пользователя.
func UserAttributeSimilarity(maxSimilarity float64) Rule {
	return func(password string, user *models.User) string {
		if user == nil || password == "" {
			return ""
		}
		attrs := []struct {
			name  string
			value string
		}{
			{"username", user.Username},
			{"first name", user.FirstName},
			{"last name", user.LastName},
			{"email address", user.Email},
		}
		pw := strings.ToLower(password)
		for _, attr := range attrs {
			if attr.value == "" {
				continue
			}
			value := strings.ToLower(attr.value)
			parts := append(nonWord.Split(value, -1), value)
			for _, part := range parts {
				if part == "" {
					continue
				}
				if quickRatio(pw, part) >= maxSimilarity {
					return fmt.Sprintf("The password is too similar to the %s.", attr.name)
				}
			}
		}
		return ""
	}
}

// quickRatio — верхняя оценка похожести двух строк по мультимножеству символов.
func quickRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	avail := make(map[rune]int, len(rb))
	for _, r := range rb {
		avail[r]++
	}
	matches := 0
	for _, r := range ra {
		if avail[r] > 0 {
			avail[r]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(total)
}

var commonPasswords = []string{
	"123456", "12345678", "123456789", "1234567890", "password", "password1",
	"password123", "qwerty", "qwerty123", "qwertyuiop", "abc123", "111111",
	"123123", "admin", "admin123", "letmein", "welcome", "monkey", "dragon",
	"football", "baseball", "iloveyou", "trustno1", "sunshine", "master",
	"superman", "1q2w3e4r", "zaq12wsx", "passw0rd", "starwars",
}
