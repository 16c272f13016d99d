// Package models содержит доменную модель пользователя системы,
// его групп и представлений, которые отдаются клиентам API.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет учётную запись пользователя системы.
type User struct {
	ID           string    // Уникальный идентификатор пользователя (UUID)
	Username     string    // Имя пользователя (уникальное)
	FirstName    string    // Имя
	LastName     string    // Фамилия
	Email        string    // Электронная почта (уникальная)
	PasswordHash string    // Хэш пароля пользователя
	IsStaff      bool      // Сотрудник, может управлять другими пользователями
	IsSuperuser  bool      // Администратор, может управлять кем угодно
	Subscription string    // Статус подписки из внешнего сервиса
	Groups       []string  // Имена групп пользователя
	Created      time.Time // Дата создания
	Updated      time.Time // Дата последнего изменения
}

// Principal описывает аутентифицированного пользователя, выполняющего запрос.
type Principal struct {
	ID          string
	Username    string
	IsStaff     bool
	IsSuperuser bool
}

// Principal возвращает данные пользователя как инициатора запроса.
func (u *User) Principal() Principal {
	return Principal{
		ID:          u.ID,
		Username:    u.Username,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}
