// Package storage содержит общие ошибки хранилищ пользователей.
// Конкретные реализации находятся в подпакетах postgresql и memory.
package storage

import "errors"

var (
	// ErrUserNotFound — пользователь с указанным ID или именем не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists — нарушена уникальность ID, имени пользователя или почты.
	ErrUserExists = errors.New("user already exists")
)
