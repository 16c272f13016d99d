package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Ошибки бизнес-уровня. HTTP-слой сопоставляет их со статусами ответа через errors.Is.
var (
	ErrUnauthenticated     = errors.New("authentication credentials were not provided")
	ErrForbidden           = errors.New("you do not have permission to perform this action")
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("subscription service unavailable")
)

// ValidationError содержит нарушения входных данных, сгруппированные по полям.
type ValidationError struct {
	Fields map[string][]string
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add добавляет сообщение к полю.
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

// Has сообщает, есть ли нарушения у поля.
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// Empty сообщает, что нарушений нет.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// fieldError создаёт ValidationError с одним нарушением.
func fieldError(field, msg string) *ValidationError {
	e := newValidationError()
	e.Add(field, msg)
	return e
}
