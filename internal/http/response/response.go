// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков.
package response

import (
	"fmt"

	"github.com/go-playground/validator"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status — статус запроса ("OK" или "Error").
// Поле Error — текст ошибки (при неуспехе).
// Поле Fields — нарушения по полям (при ошибке валидации).
// Поле Data — данные ответа (при успехе).
type Response struct {
	Status string              `json:"status"`
	Error  string              `json:"error,omitempty"`
	Fields map[string][]string `json:"fields,omitempty"`
	Data   any                 `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

// ValidationResponse — структура ошибки валидации для Swagger-документации.
type ValidationResponse struct {
	Status string              `json:"status" example:"Error"`
	Error  string              `json:"error" example:"validation failed"`
	Fields map[string][]string `json:"fields"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"

	msgValidationFailed = "validation failed"
)

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// FieldsError формирует ответ с нарушениями, сгруппированными по полям.
func FieldsError(fields map[string][]string) Response {
	return Response{
		Status: StatusError,
		Error:  msgValidationFailed,
		Fields: fields,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидатора.
// Каждое нарушение переводится в человеко‑читаемый текст у соответствующего поля.
func ValidationError(errs validator.ValidationErrors) Response {
	fields := make(map[string][]string, len(errs))

	for _, err := range errs {
		var msg string
		switch err.ActualTag() {
		case "required":
			msg = "This field is required."
		case "email":
			msg = "Enter a valid email address."
		case "max":
			msg = fmt.Sprintf("Ensure this field has no more than %s characters.", err.Param())
		default:
			msg = "Invalid value."
		}
		fields[err.Field()] = append(fields[err.Field()], msg)
	}
	return FieldsError(fields)
}
