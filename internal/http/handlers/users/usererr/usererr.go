// Package usererr переводит ошибки сервиса пользователей в HTTP-ответы.
package usererr

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/users-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/users-api/internal/http/response"
	"github.com/magabrotheeeer/users-api/internal/lib/sl"
	"github.com/magabrotheeeer/users-api/internal/models"
	services "github.com/magabrotheeeer/users-api/internal/services/users"
)

// Сообщения ответов. Причина отказа в доступе не раскрывается.
const (
	MsgUnauthenticated = "authentication credentials were not provided"
	MsgForbidden       = "you do not have permission to perform this action"
	MsgNotFound        = "not found"
	MsgUpstream        = "subscription service unavailable"
	MsgInternal        = "internal error"
	MsgInvalidBody     = "invalid request body"
)

// Render пишет ответ, соответствующий ошибке сервиса.
func Render(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		log.Info("validation failed", slog.Any("fields", verr.Fields))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.FieldsError(verr.Fields))
	case errors.Is(err, services.ErrUnauthenticated):
		log.Info("unauthenticated request")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(MsgUnauthenticated))
	case errors.Is(err, services.ErrForbidden):
		log.Info("permission denied")
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error(MsgForbidden))
	case errors.Is(err, services.ErrNotFound):
		log.Info("user not found")
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(MsgNotFound))
	case errors.Is(err, services.ErrUpstreamUnavailable):
		log.Error("subscription service unavailable", sl.Err(err), sl.Upstream(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error(MsgUpstream))
	default:
		log.Error("request failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(MsgInternal))
	}
}

// Caller возвращает аутентифицированного пользователя или пишет 401.
func Caller(w http.ResponseWriter, r *http.Request, log *slog.Logger) (*models.Principal, bool) {
	caller, ok := middlewarectx.PrincipalFromContext(r.Context())
	if !ok {
		Render(w, r, log, services.ErrUnauthenticated)
		return nil, false
	}
	return caller, true
}

// DecodeInput читает тело запроса. Пустое тело допустимо, если allowEmpty.
func DecodeInput(w http.ResponseWriter, r *http.Request, log *slog.Logger, allowEmpty bool) (services.UserInput, bool) {
	var in services.UserInput
	err := json.NewDecoder(r.Body).Decode(&in)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return in, true
	}
	log.Info("failed to decode request", sl.Err(err))
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, response.Error(MsgInvalidBody))
	return services.UserInput{}, false
}
