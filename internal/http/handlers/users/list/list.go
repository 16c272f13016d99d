// Package list реализует HTTP-обработчик списка пользователей.
// Перечисление пользователей отключено: любой аутентифицированный запрос получает 404.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/users-api/internal/http/handlers/users/usererr"
	"github.com/magabrotheeeer/users-api/internal/models"
)

// Handler обрабатывает запросы списка пользователей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка пользователей.
type Service interface {
	List(ctx context.Context, caller *models.Principal) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список пользователей (отключен)
// @Tags Users
// @Produce  json
// @Security BearerAuth
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Всегда"
// @Router /users/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := usererr.Caller(w, r, log)
	if !ok {
		return
	}
	usererr.Render(w, r, log, h.service.List(r.Context(), caller))
}
