// Package read реализует HTTP-обработчик для получения пользователя по ID.
//
// Сотрудники и сам пользователь получают полное представление,
// остальные только id, username, first_name и last_name.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/users-api/internal/http/handlers/users/usererr"
	"github.com/magabrotheeeer/users-api/internal/http/response"
	"github.com/magabrotheeeer/users-api/internal/models"
)

// Handler обрабатывает запросы на получение пользователя по идентификатору.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения пользователя.
type Service interface {
	Retrieve(ctx context.Context, caller *models.Principal, id string) (any, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить пользователя
// @Tags Users
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Success 200 {object} models.DetailedUser "Полное или краткое (models.BasicUser) представление"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /users/{id}/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := usererr.Caller(w, r, log)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	user, err := h.service.Retrieve(r.Context(), caller, id)
	if err != nil {
		usererr.Render(w, r, log, err)
		return
	}

	log.Debug("success to read user", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(user))
}
