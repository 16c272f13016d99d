// Package update реализует HTTP-обработчики полного (PUT) и частичного (PATCH)
// изменения пользователя.
//
// Сотрудники могут менять username, first_name, last_name, email, groups и password.
// Остальные пользователи меняют только свою учётную запись и обязаны передать old_password.
package update

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
	services "github.com/magabrotheeeer/users-api/internal/services/users"
)

// Handler обрабатывает запросы на изменение пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
	partial bool
}

// Service описывает интерфейс бизнес-логики изменения пользователя.
type Service interface {
	Update(ctx context.Context, caller *models.Principal, id string, in services.UserInput) (*models.DetailedUser, error)
	PartialUpdate(ctx context.Context, caller *models.Principal, id string, in services.UserInput) (*models.DetailedUser, error)
}

// New создает Handler полного изменения (PUT).
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// NewPartial создает Handler частичного изменения (PATCH).
func NewPartial(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		partial: true,
	}
}

// ServeHTTP godoc
// @Summary Изменить пользователя
// @Description PUT требует все изменяемые поля, PATCH принимает любое их подмножество.
// @Tags Users
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Param request body services.UserInput true "Изменяемые поля"
// @Success 200 {object} models.DetailedUser "Изменённый пользователь"
// @Failure 400 {object} response.ValidationResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /users/{id}/ [put]
// @Router /users/{id}/ [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Bool("partial", h.partial),
	)

	caller, ok := usererr.Caller(w, r, log)
	if !ok {
		return
	}

	in, ok := usererr.DecodeInput(w, r, log, true)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	var (
		user *models.DetailedUser
		err  error
	)
	if h.partial {
		user, err = h.service.PartialUpdate(r.Context(), caller, id, in)
	} else {
		user, err = h.service.Update(r.Context(), caller, id, in)
	}
	if err != nil {
		usererr.Render(w, r, log, err)
		return
	}

	log.Info("success to update user", slog.String("id", user.ID))
	render.JSON(w, r, response.OKWithData(user))
}
