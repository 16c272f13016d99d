// Package create реализует HTTP-обработчик для создания пользователя.
//
// Handler принимает JSON с данными нового пользователя, передаёт их сервису
// вместе с инициатором запроса и возвращает полное представление созданного пользователя.
package create

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/users-api/internal/http/handlers/users/usererr"
	"github.com/magabrotheeeer/users-api/internal/http/response"
	"github.com/magabrotheeeer/users-api/internal/models"
	services "github.com/magabrotheeeer/users-api/internal/services/users"
)

// Handler управляет HTTP-запросами на создание пользователей.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики пользователей
}

// Service описывает интерфейс бизнес-логики создания пользователя.
type Service interface {
	Create(ctx context.Context, caller *models.Principal, in services.UserInput) (*models.DetailedUser, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Создать пользователя
// @Description Создает пользователя и запрашивает статус его подписки. Доступно только сотрудникам.
// @Tags Users
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body services.UserInput true "username, first_name, last_name, email, password, repeat_password, groups"
// @Success 201 {object} models.DetailedUser "Созданный пользователь"
// @Failure 400 {object} response.ValidationResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 502 {object} response.ErrorResponse "Сервис подписок недоступен"
// @Router /users/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := usererr.Caller(w, r, log)
	if !ok {
		return
	}

	in, ok := usererr.DecodeInput(w, r, log, false)
	if !ok {
		return
	}

	user, err := h.service.Create(r.Context(), caller, in)
	if err != nil {
		usererr.Render(w, r, log, err)
		return
	}

	log.Info("success to create user", slog.String("id", user.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(user))
}
