// Package services содержит бизнес-логику управления учётными записями пользователей:
// таблицу прав на операции, выбор формы представления, валидацию ввода
// и синхронизацию новых пользователей с сервисом подписок.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/users-api/internal/lib/sl"
	"github.com/magabrotheeeer/users-api/internal/models"
	"github.com/magabrotheeeer/users-api/internal/storage"
	"github.com/magabrotheeeer/users-api/internal/subscription"
)

// Ключи маршрутизации событий об изменении пользователей.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// UserRepository определяет методы хранилища пользователей.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, user models.User) error
	UpdateSubscription(ctx context.Context, id, status string) error
	DeleteUser(ctx context.Context, id string) error
	UsernameExists(ctx context.Context, username, excludeID string) (bool, error)
	EmailExists(ctx context.Context, email, excludeID string) (bool, error)
}

// GroupRegistry создаёт недостающие группы.
type GroupRegistry interface {
	GetOrCreateGroups(ctx context.Context, names []string) ([]models.Group, error)
}

// Passwords хеширует пароли и проверяет их сложность.
type Passwords interface {
	Hash(password string) (string, error)
	Verify(user *models.User, candidate string) bool
	Validate(password string, user *models.User) []string
}

// SubscriptionFetcher запрашивает статус подписки во внешнем сервисе.
type SubscriptionFetcher interface {
	FetchSubscription(ctx context.Context, userID string) (*subscription.Subscription, error)
}

// Cache описывает методы для кэширования представлений пользователей.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	SetIfAbsent(ctx context.Context, key string, value any, expiration time.Duration) (bool, error)
	Invalidate(ctx context.Context, key string) error
}

// viewFillTTL ограничивает время жизни представления, прочитанного из хранилища
// при промахе кэша. Такое значение могло устареть ещё до записи в кэш.
const viewFillTTL = 30 * time.Second

// EventPublisher публикует события об изменении пользователей.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Event — тело события об изменении пользователя.
type Event struct {
	Type     string    `json:"type"`
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	ActorID  string    `json:"actor_id"`
	Occurred time.Time `json:"occurred"`
}

// UserService реализует операции над пользователями с проверкой прав.
type UserService struct {
	log           *slog.Logger
	users         UserRepository
	groups        GroupRegistry
	passwords     Passwords
	subscriptions SubscriptionFetcher
	cache         Cache
	cacheTTL      time.Duration
	events        EventPublisher
	validate      *validator.Validate
	now           func() time.Time
}

// NewUserService создает новый экземпляр UserService.
// cache и events могут быть nil, тогда кэширование и события отключены.
func NewUserService(
	log *slog.Logger,
	users UserRepository,
	groups GroupRegistry,
	passwords Passwords,
	subscriptions SubscriptionFetcher,
	cache Cache,
	cacheTTL time.Duration,
	events EventPublisher,
) *UserService {
	if cache == nil {
		cache = noopCache{}
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &UserService{
		log:           log,
		users:         users,
		groups:        groups,
		passwords:     passwords,
		subscriptions: subscriptions,
		cache:         cache,
		cacheTTL:      cacheTTL,
		events:        events,
		validate:      newValidator(),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Create создаёт пользователя, запрашивает его подписку и возвращает полное представление.
// Если сервис подписок недоступен, созданный пользователь удаляется.
func (s *UserService) Create(ctx context.Context, caller *models.Principal, in UserInput) (*models.DetailedUser, error) {
	const op = "services.users.Create"
	log := s.log.With(slog.String("op", op))

	if err := authorize(ActionCreate, caller); err != nil {
		return nil, err
	}

	valid, err := s.validateInput(ctx, SelectShape(ActionCreate, *caller, ""), in, nil, false)
	if err != nil {
		return nil, err
	}

	if _, err := s.groups.GetOrCreateGroups(ctx, valid.Groups); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.passwords.Hash(*valid.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	user := models.User{
		ID:           uuid.NewString(),
		PasswordHash: hash,
		Groups:       []string{},
		Created:      now,
		Updated:      now,
	}
	valid.applyTo(&user)

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, fieldError(FieldUsername, msgUsernameExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("user created", slog.String("id", user.ID), slog.String("username", user.Username))

	sub, err := s.subscriptions.FetchSubscription(ctx, user.ID)
	if err != nil {
		log.Error("failed to fetch subscription, rolling back", slog.String("id", user.ID), sl.Err(err))
		s.rollbackCreate(ctx, log, user.ID)
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
	}

	if err := s.users.UpdateSubscription(ctx, user.ID, sub.Subscription); err != nil {
		s.rollbackCreate(ctx, log, user.ID)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.Subscription = sub.Subscription

	view := user.Detailed()
	s.storeView(ctx, log, view)
	s.publish(ctx, log, EventUserCreated, caller, &user)

	return &view, nil
}

// rollbackCreate удаляет пользователя, для которого не удалось получить подписку.
// Отмена ctx не прерывает удаление.
func (s *UserService) rollbackCreate(ctx context.Context, log *slog.Logger, id string) {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.users.DeleteUser(rbCtx, id); err != nil {
		log.Error("failed to roll back created user", slog.String("id", id), sl.Err(err))
		return
	}
	log.Info("created user rolled back", slog.String("id", id))
}

// Retrieve возвращает пользователя в форме, зависящей от инициатора:
// models.DetailedUser для сотрудников и для самого пользователя, иначе models.BasicUser.
func (s *UserService) Retrieve(ctx context.Context, caller *models.Principal, id string) (any, error) {
	const op = "services.users.Retrieve"
	log := s.log.With(slog.String("op", op))

	if err := authorize(ActionRetrieve, caller); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, ErrNotFound
	}

	var view models.DetailedUser
	found, err := s.cache.Get(ctx, cacheKey(id), &view)
	if err != nil {
		log.Warn("failed to read user from cache", slog.String("id", id), sl.Err(err))
		found = false
	}
	if !found {
		user, err := s.users.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		view = user.Detailed()
		s.fillView(ctx, log, view)
	}

	if SelectShape(ActionRetrieve, *caller, id) == ShapeDetailed {
		return view, nil
	}
	return models.BasicUser{
		ID:        view.ID,
		Username:  view.Username,
		FirstName: view.FirstName,
		LastName:  view.LastName,
	}, nil
}

// List всегда отвечает ErrNotFound: перечисление пользователей отключено.
func (s *UserService) List(_ context.Context, caller *models.Principal) error {
	if err := authorize(ActionList, caller); err != nil {
		return err
	}
	return ErrNotFound
}

// Update полностью изменяет пользователя: должны быть переданы все поля формы.
func (s *UserService) Update(ctx context.Context, caller *models.Principal, id string, in UserInput) (*models.DetailedUser, error) {
	return s.update(ctx, ActionUpdate, caller, id, in)
}

// PartialUpdate изменяет только переданные поля.
func (s *UserService) PartialUpdate(ctx context.Context, caller *models.Principal, id string, in UserInput) (*models.DetailedUser, error) {
	return s.update(ctx, ActionPartialUpdate, caller, id, in)
}

func (s *UserService) update(ctx context.Context, action Action, caller *models.Principal, id string, in UserInput) (*models.DetailedUser, error) {
	const op = "services.users.Update"
	log := s.log.With(slog.String("op", op), slog.String("action", string(action)))

	if err := authorize(action, caller); err != nil {
		return nil, err
	}
	target, err := s.target(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := authorizeObject(action, *caller, target); err != nil {
		return nil, err
	}

	shape := SelectShape(action, *caller, target.ID)
	valid, err := s.validateInput(ctx, shape, in, target, action == ActionPartialUpdate)
	if err != nil {
		return nil, err
	}
	if shape == ShapeSelfUpdate {
		if err := s.checkSelfUpdate(*caller, target, valid); err != nil {
			return nil, err
		}
	}

	if valid.Groups != nil {
		if _, err := s.groups.GetOrCreateGroups(ctx, valid.Groups); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	updated := *target
	valid.applyTo(&updated)
	if valid.Password != nil {
		hash, err := s.passwords.Hash(*valid.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		updated.PasswordHash = hash
	}
	updated.Updated = s.now()

	if err := s.users.UpdateUser(ctx, updated); err != nil {
		switch {
		case errors.Is(err, storage.ErrUserNotFound):
			return nil, ErrNotFound
		case errors.Is(err, storage.ErrUserExists):
			return nil, fieldError(FieldUsername, msgUsernameExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("user updated", slog.String("id", updated.ID), slog.String("shape", shape.String()))

	view := updated.Detailed()
	s.storeView(ctx, log, view)
	s.publish(ctx, log, EventUserUpdated, caller, &updated)

	return &view, nil
}

// Delete удаляет пользователя. Сотрудник может удалить только не сотрудника,
// администратор может удалить любого.
func (s *UserService) Delete(ctx context.Context, caller *models.Principal, id string) error {
	const op = "services.users.Delete"
	log := s.log.With(slog.String("op", op))

	if err := authorize(ActionDelete, caller); err != nil {
		return err
	}
	target, err := s.target(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := authorizeObject(ActionDelete, *caller, target); err != nil {
		return err
	}

	if err := s.users.DeleteUser(ctx, target.ID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("user deleted", slog.String("id", target.ID))

	s.invalidateView(ctx, log, target.ID)
	s.publish(ctx, log, EventUserDeleted, caller, target)
	return nil
}

// target загружает пользователя, над которым выполняется операция.
func (s *UserService) target(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// storeView записывает представление после изменения пользователя поверх
// прежнего значения. Если записать не удалось, ключ удаляется.
func (s *UserService) storeView(ctx context.Context, log *slog.Logger, view models.DetailedUser) {
	if err := s.cache.Set(ctx, cacheKey(view.ID), view, s.cacheTTL); err != nil {
		log.Warn("failed to cache user", slog.String("id", view.ID), sl.Err(err))
		s.invalidateView(ctx, log, view.ID)
	}
}

// fillView кладёт в кэш представление, прочитанное при промахе, только если
// ключ всё ещё пуст: запись после изменения имеет приоритет.
func (s *UserService) fillView(ctx context.Context, log *slog.Logger, view models.DetailedUser) {
	ttl := viewFillTTL
	if s.cacheTTL > 0 && s.cacheTTL < ttl {
		ttl = s.cacheTTL
	}
	if _, err := s.cache.SetIfAbsent(ctx, cacheKey(view.ID), view, ttl); err != nil {
		log.Warn("failed to cache user", slog.String("id", view.ID), sl.Err(err))
	}
}

func (s *UserService) invalidateView(ctx context.Context, log *slog.Logger, id string) {
	if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
		log.Warn("failed to remove user from cache", slog.String("id", id), sl.Err(err))
	}
}

func (s *UserService) publish(ctx context.Context, log *slog.Logger, kind string, caller *models.Principal, user *models.User) {
	event := Event{
		Type:     kind,
		UserID:   user.ID,
		Username: user.Username,
		ActorID:  caller.ID,
		Occurred: s.now(),
	}
	if err := s.events.Publish(ctx, kind, event); err != nil {
		log.Warn("failed to publish user event", slog.String("event", kind), sl.Err(err))
	}
}

func cacheKey(id string) string {
	return "user:" + id
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, any) (bool, error)        { return false, nil }
func (noopCache) Set(context.Context, string, any, time.Duration) error { return nil }
func (noopCache) Invalidate(context.Context, string) error              { return nil }
func (noopCache) SetIfAbsent(context.Context, string, any, time.Duration) (bool, error) {
	return false, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, any) error { return nil }
