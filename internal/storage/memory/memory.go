// Package memory реализует хранилище пользователей и групп в памяти процесса.
// Используется в тестах и при локальном запуске без PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/magabrotheeeer/users-api/internal/models"
	"github.com/magabrotheeeer/users-api/internal/storage"
)

// Storage хранит пользователей и группы в map под общим мьютексом.
type Storage struct {
	mu          sync.RWMutex
	users       map[string]models.User
	groups      map[string]models.Group
	nextGroupID int
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		users:  make(map[string]models.User),
		groups: make(map[string]models.Group),
	}
}

// CreateUser сохраняет нового пользователя.
func (s *Storage) CreateUser(ctx context.Context, user models.User) error {
	const op = "storage.memory.CreateUser"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}
	if s.conflictLocked(user) {
		return fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}
	s.users[user.ID] = clone(user)
	return nil
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.memory.GetUser"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	u = clone(u)
	return &u, nil
}

// GetUserByUsername возвращает пользователя по имени.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.memory.GetUserByUsername"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			u = clone(u)
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
}

// UpdateUser перезаписывает пользователя целиком.
func (s *Storage) UpdateUser(ctx context.Context, user models.User) error {
	const op = "storage.memory.UpdateUser"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if s.conflictLocked(user) {
		return fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}
	s.users[user.ID] = clone(user)
	return nil
}

// UpdateSubscription меняет только статус подписки.
func (s *Storage) UpdateSubscription(ctx context.Context, id, status string) error {
	const op = "storage.memory.UpdateSubscription"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	u.Subscription = status
	s.users[id] = u
	return nil
}

// DeleteUser удаляет пользователя.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	const op = "storage.memory.DeleteUser"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	delete(s.users, id)
	return nil
}

// UsernameExists проверяет, занято ли имя другим пользователем.
func (s *Storage) UsernameExists(ctx context.Context, username, excludeID string) (bool, error) {
	return s.exists(ctx, excludeID, func(u models.User) bool { return u.Username == username })
}

// EmailExists проверяет, занята ли почта другим пользователем.
func (s *Storage) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	return s.exists(ctx, excludeID, func(u models.User) bool { return u.Email == email })
}

// GetOrCreateGroups возвращает группы по именам, создавая недостающие.
func (s *Storage) GetOrCreateGroups(ctx context.Context, names []string) ([]models.Group, error) {
	const op = "storage.memory.GetOrCreateGroups"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]models.Group, 0, len(names))
	for _, name := range names {
		g, ok := s.groups[name]
		if !ok {
			s.nextGroupID++
			g = models.Group{ID: s.nextGroupID, Name: name}
			s.groups[name] = g
		}
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Groups возвращает все известные группы.
func (s *Storage) Groups() []models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Len возвращает количество пользователей.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *Storage) exists(ctx context.Context, excludeID string, match func(models.User) bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, u := range s.users {
		if id != excludeID && match(u) {
			return true, nil
		}
	}
	return false, nil
}

// conflictLocked проверяет уникальность имени и почты, вызывается под мьютексом.
func (s *Storage) conflictLocked(user models.User) bool {
	for id, u := range s.users {
		if id == user.ID {
			continue
		}
		if u.Username == user.Username {
			return true
		}
		if user.Email != "" && u.Email == user.Email {
			return true
		}
	}
	return false
}

func clone(u models.User) models.User {
	if u.Groups != nil {
		groups := make([]string, len(u.Groups))
		copy(groups, u.Groups)
		u.Groups = groups
	}
	return u
}
