package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/users-api/internal/models"
	"github.com/magabrotheeeer/users-api/internal/storage"
)

const userColumns = `id, username, first_name, last_name, email, password_hash,
			      is_staff, is_superuser, subscription, created, updated`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email,
		&u.PasswordHash, &u.IsStaff, &u.IsSuperuser, &u.Subscription,
		&u.Created, &u.Updated); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя вместе с членством в группах.
// Группы должны существовать заранее (см. GetOrCreateGroups).
func (s *Storage) CreateUser(ctx context.Context, user models.User) error {
	const op = "storage.postgresql.CreateUser"

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO users (id, username, first_name, last_name, email, password_hash,
			          is_staff, is_superuser, subscription, created, updated)
			      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		if _, err := tx.ExecContext(ctx, query,
			user.ID, user.Username, user.FirstName, user.LastName, user.Email, user.PasswordHash,
			user.IsStaff, user.IsSuperuser, user.Subscription, user.Created, user.Updated); err != nil {
			return err
		}
		return setMemberships(ctx, tx, user.ID, user.Groups)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.postgresql.GetUser"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	if u.Groups, err = s.memberships(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.postgresql.GetUserByUsername"

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	if u.Groups, err = s.memberships(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUser перезаписывает пользователя и заменяет набор его групп.
func (s *Storage) UpdateUser(ctx context.Context, user models.User) error {
	const op = "storage.postgresql.UpdateUser"

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `UPDATE users
			      SET username = $1, first_name = $2, last_name = $3, email = $4,
			          password_hash = $5, is_staff = $6, is_superuser = $7,
			          subscription = $8, updated = $9
			      WHERE id = $10`
		res, err := tx.ExecContext(ctx, query,
			user.Username, user.FirstName, user.LastName, user.Email, user.PasswordHash,
			user.IsStaff, user.IsSuperuser, user.Subscription, user.Updated, user.ID)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return storage.ErrUserNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_groups WHERE user_id = $1`, user.ID); err != nil {
			return err
		}
		return setMemberships(ctx, tx, user.ID, user.Groups)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

// UpdateSubscription меняет только статус подписки пользователя.
func (s *Storage) UpdateSubscription(ctx context.Context, id, status string) error {
	const op = "storage.postgresql.UpdateSubscription"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET subscription = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return nil
}

// DeleteUser удаляет пользователя. Членство в группах удаляется каскадно.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	const op = "storage.postgresql.DeleteUser"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return nil
}

// UsernameExists проверяет, занято ли имя другим пользователем.
func (s *Storage) UsernameExists(ctx context.Context, username, excludeID string) (bool, error) {
	const op = "storage.postgresql.UsernameExists"

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id::text <> $2)`
	if err := s.DB.QueryRowContext(ctx, query, username, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// EmailExists проверяет, занята ли почта другим пользователем.
func (s *Storage) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	const op = "storage.postgresql.EmailExists"

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id::text <> $2)`
	if err := s.DB.QueryRowContext(ctx, query, email, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

func (s *Storage) memberships(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT g.name
		FROM groups g
		JOIN user_groups ug ON ug.group_id = g.id
		WHERE ug.user_id = $1
		ORDER BY g.name`, userID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	groups := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		groups = append(groups, name)
	}
	return groups, rows.Err()
}

func setMemberships(ctx context.Context, tx *sql.Tx, userID string, groups []string) error {
	if len(groups) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_groups (user_id, group_id)
		SELECT $1, id FROM groups WHERE name = ANY($2)`, userID, groups)
	return err
}
