package postgresql

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/users-api/internal/models"
)

// GetOrCreateGroups возвращает группы по именам, создавая недостающие.
// Параллельные вызовы с одинаковым именем не создают дубликатов.
func (s *Storage) GetOrCreateGroups(ctx context.Context, names []string) ([]models.Group, error) {
	const op = "storage.postgresql.GetOrCreateGroups"
	if len(names) == 0 {
		return []models.Group{}, nil
	}

	if _, err := s.DB.ExecContext(ctx, `
		INSERT INTO groups (name)
		SELECT unnest($1::text[])
		ON CONFLICT (name) DO NOTHING`, names); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name FROM groups WHERE name = ANY($1) ORDER BY name`, names)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
