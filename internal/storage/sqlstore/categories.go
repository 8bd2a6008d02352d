package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stroy-calc/internal/storage"
)

func (s *Storage) GetCategory(ctx context.Context, id int64) (*storage.Category, error) {
	const op = "storage.sqlstore.GetCategory"

	query := `SELECT id, slug, name, is_active FROM calc_categories WHERE id = ?`

	c := &storage.Category{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Slug, &c.Name, &c.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: id=%d: %w", op, id, storage.ErrCategoryNotFound)
		}
		return nil, fmt.Errorf("%s: выполнение запроса завершилось ошибкой: %w", op, err)
	}

	return c, nil
}

func (s *Storage) ListCategories(ctx context.Context, activeOnly bool) ([]storage.Category, error) {
	const op = "storage.sqlstore.ListCategories"

	query := `SELECT id, slug, name, is_active FROM calc_categories`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	categories := []storage.Category{}
	for rows.Next() {
		var c storage.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.IsActive); err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return categories, nil
}

func (s *Storage) CreateCategory(ctx context.Context, c storage.Category) (int64, error) {
	const op = "storage.sqlstore.CreateCategory"

	stmt := `INSERT INTO calc_categories (slug, name, is_active) VALUES (?, ?, ?)`

	res, err := s.db.ExecContext(ctx, stmt, c.Slug, c.Name, c.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: slug=%q: %w", op, c.Slug, storage.ErrCategoryExists)
		}
		return 0, fmt.Errorf("%s: ошибка сохранения категории: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

func (s *Storage) UpdateCategory(ctx context.Context, c storage.Category) error {
	const op = "storage.sqlstore.UpdateCategory"

	// RowsAffected тут не годится: MySQL не считает строку изменённой, если значения те же
	if _, err := s.GetCategory(ctx, c.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	stmt := `UPDATE calc_categories SET slug = ?, name = ?, is_active = ? WHERE id = ?`

	if _, err := s.db.ExecContext(ctx, stmt, c.Slug, c.Name, c.IsActive, c.ID); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: slug=%q: %w", op, c.Slug, storage.ErrCategoryExists)
		}
		return fmt.Errorf("%s: ошибка обновления категории: %w", op, err)
	}
	return nil
}
