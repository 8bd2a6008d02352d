package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"stroy-calc/internal/storage"
)

func (s *Storage) GetInputDefinitions(ctx context.Context, categoryID int64) ([]storage.InputDefinition, error) {
	const op = "storage.sqlstore.GetInputDefinitions"

	query := `
		SELECT id, category_id, input_key, label, unit, default_value, min_value, max_value, step, tooltip, sort_order
		FROM calc_inputs
		WHERE category_id = ?
		ORDER BY sort_order, id
	`

	rows, err := s.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	defs := []storage.InputDefinition{}
	for rows.Next() {
		var (
			d       storage.InputDefinition
			maxVal  sql.NullFloat64
			tooltip sql.NullString
		)
		err := rows.Scan(&d.ID, &d.CategoryID, &d.Key, &d.Label, &d.Unit, &d.DefaultValue,
			&d.MinValue, &maxVal, &d.Step, &tooltip, &d.SortOrder)
		if err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}
		d.MaxValue = floatPtr(maxVal)
		d.Tooltip = stringPtr(tooltip)

		defs = append(defs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return defs, nil
}

// ReplaceInputDefinitions заменяет все поля категории в одной транзакции.
func (s *Storage) ReplaceInputDefinitions(ctx context.Context, categoryID int64, defs []storage.InputDefinition) error {
	const op = "storage.sqlstore.ReplaceInputDefinitions"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM calc_inputs WHERE category_id = ?`, categoryID); err != nil {
		return fmt.Errorf("%s: ошибка удаления полей: %w", op, err)
	}

	stmt := `INSERT INTO calc_inputs (category_id, input_key, label, unit, default_value, min_value, max_value, step, tooltip, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, d := range defs {
		_, err := tx.ExecContext(ctx, stmt, categoryID, d.Key, d.Label, d.Unit, d.DefaultValue, d.MinValue,
			nullFloat(d.MaxValue), d.Step, nullString(d.Tooltip), d.SortOrder)
		if err != nil {
			switch {
			case isUniqueViolation(err):
				return fmt.Errorf("%s: key=%q: %w", op, d.Key, storage.ErrInputKeyExists)
			case isForeignKeyViolation(err):
				return fmt.Errorf("%s: category_id=%d: %w", op, categoryID, storage.ErrCategoryNotFound)
			}
			return fmt.Errorf("%s: ошибка сохранения поля %q: %w", op, d.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
