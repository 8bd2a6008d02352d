package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"stroy-calc/internal/storage"
)

func (s *Storage) GetFormula(ctx context.Context, categoryID int64) (*storage.FormulaRecord, error) {
	const op = "storage.sqlstore.GetFormula"

	query := `
		SELECT category_id, formula_type, formula_params, result_unit, result_unit_template, recommendations_template
		FROM calc_formulas
		WHERE category_id = ?
	`

	rec := &storage.FormulaRecord{}

	// JSON сканируем как строку
	var (
		paramsJSON string
		recsJSON   sql.NullString
		unitTmpl   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, categoryID).Scan(
		&rec.CategoryID,
		&rec.FormulaType,
		&paramsJSON,
		&rec.ResultUnit,
		&unitTmpl,
		&recsJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: category_id=%d: %w", op, categoryID, storage.ErrFormulaNotFound)
		}
		return nil, fmt.Errorf("%s: выполнение запроса завершилось ошибкой: %w", op, err)
	}

	rec.FormulaParams = json.RawMessage(paramsJSON)
	rec.ResultUnitTemplate = stringPtr(unitTmpl)
	if recsJSON.Valid {
		rec.RecommendationsTemplate = json.RawMessage(recsJSON.String)
	}

	return rec, nil
}

// SaveFormula создаёт или заменяет единственную формулу категории.
func (s *Storage) SaveFormula(ctx context.Context, rec storage.FormulaRecord) error {
	const op = "storage.sqlstore.SaveFormula"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM calc_formulas WHERE category_id = ?`, rec.CategoryID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// MySQL не принимает JSON в бинарной кодировке, поэтому передаём строки
	params := string(rec.FormulaParams)
	var recs sql.NullString
	if len(rec.RecommendationsTemplate) > 0 && string(rec.RecommendationsTemplate) != "null" {
		recs = sql.NullString{String: string(rec.RecommendationsTemplate), Valid: true}
	}

	if exists > 0 {
		_, err = tx.ExecContext(ctx, `
			UPDATE calc_formulas
			SET formula_type = ?, formula_params = ?, result_unit = ?, result_unit_template = ?, recommendations_template = ?
			WHERE category_id = ?`,
			rec.FormulaType, params, rec.ResultUnit, nullString(rec.ResultUnitTemplate), recs, rec.CategoryID)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO calc_formulas (category_id, formula_type, formula_params, result_unit, result_unit_template, recommendations_template)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rec.CategoryID, rec.FormulaType, params, rec.ResultUnit, nullString(rec.ResultUnitTemplate), recs)
	}
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%s: category_id=%d: %w", op, rec.CategoryID, storage.ErrCategoryNotFound)
		}
		return fmt.Errorf("%s: ошибка сохранения формулы: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
