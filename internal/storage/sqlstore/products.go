package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"stroy-calc/internal/storage"
)

const productColumns = `cp.id, cp.category_id, cp.name, cp.consumption, cp.consumption_unit, cp.bag_weight,
	%s, cp.catalog_product_id, cp.sort_order, cp.is_active`

// GetCalculatorProducts отдаёт активные товары категории. Если товар связан
// с каталогом, цена берётся из каталога.
func (s *Storage) GetCalculatorProducts(ctx context.Context, categoryID int64) ([]storage.CalculatorProduct, error) {
	const op = "storage.sqlstore.GetCalculatorProducts"

	query := `SELECT ` + fmt.Sprintf(productColumns, `COALESCE(c.price, cp.price)`) + `
		FROM calc_products cp
		LEFT JOIN catalog_products c ON c.id = cp.catalog_product_id
		WHERE cp.category_id = ? AND cp.is_active = TRUE
		ORDER BY cp.sort_order, cp.id`

	products, err := s.queryProducts(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

// ListProductsAdmin отдаёт все товары категории с их собственной ценой.
func (s *Storage) ListProductsAdmin(ctx context.Context, categoryID int64) ([]storage.CalculatorProduct, error) {
	const op = "storage.sqlstore.ListProductsAdmin"

	query := `SELECT ` + fmt.Sprintf(productColumns, `cp.price`) + `
		FROM calc_products cp
		WHERE cp.category_id = ?
		ORDER BY cp.sort_order, cp.id`

	products, err := s.queryProducts(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

func (s *Storage) queryProducts(ctx context.Context, query string, args ...any) ([]storage.CalculatorProduct, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []storage.CalculatorProduct{}
	for rows.Next() {
		var (
			p         storage.CalculatorProduct
			bagWeight sql.NullFloat64
			catalogID sql.NullInt64
		)
		err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Consumption, &p.ConsumptionUnit, &bagWeight,
			&p.Price, &catalogID, &p.SortOrder, &p.IsActive)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		p.BagWeight = floatPtr(bagWeight)
		p.CatalogProductID = intPtr(catalogID)

		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по строкам: %w", err)
	}
	return products, nil
}

func (s *Storage) CreateProduct(ctx context.Context, p storage.CalculatorProduct) (int64, error) {
	const op = "storage.sqlstore.CreateProduct"

	stmt := `INSERT INTO calc_products (category_id, name, consumption, consumption_unit, bag_weight, price,
		catalog_product_id, sort_order, is_active) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, stmt, p.CategoryID, p.Name, p.Consumption, p.ConsumptionUnit,
		nullFloat(p.BagWeight), p.Price, nullInt(p.CatalogProductID), p.SortOrder, p.IsActive)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%s: category_id=%d: %w", op, p.CategoryID, storage.ErrCategoryNotFound)
		}
		return 0, fmt.Errorf("%s: ошибка сохранения товара: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

func (s *Storage) UpdateProduct(ctx context.Context, p storage.CalculatorProduct) error {
	const op = "storage.sqlstore.UpdateProduct"

	if err := s.productExists(ctx, p.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	stmt := `UPDATE calc_products SET name = ?, consumption = ?, consumption_unit = ?, bag_weight = ?, price = ?,
		catalog_product_id = ?, sort_order = ?, is_active = ? WHERE id = ?`

	_, err := s.db.ExecContext(ctx, stmt, p.Name, p.Consumption, p.ConsumptionUnit, nullFloat(p.BagWeight),
		p.Price, nullInt(p.CatalogProductID), p.SortOrder, p.IsActive, p.ID)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления товара: %w", op, err)
	}
	return nil
}

func (s *Storage) DeleteProduct(ctx context.Context, id int64) error {
	const op = "storage.sqlstore.DeleteProduct"

	res, err := s.db.ExecContext(ctx, `DELETE FROM calc_products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: id=%d: %w", op, id, storage.ErrProductNotFound)
	}
	return nil
}

// productExists нужен потому, что MySQL не считает строку изменённой, если значения те же.
func (s *Storage) productExists(ctx context.Context, id int64) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM calc_products WHERE id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("id=%d: %w", id, storage.ErrProductNotFound)
	}
	return nil
}
