package storage

import (
	"encoding/json"
	"errors"
)

var (
	ErrCategoryNotFound = errors.New("категория не найдена")
	ErrFormulaNotFound  = errors.New("формула для категории не найдена")
	ErrProductNotFound  = errors.New("товар калькулятора не найден")
	ErrInputKeyExists   = errors.New("ключ поля уже используется в категории")
	ErrCategoryExists   = errors.New("категория с таким slug уже существует")
)

type Category struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// InputDefinition - одно числовое поле формы калькулятора.
type InputDefinition struct {
	ID           int64    `json:"id"`
	CategoryID   int64    `json:"category_id"`
	Key          string   `json:"key"`
	Label        string   `json:"label"`
	Unit         string   `json:"unit"`
	DefaultValue float64  `json:"default_value"`
	MinValue     float64  `json:"min_value"`
	MaxValue     *float64 `json:"max_value"`
	Step         float64  `json:"step"`
	Tooltip      *string  `json:"tooltip"`
	SortOrder    int      `json:"sort_order"`
}

// CalculatorProduct - вариант материала внутри категории.
// Price уже учитывает цену связанного товара каталога, если связь есть.
type CalculatorProduct struct {
	ID               int64    `json:"id"`
	CategoryID       int64    `json:"category_id"`
	Name             string   `json:"name"`
	Consumption      float64  `json:"consumption"`
	ConsumptionUnit  string   `json:"consumption_unit"`
	BagWeight        *float64 `json:"bag_weight"`
	Price            float64  `json:"price"`
	CatalogProductID *int64   `json:"catalog_product_id"`
	SortOrder        int      `json:"sort_order"`
	IsActive         bool     `json:"is_active"`
}

// FormulaRecord - формула категории в том виде, в каком её сохранил администратор.
// Параметры и рекомендации хранятся как JSON и разбираются уже в сервисе.
type FormulaRecord struct {
	CategoryID              int64           `json:"category_id"`
	FormulaType             string          `json:"formula_type"`
	FormulaParams           json.RawMessage `json:"formula_params"`
	ResultUnit              string          `json:"result_unit"`
	ResultUnitTemplate      *string         `json:"result_unit_template"`
	RecommendationsTemplate json.RawMessage `json:"recommendations_template"`
}
