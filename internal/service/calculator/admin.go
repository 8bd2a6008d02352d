package calculator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"stroy-calc/internal/constants"
	"stroy-calc/internal/storage"
)

type AdminStorage interface {
	GetCategory(ctx context.Context, id int64) (*storage.Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]storage.Category, error)
	CreateCategory(ctx context.Context, c storage.Category) (int64, error)
	UpdateCategory(ctx context.Context, c storage.Category) error
	GetFormula(ctx context.Context, categoryID int64) (*storage.FormulaRecord, error)
	SaveFormula(ctx context.Context, rec storage.FormulaRecord) error
	GetInputDefinitions(ctx context.Context, categoryID int64) ([]storage.InputDefinition, error)
	ReplaceInputDefinitions(ctx context.Context, categoryID int64, defs []storage.InputDefinition) error
	ListProductsAdmin(ctx context.Context, categoryID int64) ([]storage.CalculatorProduct, error)
	CreateProduct(ctx context.Context, p storage.CalculatorProduct) (int64, error)
	UpdateProduct(ctx context.Context, p storage.CalculatorProduct) error
	DeleteProduct(ctx context.Context, id int64) error
}

// AdminService проверяет настройки калькулятора перед сохранением.
type AdminService struct {
	log     *slog.Logger
	storage AdminStorage
}

func NewAdminService(log *slog.Logger, storage AdminStorage) *AdminService {
	return &AdminService{log: log, storage: storage}
}

// ListCategories возвращает все категории, включая скрытые с витрины.
func (s *AdminService) ListCategories(ctx context.Context) ([]storage.Category, error) {
	const op = "service.calculator.AdminService.ListCategories"

	categories, err := s.storage.ListCategories(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return categories, nil
}

func (s *AdminService) CreateCategory(ctx context.Context, c storage.Category) (int64, error) {
	const op = "service.calculator.AdminService.CreateCategory"

	c.Slug = strings.TrimSpace(c.Slug)
	c.Name = strings.TrimSpace(c.Name)
	if err := ValidateCategory(c); err != nil {
		return 0, err
	}

	id, err := s.storage.CreateCategory(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("категория создана", slog.Int64("category_id", id), slog.String("slug", c.Slug))
	return id, nil
}

func (s *AdminService) UpdateCategory(ctx context.Context, c storage.Category) error {
	const op = "service.calculator.AdminService.UpdateCategory"

	c.Slug = strings.TrimSpace(c.Slug)
	c.Name = strings.TrimSpace(c.Name)
	if err := ValidateCategory(c); err != nil {
		return err
	}

	if err := s.storage.UpdateCategory(ctx, c); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *AdminService) GetFormula(ctx context.Context, categoryID int64) (*storage.FormulaRecord, error) {
	const op = "service.calculator.AdminService.GetFormula"

	rec, err := s.storage.GetFormula(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

func (s *AdminService) SaveFormula(ctx context.Context, rec storage.FormulaRecord) error {
	const op = "service.calculator.AdminService.SaveFormula"

	if _, err := s.storage.GetCategory(ctx, rec.CategoryID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rec.FormulaType = strings.TrimSpace(rec.FormulaType)
	if strings.TrimSpace(rec.ResultUnit) == "" {
		rec.ResultUnit = constants.DefaultResultUnits[rec.FormulaType]
	}
	if rec.ResultUnitTemplate != nil && strings.TrimSpace(*rec.ResultUnitTemplate) == "" {
		rec.ResultUnitTemplate = nil
	}

	defs, err := s.storage.GetInputDefinitions(ctx, rec.CategoryID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := ValidateFormula(rec, defs); err != nil {
		return err
	}

	if err := s.storage.SaveFormula(ctx, rec); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("формула категории сохранена",
		slog.Int64("category_id", rec.CategoryID),
		slog.String("formula_type", rec.FormulaType),
	)
	return nil
}

func (s *AdminService) GetInputs(ctx context.Context, categoryID int64) ([]storage.InputDefinition, error) {
	const op = "service.calculator.AdminService.GetInputs"

	defs, err := s.storage.GetInputDefinitions(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return defs, nil
}

// SaveInputs заменяет поля категории целиком. Поле, на которое ссылается
// сохранённая формула, удалить нельзя.
func (s *AdminService) SaveInputs(ctx context.Context, categoryID int64, defs []storage.InputDefinition) error {
	const op = "service.calculator.AdminService.SaveInputs"

	for i := range defs {
		defs[i].CategoryID = categoryID
		defs[i].Key = strings.TrimSpace(defs[i].Key)
		if defs[i].SortOrder == 0 {
			defs[i].SortOrder = i + 1
		}
	}

	if err := ValidateInputDefinitions(defs); err != nil {
		return err
	}

	formula, err := s.storage.GetFormula(ctx, categoryID)
	switch {
	case errors.Is(err, storage.ErrFormulaNotFound):
	case err != nil:
		return fmt.Errorf("%s: %w", op, err)
	default:
		if err := ValidateFormula(*formula, defs); err != nil {
			return &ConfigError{Field: "inputs", Message: "поля используются формулой категории", Err: err}
		}
	}

	if err := s.storage.ReplaceInputDefinitions(ctx, categoryID, defs); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *AdminService) ListProducts(ctx context.Context, categoryID int64) ([]storage.CalculatorProduct, error) {
	const op = "service.calculator.AdminService.ListProducts"

	products, err := s.storage.ListProductsAdmin(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

func (s *AdminService) CreateProduct(ctx context.Context, p storage.CalculatorProduct) (int64, error) {
	const op = "service.calculator.AdminService.CreateProduct"

	if err := ValidateProduct(p); err != nil {
		return 0, err
	}
	if _, err := s.storage.GetCategory(ctx, p.CategoryID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	// без явного порядка новый товар встаёт в конец списка
	if p.SortOrder == 0 {
		existing, err := s.storage.ListProductsAdmin(ctx, p.CategoryID)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		for _, e := range existing {
			p.SortOrder = max(p.SortOrder, e.SortOrder)
		}
		p.SortOrder++
	}

	id, err := s.storage.CreateProduct(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

func (s *AdminService) UpdateProduct(ctx context.Context, p storage.CalculatorProduct) error {
	const op = "service.calculator.AdminService.UpdateProduct"

	if err := ValidateProduct(p); err != nil {
		return err
	}
	if err := s.storage.UpdateProduct(ctx, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *AdminService) DeleteProduct(ctx context.Context, id int64) error {
	const op = "service.calculator.AdminService.DeleteProduct"

	if err := s.storage.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
