package calculator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"stroy-calc/internal/storage"
)

type CalculatorStorage interface {
	GetCategory(ctx context.Context, id int64) (*storage.Category, error)
	GetFormula(ctx context.Context, categoryID int64) (*storage.FormulaRecord, error)
	GetInputDefinitions(ctx context.Context, categoryID int64) ([]storage.InputDefinition, error)
	GetCalculatorProducts(ctx context.Context, categoryID int64) ([]storage.CalculatorProduct, error)
}

type CalculatorService struct {
	log     *slog.Logger
	storage CalculatorStorage
}

func NewCalculatorService(log *slog.Logger, storage CalculatorStorage) *CalculatorService {
	return &CalculatorService{log: log, storage: storage}
}

// snapshot - согласованный срез настроек категории, загруженный за один запрос.
type snapshot struct {
	category *storage.Category
	formula  *storage.FormulaRecord
	inputs   []storage.InputDefinition
	products []storage.CalculatorProduct
}

func (s *CalculatorService) load(ctx context.Context, categoryID int64) (snapshot, error) {
	var snap snapshot

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.category, err = s.storage.GetCategory(gCtx, categoryID)
		if err != nil {
			return fmt.Errorf("category: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snap.formula, err = s.storage.GetFormula(gCtx, categoryID)
		if err != nil {
			return fmt.Errorf("formula: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snap.inputs, err = s.storage.GetInputDefinitions(gCtx, categoryID)
		if err != nil {
			return fmt.Errorf("inputs: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snap.products, err = s.storage.GetCalculatorProducts(gCtx, categoryID)
		if err != nil {
			return fmt.Errorf("products: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	if snap.category == nil || !snap.category.IsActive {
		return snapshot{}, storage.ErrCategoryNotFound
	}
	if snap.formula == nil {
		return snapshot{}, storage.ErrFormulaNotFound
	}

	return snap, nil
}

// Calculate загружает настройки категории и считает все её товары.
// *ValidationError возвращается как есть, чтобы показать пользователю конкретное поле.
func (s *CalculatorService) Calculate(ctx context.Context, categoryID int64, values map[string]any) (*Calculation, error) {
	const op = "service.calculator.Calculate"

	snap, err := s.load(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	calc, err := CalculateCategory(*snap.formula, snap.inputs, snap.products, values)
	if err != nil {
		return nil, err
	}
	calc.ID = uuid.NewString()

	if calc.ConfigWarning != nil {
		s.log.Warn("шаблон рекомендаций проигнорирован",
			slog.String("op", op),
			slog.Int64("category_id", categoryID),
			slog.String("error", calc.ConfigWarning.Error()),
		)
	}

	for _, r := range calc.Results {
		if r.Error == nil {
			continue
		}
		s.log.Warn("товар не рассчитан",
			slog.String("op", op),
			slog.String("calculation_id", calc.ID),
			slog.Int64("category_id", categoryID),
			slog.Int64("product_id", r.ProductID),
			slog.String("kind", string(r.Error.Kind)),
			slog.String("error", r.Error.Message),
		)
	}

	return &calc, nil
}

// CalculatorForm - всё, что нужно витрине, чтобы нарисовать форму калькулятора.
type CalculatorForm struct {
	Category    storage.Category            `json:"category"`
	FormulaType FormulaType                 `json:"formula_type"`
	ResultUnit  string                      `json:"result_unit"`
	Inputs      []storage.InputDefinition   `json:"inputs"`
	Products    []storage.CalculatorProduct `json:"products"`
}

func (s *CalculatorService) GetCalculator(ctx context.Context, categoryID int64) (*CalculatorForm, error) {
	const op = "service.calculator.GetCalculator"

	snap, err := s.load(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	form := &CalculatorForm{
		Category:    *snap.category,
		FormulaType: FormulaType(snap.formula.FormulaType),
		ResultUnit:  snap.formula.ResultUnit,
		Inputs:      snap.inputs,
		Products:    snap.products,
	}
	if form.Inputs == nil {
		form.Inputs = []storage.InputDefinition{}
	}
	if form.Products == nil {
		form.Products = []storage.CalculatorProduct{}
	}

	return form, nil
}
