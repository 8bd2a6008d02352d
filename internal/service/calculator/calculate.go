package calculator

import (
	"errors"

	"stroy-calc/internal/storage"
)

type ResultError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// ProductResult - итог по одному товару: либо результат, либо ошибка.
type ProductResult struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	*CalculatorResult
	Error *ResultError `json:"error,omitempty"`
}

func (r ProductResult) OK() bool { return r.Error == nil && r.CalculatorResult != nil }

type Calculation struct {
	ID         string          `json:"id"`
	CategoryID int64           `json:"category_id"`
	Inputs     InputSet        `json:"inputs"`
	Results    []ProductResult `json:"results"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	// ConfigWarning - испорченный шаблон рекомендаций, расчёт при этом идёт как обычно.
	ConfigWarning error `json:"-"`
}

// Cheapest возвращает успешный результат с минимальной стоимостью.
func (c Calculation) Cheapest() (ProductResult, bool) {
	var (
		best  ProductResult
		found bool
	)
	for _, r := range c.Results {
		if !r.OK() {
			continue
		}
		if !found || r.TotalCost < best.TotalCost {
			best = r
			found = true
		}
	}
	return best, found
}

// CalculateCategory считает все товары категории. *ValidationError по полям формы
// возвращается сразу, ошибки отдельных товаров попадают в их ProductResult и
// не мешают считать остальные.
func CalculateCategory(rec storage.FormulaRecord, defs []storage.InputDefinition, products []storage.CalculatorProduct, values map[string]any) (Calculation, error) {
	inputs, err := BuildInputSet(defs, values)
	if err != nil {
		return Calculation{}, err
	}

	calc := Calculation{
		CategoryID: rec.CategoryID,
		Inputs:     inputs,
		Results:    make([]ProductResult, 0, len(products)),
	}

	cfg, cfgErr := ParseFormulaConfig(rec)
	calc.ConfigWarning = cfg.RecommendationsErr

	for _, product := range products {
		res := ProductResult{ProductID: product.ID, Name: product.Name}

		// ошибка в параметрах формулы относится ко всем товарам категории
		var quantity float64
		err := cfgErr
		if err == nil {
			quantity, err = Evaluate(cfg, inputs, product)
		}

		if err != nil {
			res.Error = toResultError(err)
			calc.Failed++
		} else {
			assembled := Assemble(quantity, product, cfg, inputs)
			res.CalculatorResult = &assembled
			calc.Succeeded++
		}

		calc.Results = append(calc.Results, res)
	}

	return calc, nil
}

func toResultError(err error) *ResultError {
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return &ResultError{Kind: evalErr.Kind, Message: evalErr.Error()}
	}
	return &ResultError{Kind: KindInvalidParam, Message: err.Error()}
}
