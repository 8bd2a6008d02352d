package calculator

import (
	"math"

	"stroy-calc/internal/service/calculator/expr"
	"stroy-calc/internal/storage"
)

// ceilEpsilon гасит погрешность float64: 3.0000000000000004 листа это 3 листа, а не 4.
const ceilEpsilon = 1e-9

func ceilCount(v float64) float64 {
	r := math.Ceil(v - ceilEpsilon)
	// Ceil(-1e-9) даёт -0, в JSON это "-0"
	if r == 0 {
		return 0
	}
	return r
}

// Evaluate считает сырое количество материала для одного товара.
// Ноль - допустимый результат, любая проблема возвращается как *EvaluationError.
func Evaluate(cfg FormulaConfig, inputs InputSet, product storage.CalculatorProduct) (float64, error) {
	if err := checkProduct(product); err != nil {
		return 0, err
	}
	if cfg.Params == nil {
		return 0, invalidParam("formulaParams", "параметры формулы не заданы")
	}

	var (
		result float64
		err    error
	)

	switch p := cfg.Params.(type) {
	case AreaParams:
		result, err = evalArea(p, inputs, product)
	case VolumeParams:
		result, err = evalScaled(p.VolumeKey, inputs, product)
	case LengthParams:
		result, err = evalScaled(p.LengthKey, inputs, product)
	case PiecesParams:
		result, err = evalPieces(p, inputs)
	case SheetsParams:
		result, err = evalSheets(p, inputs)
	case CustomParams:
		result, err = evalCustom(p, inputs, product)
	default:
		return 0, invalidParam("formulaType", "неизвестная стратегия %T", cfg.Params)
	}
	if err != nil {
		return 0, err
	}

	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, &EvaluationError{Kind: KindNonFiniteResult, Message: "результат расчёта не является конечным числом"}
	}
	if result < 0 {
		return 0, invalidParam("", "отрицательное количество %v", result)
	}
	if result == 0 {
		// выражение вида inputs.area * -1 при нулевой площади даёт -0
		return 0, nil
	}
	return result, nil
}

func checkProduct(product storage.CalculatorProduct) error {
	if !(product.Consumption > 0) || math.IsInf(product.Consumption, 0) {
		return invalidParam("consumption", "расход товара должен быть больше нуля, получено %v", product.Consumption)
	}
	if product.Price < 0 || math.IsNaN(product.Price) {
		return invalidParam("price", "цена товара не может быть отрицательной, получено %v", product.Price)
	}
	return nil
}

func lookup(inputs InputSet, key string) (float64, error) {
	v, ok := inputs.Value(key)
	if !ok {
		return 0, missingInput(key)
	}
	return v, nil
}

func evalArea(p AreaParams, inputs InputSet, product storage.CalculatorProduct) (float64, error) {
	area, err := lookup(inputs, p.AreaKey)
	if err != nil {
		return 0, err
	}

	layers := 1.0
	if p.LayersKey != "" {
		// ключ слоёв необязателен: если поля нет, считаем один слой
		if v, ok := inputs.Value(p.LayersKey); ok {
			layers = v
		}
	}

	return area * product.Consumption * layers, nil
}

func evalScaled(key string, inputs InputSet, product storage.CalculatorProduct) (float64, error) {
	v, err := lookup(inputs, key)
	if err != nil {
		return 0, err
	}
	return v * product.Consumption, nil
}

func evalPieces(p PiecesParams, inputs InputSet) (float64, error) {
	area, err := lookup(inputs, p.AreaKey)
	if err != nil {
		return 0, err
	}

	unitArea := p.UnitArea
	if p.UnitAreaKey != "" {
		unitArea, err = lookup(inputs, p.UnitAreaKey)
		if err != nil {
			return 0, err
		}
		if unitArea == 0 {
			return 0, &EvaluationError{Kind: KindDivisionByZero, Key: p.UnitAreaKey, Message: "площадь одной штуки равна нулю"}
		}
	}
	if unitArea <= 0 {
		return 0, invalidParam("unitArea", "площадь одной штуки должна быть больше нуля, получено %v", unitArea)
	}

	return ceilCount(area / unitArea), nil
}

func evalSheets(p SheetsParams, inputs InputSet) (float64, error) {
	area, err := lookup(inputs, p.AreaKey)
	if err != nil {
		return 0, err
	}
	if p.SheetArea <= 0 {
		return 0, invalidParam("sheetArea", "площадь листа должна быть больше нуля, получено %v", p.SheetArea)
	}
	if p.WastePercent < 0 {
		return 0, invalidParam("wastePercent", "процент запаса не может быть отрицательным, получено %v", p.WastePercent)
	}

	// запас добавляется до деления на площадь листа
	return ceilCount(area * (1 + p.WastePercent/100) / p.SheetArea), nil
}

func evalCustom(p CustomParams, inputs InputSet, product storage.CalculatorProduct) (float64, error) {
	prog := p.program
	if prog == nil {
		compiled, err := expr.Compile(p.Expression)
		if err != nil {
			return 0, &EvaluationError{Kind: KindExpressionError, Key: "expression", Err: err}
		}
		prog = compiled
	}

	v, err := prog.Run(expr.Scope{
		Inputs: inputs.values,
		Product: expr.Product{
			Name:        product.Name,
			Consumption: product.Consumption,
			Price:       product.Price,
			BagWeight:   product.BagWeight,
		},
	})
	if err != nil {
		return 0, &EvaluationError{Kind: KindExpressionError, Key: "expression", Err: err}
	}

	if v < 0 {
		return 0, &EvaluationError{Kind: KindExpressionError, Key: "expression", Message: "выражение дало отрицательное количество"}
	}
	return v, nil
}
