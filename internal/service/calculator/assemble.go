package calculator

import (
	"stroy-calc/internal/storage"
)

type CalculatorResult struct {
	RawQuantity      float64 `json:"raw_quantity"`
	PackagedQuantity float64 `json:"packaged_quantity"`
	// Packaged - количество пересчитано в мешки по BagWeight.
	Packaged        bool            `json:"packaged"`
	TotalCost       float64         `json:"total_cost"`
	DisplayUnit     string          `json:"display_unit"`
	Recommendations Recommendations `json:"recommendations"`
}

// Assemble переводит сырое количество в упаковки, считает стоимость и рендерит
// единицу измерения и рекомендации. Чистая функция, ошибок не бывает.
func Assemble(raw float64, product storage.CalculatorProduct, cfg FormulaConfig, inputs InputSet) CalculatorResult {
	res := CalculatorResult{
		RawQuantity:      raw,
		PackagedQuantity: raw,
	}

	// штуки и листы уже целые, мешки имеют смысл только для массы или объёма
	if !cfg.Type.Counted() && product.BagWeight != nil && *product.BagWeight > 0 {
		res.PackagedQuantity = ceilCount(raw / *product.BagWeight)
		res.Packaged = true
	}
	res.TotalCost = res.PackagedQuantity * product.Price

	ctx := TemplateContext(res, inputs)

	res.DisplayUnit = cfg.ResultUnit
	if cfg.ResultUnitTemplate != "" {
		res.DisplayUnit = Render(cfg.ResultUnitTemplate, ctx)
	}
	res.Recommendations = RenderRecommendations(cfg.Recommendations, ctx)

	return res
}

// TemplateContext собирает значения для плейсхолдеров: {value} - сырое количество,
// {packaged} и {cost} - упаковки и стоимость, дальше все поля формы по ключу.
func TemplateContext(res CalculatorResult, inputs InputSet) map[string]any {
	ctx := make(map[string]any, inputs.Len()+3)
	ctx["value"] = res.RawQuantity
	ctx["packaged"] = res.PackagedQuantity
	ctx["cost"] = res.TotalCost
	for k, v := range inputs.values {
		ctx[k] = v
	}
	return ctx
}
