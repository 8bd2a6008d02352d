package calculator

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stroy-calc/internal/service/calculator/expr"
)

func TestEvaluate_Strategies(t *testing.T) {
	tests := []struct {
		name        string
		formulaType string
		params      string
		inputs      map[string]float64
		consumption float64
		want        float64
	}{
		{name: "площадь", formulaType: "area", params: `{"areaKey":"area"}`, inputs: map[string]float64{"area": 20}, consumption: 1.5, want: 30},
		{name: "площадь в два слоя", formulaType: "area", params: `{"areaKey":"area","layersKey":"layers"}`, inputs: map[string]float64{"area": 20, "layers": 2}, consumption: 1.5, want: 60},
		{name: "слоёв нет среди полей", formulaType: "area", params: `{"areaKey":"area","layersKey":"layers"}`, inputs: map[string]float64{"area": 20}, consumption: 1.5, want: 30},
		{name: "нулевая площадь", formulaType: "area", params: `{"areaKey":"area"}`, inputs: map[string]float64{"area": 0}, consumption: 1.5, want: 0},
		{name: "объём", formulaType: "volume", params: `{"volumeKey":"volume"}`, inputs: map[string]float64{"volume": 2.5}, consumption: 1800, want: 4500},
		{name: "длина", formulaType: "length", params: `{"lengthKey":"length"}`, inputs: map[string]float64{"length": 12}, consumption: 1.1, want: 13.2},
		{name: "штуки", formulaType: "pieces", params: `{"areaKey":"area","unitArea":0.48}`, inputs: map[string]float64{"area": 10}, consumption: 1, want: 21},
		{name: "штуки без погрешности", formulaType: "pieces", params: `{"areaKey":"area","unitArea":0.4}`, inputs: map[string]float64{"area": 12}, consumption: 1, want: 30},
		{name: "штуки из поля", formulaType: "pieces", params: `{"areaKey":"area","unitAreaKey":"tile"}`, inputs: map[string]float64{"area": 10, "tile": 0.25}, consumption: 1, want: 40},
		{name: "листы с запасом", formulaType: "sheets", params: `{"areaKey":"area","sheetArea":3,"wastePercent":10}`, inputs: map[string]float64{"area": 23}, consumption: 1, want: 9},
		{name: "листы, запас по умолчанию", formulaType: "sheets", params: `{"areaKey":"area","sheetLength":2.5,"sheetWidth":1.2}`, inputs: map[string]float64{"area": 30}, consumption: 1, want: 11},
		{name: "листы без запаса", formulaType: "sheets", params: `{"areaKey":"area","sheetArea":3,"wastePercent":0}`, inputs: map[string]float64{"area": 9}, consumption: 1, want: 3},
		{name: "своё выражение", formulaType: "custom", params: `{"expression":"inputs.area * product.consumption * (inputs.layers || 1)"}`, inputs: map[string]float64{"area": 12}, consumption: 2, want: 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustConfig(t, tt.formulaType, tt.params)

			got, err := Evaluate(cfg, NewInputSet(tt.inputs), product(tt.consumption, 100))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name        string
		formulaType string
		params      string
		inputs      map[string]float64
		consumption float64
		price       float64
		kind        ErrorKind
		key         string
	}{
		{name: "нет поля площади", formulaType: "area", params: `{"areaKey":"area"}`, inputs: map[string]float64{}, consumption: 1, kind: KindMissingInput, key: "area"},
		{name: "нулевой расход", formulaType: "area", params: `{"areaKey":"area"}`, inputs: map[string]float64{"area": 1}, consumption: 0, kind: KindInvalidParam, key: "consumption"},
		{name: "отрицательная цена", formulaType: "area", params: `{"areaKey":"area"}`, inputs: map[string]float64{"area": 1}, consumption: 1, price: -1, kind: KindInvalidParam, key: "price"},
		{name: "отрицательная площадь", formulaType: "area", params: `{"areaKey":"area"}`, inputs: map[string]float64{"area": -5}, consumption: 1, kind: KindInvalidParam},
		{name: "площадь штуки из поля равна нулю", formulaType: "pieces", params: `{"areaKey":"area","unitAreaKey":"tile"}`, inputs: map[string]float64{"area": 1, "tile": 0}, consumption: 1, kind: KindDivisionByZero, key: "tile"},
		{name: "отрицательная площадь штуки", formulaType: "pieces", params: `{"areaKey":"area","unitAreaKey":"tile"}`, inputs: map[string]float64{"area": 1, "tile": -1}, consumption: 1, kind: KindInvalidParam, key: "unitArea"},
		{name: "деление на ноль в выражении", formulaType: "custom", params: `{"expression":"inputs.area / inputs.zero"}`, inputs: map[string]float64{"area": 1, "zero": 0}, consumption: 1, kind: KindExpressionError, key: "expression"},
		{name: "неизвестное поле в выражении", formulaType: "custom", params: `{"expression":"inputs.bogus * 2"}`, inputs: map[string]float64{"area": 1}, consumption: 1, kind: KindExpressionError, key: "expression"},
		{name: "отрицательный результат выражения", formulaType: "custom", params: `{"expression":"inputs.area - 10"}`, inputs: map[string]float64{"area": 1}, consumption: 1, kind: KindExpressionError, key: "expression"},
		{name: "бесконечность", formulaType: "area", params: `{"areaKey":"area"}`, inputs: map[string]float64{"area": 1e308}, consumption: 1e10, kind: KindNonFiniteResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustConfig(t, tt.formulaType, tt.params)

			_, err := Evaluate(cfg, NewInputSet(tt.inputs), product(tt.consumption, tt.price))

			var evalErr *EvaluationError
			require.ErrorAs(t, err, &evalErr)
			assert.Equal(t, tt.kind, evalErr.Kind)
			if tt.key != "" {
				assert.Equal(t, tt.key, evalErr.Key)
			}
			assert.ErrorIs(t, err, &EvaluationError{Kind: tt.kind})
		})
	}
}

func TestEvaluate_ExpressionReason(t *testing.T) {
	cfg := mustConfig(t, "custom", `{"expression":"inputs.area / inputs.zero"}`)

	_, err := Evaluate(cfg, NewInputSet(map[string]float64{"area": 1, "zero": 0}), product(1, 1))
	assert.True(t, errors.Is(err, expr.ErrDivisionByZero))

	cfg = mustConfig(t, "custom", `{"expression":"inputs.bogus"}`)
	_, err = Evaluate(cfg, NewInputSet(nil), product(1, 1))
	assert.True(t, errors.Is(err, expr.ErrUnknownIdent))
}

func TestEvaluate_BagWeightFallback(t *testing.T) {
	cfg := mustConfig(t, "custom", `{"expression":"inputs.area * 50 / (product.bagWeight || 25)"}`)
	inputs := NewInputSet(map[string]float64{"area": 10})

	p := product(1, 1)
	got, err := Evaluate(cfg, inputs, p)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got)

	p.BagWeight = fptr(50)
	got, err = Evaluate(cfg, inputs, p)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got)
}

func TestEvaluate_Deterministic(t *testing.T) {
	cfg := mustConfig(t, "sheets", `{"areaKey":"area","sheetArea":3,"wastePercent":10}`)
	inputs := NewInputSet(map[string]float64{"area": 23})

	first, err := Evaluate(cfg, inputs, product(1, 1))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		got, err := Evaluate(cfg, inputs, product(1, 1))
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestEvaluate_NoParams(t *testing.T) {
	_, err := Evaluate(FormulaConfig{Type: FormulaArea}, NewInputSet(nil), product(1, 1))
	assert.ErrorIs(t, err, &EvaluationError{Kind: KindInvalidParam})
}

func TestCeilCount(t *testing.T) {
	assert.Equal(t, 3.0, ceilCount(3.0000000000000004))
	assert.Equal(t, 4.0, ceilCount(3.01))
	assert.Equal(t, 0.0, ceilCount(0))
	assert.False(t, math.Signbit(ceilCount(0)), "получен -0")
}

// assert.Equal не различает 0 и -0, поэтому знак проверяется отдельно
func TestEvaluate_ZeroInputGivesPositiveZero(t *testing.T) {
	tests := []struct {
		name        string
		formulaType string
		params      string
		inputs      map[string]float64
	}{
		{name: "площадь", formulaType: "area", params: `{"areaKey":"area","layersKey":"layers"}`, inputs: map[string]float64{"area": 0, "layers": 2}},
		{name: "объём", formulaType: "volume", params: `{"volumeKey":"volume"}`, inputs: map[string]float64{"volume": 0}},
		{name: "длина", formulaType: "length", params: `{"lengthKey":"length"}`, inputs: map[string]float64{"length": 0}},
		{name: "штуки", formulaType: "pieces", params: `{"areaKey":"area","unitArea":0.48}`, inputs: map[string]float64{"area": 0}},
		{name: "штуки из поля", formulaType: "pieces", params: `{"areaKey":"area","unitAreaKey":"tile"}`, inputs: map[string]float64{"area": 0, "tile": 0.25}},
		{name: "листы", formulaType: "sheets", params: `{"areaKey":"area","sheetArea":3,"wastePercent":10}`, inputs: map[string]float64{"area": 0}},
		{name: "выражение с минусом", formulaType: "custom", params: `{"expression":"inputs.area * -1"}`, inputs: map[string]float64{"area": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustConfig(t, tt.formulaType, tt.params)

			got, err := Evaluate(cfg, NewInputSet(tt.inputs), product(1.5, 100))
			require.NoError(t, err)
			assert.Equal(t, 0.0, got)
			assert.False(t, math.Signbit(got), "получен -0")
		})
	}
}
