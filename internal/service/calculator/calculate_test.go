package calculator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stroy-calc/internal/storage"
)

func plasterProducts() []storage.CalculatorProduct {
	return []storage.CalculatorProduct{
		{ID: 1, Name: "Ротбанд", Consumption: 1.5, Price: 450, BagWeight: fptr(30), IsActive: true},
		{ID: 2, Name: "Без расхода", Consumption: 0, Price: 300, IsActive: true},
		{ID: 3, Name: "Волма", Consumption: 1.2, Price: 350, BagWeight: fptr(25), IsActive: true},
	}
}

func TestCalculateCategory_MixedBatch(t *testing.T) {
	rec := formulaRecord("area", `{"areaKey":"area","layersKey":"layers"}`)
	rec.RecommendationsTemplate = json.RawMessage(`{"tips":["Итого {packaged} меш."]}`)

	calc, err := CalculateCategory(rec, inputDefs(), plasterProducts(), map[string]any{"area": 20})
	require.NoError(t, err)

	require.Len(t, calc.Results, 3)
	assert.Equal(t, 2, calc.Succeeded)
	assert.Equal(t, 1, calc.Failed)
	assert.NoError(t, calc.ConfigWarning)

	first := calc.Results[0]
	require.True(t, first.OK())
	assert.Equal(t, 30.0, first.RawQuantity)
	assert.Equal(t, 1.0, first.PackagedQuantity)
	assert.Equal(t, 450.0, first.TotalCost)
	assert.Equal(t, []string{"Итого 1 меш."}, first.Recommendations.Tips)

	failed := calc.Results[1]
	assert.False(t, failed.OK())
	require.NotNil(t, failed.Error)
	assert.Equal(t, KindInvalidParam, failed.Error.Kind)
	assert.Nil(t, failed.CalculatorResult)

	third := calc.Results[2]
	require.True(t, third.OK())
	assert.InDelta(t, 24.0, third.RawQuantity, 1e-9)
	assert.Equal(t, 1.0, third.PackagedQuantity)

	cheapest, ok := calc.Cheapest()
	require.True(t, ok)
	assert.Equal(t, int64(3), cheapest.ProductID)
}

func TestCalculateCategory_ValidationError(t *testing.T) {
	_, err := CalculateCategory(formulaRecord("area", `{"areaKey":"area"}`), inputDefs(), plasterProducts(), map[string]any{"area": 150})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "area", vErr.Key)
	assert.Equal(t, 150.0, vErr.Value)
	assert.Equal(t, 0.0, vErr.Min)
	assert.Equal(t, 100.0, *vErr.Max)
}

func TestCalculateCategory_BrokenParamsFailEveryProduct(t *testing.T) {
	calc, err := CalculateCategory(formulaRecord("sheets", `{"areaKey":"area"}`), inputDefs(), plasterProducts(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, calc.Succeeded)
	assert.Equal(t, 3, calc.Failed)
	for _, r := range calc.Results {
		require.NotNil(t, r.Error)
		assert.Equal(t, KindInvalidParam, r.Error.Kind)
	}

	_, ok := calc.Cheapest()
	assert.False(t, ok)
}

func TestCalculateCategory_BrokenRecommendations(t *testing.T) {
	rec := formulaRecord("area", `{"areaKey":"area"}`)
	rec.RecommendationsTemplate = json.RawMessage(`{"advice":["?"]}`)

	calc, err := CalculateCategory(rec, inputDefs(), plasterProducts()[:1], nil)
	require.NoError(t, err)
	assert.Error(t, calc.ConfigWarning)

	require.True(t, calc.Results[0].OK())
	assert.Empty(t, calc.Results[0].Recommendations.Tips)
	assert.Empty(t, calc.Results[0].Recommendations.Warnings)
}

func TestCalculateCategory_NoProducts(t *testing.T) {
	calc, err := CalculateCategory(formulaRecord("area", `{"areaKey":"area"}`), inputDefs(), nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, calc.Results)
	assert.Empty(t, calc.Results)
}

func TestCalculation_JSON(t *testing.T) {
	calc, err := CalculateCategory(formulaRecord("area", `{"areaKey":"area"}`), inputDefs(), plasterProducts()[:2], map[string]any{"area": 2})
	require.NoError(t, err)

	b, err := json.Marshal(calc)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, map[string]any{"area": 2.0, "layers": 1.0}, decoded["inputs"])

	results := decoded["results"].([]any)
	ok := results[0].(map[string]any)
	assert.Equal(t, 3.0, ok["raw_quantity"])
	assert.NotContains(t, ok, "error")

	failed := results[1].(map[string]any)
	assert.NotContains(t, failed, "raw_quantity")
	assert.Equal(t, "invalid_param", failed["error"].(map[string]any)["kind"])
}

func TestCalculation_ZeroAreaJSON(t *testing.T) {
	for _, tt := range []struct {
		name        string
		formulaType string
		params      string
	}{
		{name: "штуки", formulaType: "pieces", params: `{"areaKey":"area","unitArea":0.48}`},
		{name: "листы", formulaType: "sheets", params: `{"areaKey":"area","sheetArea":3}`},
		{name: "мешки", formulaType: "area", params: `{"areaKey":"area"}`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := CalculateCategory(formulaRecord(tt.formulaType, tt.params), inputDefs(), plasterProducts()[:1], map[string]any{"area": 0})
			require.NoError(t, err)

			b, err := json.Marshal(calc.Results)
			require.NoError(t, err)
			assert.Contains(t, string(b), `"raw_quantity":0,`)
			assert.Contains(t, string(b), `"packaged_quantity":0,`)
			assert.Contains(t, string(b), `"total_cost":0,`)
			assert.NotContains(t, string(b), "-0")
		})
	}
}
