package calculator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"stroy-calc/internal/storage"
)

func fptr(v float64) *float64 { return &v }

func sptr(s string) *string { return &s }

func formulaRecord(formulaType, params string) storage.FormulaRecord {
	return storage.FormulaRecord{
		CategoryID:    1,
		FormulaType:   formulaType,
		FormulaParams: json.RawMessage(params),
		ResultUnit:    "кг",
	}
}

func mustConfig(t *testing.T, formulaType, params string) FormulaConfig {
	t.Helper()

	cfg, err := ParseFormulaConfig(formulaRecord(formulaType, params))
	require.NoError(t, err)
	return cfg
}

func product(consumption, price float64) storage.CalculatorProduct {
	return storage.CalculatorProduct{ID: 1, CategoryID: 1, Name: "Товар", Consumption: consumption, Price: price, IsActive: true}
}
