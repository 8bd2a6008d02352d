package calculator

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stroy-calc/internal/storage"
)

func inputDefs() []storage.InputDefinition {
	return []storage.InputDefinition{
		{Key: "area", Label: "Площадь", DefaultValue: 10, MinValue: 0, MaxValue: fptr(100)},
		{Key: "layers", Label: "Слои", DefaultValue: 1, MinValue: 1},
	}
}

func TestBuildInputSet(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want map[string]float64
	}{
		{name: "пустой ввод", raw: nil, want: map[string]float64{"area": 10, "layers": 1}},
		{name: "числа", raw: map[string]any{"area": 20.5, "layers": 2}, want: map[string]float64{"area": 20.5, "layers": 2}},
		{name: "строка с запятой", raw: map[string]any{"area": " 12,5 "}, want: map[string]float64{"area": 12.5, "layers": 1}},
		{name: "json.Number", raw: map[string]any{"area": json.Number("7")}, want: map[string]float64{"area": 7, "layers": 1}},
		{name: "нечисловое значение", raw: map[string]any{"area": "много", "layers": true}, want: map[string]float64{"area": 10, "layers": 1}},
		{name: "NaN как отсутствие", raw: map[string]any{"area": math.NaN()}, want: map[string]float64{"area": 10, "layers": 1}},
		{name: "лишние ключи игнорируются", raw: map[string]any{"bogus": 5}, want: map[string]float64{"area": 10, "layers": 1}},
		{name: "граница диапазона", raw: map[string]any{"area": 100, "layers": 1}, want: map[string]float64{"area": 100, "layers": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := BuildInputSet(inputDefs(), tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, set.Map())
		})
	}
}

func TestBuildInputSet_OutOfRange(t *testing.T) {
	_, err := BuildInputSet(inputDefs(), map[string]any{"area": 150})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "area", vErr.Key)
	assert.Equal(t, 150.0, vErr.Value)
	assert.Equal(t, 0.0, vErr.Min)
	require.NotNil(t, vErr.Max)
	assert.Equal(t, 100.0, *vErr.Max)

	_, err = BuildInputSet(inputDefs(), map[string]any{"layers": 0})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "layers", vErr.Key)
	assert.Nil(t, vErr.Max)
}

func TestInputSet_ReadOnly(t *testing.T) {
	src := map[string]float64{"area": 1}
	set := NewInputSet(src)
	src["area"] = 2

	v, ok := set.Value("area")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	m := set.Map()
	m["area"] = 3
	v, _ = set.Value("area")
	assert.Equal(t, 1.0, v)

	_, ok = set.Value("layers")
	assert.False(t, ok)
}
