package calculator

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"stroy-calc/internal/storage"
)

// InputSet - проверенные значения полей формы по ключу. Только для чтения.
type InputSet struct {
	values map[string]float64
}

func NewInputSet(values map[string]float64) InputSet {
	cp := make(map[string]float64, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return InputSet{values: cp}
}

func (s InputSet) Value(key string) (float64, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s InputSet) Len() int { return len(s.values) }

// Map возвращает копию, изменения в ней не влияют на набор.
func (s InputSet) Map() map[string]float64 {
	out := make(map[string]float64, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s InputSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.values)
}

func (s *InputSet) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &s.values)
}

// BuildInputSet собирает значения полей категории из того, что прислал пользователь.
// Отсутствующее или нечисловое значение заменяется значением по умолчанию,
// значение вне [min, max] не обрезается, а возвращается как *ValidationError.
func BuildInputSet(defs []storage.InputDefinition, raw map[string]any) (InputSet, error) {
	values := make(map[string]float64, len(defs))

	for _, def := range defs {
		v, ok := numericValue(raw[def.Key])
		if !ok {
			values[def.Key] = def.DefaultValue
			continue
		}

		if v < def.MinValue || (def.MaxValue != nil && v > *def.MaxValue) {
			return InputSet{}, &ValidationError{
				Key:   def.Key,
				Value: v,
				Min:   def.MinValue,
				Max:   def.MaxValue,
			}
		}
		values[def.Key] = v
	}

	return InputSet{values: values}, nil
}

func numericValue(raw any) (float64, bool) {
	var v float64

	switch x := raw.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		// значения из форм приходят строками, десятичная запятая тоже допустима
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", ".")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
