package calculator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Render подставляет значения вместо {имя}. Неизвестные плейсхолдеры остаются как есть.
func Render(template string, context map[string]any) string {
	if template == "" {
		return ""
	}
	return placeholderRe.ReplaceAllStringFunc(template, func(token string) string {
		name := token[1 : len(token)-1]
		v, ok := context[name]
		if !ok {
			return token
		}
		return formatValue(v)
	})
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return formatNumber(x)
	case float32:
		return formatNumber(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// formatNumber: не больше двух знаков после запятой, без хвостовых нулей.
func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	rounded := math.Round(v*100) / 100
	if rounded == 0 {
		rounded = 0 // без "-0"
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// Recommendations - советы и предупреждения, показываемые под результатом.
type Recommendations struct {
	Tips     []string `json:"tips"`
	Warnings []string `json:"warnings"`
}

func (r Recommendations) Empty() bool {
	return len(r.Tips) == 0 && len(r.Warnings) == 0
}

// ParseRecommendations проверяет JSON шаблона рекомендаций по схеме
// {tips?: string[], warnings?: string[]}. null и пустое значение - это отсутствие шаблона.
// При любом несоответствии возвращается пустой шаблон и *ConfigShapeError.
func ParseRecommendations(raw json.RawMessage) (Recommendations, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Recommendations{}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil || obj == nil {
		return Recommendations{}, &ConfigShapeError{Reason: "ожидался объект {tips, warnings}"}
	}

	var recs Recommendations
	for key, val := range obj {
		var list []string
		switch key {
		case "tips", "warnings":
			if err := json.Unmarshal(val, &list); err != nil {
				return Recommendations{}, &ConfigShapeError{Field: key, Reason: "ожидался массив строк"}
			}
		default:
			return Recommendations{}, &ConfigShapeError{Field: key, Reason: "неизвестное поле"}
		}

		if key == "tips" {
			recs.Tips = list
		} else {
			recs.Warnings = list
		}
	}

	return recs, nil
}

// RenderRecommendations применяет Render к каждой строке шаблона.
// Пустые списки отдаются как [], а не null.
func RenderRecommendations(recs Recommendations, context map[string]any) Recommendations {
	out := Recommendations{
		Tips:     make([]string, 0, len(recs.Tips)),
		Warnings: make([]string, 0, len(recs.Warnings)),
	}
	for _, s := range recs.Tips {
		out.Tips = append(out.Tips, Render(s, context))
	}
	for _, s := range recs.Warnings {
		out.Warnings = append(out.Warnings, Render(s, context))
	}
	return out
}
