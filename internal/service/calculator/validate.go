package calculator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"stroy-calc/internal/storage"
)

var (
	inputKeyRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	slugRe     = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// ConfigError - ошибка настройки, найденная при сохранении в админке.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := e.Field + ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

func ValidInputKey(key string) bool {
	return inputKeyRe.MatchString(key)
}

func ValidateInputDefinition(def storage.InputDefinition) error {
	if !ValidInputKey(def.Key) {
		return &ConfigError{Field: "key", Message: fmt.Sprintf("ключ %q должен соответствовать [a-z][a-z0-9_]*", def.Key)}
	}
	if strings.TrimSpace(def.Label) == "" {
		return &ConfigError{Field: def.Key, Message: "не задано название поля"}
	}
	for _, v := range []float64{def.DefaultValue, def.MinValue, def.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ConfigError{Field: def.Key, Message: "значения поля должны быть конечными числами"}
		}
	}
	if def.MinValue > def.DefaultValue {
		return &ConfigError{Field: def.Key, Message: fmt.Sprintf("минимум %v больше значения по умолчанию %v", def.MinValue, def.DefaultValue)}
	}
	if def.MaxValue != nil && def.DefaultValue > *def.MaxValue {
		return &ConfigError{Field: def.Key, Message: fmt.Sprintf("значение по умолчанию %v больше максимума %v", def.DefaultValue, *def.MaxValue)}
	}
	if def.Step < 0 {
		return &ConfigError{Field: def.Key, Message: "шаг не может быть отрицательным"}
	}
	return nil
}

// ValidateInputDefinitions проверяет набор полей категории целиком: каждое поле и уникальность ключей.
func ValidateInputDefinitions(defs []storage.InputDefinition) error {
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if err := ValidateInputDefinition(def); err != nil {
			return err
		}
		if seen[def.Key] {
			return &ConfigError{Field: def.Key, Message: "ключ повторяется", Err: storage.ErrInputKeyExists}
		}
		seen[def.Key] = true
	}
	return nil
}

// ValidateFormula - проверка формулы при сохранении. В отличие от расчёта здесь
// испорченный шаблон рекомендаций - ошибка, а ключи должны существовать среди полей категории.
func ValidateFormula(rec storage.FormulaRecord, defs []storage.InputDefinition) error {
	ft := FormulaType(strings.TrimSpace(rec.FormulaType))
	if !ft.Valid() {
		return &ConfigError{Field: "formula_type", Message: fmt.Sprintf("неизвестный тип формулы %q", rec.FormulaType)}
	}

	params, err := ParseFormulaParams(ft, rec.FormulaParams)
	if err != nil {
		return &ConfigError{Field: "formula_params", Message: "параметры не подходят для типа " + string(ft), Err: err}
	}
	if err := checkUnknownParams(rec.FormulaParams); err != nil {
		return err
	}

	// в выражении ключи могут быть необязательными (inputs.layers || 1), поэтому проверяем только синтаксис
	if ft != FormulaCustom {
		known := make(map[string]bool, len(defs))
		for _, def := range defs {
			known[def.Key] = true
		}
		for _, key := range params.InputKeys() {
			if !known[key] {
				return &ConfigError{Field: "formula_params", Message: fmt.Sprintf("поле %q не найдено среди полей категории", key), Err: missingInput(key)}
			}
		}
	}

	if strings.TrimSpace(rec.ResultUnit) == "" {
		return &ConfigError{Field: "result_unit", Message: "не задана единица результата"}
	}

	if _, err := ParseRecommendations(rec.RecommendationsTemplate); err != nil {
		return &ConfigError{Field: "recommendations_template", Message: "шаблон не соответствует схеме", Err: err}
	}

	return nil
}

// checkUnknownParams ловит опечатки в именах параметров ("areakey", "waste").
// При расчёте лишние поля игнорируются, а при сохранении это ошибка.
func checkUnknownParams(raw json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var p rawParams
	if err := dec.Decode(&p); err != nil {
		return &ConfigError{Field: "formula_params", Message: "неизвестный параметр формулы", Err: err}
	}
	return nil
}

func ValidateProduct(p storage.CalculatorProduct) error {
	if strings.TrimSpace(p.Name) == "" {
		return &ConfigError{Field: "name", Message: "не задано название товара"}
	}
	if err := checkProduct(p); err != nil {
		var evalErr *EvaluationError
		if errors.As(err, &evalErr) {
			return &ConfigError{Field: evalErr.Key, Message: evalErr.Message}
		}
		return &ConfigError{Field: "product", Message: err.Error()}
	}
	if p.BagWeight != nil && !(*p.BagWeight > 0) {
		return &ConfigError{Field: "bag_weight", Message: "вес упаковки должен быть больше нуля"}
	}
	return nil
}

// ValidateCategory: slug попадает в URL витрины и в имя файла сметы, поэтому только латиница, цифры и дефис.
func ValidateCategory(c storage.Category) error {
	if !slugRe.MatchString(c.Slug) {
		return &ConfigError{Field: "slug", Message: fmt.Sprintf("slug %q должен состоять из латиницы, цифр и дефисов", c.Slug)}
	}
	if strings.TrimSpace(c.Name) == "" {
		return &ConfigError{Field: "name", Message: "не задано название категории"}
	}
	return nil
}
