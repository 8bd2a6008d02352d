package calculator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"stroy-calc/internal/service/calculator/expr"
	"stroy-calc/internal/storage"
)

type FormulaType string

const (
	FormulaArea   FormulaType = "area"
	FormulaVolume FormulaType = "volume"
	FormulaLength FormulaType = "length"
	FormulaPieces FormulaType = "pieces"
	FormulaSheets FormulaType = "sheets"
	FormulaCustom FormulaType = "custom"
)

var FormulaTypes = []FormulaType{FormulaArea, FormulaVolume, FormulaLength, FormulaPieces, FormulaSheets, FormulaCustom}

// Counted - стратегии, которые сами дают целое число штук или листов.
func (t FormulaType) Counted() bool {
	return t == FormulaPieces || t == FormulaSheets
}

const DefaultWastePercent = 10.0

// FormulaParams - параметры одной из стратегий. Набор вариантов закрыт,
// каждый вариант содержит только свои поля.
type FormulaParams interface {
	Type() FormulaType
	// InputKeys - ключи полей формы, на которые ссылаются параметры.
	InputKeys() []string
	isFormulaParams()
}

type AreaParams struct {
	AreaKey string `json:"areaKey"`
	// LayersKey необязателен, без него слой один
	LayersKey string `json:"layersKey,omitempty"`
}

type VolumeParams struct {
	VolumeKey string `json:"volumeKey"`
}

type LengthParams struct {
	LengthKey string `json:"lengthKey"`
}

type PiecesParams struct {
	AreaKey     string `json:"areaKey"`
	UnitAreaKey string `json:"unitAreaKey,omitempty"`
	// UnitArea используется, если UnitAreaKey пуст
	UnitArea float64 `json:"unitArea,omitempty"`
}

type SheetsParams struct {
	AreaKey      string  `json:"areaKey"`
	SheetArea    float64 `json:"sheetArea"`
	WastePercent float64 `json:"wastePercent"`
}

type CustomParams struct {
	Expression string `json:"expression"`
	program    *expr.Program
}

func (AreaParams) Type() FormulaType   { return FormulaArea }
func (VolumeParams) Type() FormulaType { return FormulaVolume }
func (LengthParams) Type() FormulaType { return FormulaLength }
func (PiecesParams) Type() FormulaType { return FormulaPieces }
func (SheetsParams) Type() FormulaType { return FormulaSheets }
func (CustomParams) Type() FormulaType { return FormulaCustom }

func (p AreaParams) InputKeys() []string {
	if p.LayersKey == "" {
		return []string{p.AreaKey}
	}
	return []string{p.AreaKey, p.LayersKey}
}
func (p VolumeParams) InputKeys() []string { return []string{p.VolumeKey} }
func (p LengthParams) InputKeys() []string { return []string{p.LengthKey} }
func (p PiecesParams) InputKeys() []string {
	if p.UnitAreaKey == "" {
		return []string{p.AreaKey}
	}
	return []string{p.AreaKey, p.UnitAreaKey}
}
func (p SheetsParams) InputKeys() []string { return []string{p.AreaKey} }
func (p CustomParams) InputKeys() []string {
	if p.program == nil {
		return nil
	}
	return p.program.InputKeys()
}

func (AreaParams) isFormulaParams()   {}
func (VolumeParams) isFormulaParams() {}
func (LengthParams) isFormulaParams() {}
func (PiecesParams) isFormulaParams() {}
func (SheetsParams) isFormulaParams() {}
func (CustomParams) isFormulaParams() {}

// FormulaConfig - разобранная формула категории.
type FormulaConfig struct {
	Type               FormulaType
	Params             FormulaParams
	ResultUnit         string
	ResultUnitTemplate string
	Recommendations    Recommendations
	// RecommendationsErr заполняется, если шаблон рекомендаций испорчен.
	// На расчёт это не влияет, шаблон просто игнорируется.
	RecommendationsErr error
}

// ParseFormulaConfig превращает запись администратора в типизированную формулу.
// Ошибка параметров возвращается как *EvaluationError вместе с частично
// заполненной конфигурацией: единицы и рекомендации остаются доступны.
func ParseFormulaConfig(rec storage.FormulaRecord) (FormulaConfig, error) {
	cfg := FormulaConfig{
		Type:       FormulaType(strings.TrimSpace(rec.FormulaType)),
		ResultUnit: rec.ResultUnit,
	}
	if rec.ResultUnitTemplate != nil {
		cfg.ResultUnitTemplate = *rec.ResultUnitTemplate
	}

	recs, err := ParseRecommendations(rec.RecommendationsTemplate)
	if err != nil {
		cfg.RecommendationsErr = err
	}
	cfg.Recommendations = recs

	params, err := ParseFormulaParams(cfg.Type, rec.FormulaParams)
	if err != nil {
		return cfg, err
	}
	cfg.Params = params

	return cfg, nil
}

// rawParams - объединение всех известных полей, числа указателями, чтобы
// отличать отсутствие параметра от явного нуля.
type rawParams struct {
	AreaKey      string   `json:"areaKey"`
	LayersKey    string   `json:"layersKey"`
	VolumeKey    string   `json:"volumeKey"`
	LengthKey    string   `json:"lengthKey"`
	UnitAreaKey  string   `json:"unitAreaKey"`
	UnitArea     *float64 `json:"unitArea"`
	SheetArea    *float64 `json:"sheetArea"`
	SheetLength  *float64 `json:"sheetLength"`
	SheetWidth   *float64 `json:"sheetWidth"`
	WastePercent *float64 `json:"wastePercent"`
	Expression   string   `json:"expression"`
}

func ParseFormulaParams(formulaType FormulaType, raw json.RawMessage) (FormulaParams, error) {
	var p rawParams
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, invalidParam("formulaParams", "параметры формулы не заданы")
	}
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, &EvaluationError{Kind: KindInvalidParam, Key: "formulaParams", Message: "параметры формулы не разобраны", Err: err}
	}

	switch formulaType {
	case FormulaArea:
		if p.AreaKey == "" {
			return nil, invalidParam("areaKey", "не указан ключ площади")
		}
		return AreaParams{AreaKey: p.AreaKey, LayersKey: p.LayersKey}, nil

	case FormulaVolume:
		if p.VolumeKey == "" {
			return nil, invalidParam("volumeKey", "не указан ключ объёма")
		}
		return VolumeParams{VolumeKey: p.VolumeKey}, nil

	case FormulaLength:
		if p.LengthKey == "" {
			return nil, invalidParam("lengthKey", "не указан ключ длины")
		}
		return LengthParams{LengthKey: p.LengthKey}, nil

	case FormulaPieces:
		if p.AreaKey == "" {
			return nil, invalidParam("areaKey", "не указан ключ площади")
		}
		if p.UnitAreaKey != "" {
			return PiecesParams{AreaKey: p.AreaKey, UnitAreaKey: p.UnitAreaKey}, nil
		}
		if p.UnitArea == nil {
			return nil, invalidParam("unitArea", "не указана площадь одной штуки")
		}
		if *p.UnitArea <= 0 {
			return nil, invalidParam("unitArea", "площадь одной штуки должна быть больше нуля, получено %v", *p.UnitArea)
		}
		return PiecesParams{AreaKey: p.AreaKey, UnitArea: *p.UnitArea}, nil

	case FormulaSheets:
		if p.AreaKey == "" {
			return nil, invalidParam("areaKey", "не указан ключ площади")
		}
		sheetArea, err := resolveSheetArea(p)
		if err != nil {
			return nil, err
		}
		waste := DefaultWastePercent
		if p.WastePercent != nil {
			waste = *p.WastePercent
		}
		if waste < 0 {
			return nil, invalidParam("wastePercent", "процент запаса не может быть отрицательным, получено %v", waste)
		}
		return SheetsParams{AreaKey: p.AreaKey, SheetArea: sheetArea, WastePercent: waste}, nil

	case FormulaCustom:
		if strings.TrimSpace(p.Expression) == "" {
			return nil, invalidParam("expression", "не задано выражение")
		}
		prog, err := expr.Compile(p.Expression)
		if err != nil {
			return nil, &EvaluationError{Kind: KindExpressionError, Key: "expression", Err: err}
		}
		return CustomParams{Expression: p.Expression, program: prog}, nil
	}

	return nil, invalidParam("formulaType", "неизвестный тип формулы %q", string(formulaType))
}

// resolveSheetArea: площадь листа задаётся напрямую или длиной и шириной.
func resolveSheetArea(p rawParams) (float64, error) {
	var area float64
	switch {
	case p.SheetArea != nil:
		area = *p.SheetArea
	case p.SheetLength != nil && p.SheetWidth != nil:
		area = *p.SheetLength * *p.SheetWidth
	default:
		return 0, invalidParam("sheetArea", "не указана площадь листа")
	}

	if area <= 0 {
		return 0, invalidParam("sheetArea", "площадь листа должна быть больше нуля, получено %v", area)
	}
	return area, nil
}

func (t FormulaType) String() string { return string(t) }

func (t FormulaType) Valid() bool {
	for _, ft := range FormulaTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// NewCustomParams компилирует выражение, удобно для тестов и админки.
func NewCustomParams(expression string) (CustomParams, error) {
	params, err := ParseFormulaParams(FormulaCustom, mustJSON(map[string]string{"expression": expression}))
	if err != nil {
		return CustomParams{}, err
	}
	return params.(CustomParams), nil
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("calculator: marshal %T: %v", v, err))
	}
	return b
}
