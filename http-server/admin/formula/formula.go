package formula

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"stroy-calc/http-server/response"
	"stroy-calc/internal/constants"
	"stroy-calc/internal/service/calculator"
	"stroy-calc/internal/storage"
)

type FormulaProvider interface {
	GetFormula(ctx context.Context, categoryID int64) (*storage.FormulaRecord, error)
	SaveFormula(ctx context.Context, rec storage.FormulaRecord) error
}

type FormulaType struct {
	Type        string   `json:"type"`
	Label       string   `json:"label"`
	Params      []string `json:"params"`
	DefaultUnit string   `json:"default_unit"`
}

// GetFormulaTypes отдаёт справочник типов формул для формы админки.
func GetFormulaTypes(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types := make([]FormulaType, 0, len(calculator.FormulaTypes))
		for _, ft := range calculator.FormulaTypes {
			types = append(types, FormulaType{
				Type:        ft.String(),
				Label:       constants.FormulaTypeLabels[ft.String()],
				Params:      constants.FormulaTypeParams[ft.String()],
				DefaultUnit: constants.DefaultResultUnits[ft.String()],
			})
		}

		render.JSON(w, r, types)
	}
}

func GetFormula(log *slog.Logger, provider FormulaProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.GetFormula"

		categoryID, ok := response.IDParam(r, "categoryID")
		if !ok {
			response.BadRequest(w, r, "некорректный id категории")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		rec, err := provider.GetFormula(ctx, categoryID)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		render.JSON(w, r, rec)
	}
}

type SaveRequest struct {
	FormulaType             string          `json:"formula_type"`
	FormulaParams           json.RawMessage `json:"formula_params"`
	ResultUnit              string          `json:"result_unit"`
	ResultUnitTemplate      *string         `json:"result_unit_template"`
	RecommendationsTemplate json.RawMessage `json:"recommendations_template"`
}

func SaveFormula(log *slog.Logger, provider FormulaProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.SaveFormula"

		categoryID, ok := response.IDParam(r, "categoryID")
		if !ok {
			response.BadRequest(w, r, "некорректный id категории")
			return
		}

		var req SaveRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.BadRequest(w, r, "ошибка парсинга JSON")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		err := provider.SaveFormula(ctx, storage.FormulaRecord{
			CategoryID:              categoryID,
			FormulaType:             req.FormulaType,
			FormulaParams:           req.FormulaParams,
			ResultUnit:              req.ResultUnit,
			ResultUnitTemplate:      req.ResultUnitTemplate,
			RecommendationsTemplate: req.RecommendationsTemplate,
		})
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		render.JSON(w, r, map[string]string{"status": "saved"})
	}
}
