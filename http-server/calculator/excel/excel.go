package excel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"stroy-calc/http-server/calculator/calculate"
	"stroy-calc/http-server/response"
)

type EstimateGenerator interface {
	GenerateEstimate(ctx context.Context, categoryID int64, values map[string]any) ([]byte, string, error)
}

func GenerateEstimateExcel(log *slog.Logger, gen EstimateGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calculator.GenerateEstimateExcel"

		categoryID, ok := response.IDParam(r, "categoryID")
		if !ok {
			response.BadRequest(w, r, "некорректный id категории")
			return
		}

		var req calculate.Request
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			response.BadRequest(w, r, "ошибка парсинга JSON")
			return
		}

		// на Excel времени побольше
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		excelBytes, fileName, err := gen.GenerateEstimate(ctx, categoryID, req.Values)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
		w.Write(excelBytes)
	}
}
