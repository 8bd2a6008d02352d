package calculate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"stroy-calc/http-server/response"
	"stroy-calc/internal/service/calculator"
)

type Calculator interface {
	Calculate(ctx context.Context, categoryID int64, values map[string]any) (*calculator.Calculation, error)
}

type Request struct {
	Values map[string]any `json:"values"`
}

func Calculate(log *slog.Logger, calc Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calculator.Calculate"

		categoryID, ok := response.IDParam(r, "categoryID")
		if !ok {
			response.BadRequest(w, r, "некорректный id категории")
			return
		}

		// пустое тело - считаем по значениям по умолчанию
		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Warn("не удалось разобрать тело запроса")
			response.BadRequest(w, r, "ошибка парсинга JSON")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		result, err := calc.Calculate(ctx, categoryID, req.Values)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		render.JSON(w, r, result)
	}
}
