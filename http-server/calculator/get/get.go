package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"stroy-calc/http-server/response"
	"stroy-calc/internal/service/calculator"
	"stroy-calc/internal/storage"
)

type CategoriesProvider interface {
	ListCategories(ctx context.Context, activeOnly bool) ([]storage.Category, error)
}

type CalculatorProvider interface {
	GetCalculator(ctx context.Context, categoryID int64) (*calculator.CalculatorForm, error)
}

func GetCategories(log *slog.Logger, provider CategoriesProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calculator.GetCategories"

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		categories, err := provider.ListCategories(ctx, true)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		render.JSON(w, r, categories)
	}
}

func GetCalculator(log *slog.Logger, provider CalculatorProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calculator.GetCalculator"

		categoryID, ok := response.IDParam(r, "categoryID")
		if !ok {
			response.BadRequest(w, r, "некорректный id категории")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		form, err := provider.GetCalculator(ctx, categoryID)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		render.JSON(w, r, form)
	}
}
