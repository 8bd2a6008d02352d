package inputs

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"stroy-calc/http-server/response"
	"stroy-calc/internal/storage"
)

type InputsProvider interface {
	GetInputs(ctx context.Context, categoryID int64) ([]storage.InputDefinition, error)
	SaveInputs(ctx context.Context, categoryID int64, defs []storage.InputDefinition) error
}

func GetInputs(log *slog.Logger, provider InputsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.GetInputs"

		categoryID, ok := response.IDParam(r, "categoryID")
		if !ok {
			response.BadRequest(w, r, "некорректный id категории")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		defs, err := provider.GetInputs(ctx, categoryID)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		render.JSON(w, r, defs)
	}
}

// SaveInputs заменяет все поля категории присланным списком.
func SaveInputs(log *slog.Logger, provider InputsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.SaveInputs"

		categoryID, ok := response.IDParam(r, "categoryID")
		if !ok {
			response.BadRequest(w, r, "некорректный id категории")
			return
		}

		var defs []storage.InputDefinition
		if err := render.DecodeJSON(r.Body, &defs); err != nil {
			response.BadRequest(w, r, "ошибка парсинга JSON")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := provider.SaveInputs(ctx, categoryID, defs); err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		log.Info("поля категории сохранены", slog.Int64("category_id", categoryID), slog.Int("count", len(defs)))
		render.JSON(w, r, map[string]string{"status": "saved"})
	}
}
