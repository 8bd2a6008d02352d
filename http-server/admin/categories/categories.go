package categories

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"stroy-calc/http-server/response"
	"stroy-calc/internal/storage"
)

type CategoriesProvider interface {
	ListCategories(ctx context.Context) ([]storage.Category, error)
	CreateCategory(ctx context.Context, c storage.Category) (int64, error)
	UpdateCategory(ctx context.Context, c storage.Category) error
}

// categoryRequest отличает отсутствующий is_active от false.
type categoryRequest struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

func ListCategories(log *slog.Logger, provider CategoriesProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.ListCategories"

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		categories, err := provider.ListCategories(ctx)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		render.JSON(w, r, categories)
	}
}

func CreateCategory(log *slog.Logger, provider CategoriesProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.CreateCategory"

		var req categoryRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.BadRequest(w, r, "ошибка парсинга JSON")
			return
		}

		c := storage.Category{
			Slug:     req.Slug,
			Name:     req.Name,
			IsActive: req.IsActive == nil || *req.IsActive,
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		id, err := provider.CreateCategory(ctx, c)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{"status": "created", "id": id})
	}
}

func UpdateCategory(log *slog.Logger, provider CategoriesProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.UpdateCategory"

		categoryID, ok := response.IDParam(r, "categoryID")
		if !ok {
			response.BadRequest(w, r, "некорректный id категории")
			return
		}

		var req categoryRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.BadRequest(w, r, "ошибка парсинга JSON")
			return
		}
		if req.IsActive == nil {
			response.BadRequest(w, r, "не указано поле is_active")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		err := provider.UpdateCategory(ctx, storage.Category{ID: categoryID, Slug: req.Slug, Name: req.Name, IsActive: *req.IsActive})
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		render.JSON(w, r, map[string]string{"status": "updated"})
	}
}
