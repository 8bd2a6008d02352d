package products

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"stroy-calc/http-server/response"
	"stroy-calc/internal/storage"
)

type ProductsProvider interface {
	ListProducts(ctx context.Context, categoryID int64) ([]storage.CalculatorProduct, error)
	CreateProduct(ctx context.Context, p storage.CalculatorProduct) (int64, error)
	UpdateProduct(ctx context.Context, p storage.CalculatorProduct) error
	DeleteProduct(ctx context.Context, id int64) error
}

// productRequest отличает отсутствующий is_active от false.
type productRequest struct {
	storage.CalculatorProduct
	IsActive *bool `json:"is_active"`
}

func ListProducts(log *slog.Logger, provider ProductsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.ListProducts"

		categoryID, ok := response.IDParam(r, "categoryID")
		if !ok {
			response.BadRequest(w, r, "некорректный id категории")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		products, err := provider.ListProducts(ctx, categoryID)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		render.JSON(w, r, products)
	}
}

func CreateProduct(log *slog.Logger, provider ProductsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.CreateProduct"

		categoryID, ok := response.IDParam(r, "categoryID")
		if !ok {
			response.BadRequest(w, r, "некорректный id категории")
			return
		}

		var req productRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.BadRequest(w, r, "ошибка парсинга JSON")
			return
		}
		p := req.CalculatorProduct
		p.ID = 0
		p.CategoryID = categoryID
		// новый товар по умолчанию сразу виден на витрине
		p.IsActive = req.IsActive == nil || *req.IsActive

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		id, err := provider.CreateProduct(ctx, p)
		if err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{"status": "created", "id": id})
	}
}

func UpdateProduct(log *slog.Logger, provider ProductsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.UpdateProduct"

		productID, ok := response.IDParam(r, "productID")
		if !ok {
			response.BadRequest(w, r, "некорректный id товара")
			return
		}

		var req productRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.BadRequest(w, r, "ошибка парсинга JSON")
			return
		}
		if req.IsActive == nil {
			response.BadRequest(w, r, "не указано поле is_active")
			return
		}
		p := req.CalculatorProduct
		p.ID = productID
		p.IsActive = *req.IsActive

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := provider.UpdateProduct(ctx, p); err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		render.JSON(w, r, map[string]string{"status": "updated"})
	}
}

func DeleteProduct(log *slog.Logger, provider ProductsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.DeleteProduct"

		productID, ok := response.IDParam(r, "productID")
		if !ok {
			response.BadRequest(w, r, "некорректный id товара")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := provider.DeleteProduct(ctx, productID); err != nil {
			response.FromError(log, w, r, op, err)
			return
		}

		render.JSON(w, r, map[string]string{"status": "deleted"})
	}
}
