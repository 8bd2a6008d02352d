package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"stroy-calc/http-server/admin/categories"
	"stroy-calc/http-server/admin/formula"
	"stroy-calc/http-server/admin/inputs"
	"stroy-calc/http-server/admin/products"
	"stroy-calc/http-server/calculator/calculate"
	"stroy-calc/http-server/calculator/excel"
	"stroy-calc/http-server/calculator/get"
	"stroy-calc/internal/config"
	"stroy-calc/internal/middleware/auth"
	"stroy-calc/internal/service/calculator"
	"stroy-calc/internal/service/report"
	"stroy-calc/internal/storage/sqlstore"
)

func routes(cfg config.Config, log *slog.Logger, storage *sqlstore.Storage, calc *calculator.CalculatorService,
	admin *calculator.AdminService, estimate *report.EstimateService) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// витрина
	router.Get("/api/calculator/categories", get.GetCategories(log, storage))
	router.Get("/api/calculator/{categoryID}", get.GetCalculator(log, calc))
	router.Post("/api/calculator/{categoryID}/calculate", calculate.Calculate(log, calc))
	router.Post("/api/calculator/{categoryID}/excel", excel.GenerateEstimateExcel(log, estimate))

	adminRouter := chi.NewRouter()
	adminRouter.Use(auth.BasicAuth(log, cfg.AdminLogin, cfg.AdminPass))

	adminRouter.Get("/formula-types", formula.GetFormulaTypes(log))
	adminRouter.Get("/categories", categories.ListCategories(log, admin))
	adminRouter.Post("/categories", categories.CreateCategory(log, admin))
	adminRouter.Put("/categories/{categoryID}", categories.UpdateCategory(log, admin))
	adminRouter.Get("/categories/{categoryID}/formula", formula.GetFormula(log, admin))
	adminRouter.Put("/categories/{categoryID}/formula", formula.SaveFormula(log, admin))
	adminRouter.Get("/categories/{categoryID}/inputs", inputs.GetInputs(log, admin))
	adminRouter.Put("/categories/{categoryID}/inputs", inputs.SaveInputs(log, admin))
	adminRouter.Get("/categories/{categoryID}/products", products.ListProducts(log, admin))
	adminRouter.Post("/categories/{categoryID}/products", products.CreateProduct(log, admin))
	adminRouter.Put("/products/{productID}", products.UpdateProduct(log, admin))
	adminRouter.Delete("/products/{productID}", products.DeleteProduct(log, admin))

	router.Mount("/api/admin", adminRouter)

	mountFrontend(router, log, cfg.FrontendDir)

	return router
}

// mountFrontend раздаёт собранный фронтенд, если папка есть. Любой неизвестный путь отдаёт index.html.
func mountFrontend(router *chi.Mux, log *slog.Logger, frontendDir string) {
	if frontendDir == "" {
		return
	}
	if _, err := os.Stat(frontendDir); err != nil {
		log.Warn("папка фронтенда не найдена, отдаём только API", slog.String("path", frontendDir))
		return
	}

	router.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(frontendDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
		http.ServeFile(w, r, filepath.Join(frontendDir, "index.html"))
	})
}
