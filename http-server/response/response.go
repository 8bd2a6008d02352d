package response

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"stroy-calc/internal/service/calculator"
	"stroy-calc/internal/storage"
)

const (
	KindValidation = "validation"
	KindConfig     = "config"
	KindNotFound   = "not_found"
	KindConflict   = "conflict"
	KindBadRequest = "bad_request"
	KindInternal   = "internal"
)

type ErrorBody struct {
	Kind    string   `json:"kind"`
	Key     string   `json:"key,omitempty"`
	Message string   `json:"message"`
	Value   *float64 `json:"value,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func Error(w http.ResponseWriter, r *http.Request, status int, body ErrorBody) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: body})
}

func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusBadRequest, ErrorBody{Kind: KindBadRequest, Message: message})
}

// FromError подбирает статус по типу ошибки. Всё неизвестное логируется и уходит как 500.
func FromError(log *slog.Logger, w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		vErr   *calculator.ValidationError
		cfgErr *calculator.ConfigError
	)

	switch {
	case errors.As(err, &vErr):
		Error(w, r, http.StatusUnprocessableEntity, ErrorBody{
			Kind:    KindValidation,
			Key:     vErr.Key,
			Message: vErr.Error(),
			Value:   &vErr.Value,
			Min:     &vErr.Min,
			Max:     vErr.Max,
		})

	case errors.As(err, &cfgErr):
		Error(w, r, http.StatusUnprocessableEntity, ErrorBody{Kind: KindConfig, Key: cfgErr.Field, Message: cfgErr.Error()})

	case errors.Is(err, storage.ErrInputKeyExists):
		Error(w, r, http.StatusUnprocessableEntity, ErrorBody{Kind: KindConfig, Message: storage.ErrInputKeyExists.Error()})

	case errors.Is(err, storage.ErrCategoryExists):
		Error(w, r, http.StatusConflict, ErrorBody{Kind: KindConflict, Key: "slug", Message: storage.ErrCategoryExists.Error()})

	case errors.Is(err, storage.ErrCategoryNotFound),
		errors.Is(err, storage.ErrFormulaNotFound),
		errors.Is(err, storage.ErrProductNotFound):
		Error(w, r, http.StatusNotFound, ErrorBody{Kind: KindNotFound, Message: notFoundMessage(err)})

	default:
		log.With(slog.String("op", op), slog.String("error", err.Error())).Error("ошибка обработки запроса")
		Error(w, r, http.StatusInternalServerError, ErrorBody{Kind: KindInternal, Message: "Internal error"})
	}
}

func notFoundMessage(err error) string {
	for _, target := range []error{storage.ErrCategoryNotFound, storage.ErrFormulaNotFound, storage.ErrProductNotFound} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "не найдено"
}

// IDParam читает положительный числовой параметр маршрута.
func IDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
