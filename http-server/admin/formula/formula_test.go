package formula

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stroy-calc/http-server/response"
	"stroy-calc/internal/service/calculator"
	"stroy-calc/internal/storage"
)

type MockFormulaProvider struct {
	mock.Mock
}

func (m *MockFormulaProvider) GetFormula(ctx context.Context, categoryID int64) (*storage.FormulaRecord, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.FormulaRecord), args.Error(1)
}

func (m *MockFormulaProvider) SaveFormula(ctx context.Context, rec storage.FormulaRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func newRouter(p FormulaProvider) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Get("/api/admin/formula-types", GetFormulaTypes(logger))
	r.Get("/api/admin/categories/{categoryID}/formula", GetFormula(logger, p))
	r.Put("/api/admin/categories/{categoryID}/formula", SaveFormula(logger, p))
	return r
}

func TestGetFormulaTypes(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter(new(MockFormulaProvider)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/formula-types", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var types []FormulaType
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &types))
	require.Len(t, types, len(calculator.FormulaTypes))
	assert.Equal(t, "area", types[0].Type)
	assert.Equal(t, "кг", types[0].DefaultUnit)
	assert.NotEmpty(t, types[0].Label)
}

func TestGetFormula(t *testing.T) {
	p := new(MockFormulaProvider)
	p.On("GetFormula", mock.Anything, int64(1)).Return(&storage.FormulaRecord{
		CategoryID:    1,
		FormulaType:   "area",
		FormulaParams: json.RawMessage(`{"areaKey":"area"}`),
		ResultUnit:    "кг",
	}, nil)
	p.On("GetFormula", mock.Anything, int64(2)).Return(nil, storage.ErrFormulaNotFound)

	rr := httptest.NewRecorder()
	newRouter(p).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/categories/1/formula", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"formula_params":{"areaKey":"area"}`)

	rr = httptest.NewRecorder()
	newRouter(p).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/categories/2/formula", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSaveFormula(t *testing.T) {
	p := new(MockFormulaProvider)
	p.On("SaveFormula", mock.Anything, mock.MatchedBy(func(rec storage.FormulaRecord) bool {
		return rec.CategoryID == 5 && rec.FormulaType == "sheets" && string(rec.FormulaParams) == `{"areaKey":"area","sheetArea":3}`
	})).Return(nil)

	body := `{"formula_type":"sheets","formula_params":{"areaKey":"area","sheetArea":3},"result_unit":"листов"}`
	rr := httptest.NewRecorder()
	newRouter(p).ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/admin/categories/5/formula", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rr.Code)
	p.AssertExpectations(t)
}

func TestSaveFormula_ConfigError(t *testing.T) {
	p := new(MockFormulaProvider)
	p.On("SaveFormula", mock.Anything, mock.Anything).
		Return(&calculator.ConfigError{Field: "formula_type", Message: "неизвестный тип формулы"})

	rr := httptest.NewRecorder()
	newRouter(p).ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/admin/categories/5/formula", strings.NewReader(`{"formula_type":"weight"}`)))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, response.KindConfig, resp.Error.Kind)
	assert.Equal(t, "formula_type", resp.Error.Key)
}
