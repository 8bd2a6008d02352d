package expr

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func testScope() Scope {
	return Scope{
		Inputs: map[string]float64{"area": 12, "length": 5, "zero": 0},
		Product: Product{
			Name:        "Ротбанд 30 кг",
			Consumption: 2,
			Price:       450,
			BagWeight:   ptr(30),
		},
	}
}

func TestRun_Arithmetic(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want float64
	}{
		{name: "число", src: "42", want: 42},
		{name: "дробь и экспонента", src: "1.5e2 + .5", want: 150.5},
		{name: "приоритет", src: "2 + 3 * 4", want: 14},
		{name: "скобки", src: "(2 + 3) * 4", want: 20},
		{name: "унарный минус", src: "-inputs.length + 10", want: 5},
		{name: "двойной минус", src: "--3", want: 3},
		{name: "остаток", src: "inputs.area % 5", want: 2},
		{name: "деление", src: "inputs.area / 4", want: 3},
		{name: "поля товара", src: "inputs.area * product.consumption", want: 24},
		{name: "мешок задан", src: "product.bagWeight || 25", want: 30},
		{name: "тернарный", src: "inputs.zero ? 1 : 2", want: 2},
		{name: "вложенный тернарный", src: "inputs.area > 10 ? inputs.length > 10 ? 1 : 2 : 3", want: 2},
		{name: "сравнение", src: "(inputs.area >= 12) + (inputs.area < 12)", want: 1},
		{name: "строгое равенство", src: "inputs.area === 12", want: 1},
		{name: "сравнение имени", src: "product.name == 'Ротбанд 30 кг' ? 1 : 0", want: 1},
		{name: "отрицание", src: "!inputs.zero", want: 1},
		{name: "и", src: "inputs.area && inputs.length", want: 5},
		{name: "и с нулём", src: "inputs.zero && inputs.length", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Run(tt.src, testScope())
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRun_OptionalInputFallback(t *testing.T) {
	scope := Scope{
		Inputs:  map[string]float64{"area": 12},
		Product: Product{Consumption: 2},
	}

	got, err := Run("inputs.area * product.consumption * (inputs.layers || 1)", scope)

	require.NoError(t, err)
	assert.Equal(t, 24.0, got)
}

func TestRun_NoBagWeightFallback(t *testing.T) {
	scope := testScope()
	scope.Product.BagWeight = nil

	got, err := Run("product.bagWeight || 25", scope)

	require.NoError(t, err)
	assert.Equal(t, 25.0, got)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		reason Reason
	}{
		{name: "пустое", src: "   ", reason: ReasonEmpty},
		{name: "неизвестный ключ", src: "inputs.bogus * 2", reason: ReasonUnknownIdent},
		{name: "неизвестный ключ в результате", src: "inputs.bogus", reason: ReasonUnknownIdent},
		{name: "неизвестное поле товара", src: "product.weight", reason: ReasonUnknownIdent},
		{name: "вызов функции", src: "eval('1+1')", reason: ReasonForbiddenCall},
		{name: "вызов метода", src: "inputs.area(1)", reason: ReasonForbiddenCall},
		{name: "вызов скобок", src: "(inputs.area)(1)", reason: ReasonForbiddenCall},
		{name: "глобальный объект", src: "window.x", reason: ReasonForbiddenIdent},
		{name: "голое имя", src: "area * 2", reason: ReasonForbiddenIdent},
		{name: "корень без поля", src: "inputs", reason: ReasonForbiddenIdent},
		{name: "прототип", src: "inputs.constructor.prototype", reason: ReasonForbiddenIdent},
		{name: "индекс", src: "inputs['area']", reason: ReasonForbiddenIdent},
		{name: "присваивание", src: "inputs.area = 5", reason: ReasonForbiddenAssign},
		{name: "составное присваивание", src: "inputs.area += 5", reason: ReasonForbiddenAssign},
		{name: "деление на ноль", src: "inputs.area / inputs.zero", reason: ReasonDivisionByZero},
		{name: "остаток от нуля", src: "5 % 0", reason: ReasonDivisionByZero},
		{name: "строка в арифметике", src: "product.name * 2", reason: ReasonTypeMismatch},
		{name: "строка в результате", src: "product.name", reason: ReasonTypeMismatch},
		{name: "бесконечность", src: "1e308 * 10", reason: ReasonNonFinite},
		{name: "незакрытая скобка", src: "(1 + 2", reason: ReasonSyntax},
		{name: "лишняя скобка", src: "1 + 2)", reason: ReasonSyntax},
		{name: "недопустимый символ", src: "1 # 2", reason: ReasonSyntax},
		{name: "незакрытая строка", src: "'abc", reason: ReasonSyntax},
		{name: "тернарный без двоеточия", src: "1 ? 2", reason: ReasonSyntax},
		{name: "точка с запятой", src: "1; 2", reason: ReasonSyntax},
		{name: "число с буквами", src: "12abc", reason: ReasonSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(tt.src, testScope())
			require.Error(t, err)

			var exprErr *Error
			require.True(t, errors.As(err, &exprErr), "ожидалась *expr.Error, получено %T", err)
			assert.Equal(t, tt.reason, exprErr.Reason, err.Error())
		})
	}
}

func TestCompile_RejectsBeforeEvaluation(t *testing.T) {
	// деление на ноль стоит раньше запрещённого вызова, но до вычисления дело не доходит
	_, err := Compile("1 / 0 + eval(1)")

	assert.ErrorIs(t, err, ErrForbiddenCall)
}

func TestCompile_InputKeys(t *testing.T) {
	prog, err := Compile("inputs.area * (inputs.layers || 1) + inputs.area / product.price")
	require.NoError(t, err)

	assert.Equal(t, []string{"area", "layers"}, prog.InputKeys())
	assert.Equal(t, "inputs.area * (inputs.layers || 1) + inputs.area / product.price", prog.String())
}

func TestCompile_Limits(t *testing.T) {
	t.Run("слишком длинное", func(t *testing.T) {
		_, err := Compile(strings.Repeat("1+", MaxLength) + "1")
		assert.ErrorIs(t, err, ErrTooComplex)
	})

	t.Run("слишком много узлов", func(t *testing.T) {
		_, err := Compile(strings.Repeat("1+", MaxNodes) + "1")
		assert.ErrorIs(t, err, ErrTooComplex)
	})

	t.Run("слишком глубокая вложенность", func(t *testing.T) {
		src := strings.Repeat("(", MaxDepth+1) + "1" + strings.Repeat(")", MaxDepth+1)
		_, err := Compile(src)
		assert.ErrorIs(t, err, ErrTooComplex)
	})

	t.Run("в пределах лимитов", func(t *testing.T) {
		prog, err := Compile(strings.Repeat("1+", 100) + "1")
		require.NoError(t, err)
		got, err := prog.Run(Scope{})
		require.NoError(t, err)
		assert.Equal(t, 101.0, got)
	})
}

func TestProgram_RunDoesNotMutateScope(t *testing.T) {
	scope := testScope()
	prog, err := Compile("inputs.area * product.consumption")
	require.NoError(t, err)

	first, err := prog.Run(scope)
	require.NoError(t, err)
	second, err := prog.Run(scope)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, map[string]float64{"area": 12, "length": 5, "zero": 0}, scope.Inputs)
}
