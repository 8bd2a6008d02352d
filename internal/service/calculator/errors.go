package calculator

import (
	"fmt"
)

type ErrorKind string

const (
	KindMissingInput    ErrorKind = "missing_input"
	KindInvalidParam    ErrorKind = "invalid_param"
	KindDivisionByZero  ErrorKind = "division_by_zero"
	KindExpressionError ErrorKind = "expression_error"
	KindNonFiniteResult ErrorKind = "non_finite_result"
)

// ValidationError - значение, введённое пользователем, вне допустимого диапазона.
// Относится ко всему набору полей, поэтому расчёт не начинается.
type ValidationError struct {
	Key   string
	Value float64
	Min   float64
	Max   *float64
}

func (e *ValidationError) Error() string {
	if e.Max != nil {
		return fmt.Sprintf("значение поля %s=%v вне диапазона [%v, %v]", e.Key, e.Value, e.Min, *e.Max)
	}
	return fmt.Sprintf("значение поля %s=%v меньше минимального %v", e.Key, e.Value, e.Min)
}

// EvaluationError - ошибка расчёта для одного товара категории.
type EvaluationError struct {
	Kind    ErrorKind
	Key     string
	Message string
	Err     error
}

func (e *EvaluationError) Error() string {
	msg := string(e.Kind)
	if e.Key != "" {
		msg += " [" + e.Key + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Is позволяет проверять вид ошибки через errors.Is(err, &EvaluationError{Kind: ...}).
func (e *EvaluationError) Is(target error) bool {
	t, ok := target.(*EvaluationError)
	return ok && t.Kind == e.Kind && t.Key == "" && t.Message == "" && t.Err == nil
}

func missingInput(key string) *EvaluationError {
	return &EvaluationError{Kind: KindMissingInput, Key: key, Message: "поле не найдено среди введённых значений"}
}

func invalidParam(key, format string, args ...any) *EvaluationError {
	return &EvaluationError{Kind: KindInvalidParam, Key: key, Message: fmt.Sprintf(format, args...)}
}

// ConfigShapeError - шаблон рекомендаций не соответствует схеме {tips, warnings}.
// При расчёте такой шаблон считается отсутствующим.
type ConfigShapeError struct {
	Field  string
	Reason string
}

func (e *ConfigShapeError) Error() string {
	if e.Field == "" {
		return "шаблон рекомендаций: " + e.Reason
	}
	return fmt.Sprintf("шаблон рекомендаций, поле %s: %s", e.Field, e.Reason)
}
