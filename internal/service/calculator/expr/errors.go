package expr

import "fmt"

// Reason - стабильный код причины ошибки выражения, его видит вызывающая сторона.
type Reason string

const (
	ReasonEmpty           Reason = "empty"
	ReasonSyntax          Reason = "syntax"
	ReasonForbiddenCall   Reason = "forbidden_call"
	ReasonForbiddenAssign Reason = "forbidden_assignment"
	ReasonForbiddenIdent  Reason = "forbidden_identifier"
	ReasonUnknownIdent    Reason = "unknown_identifier"
	ReasonDivisionByZero  Reason = "division_by_zero"
	ReasonTypeMismatch    Reason = "type_mismatch"
	ReasonNonFinite       Reason = "non_finite"
	ReasonTooComplex      Reason = "too_complex"
)

// Значения для errors.Is: сравнение идёт только по Reason.
var (
	ErrEmpty           = &Error{Reason: ReasonEmpty, Pos: -1}
	ErrSyntax          = &Error{Reason: ReasonSyntax, Pos: -1}
	ErrForbiddenCall   = &Error{Reason: ReasonForbiddenCall, Pos: -1}
	ErrForbiddenAssign = &Error{Reason: ReasonForbiddenAssign, Pos: -1}
	ErrForbiddenIdent  = &Error{Reason: ReasonForbiddenIdent, Pos: -1}
	ErrUnknownIdent    = &Error{Reason: ReasonUnknownIdent, Pos: -1}
	ErrDivisionByZero  = &Error{Reason: ReasonDivisionByZero, Pos: -1}
	ErrTypeMismatch    = &Error{Reason: ReasonTypeMismatch, Pos: -1}
	ErrNonFinite       = &Error{Reason: ReasonNonFinite, Pos: -1}
	ErrTooComplex      = &Error{Reason: ReasonTooComplex, Pos: -1}
)

type Error struct {
	Reason Reason
	// Pos - смещение в байтах от начала выражения, -1 если позиция неизвестна.
	Pos    int
	Detail string
}

func (e *Error) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("expr: %s (позиция %d): %s", e.Reason, e.Pos, e.Detail)
	}
	if e.Detail == "" {
		return fmt.Sprintf("expr: %s", e.Reason)
	}
	return fmt.Sprintf("expr: %s: %s", e.Reason, e.Detail)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Reason == e.Reason
}

func errorf(reason Reason, pos int, format string, args ...any) *Error {
	return &Error{Reason: reason, Pos: pos, Detail: fmt.Sprintf(format, args...)}
}
