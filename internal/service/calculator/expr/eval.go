package expr

import "math"

// Product - поля товара, видимые выражению как product.*.
type Product struct {
	Name        string
	Consumption float64
	Price       float64
	BagWeight   *float64
}

// Scope - всё, что выражение может прочитать. Интерпретатор только читает его.
type Scope struct {
	Inputs  map[string]float64
	Product Product
}

type valueKind int

const (
	kindUndefined valueKind = iota
	kindNumber
	kindString
)

type value struct {
	kind valueKind
	num  float64
	str  string
	// ref - имя, из которого получено undefined, для текста ошибки
	ref string
	pos int
}

func number(v float64) value {
	return value{kind: kindNumber, num: v}
}

func boolean(b bool) value {
	if b {
		return number(1)
	}
	return number(0)
}

// truthy: undefined, 0, NaN и пустая строка ложны. Так работают
// конструкции вида inputs.layers || 1 для необязательных полей.
func (v value) truthy() bool {
	switch v.kind {
	case kindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case kindString:
		return v.str != ""
	default:
		return false
	}
}

func (v value) asNumber(pos int) (float64, error) {
	switch v.kind {
	case kindNumber:
		return v.num, nil
	case kindString:
		return 0, errorf(ReasonTypeMismatch, pos, "строка %q в арифметике", v.str)
	default:
		return 0, errorf(ReasonUnknownIdent, v.pos, "значение %s не задано", v.ref)
	}
}

type node interface {
	eval(s *Scope) (value, error)
}

type numberLit struct{ v float64 }

func (n *numberLit) eval(*Scope) (value, error) { return number(n.v), nil }

type stringLit struct{ v string }

func (n *stringLit) eval(*Scope) (value, error) { return value{kind: kindString, str: n.v}, nil }

type inputRef struct {
	key string
	pos int
}

func (n *inputRef) eval(s *Scope) (value, error) {
	v, ok := s.Inputs[n.key]
	if !ok {
		return value{kind: kindUndefined, ref: "inputs." + n.key, pos: n.pos}, nil
	}
	return number(v), nil
}

type productRef struct {
	field string
	pos   int
}

func (n *productRef) eval(s *Scope) (value, error) {
	switch n.field {
	case "consumption":
		return number(s.Product.Consumption), nil
	case "price":
		return number(s.Product.Price), nil
	case "bagWeight":
		if s.Product.BagWeight == nil {
			return value{kind: kindUndefined, ref: "product.bagWeight", pos: n.pos}, nil
		}
		return number(*s.Product.BagWeight), nil
	case "name":
		return value{kind: kindString, str: s.Product.Name}, nil
	}
	return value{}, errorf(ReasonUnknownIdent, n.pos, "у товара нет поля %s", n.field)
}

type unary struct {
	op  string
	x   node
	pos int
}

func (n *unary) eval(s *Scope) (value, error) {
	x, err := n.x.eval(s)
	if err != nil {
		return value{}, err
	}
	if n.op == "!" {
		return boolean(!x.truthy()), nil
	}

	f, err := x.asNumber(n.pos)
	if err != nil {
		return value{}, err
	}
	if n.op == "-" {
		return number(-f), nil
	}
	return number(f), nil
}

type logical struct {
	op   string
	l, r node
}

func (n *logical) eval(s *Scope) (value, error) {
	l, err := n.l.eval(s)
	if err != nil {
		return value{}, err
	}
	switch n.op {
	case "||":
		if l.truthy() {
			return l, nil
		}
	case "&&":
		if !l.truthy() {
			return l, nil
		}
	}
	return n.r.eval(s)
}

type conditional struct {
	cond, then, els node
}

func (n *conditional) eval(s *Scope) (value, error) {
	c, err := n.cond.eval(s)
	if err != nil {
		return value{}, err
	}
	if c.truthy() {
		return n.then.eval(s)
	}
	return n.els.eval(s)
}

type binary struct {
	op   string
	l, r node
	pos  int
}

func (n *binary) eval(s *Scope) (value, error) {
	l, err := n.l.eval(s)
	if err != nil {
		return value{}, err
	}
	r, err := n.r.eval(s)
	if err != nil {
		return value{}, err
	}

	if n.op == "==" || n.op == "!=" {
		eq, err := equal(l, r)
		if err != nil {
			return value{}, err
		}
		if n.op == "==" {
			return boolean(eq), nil
		}
		return boolean(!eq), nil
	}

	a, err := l.asNumber(n.pos)
	if err != nil {
		return value{}, err
	}
	b, err := r.asNumber(n.pos)
	if err != nil {
		return value{}, err
	}

	switch n.op {
	case "+":
		return number(a + b), nil
	case "-":
		return number(a - b), nil
	case "*":
		return number(a * b), nil
	case "/":
		if b == 0 {
			return value{}, errorf(ReasonDivisionByZero, n.pos, "деление на ноль")
		}
		return number(a / b), nil
	case "%":
		if b == 0 {
			return value{}, errorf(ReasonDivisionByZero, n.pos, "остаток от деления на ноль")
		}
		return number(math.Mod(a, b)), nil
	case "<":
		return boolean(a < b), nil
	case "<=":
		return boolean(a <= b), nil
	case ">":
		return boolean(a > b), nil
	case ">=":
		return boolean(a >= b), nil
	}
	return value{}, errorf(ReasonSyntax, n.pos, "неизвестный оператор %s", n.op)
}

func equal(l, r value) (bool, error) {
	for _, v := range []value{l, r} {
		if v.kind == kindUndefined {
			return false, errorf(ReasonUnknownIdent, v.pos, "значение %s не задано", v.ref)
		}
	}
	if l.kind != r.kind {
		return false, nil
	}
	if l.kind == kindString {
		return l.str == r.str, nil
	}
	return l.num == r.num, nil
}

// Run вычисляет программу в заданной области видимости.
// Результат всегда конечное число, иначе *Error.
func (p *Program) Run(scope Scope) (float64, error) {
	v, err := p.root.eval(&scope)
	if err != nil {
		return 0, err
	}

	switch v.kind {
	case kindUndefined:
		return 0, errorf(ReasonUnknownIdent, v.pos, "значение %s не задано", v.ref)
	case kindString:
		return 0, errorf(ReasonTypeMismatch, -1, "результат выражения строка %q, ожидалось число", v.str)
	}

	if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
		return 0, errorf(ReasonNonFinite, -1, "результат выражения %v", v.num)
	}
	return v.num, nil
}

// Run разбирает и сразу вычисляет выражение.
func Run(src string, scope Scope) (float64, error) {
	prog, err := Compile(src)
	if err != nil {
		return 0, err
	}
	return prog.Run(scope)
}
