package expr

import "sort"

const (
	MaxLength = 2000
	MaxNodes  = 256
	MaxDepth  = 64
)

// Корни, через которые выражение видит данные расчёта.
const (
	rootInputs  = "inputs"
	rootProduct = "product"
)

var productFields = map[string]bool{
	"consumption": true,
	"price":       true,
	"bagWeight":   true,
	"name":        true,
}

// Program - разобранное и проверенное выражение. Безопасно для конкурентного Run.
type Program struct {
	src    string
	root   node
	inputs []string
	nodes  int
}

func (p *Program) String() string { return p.src }

// InputKeys возвращает ключи inputs.*, на которые ссылается выражение.
func (p *Program) InputKeys() []string {
	out := make([]string, len(p.inputs))
	copy(out, p.inputs)
	return out
}

func (p *Program) Nodes() int { return p.nodes }

// Compile разбирает выражение в ограниченное дерево. Вызовы функций, присваивания,
// индексы и любые имена вне inputs.* и product.* отклоняются здесь же.
func Compile(src string) (*Program, error) {
	if len(src) > MaxLength {
		return nil, errorf(ReasonTooComplex, -1, "длина выражения %d больше %d", len(src), MaxLength)
	}

	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	if toks[0].kind == tokEOF {
		return nil, &Error{Reason: ReasonEmpty, Pos: 0, Detail: "пустое выражение"}
	}

	p := &parser{toks: toks, inputs: map[string]struct{}{}}
	root, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.unexpected(t)
	}

	keys := make([]string, 0, len(p.inputs))
	for k := range p.inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &Program{src: src, root: root, inputs: keys, nodes: p.nodes}, nil
}

type parser struct {
	toks   []token
	pos    int
	nodes  int
	depth  int
	inputs map[string]struct{}
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isPunct(text string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == text
}

func (p *parser) count() error {
	p.nodes++
	if p.nodes > MaxNodes {
		return errorf(ReasonTooComplex, p.peek().pos, "в выражении больше %d узлов", MaxNodes)
	}
	return nil
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > MaxDepth {
		return errorf(ReasonTooComplex, p.peek().pos, "вложенность больше %d", MaxDepth)
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

// unexpected подбирает причину по токену: "=" это попытка присваивания,
// "(" после значения - вызов, "[" - обращение по индексу.
func (p *parser) unexpected(t token) error {
	if t.kind == tokEOF {
		return errorf(ReasonSyntax, t.pos, "неожиданный конец выражения")
	}
	if t.kind == tokPunct {
		switch t.text {
		case "=":
			return errorf(ReasonForbiddenAssign, t.pos, "присваивание запрещено")
		case "(":
			return errorf(ReasonForbiddenCall, t.pos, "вызов функций запрещён")
		case "[":
			return errorf(ReasonForbiddenIdent, t.pos, "обращение по индексу запрещено")
		}
	}
	return errorf(ReasonSyntax, t.pos, "неожиданный токен %q", t.text)
}

func (p *parser) expect(text string) error {
	if !p.isPunct(text) {
		return p.unexpected(p.peek())
	}
	p.next()
	return nil
}

func (p *parser) parseTernary() (node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if !p.isPunct("?") {
		return cond, nil
	}
	p.next()

	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if err := p.count(); err != nil {
		return nil, err
	}
	return &conditional{cond: cond, then: then, els: els}, nil
}

// уровни приоритета бинарных операторов, от слабого к сильному
var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *parser) matchLevel(level int) (token, bool) {
	t := p.peek()
	if t.kind != tokPunct {
		return t, false
	}
	for _, op := range binaryLevels[level] {
		if t.text == op {
			return t, true
		}
	}
	return t, false
}

func (p *parser) parseBinary(level int) (node, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}

	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.matchLevel(level)
		if !ok {
			return left, nil
		}
		p.next()

		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		if err := p.count(); err != nil {
			return nil, err
		}

		switch op.text {
		case "||", "&&":
			left = &logical{op: op.text, l: left, r: right}
		default:
			left = &binary{op: op.text, l: left, r: right, pos: op.pos}
		}
	}
}

func (p *parser) parseUnary() (node, error) {
	t := p.peek()
	if t.kind == tokPunct && (t.text == "-" || t.text == "+" || t.text == "!") {
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()

		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if err := p.count(); err != nil {
			return nil, err
		}
		return &unary{op: t.text, x: x, pos: t.pos}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t := p.next()

	switch t.kind {
	case tokNumber:
		if err := p.count(); err != nil {
			return nil, err
		}
		return p.afterValue(&numberLit{v: t.num})

	case tokString:
		if err := p.count(); err != nil {
			return nil, err
		}
		return p.afterValue(&stringLit{v: t.text})

	case tokIdent:
		return p.parsePath(t)

	case tokPunct:
		if t.text == "(" {
			x, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return p.afterValue(x)
		}
	}

	return nil, p.unexpected(t)
}

// afterValue не даёт вызвать или проиндексировать уже вычисленное значение: (a)(b), 1[0].
func (p *parser) afterValue(n node) (node, error) {
	if p.isPunct("(") || p.isPunct("[") || p.isPunct(".") {
		t := p.peek()
		if t.text == "." {
			return nil, errorf(ReasonForbiddenIdent, t.pos, "обращение к свойствам значения запрещено")
		}
		return nil, p.unexpected(t)
	}
	return n, nil
}

func (p *parser) parsePath(root token) (node, error) {
	if p.isPunct("(") {
		return nil, errorf(ReasonForbiddenCall, root.pos, "вызов функции %s запрещён", root.text)
	}
	if root.text != rootInputs && root.text != rootProduct {
		return nil, errorf(ReasonForbiddenIdent, root.pos, "имя %s недоступно, разрешены только inputs.* и product.*", root.text)
	}
	if !p.isPunct(".") {
		return nil, errorf(ReasonForbiddenIdent, root.pos, "ожидалось %s.<поле>", root.text)
	}
	p.next()

	member := p.next()
	if member.kind != tokIdent {
		return nil, errorf(ReasonSyntax, member.pos, "ожидалось имя поля после %s.", root.text)
	}
	if p.isPunct("(") {
		return nil, errorf(ReasonForbiddenCall, member.pos, "вызов %s.%s запрещён", root.text, member.text)
	}

	if err := p.count(); err != nil {
		return nil, err
	}

	var n node
	if root.text == rootInputs {
		p.inputs[member.text] = struct{}{}
		n = &inputRef{key: member.text, pos: root.pos}
	} else {
		if !productFields[member.text] {
			return nil, errorf(ReasonUnknownIdent, member.pos, "у товара нет поля %s", member.text)
		}
		n = &productRef{field: member.text, pos: root.pos}
	}

	return p.afterValue(n)
}
