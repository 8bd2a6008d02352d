package expr

import (
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// двухсимвольные операторы проверяются раньше односимвольных
var longPuncts = []string{"===", "!==", "||", "&&", "==", "!=", "<=", ">="}

const shortPuncts = "+-*/%()?:.<>!=[],;{}"

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
			continue

		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			if i < len(src) && src[i] == '.' {
				i++
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			}
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && isDigit(src[j]) {
					i = j
					for i < len(src) && isDigit(src[i]) {
						i++
					}
				}
			}
			if i < len(src) && isIdentStart(src[i]) {
				return nil, errorf(ReasonSyntax, i, "некорректное число %q", src[start:i+1])
			}
			v, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, errorf(ReasonSyntax, start, "некорректное число %q", src[start:i])
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], num: v, pos: start})
			continue

		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
			continue

		case c == '\'' || c == '"':
			start := i
			var sb strings.Builder
			i++
			closed := false
			for i < len(src) {
				if src[i] == '\\' && i+1 < len(src) {
					sb.WriteByte(src[i+1])
					i += 2
					continue
				}
				if src[i] == c {
					closed = true
					i++
					break
				}
				sb.WriteByte(src[i])
				i++
			}
			if !closed {
				return nil, errorf(ReasonSyntax, start, "незакрытая строка")
			}
			toks = append(toks, token{kind: tokString, text: sb.String(), pos: start})
			continue
		}

		matched := false
		for _, p := range longPuncts {
			if strings.HasPrefix(src[i:], p) {
				text := p
				// строгие сравнения из JS сводим к обычным
				switch p {
				case "===":
					text = "=="
				case "!==":
					text = "!="
				}
				toks = append(toks, token{kind: tokPunct, text: text, pos: i})
				i += len(p)
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		if strings.IndexByte(shortPuncts, c) >= 0 {
			toks = append(toks, token{kind: tokPunct, text: string(c), pos: i})
			i++
			continue
		}

		return nil, errorf(ReasonSyntax, i, "недопустимый символ %q", string(c))
	}

	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
