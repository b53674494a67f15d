package visibility

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-formdoc/pkg/value"
)

type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

var singleQuoted = strings.NewReplacer(`\'`, `'`, `\\`, `\`)

type token struct {
	kind tokenKind
	raw  string
}

var operators = []struct {
	raw  string
	kind tokenKind
}{
	{"==", tokenEq},
	{"!=", tokenNeq},
	{"<=", tokenLte},
	{">=", tokenGte},
	{"&&", tokenAnd},
	{"||", tokenOr},
	{"<", tokenLt},
	{">", tokenGt},
	{"!", tokenNot},
	{"(", tokenLParen},
	{")", tokenRParen},
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		ch := input[i]
		if isSpace(ch) {
			i++
			continue
		}

		if ch == '"' || ch == '\'' {
			end := i + 1
			for end < len(input) && input[end] != ch {
				if input[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(input) {
				return nil, syntaxf("unterminated string literal")
			}
			text := singleQuoted.Replace(input[i+1 : end])
			if ch == '"' {
				unquoted, err := strconv.Unquote(input[i : end+1])
				if err != nil {
					return nil, syntaxf("invalid string literal %s", input[i:end+1])
				}
				text = unquoted
			}
			tokens = append(tokens, token{kind: tokenString, raw: text})
			i = end + 1
			continue
		}

		if op, ok := matchOperator(input[i:]); ok {
			tokens = append(tokens, op)
			i += len(op.raw)
			continue
		}
		if ch == '=' || ch == '&' || ch == '|' {
			return nil, syntaxf("unexpected %q", string(ch))
		}

		start := i
		for i < len(input) && isWordByte(input[i]) {
			i++
		}
		if start == i {
			return nil, syntaxf("unexpected %q", string(ch))
		}
		tokens = append(tokens, word(input[start:i]))
	}
	return tokens, nil
}

func matchOperator(rest string) (token, bool) {
	for _, op := range operators {
		if strings.HasPrefix(rest, op.raw) {
			return token{kind: op.kind, raw: op.raw}, true
		}
	}
	return token{}, false
}

func word(raw string) token {
	switch strings.ToLower(raw) {
	case "true", "false":
		return token{kind: tokenBool, raw: strings.ToLower(raw)}
	case "null", "nil":
		return token{kind: tokenNull, raw: "null"}
	}
	if c := raw[0]; (c >= '0' && c <= '9') || ((c == '-' || c == '+') && len(raw) > 1) {
		return token{kind: tokenNumber, raw: raw}
	}
	return token{kind: tokenIdent, raw: raw}
}

func isSpace(ch byte) bool { return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' }

func isWordByte(ch byte) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		return true
	}
	return ch == '_' || ch == '.' || ch == '-' || ch == '+'
}

type parser struct {
	tokens []token
	pos    int
	refs   map[string]struct{}
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.match(tokenOr) {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) and() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.match(tokenAnd) {
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) unary() (node, error) {
	if p.match(tokenNot) {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	if p.match(tokenLParen) {
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if !p.match(tokenRParen) {
			return nil, syntaxf("missing closing ')'")
		}
		return inner, nil
	}

	if p.pos >= len(p.tokens) {
		return nil, syntaxf("expression ends early")
	}
	ident := p.tokens[p.pos]
	if ident.kind != tokenIdent {
		return nil, syntaxf("expected a field name, got %q", ident.raw)
	}
	p.pos++
	p.refs[ident.raw] = struct{}{}

	if p.pos >= len(p.tokens) {
		return truthyNode{path: ident.raw}, nil
	}
	op := p.tokens[p.pos].kind
	switch op {
	case tokenEq, tokenNeq, tokenLt, tokenLte, tokenGt, tokenGte:
		p.pos++
	default:
		return truthyNode{path: ident.raw}, nil
	}

	lit, err := p.literal()
	if err != nil {
		return nil, err
	}
	if op != tokenEq && op != tokenNeq && lit.kind != tokenNumber {
		return nil, syntaxf("%s %s needs a number", ident.raw, p.tokens[p.pos-2].raw)
	}
	return compareNode{path: ident.raw, op: op, lit: lit}, nil
}

func (p *parser) literal() (literal, error) {
	if p.pos >= len(p.tokens) {
		return literal{}, syntaxf("missing value after operator")
	}
	tok := p.tokens[p.pos]
	p.pos++
	switch tok.kind {
	case tokenString, tokenIdent:
		return literal{kind: tokenString, text: tok.raw}, nil
	case tokenNumber:
		parsed, err := value.ParseNumber(tok.raw)
		if err != nil || parsed.IsEmpty() {
			return literal{}, syntaxf("invalid number %q", tok.raw)
		}
		return literal{kind: tokenNumber, num: parsed.Number()}, nil
	case tokenBool:
		return literal{kind: tokenBool, flag: tok.raw == "true"}, nil
	case tokenNull:
		return literal{kind: tokenNull}, nil
	default:
		return literal{}, syntaxf("expected a value, got %q", tok.raw)
	}
}

func (p *parser) match(kind tokenKind) bool {
	if p.pos < len(p.tokens) && p.tokens[p.pos].kind == kind {
		p.pos++
		return true
	}
	return false
}
