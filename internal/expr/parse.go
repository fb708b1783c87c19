package expr

import (
	"fmt"
	"strconv"
)

// Parse compiles src into a reusable Expr. The grammar (loosest to tightest):
//
//	expr    = term   { ("+" | "-") term }
//	term    = factor { ("*" | "/" | "%") factor }
//	factor  = unary  [ "**" factor ]            (right-associative)
//	unary   = [ "-" ] primary
//	primary = number | ident | ident "(" expr {"," expr} ")" | "(" expr ")"
func Parse(src string) (*Expr, error) {
	p := &parser{src: src}
	p.next()
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf(p.tok.pos, "unexpected %q", p.tok.text)
	}
	return &Expr{src: src, root: root}, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp     // + - * / % **
	tokLParen // (
	tokRParen // )
	tokComma  // ,
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type parser struct {
	src string
	off int
	tok token
}

func (p *parser) errorf(pos int, format string, args ...any) error {
	return &ParseError{Expr: p.src, Pos: pos, Detail: fmt.Sprintf(format, args...)}
}

// next advances to the following token, storing it in p.tok.
func (p *parser) next() {
	for p.off < len(p.src) && (p.src[p.off] == ' ' || p.src[p.off] == '\t' || p.src[p.off] == '\n') {
		p.off++
	}
	start := p.off
	if p.off >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}
	c := p.src[p.off]
	switch {
	case c >= '0' && c <= '9' || c == '.':
		for p.off < len(p.src) && (isDigit(p.src[p.off]) || p.src[p.off] == '.' ||
			p.src[p.off] == 'e' || p.src[p.off] == 'E' ||
			((p.src[p.off] == '+' || p.src[p.off] == '-') && (p.src[p.off-1] == 'e' || p.src[p.off-1] == 'E'))) {
			p.off++
		}
		p.tok = token{kind: tokNumber, text: p.src[start:p.off], pos: start}
	case isIdentStart(c):
		for p.off < len(p.src) && isIdentPart(p.src[p.off]) {
			p.off++
		}
		p.tok = token{kind: tokIdent, text: p.src[start:p.off], pos: start}
	case c == '*':
		p.off++
		if p.off < len(p.src) && p.src[p.off] == '*' {
			p.off++
			p.tok = token{kind: tokOp, text: "**", pos: start}
			return
		}
		p.tok = token{kind: tokOp, text: "*", pos: start}
	case c == '+' || c == '-' || c == '/' || c == '%':
		p.off++
		p.tok = token{kind: tokOp, text: string(c), pos: start}
	case c == '(':
		p.off++
		p.tok = token{kind: tokLParen, text: "(", pos: start}
	case c == ')':
		p.off++
		p.tok = token{kind: tokRParen, text: ")", pos: start}
	case c == ',':
		p.off++
		p.tok = token{kind: tokComma, text: ",", pos: start}
	default:
		p.tok = token{kind: tokEOF, text: string(c), pos: start}
		p.off = len(p.src) + 1 // poison: force "unexpected" at caller
	}
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

func (p *parser) parseExpr() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := p.tok.text
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (Node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "*" || p.tok.text == "/" || p.tok.text == "%") {
		op := p.tok.text
		p.next()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseFactor() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.tok.kind == tokOp && p.tok.text == "**" {
		p.next()
		// Right-associative: a ** b ** c == a ** (b ** c)
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return binaryNode{op: "**", left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.tok.kind == tokOp && p.tok.text == "-" {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: '-', operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	switch p.tok.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(p.tok.text, 64)
		if err != nil {
			return nil, p.errorf(p.tok.pos, "invalid number %q", p.tok.text)
		}
		p.next()
		return numNode(v), nil

	case tokIdent:
		name := p.tok.text
		pos := p.tok.pos
		p.next()
		if p.tok.kind != tokLParen {
			return varNode(name), nil
		}
		spec, ok := functions[name]
		if !ok {
			return nil, p.errorf(pos, "unknown function %q", name)
		}
		p.next()
		var args []Node
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.tok.kind == tokComma {
				p.next()
				continue
			}
			break
		}
		if p.tok.kind != tokRParen {
			return nil, p.errorf(p.tok.pos, "expected ) after arguments to %s", name)
		}
		p.next()
		if len(args) != spec.arity {
			return nil, p.errorf(pos, "%s takes %d argument(s), got %d", name, spec.arity, len(args))
		}
		return callNode{name: name, args: args}, nil

	case tokLParen:
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, p.errorf(p.tok.pos, "expected )")
		}
		p.next()
		return inner, nil

	case tokEOF:
		if p.tok.text != "" {
			return nil, p.errorf(p.tok.pos, "unexpected character %q", p.tok.text)
		}
		return nil, p.errorf(p.tok.pos, "unexpected end of expression")
	}
	return nil, p.errorf(p.tok.pos, "unexpected %q", p.tok.text)
}
