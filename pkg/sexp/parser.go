package sexp

import (
	"fmt"
	"io"
)

// Parser parses S-expressions from a lexer
type Parser struct {
	lexer   *Lexer
	current Token
}

// NewParser creates a new parser from an io.Reader
func NewParser(r io.Reader) *Parser {
	return &Parser{
		lexer: NewLexer(r),
	}
}

// Next parses the next top-level expression. It returns io.EOF when the
// input is exhausted, so large files can be consumed one form at a time.
func (p *Parser) Next() (Sexp, error) {
	tok, err := p.lexer.NextToken()
	if err != nil {
		return nil, err
	}
	p.current = tok
	if tok.Type == TokenEOF {
		return nil, io.EOF
	}
	return p.parseExpr()
}

// ParseAll parses all top-level S-expressions from the input
func (p *Parser) ParseAll() ([]Sexp, error) {
	var result []Sexp
	for {
		expr, err := p.Next()
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return nil, err
		}
		result = append(result, expr)
	}
}

// parseExpr parses a single S-expression starting at the current token
func (p *Parser) parseExpr() (Sexp, error) {
	switch p.current.Type {
	case TokenLeftParen:
		return p.parseList()
	case TokenSymbol, TokenString:
		return Symbol(p.current.Value), nil
	case TokenRightParen:
		return nil, fmt.Errorf("line %d: unexpected ')'", p.current.Line)
	default:
		return nil, fmt.Errorf("line %d: unexpected end of input", p.current.Line)
	}
}

// parseList parses a list: ( ... )
func (p *Parser) parseList() (Sexp, error) {
	list := &List{Line: p.current.Line}
	for {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return nil, err
		}
		p.current = tok

		switch tok.Type {
		case TokenRightParen:
			return list, nil
		case TokenEOF:
			return nil, fmt.Errorf("line %d: list is never closed", list.Line)
		}

		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list.elements = append(list.elements, elem)
	}
}
