package sexp

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLeftParen
	TokenRightParen
	TokenSymbol
	TokenString
)

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
	Line  int
}

// Lexer tokenizes S-expressions from an io.Reader without buffering the
// whole input.
type Lexer struct {
	reader *bufio.Reader
	peeked *rune
	line   int
}

// NewLexer creates a new lexer
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{
		reader: bufio.NewReader(r),
		line:   1,
	}
}

// NextToken reads the next token from the input
func (l *Lexer) NextToken() (Token, error) {
	// Skip whitespace and comments (# or ; to end of line)
	for {
		ch, err := l.peek()
		if err == io.EOF {
			return Token{Type: TokenEOF, Line: l.line}, nil
		}
		if err != nil {
			return Token{}, err
		}

		if unicode.IsSpace(ch) {
			l.read()
			continue
		}
		if ch == '#' || ch == ';' {
			for {
				c, err := l.read()
				if err != nil || c == '\n' {
					break
				}
			}
			continue
		}
		break
	}

	ch, _ := l.peek()
	line := l.line
	switch ch {
	case '(':
		l.read()
		return Token{Type: TokenLeftParen, Value: "(", Line: line}, nil
	case ')':
		l.read()
		return Token{Type: TokenRightParen, Value: ")", Line: line}, nil
	case '"':
		return l.readString(line)
	default:
		return l.readSymbol(line)
	}
}

// peek looks at the next rune without consuming it
func (l *Lexer) peek() (rune, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}

	ch, _, err := l.reader.ReadRune()
	if err != nil {
		return 0, err
	}

	l.peeked = &ch
	return ch, nil
}

// read consumes and returns the next rune
func (l *Lexer) read() (rune, error) {
	var ch rune
	if l.peeked != nil {
		ch = *l.peeked
		l.peeked = nil
	} else {
		var err error
		if ch, _, err = l.reader.ReadRune(); err != nil {
			return 0, err
		}
	}
	if ch == '\n' {
		l.line++
	}
	return ch, nil
}

// readString reads a quoted string with backslash escapes
func (l *Lexer) readString(line int) (Token, error) {
	l.read()

	var sb strings.Builder
	for {
		ch, err := l.read()
		if err == io.EOF {
			return Token{}, fmt.Errorf("line %d: unexpected EOF in string", line)
		}
		if err != nil {
			return Token{}, err
		}

		switch ch {
		case '"':
			return Token{Type: TokenString, Value: sb.String(), Line: line}, nil
		case '\\':
			next, err := l.read()
			if err != nil {
				return Token{}, fmt.Errorf("line %d: unexpected EOF after backslash", line)
			}
			switch next {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			default:
				sb.WriteRune(next)
			}
		default:
			sb.WriteRune(ch)
		}
	}
}

// readSymbol reads an unquoted symbol (identifier, number, etc.)
func (l *Lexer) readSymbol(line int) (Token, error) {
	var sb strings.Builder
	for {
		ch, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Token{}, err
		}
		if unicode.IsSpace(ch) || ch == '(' || ch == ')' || ch == '"' {
			break
		}
		l.read()
		sb.WriteRune(ch)
	}

	return Token{Type: TokenSymbol, Value: sb.String(), Line: line}, nil
}
