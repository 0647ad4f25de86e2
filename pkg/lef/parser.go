package lef

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
)

// Parser represents a LEF macro library parser
type Parser struct {
	parser *participle.Parser[Library]
}

// NewParser creates a new LEF parser instance
func NewParser() (*Parser, error) {
	parser, err := participle.Build[Library](
		participle.Lexer(LEFLexer),
		participle.Elide("Comment", "Whitespace", "Extension"),
		participle.UseLookahead(participle.MaxLookahead),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}

	return &Parser{parser: parser}, nil
}

// Parse parses a LEF library from a reader
func (p *Parser) Parse(r io.Reader) (*Library, error) {
	lib, err := p.parser.Parse("", r)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return lib, nil
}

// ParseString parses a LEF library from a string
func (p *Parser) ParseString(input string) (*Library, error) {
	lib, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return lib, nil
}

// ParseFile parses a LEF library from a file path
func (p *Parser) ParseFile(filename string) (*Library, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(file)
}
