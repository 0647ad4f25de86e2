package def

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// DEFLexer splits one line of a DEF record into tokens.
// Rule order matters: numbers win over signs, and signs over words, so
// "-70" is a number while "- u1" is an entity marker followed by a name.
var DEFLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Semi", Pattern: `;`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?\b`},
	{Name: "Sign", Pattern: `[-+]`},
	{Name: "Star", Pattern: `\*`},
	{Name: "Word", Pattern: `[^\s();"]+`},
})

var (
	defSymbols = DEFLexer.Symbols()

	tokComment    = defSymbols["Comment"]
	tokWhitespace = defSymbols["Whitespace"]
	tokLParen     = defSymbols["LParen"]
	tokRParen     = defSymbols["RParen"]
	tokSemi       = defSymbols["Semi"]
	tokString     = defSymbols["String"]
	tokSign       = defSymbols["Sign"]
)

// lexLine tokenizes a single line, dropping whitespace, comments and EOF.
func lexLine(line string) ([]lexer.Token, error) {
	lex, err := DEFLexer.LexString("", line)
	if err != nil {
		return nil, err
	}
	all, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}
	toks := all[:0]
	for _, t := range all {
		switch t.Type {
		case lexer.EOF, tokWhitespace, tokComment:
			continue
		}
		toks = append(toks, t)
	}
	return toks, nil
}
