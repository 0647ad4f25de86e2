package lef

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// LEFLexer defines the lexical structure of LEF macro libraries.
// LEF is a whitespace-separated, semicolon-terminated statement language with
// named END terminators for blocks.
var LEFLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments run from # to end of line
	{Name: "Comment", Pattern: `#[^\n]*`},

	// Whitespace
	{Name: "Whitespace", Pattern: `[\s]+`},

	// Vendor extensions are skipped whole
	{Name: "Extension", Pattern: `\bBEGINEXT\b[\s\S]*?\bENDEXT\b`},

	// Quoted strings (BUSBITCHARS "[]", PROPERTY values)
	{Name: "String", Pattern: `"[^"]*"`},

	{Name: "Semicolon", Pattern: `;`},

	// END gets its own token type so that statements can never start with it
	{Name: "End", Pattern: `\bEND\b`},

	// Numbers
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},

	// Everything else: keywords, cell names, layer names, parentheses
	{Name: "Ident", Pattern: `[^\s;"#]+`},
})
