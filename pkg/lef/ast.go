package lef

// Library is a parsed LEF file.
// Supported top-level content: simple statements (VERSION, BUSBITCHARS, ...),
// named blocks (SITE, UNITS, LAYER, VIA, NONDEFAULTRULE, ...) and MACRO
// definitions. BEGINEXT ... ENDEXT extensions are dropped by the lexer.
type Library struct {
	Entries []*Entry `@@*`
	Trailer bool     `( @"END" "LIBRARY" )?`
}

// Entry is one top-level item of a library.
type Entry struct {
	Macro *Macro     `  @@`
	Block *Block     `| @@`
	Stmt  *Statement `| @@`
}

// Statement is a generic semicolon-terminated statement. A MACRO header is
// never read as a statement, so a broken macro stays a parse error.
// Example: CLASS CORE ;
type Statement struct {
	Keyword string   `(?! "MACRO" ) @Ident`
	Args    []string `@( Ident | Number | String )* ";"`
}

// Block is a named block whose content is not interpreted. Blocks nest,
// as the LAYER and VIA rules inside a NONDEFAULTRULE do.
// Example: SITE core ... END core
type Block struct {
	Kind  string       `@( "SITE" | "UNITS" | "PROPERTYDEFINITIONS" | "LAYER" | "VIA" | "VIARULE" | "SPACING" | "NONDEFAULTRULE" | "ARRAY" )`
	Name  string       `@( Ident | String )?`
	Body  []*BlockItem `@@*`
	Close string       `"END" @Ident?`
}

// BlockItem is one item inside a Block.
type BlockItem struct {
	Block *Block     `  @@`
	Stmt  *Statement `| @@`
}

// Section is an uninterpreted macro sub-block closed by a bare END.
// Example: DENSITY LAYER metal1 ; RECT 0 0 1 1 50.0 ; END
type Section struct {
	Kind string       `@"DENSITY"`
	Body []*Statement `@@*`
	End  bool         `@"END"`
}

// Macro is a standard-cell definition.
// Example: MACRO INV_X1 CLASS CORE ; SIZE 0.38 BY 1.4 ; PIN A ... END A END INV_X1
type Macro struct {
	Name  string       `"MACRO" @Ident`
	Items []*MacroItem `@@*`
	Close string       `"END" @Ident`
}

// MacroItem is one statement inside a MACRO block.
type MacroItem struct {
	Size    *Size      `  @@`
	Pin     *MacroPin  `| @@`
	Obs     *Obs       `| @@`
	Section *Section   `| @@`
	Stmt    *Statement `| @@`
}

// Size is the SIZE w BY h statement of a macro.
type Size struct {
	Width  float64 `"SIZE" @Number`
	Height float64 `"BY" @Number ";"`
}

// MacroPin is a PIN block inside a macro.
type MacroPin struct {
	Name  string     `"PIN" @Ident`
	Items []*PinItem `@@*`
	Close string     `"END" @Ident`
}

// PinItem is one statement inside a PIN block.
type PinItem struct {
	Port *Port      `  @@`
	Stmt *Statement `| @@`
}

// Port is a PORT ... END block of geometry statements.
type Port struct {
	Geometry []*Statement `"PORT" @@*`
	Close    bool         `@"END"`
}

// Obs is an OBS ... END obstruction block.
type Obs struct {
	Geometry []*Statement `"OBS" @@*`
	Close    bool         `@"END"`
}

// Statements returns the plain statements of the macro.
func (m *Macro) Statements() []*Statement {
	var stmts []*Statement
	for _, item := range m.Items {
		if item.Stmt != nil {
			stmts = append(stmts, item.Stmt)
		}
	}
	return stmts
}

// GetSize returns the SIZE statement if present.
func (m *Macro) GetSize() *Size {
	for _, item := range m.Items {
		if item.Size != nil {
			return item.Size
		}
	}
	return nil
}

// GetPins returns all PIN blocks of the macro.
func (m *Macro) GetPins() []*MacroPin {
	var pins []*MacroPin
	for _, item := range m.Items {
		if item.Pin != nil {
			pins = append(pins, item.Pin)
		}
	}
	return pins
}

// GetMacros returns all macros of the library.
func (l *Library) GetMacros() []*Macro {
	var macros []*Macro
	for _, e := range l.Entries {
		if e.Macro != nil {
			macros = append(macros, e.Macro)
		}
	}
	return macros
}
