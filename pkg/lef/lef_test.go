package lef

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/cache"
)

const sampleLibrary = `
VERSION 5.8 ;
BUSBITCHARS "[]" ;
DIVIDERCHAR "/" ;

UNITS
  DATABASE MICRONS 2000 ;
END UNITS

# placement site
SITE core
  SIZE 0.19 BY 1.4 ;
  CLASS CORE ;
  SYMMETRY Y ;
END core

MACRO INV_X1
  CLASS CORE ;
  ORIGIN 0 0 ;
  FOREIGN INV_X1 0 0 ;
  SIZE 0.38 BY 1.4 ;
  SYMMETRY X Y ;
  SITE core ;
  PIN A
    DIRECTION INPUT ;
    USE SIGNAL ;
    PORT
      LAYER metal1 ;
        RECT 0.06 0.525 0.155 0.7 ;
    END
  END A
  PIN ZN
    DIRECTION OUTPUT ;
    PORT
      LAYER metal1 ;
        POLYGON 0.23 0.15 0.32 0.15 0.32 1.25 0.23 1.25 ;
    END
  END ZN
  OBS
    LAYER metal1 ;
      RECT 0 0 0.1 0.1 ;
  END
END INV_X1

MACRO NAND2_X1
  CLASS CORE ;
  SIZE 0.57 BY 1.4 ;
END NAND2_X1

END LIBRARY
`

func TestParseLibrary(t *testing.T) {
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	lib, err := parser.ParseString(sampleLibrary)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	if !lib.Trailer {
		t.Error("Expected END LIBRARY trailer")
	}

	macros := lib.GetMacros()
	if len(macros) != 2 {
		t.Fatalf("Expected 2 macros, got %d", len(macros))
	}

	inv := macros[0]
	if inv.Name != "INV_X1" || inv.Close != "INV_X1" {
		t.Errorf("Expected macro INV_X1, got %q (closed by %q)", inv.Name, inv.Close)
	}
	if size := inv.GetSize(); size == nil || size.Width != 0.38 || size.Height != 1.4 {
		t.Errorf("Unexpected size: %+v", size)
	}
	if len(inv.GetPins()) != 2 {
		t.Errorf("Expected 2 pins, got %d", len(inv.GetPins()))
	}
}

func TestMacros(t *testing.T) {
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	lib, err := parser.ParseString(sampleLibrary)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	table, skipped := lib.Macros()
	if len(skipped) != 0 {
		t.Fatalf("Unexpected skipped macros: %v", skipped)
	}

	w, h, ok := table.Size("NAND2_X1")
	if !ok || w != 0.57 || h != 1.4 {
		t.Errorf("Size(NAND2_X1) = %v, %v, %v", w, h, ok)
	}
	if _, _, ok := table.Size("DFF_X1"); ok {
		t.Error("Size should miss unknown cell")
	}
	if table["INV_X1"].Class != "CORE" {
		t.Errorf("Class = %q, want CORE", table["INV_X1"].Class)
	}

	off, w, h, ok := table.Port("INV_X1", "A")
	if !ok {
		t.Fatal("Port(INV_X1, A) missing")
	}
	if math.Abs(off.X-0.1075) > 1e-9 || math.Abs(off.Y-0.6125) > 1e-9 {
		t.Errorf("pin A centre = %v", off)
	}
	if w != 0.38 || h != 1.4 {
		t.Errorf("Port size = %v x %v", w, h)
	}

	off, _, _, ok = table.Port("INV_X1", "ZN")
	if !ok || math.Abs(off.X-0.275) > 1e-9 || math.Abs(off.Y-0.7) > 1e-9 {
		t.Errorf("pin ZN centre = %v (ok=%v)", off, ok)
	}
}

func TestMacroWithoutSize(t *testing.T) {
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	lib, err := parser.ParseString("MACRO FOO\n CLASS CORE ;\nEND FOO\nMACRO BAR\n SIZE 1 BY 2 ;\nEND BAR\n")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	table, skipped := lib.Macros()
	if len(skipped) != 1 || skipped[0] != "FOO" {
		t.Errorf("Expected FOO to be skipped, got %v", skipped)
	}
	if _, _, ok := table.Size("FOO"); ok {
		t.Error("FOO should not be in the table")
	}
	if w, h, ok := table.Size("BAR"); !ok || w != 1 || h != 2 {
		t.Errorf("Size(BAR) = %v, %v, %v", w, h, ok)
	}
}

func TestPolygonPinWithMask(t *testing.T) {
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	src := `MACRO BUF
  SIZE 1 BY 1 ;
  PIN Z
    PORT
      LAYER metal1 ;
        POLYGON MASK 2 0.2 0.2 0.6 0.2 0.6 0.8 0.2 0.8 ;
    END
  END Z
END BUF
`
	lib, err := parser.ParseString(src)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	table, _ := lib.Macros()
	off, _, _, ok := table.Port("BUF", "Z")
	if !ok || math.Abs(off.X-0.4) > 1e-9 || math.Abs(off.Y-0.5) > 1e-9 {
		t.Errorf("pin Z centre = %v (ok=%v)", off, ok)
	}
}

func TestParseTechnologyBlocks(t *testing.T) {
	const cell = `
MACRO INV
  CLASS CORE ;
  SIZE 0.38 BY 1.4 ;
END INV
`
	tests := []struct {
		name  string
		input string
	}{
		{
			name: "nondefault rule",
			input: `
NONDEFAULTRULE wide
  HARDSPACING ;
  LAYER metal1
    WIDTH 0.2 ;
    SPACING 0.2 ;
  END metal1
  VIA via12 DEFAULT
    LAYER metal1 ;
      RECT -0.1 -0.1 0.1 0.1 ;
  END via12
  USEVIA via12 ;
END wide
` + cell,
		},
		{
			name: "vendor extension",
			input: `
BEGINEXT "tag"
  CREATOR "tool" ;
  END something
ENDEXT
` + cell,
		},
		{
			name: "macro density",
			input: `
MACRO INV
  CLASS CORE ;
  SIZE 0.38 BY 1.4 ;
  DENSITY
    LAYER metal1 ;
      RECT 0 0 0.38 1.4 45.0 ;
  END
END INV
`,
		},
	}

	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, err := parser.ParseString(tt.input + "END LIBRARY\n")
			if err != nil {
				t.Fatalf("Failed to parse: %v", err)
			}
			if !lib.Trailer {
				t.Error("Expected END LIBRARY trailer")
			}
			table, _ := lib.Macros()
			if w, h, ok := table.Size("INV"); !ok || w != 0.38 || h != 1.4 {
				t.Errorf("Size(INV) = %v, %v, %v", w, h, ok)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"macro end without name", "MACRO X\n SIZE 1 BY 2 ;\nEND\n"},
		{"unterminated macro", "MACRO X\n SIZE 1 BY 2 ;\n"},
		{"statement without semicolon", "VERSION 5.8\n"},
	}

	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parser.ParseString(tt.input); err == nil {
				t.Error("Expected parse error")
			}
		})
	}
}

func TestLoadMacroTableCached(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cells.lef")
	if err := os.WriteFile(path, []byte(sampleLibrary), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := cache.NewFileCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	first, err := LoadMacroTable(ctx, c, nil, path)
	if err != nil {
		t.Fatalf("LoadMacroTable error: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("Expected 2 macros, got %d", len(first))
	}

	key := "lef:" + cache.Hash(append([]byte(sampleLibrary), 0))
	if _, hit, err := c.Get(ctx, key); err != nil || !hit {
		t.Fatalf("Expected cache entry for %s (hit=%v, err=%v)", key, hit, err)
	}

	second, err := LoadMacroTable(ctx, c, nil, path)
	if err != nil {
		t.Fatalf("LoadMacroTable (cached) error: %v", err)
	}
	if second["INV_X1"].Width != first["INV_X1"].Width {
		t.Error("Cached table differs from parsed table")
	}
	if _, _, _, ok := second.Port("INV_X1", "A"); !ok {
		t.Error("Cached table lost pin geometry")
	}
}

func TestLoadMacroTableMissingFile(t *testing.T) {
	_, err := LoadMacroTable(context.Background(), nil, nil, filepath.Join(t.TempDir(), "none.lef"))
	if err == nil {
		t.Error("Expected error for missing file")
	}
}
