package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Title("Design %s", "top")
	p.KV("gates", 42)
	p.KV("length", 12.5)
	p.Success("saved %s", "r1")
	p.Warning("%d diagnostics", 3)
	p.Table([]string{"cluster", "gates"}, [][]string{{"1", "10"}, {"2", "32"}})

	out := buf.String()
	for _, want := range []string{"Design top", "gates:", "42", "12.5", "saved r1", "3 diagnostics", "cluster", "32"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{0.5, "0.5"},
		{1.0 / 3, "0.333333"},
		{1234567, "1.23457e+06"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.in); got != tt.want {
			t.Errorf("FormatFloat(%g) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
