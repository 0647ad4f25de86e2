// Package sexp is a small streaming S-expression reader.
//
// It is used for partition files of the form
//
//	(partition (design "top")
//	  (gate "u1" 1)
//	  (gate "u2" 0))
//
// Strings and bare atoms are both returned as Symbol; comments start with
// '#' or ';' and run to the end of the line.
package sexp

import (
	"io"
	"strings"
)

// Sexp represents an S-expression node: a Symbol or a *List.
type Sexp interface {
	// IsLeaf returns true if this is an atom (not a list)
	IsLeaf() bool

	// String returns the string representation
	String() string
}

// Symbol represents an atomic symbol (string, number, identifier)
type Symbol string

func (s Symbol) IsLeaf() bool   { return true }
func (s Symbol) String() string { return string(s) }

// List represents a list of S-expressions
type List struct {
	Line     int // line of the opening parenthesis
	elements []Sexp
}

func (l *List) IsLeaf() bool { return false }

func (l *List) String() string {
	parts := make([]string, len(l.elements))
	for i, elem := range l.elements {
		parts[i] = elem.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Get returns the element at the given index
func (l *List) Get(index int) Sexp {
	if index < 0 || index >= len(l.elements) {
		return nil
	}
	return l.elements[index]
}

// Len returns the number of elements in the list
func (l *List) Len() int {
	return len(l.elements)
}

// Keyword returns the first element when it is a symbol, "" otherwise.
func (l *List) Keyword() string {
	if s, ok := l.Get(0).(Symbol); ok {
		return string(s)
	}
	return ""
}

// Atom returns element index as a string when it is a symbol.
func (l *List) Atom(index int) (string, bool) {
	s, ok := l.Get(index).(Symbol)
	return string(s), ok
}

// Children returns the sub-lists whose keyword is name.
func (l *List) Children(name string) []*List {
	var out []*List
	for _, elem := range l.elements {
		if sub, ok := elem.(*List); ok && sub.Keyword() == name {
			out = append(out, sub)
		}
	}
	return out
}

// Parse parses every S-expression from an io.Reader.
func Parse(r io.Reader) ([]Sexp, error) {
	return NewParser(r).ParseAll()
}

// ParseString parses S-expressions from a string.
func ParseString(s string) ([]Sexp, error) {
	return Parse(strings.NewReader(s))
}
