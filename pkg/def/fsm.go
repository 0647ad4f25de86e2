package def

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// state is a scanner state. The scanner starts in stateSeeking and returns
// to it after every section terminator.
type state int

const (
	stateSeeking    state = iota // header statements, unknown sections
	stateComponents              // between COMPONENTS n ; and END COMPONENTS
	statePins                    // between PINS n ; and END PINS
	stateNets                    // between NETS n ; and END NETS, outside an entry
	stateNetDetail               // inside a net entry: name, connections, clauses
	stateRoute                   // inside a + ROUTED clause of a net entry
)

var stateNames = [...]string{
	stateSeeking:    "Seeking",
	stateComponents: "InComponents",
	statePins:       "InPins",
	stateNets:       "InNets",
	stateNetDetail:  "InNetDetail",
	stateRoute:      "InRoute",
}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// event is the class of one grouped input item.
type event int

const (
	evWord  event = iota // name, keyword, number or '*'
	evTuple              // parenthesised group "( a b c )"
	evDash               // '-' starting an entry
	evPlus               // '+' starting a clause
	evSemi               // ';' ending an entry or statement
	evEnd                // END <name>
	evEOF
)

var eventNames = [...]string{
	evWord:  "word",
	evTuple: "tuple",
	evDash:  "'-'",
	evPlus:  "'+'",
	evSemi:  "';'",
	evEnd:   "END",
	evEOF:   "EOF",
}

func (e event) String() string { return eventNames[e] }

// item is one grouped input element.
type item struct {
	ev   event
	text string   // word value, or the section name for evEnd
	args []string // tuple contents
	line int
}

type handler func(s *scan, it item) error

// transitions is the complete scanner behaviour. A (state, event) pair that
// is missing from the table is a malformed record and gets skipped.
var transitions = map[state]map[event]handler{
	stateSeeking: {
		evWord:  (*scan).seekCollect,
		evTuple: (*scan).seekCollect,
		evDash:  (*scan).seekCollect,
		evPlus:  (*scan).seekCollect,
		evSemi:  (*scan).seekStatement,
		evEnd:   (*scan).seekEnd,
		evEOF:   (*scan).done,
	},
	stateComponents: {
		evDash:  (*scan).entryStart,
		evWord:  (*scan).entryCollect,
		evTuple: (*scan).entryCollect,
		evPlus:  (*scan).entryCollect,
		evSemi:  (*scan).componentFinish,
		evEnd:   (*scan).sectionEnd,
		evEOF:   (*scan).unterminated,
	},
	statePins: {
		evDash:  (*scan).entryStart,
		evWord:  (*scan).entryCollect,
		evTuple: (*scan).entryCollect,
		evPlus:  (*scan).entryCollect,
		evSemi:  (*scan).pinFinish,
		evEnd:   (*scan).sectionEnd,
		evEOF:   (*scan).unterminated,
	},
	stateNets: {
		evDash:  (*scan).netStart,
		evWord:  (*scan).stray,
		evTuple: (*scan).stray,
		evPlus:  (*scan).stray,
		evSemi:  (*scan).ignore,
		evEnd:   (*scan).sectionEnd,
		evEOF:   (*scan).unterminated,
	},
	stateNetDetail: {
		evWord:  (*scan).netWord,
		evTuple: (*scan).netTuple,
		evPlus:  (*scan).clauseStart,
		evSemi:  (*scan).netFinish,
		evDash:  (*scan).netRestart,
		evEnd:   (*scan).netCut,
		evEOF:   (*scan).unterminated,
	},
	stateRoute: {
		evWord:  (*scan).routeWord,
		evTuple: (*scan).routePoint,
		evPlus:  (*scan).clauseStart,
		evSemi:  (*scan).netFinish,
		evDash:  (*scan).netRestart,
		evEnd:   (*scan).netCut,
		evEOF:   (*scan).unterminated,
	},
}

// grouper turns the token stream into items. It keeps its state across
// lines so tuples and END names may continue on the next line.
type grouper struct {
	tuple     []string
	inTuple   bool
	tupleLine int
	pendEnd   bool
	endLine   int
}

// feed groups the tokens of one line and hands every complete item to emit.
// Unbalanced parentheses are reported through bad and dropped.
func (g *grouper) feed(toks []lexer.Token, line int, emit func(item) error, bad func(line int, msg string)) error {
	for _, t := range toks {
		if g.pendEnd {
			g.pendEnd = false
			if t.Type != tokLParen && t.Type != tokRParen && t.Type != tokSemi && t.Type != tokSign {
				if err := emit(item{ev: evEnd, text: unquote(t), line: g.endLine}); err != nil {
					return err
				}
				continue
			}
			if err := emit(item{ev: evEnd, line: g.endLine}); err != nil {
				return err
			}
		}

		switch t.Type {
		case tokLParen:
			if g.inTuple {
				bad(line, "nested '(' inside a tuple")
			}
			g.inTuple, g.tuple, g.tupleLine = true, g.tuple[:0], line
		case tokRParen:
			if !g.inTuple {
				bad(line, "')' without matching '('")
				continue
			}
			g.inTuple = false
			args := make([]string, len(g.tuple))
			copy(args, g.tuple)
			if err := emit(item{ev: evTuple, args: args, line: g.tupleLine}); err != nil {
				return err
			}
		case tokSemi:
			if g.inTuple {
				bad(line, "';' inside an unterminated tuple")
				g.inTuple = false
			}
			if err := emit(item{ev: evSemi, line: line}); err != nil {
				return err
			}
		default:
			if g.inTuple {
				g.tuple = append(g.tuple, unquote(t))
				continue
			}
			it := item{ev: evWord, text: unquote(t), line: line}
			switch {
			case t.Type == tokSign && t.Value == "-":
				it.ev = evDash
			case t.Type == tokSign && t.Value == "+":
				it.ev = evPlus
			case t.Type != tokString && t.Value == "END":
				g.pendEnd, g.endLine = true, line
				continue
			}
			if err := emit(it); err != nil {
				return err
			}
		}
	}
	return nil
}

// flush emits a trailing END that never got its name.
func (g *grouper) flush(emit func(item) error) error {
	if g.pendEnd {
		g.pendEnd = false
		return emit(item{ev: evEnd, line: g.endLine})
	}
	return nil
}

func unquote(t lexer.Token) string {
	if t.Type == tokString {
		return strings.Trim(t.Value, `"`)
	}
	return t.Value
}
