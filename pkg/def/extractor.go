// Package def extracts a physical model from a placed and routed DEF record.
//
// The record is scanned line by line by an explicit finite-state machine
// (see transitions in fsm.go). Only the fields needed for clustering and
// wirelength analysis are extracted: die area, units, component placement,
// pin placement, net connectivity and routed wirelength. Everything else is
// tolerated and ignored.
//
// Recoverable problems become diagnostics and the offending entry is
// skipped. Extraction aborts only when a component references an unknown
// macro or when a section is never terminated.
package def

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/diag"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/geom"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/model"
)

// Macros resolves a standard-cell name to its unrotated size.
type Macros interface {
	Size(cell string) (w, h float64, ok bool)
}

// Extractor turns DEF records into models.
type Extractor struct {
	macros Macros
	cfg    *Config
	logger *log.Logger
	dc     *diag.Collector
}

// NewExtractor creates an extractor. A nil cfg means DefaultConfig and a
// nil logger means log.Default().
func NewExtractor(macros Macros, cfg *Config, logger *log.Logger) *Extractor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{
		macros: macros,
		cfg:    cfg,
		logger: logger,
		dc:     diag.NewCollector(logger),
	}
}

// Collector returns the diagnostics sink used by the extractor.
func (x *Extractor) Collector() *diag.Collector { return x.dc }

// Diagnostics returns every recoverable problem seen so far.
func (x *Extractor) Diagnostics() []diag.Diagnostic { return x.dc.All() }

// ExtractFile opens path and extracts it.
func (x *Extractor) ExtractFile(ctx context.Context, path string) (*model.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return x.Extract(ctx, f)
}

// Extract reads a DEF record and builds the model.
func (x *Extractor) Extract(ctx context.Context, r io.Reader) (*model.Model, error) {
	if err := x.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("def: invalid config: %w", err)
	}

	s := newScan(x)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var g grouper
	bad := func(line int, msg string) {
		x.dc.Warn(diag.MalformedRecord, "", line, "%s", msg)
	}
	for sc.Scan() {
		s.line++
		if s.line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		toks, err := lexLine(sc.Text())
		if err != nil {
			x.dc.Warn(diag.MalformedRecord, "", s.line, "unreadable line: %v", err)
			continue
		}
		if err := g.feed(toks, s.line, s.dispatch, bad); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	if err := g.flush(s.dispatch); err != nil {
		return nil, err
	}
	if err := s.dispatch(item{ev: evEOF, line: s.line}); err != nil {
		return nil, err
	}

	s.finish()
	x.logger.Debug("extracted design",
		"design", s.m.Design,
		"gates", len(s.m.Gates),
		"pins", len(s.m.Pins),
		"nets", len(s.m.Nets),
		"warnings", x.dc.Len())
	return s.m, nil
}

// entry is a component or pin entry accumulated up to its ';'.
type entry struct {
	line  int
	items []item
}

// pendingNet is a net entry accumulated up to its ';'.
type pendingNet struct {
	name   string
	line   int
	gates  []model.Conn
	pins   []string
	length float64 // record units
}

// route tracks the current routed path.
type route struct {
	expectLayer bool
	layer       string
	prev        geom.Point
	havePrev    bool
	skipTuple   bool
	virtual     bool // next point is reached without a wire
}

// scan is the state of one extraction.
type scan struct {
	x     *Extractor
	m     *model.Model
	state state
	line  int

	section     string
	sectionLine int

	stmt []item // current Seeking statement
	ent  *entry

	net          *pendingNet
	expectName   bool
	expectClause bool
	clause       string // active non-routing clause, "" if none
	rt           route

	units   float64
	die     geom.Rect // record units
	dropped map[string]bool
}

func newScan(x *Extractor) *scan {
	return &scan{
		x:       x,
		m:       model.New(""),
		dropped: make(map[string]bool),
		die:     geom.NewRect(),
	}
}

func (s *scan) dispatch(it item) error {
	h, ok := transitions[s.state][it.ev]
	if !ok {
		s.warn(diag.MalformedRecord, "", it.line, "unexpected %s in %s", it.ev, s.state)
		return nil
	}
	return h(s, it)
}

func (s *scan) warn(kind diag.Kind, entity string, line int, format string, args ...any) {
	s.x.dc.Warn(kind, entity, line, format, args...)
}

// scale is the divisor applied to record coordinates.
func (s *scan) scale() float64 {
	if s.x.cfg.Scale > 0 {
		return s.x.cfg.Scale
	}
	if s.units > 0 {
		return s.units
	}
	return 1
}

func (s *scan) finish() {
	sc := s.scale()
	s.m.Units = sc
	if !s.die.IsEmpty() {
		s.m.DieArea = geom.Rect{
			Min: geom.Point{X: s.die.Min.X / sc, Y: s.die.Min.Y / sc},
			Max: geom.Point{X: s.die.Max.X / sc, Y: s.die.Max.Y / sc},
		}
	}
}

// trackedSection maps a section keyword to the state that scans it.
func trackedSection(word string) (state, bool) {
	switch strings.ToUpper(word) {
	case "COMPONENTS":
		return stateComponents, true
	case "PINS":
		return statePins, true
	case "NETS":
		return stateNets, true
	}
	return stateSeeking, false
}

// Seeking

func (s *scan) seekCollect(it item) error {
	s.stmt = append(s.stmt, it)
	return nil
}

func (s *scan) seekStatement(it item) error {
	stmt := s.stmt
	s.stmt = s.stmt[:0]
	if len(stmt) == 0 || stmt[0].ev != evWord {
		return nil
	}

	head := strings.ToUpper(stmt[0].text)
	if st, ok := trackedSection(head); ok {
		s.state = st
		s.section = head
		s.sectionLine = stmt[0].line
		return nil
	}

	switch head {
	case "DESIGN":
		if len(stmt) < 2 || stmt[1].ev != evWord {
			s.warn(diag.MalformedRecord, "DESIGN", stmt[0].line, "design statement without a name")
			return nil
		}
		s.m.Design = stmt[1].text
	case "UNITS":
		// UNITS DISTANCE MICRONS n ;
		if len(stmt) < 4 {
			s.warn(diag.MalformedRecord, "UNITS", stmt[0].line, "incomplete units statement")
			return nil
		}
		v, err := strconv.ParseFloat(stmt[3].text, 64)
		if err != nil || v <= 0 {
			s.warn(diag.MalformedRecord, "UNITS", stmt[0].line, "invalid units value %q", stmt[3].text)
			return nil
		}
		s.units = v
	case "DIEAREA":
		for _, p := range stmt[1:] {
			if p.ev != evTuple {
				continue
			}
			pt, ok := parsePoint(p.args)
			if !ok {
				s.warn(diag.MalformedRecord, "DIEAREA", p.line, "invalid die area point %v", p.args)
				continue
			}
			s.die.Expand(pt)
		}
	}
	return nil
}

func (s *scan) seekEnd(it item) error {
	s.stmt = s.stmt[:0]
	if _, ok := trackedSection(it.text); ok {
		return diag.Errorf(diag.IncompleteSection, it.text, it.line,
			"END %s without a matching section start", it.text)
	}
	return nil
}

func (s *scan) done(item) error { return nil }

func (s *scan) ignore(item) error { return nil }

// Sections

func (s *scan) unterminated(it item) error {
	return diag.Errorf(diag.IncompleteSection, s.section, s.sectionLine,
		"section %s is never terminated (reached end of record at line %d)", s.section, it.line)
}

func (s *scan) sectionEnd(it item) error {
	if s.ent != nil {
		s.warn(diag.MalformedRecord, entryName(s.ent), s.ent.line, "entry not terminated by ';' before END %s", it.text)
		s.ent = nil
	}
	if !strings.EqualFold(it.text, s.section) {
		return diag.Errorf(diag.IncompleteSection, s.section, it.line,
			"END %q does not close section %s opened at line %d", it.text, s.section, s.sectionLine)
	}
	s.state = stateSeeking
	s.section = ""
	return nil
}

// stray handles items outside any entry of a section. A tracked section
// header here means the enclosing section was never closed, and the
// nesting cannot be recovered.
func (s *scan) stray(it item) error {
	if it.ev == evWord {
		if _, ok := trackedSection(it.text); ok {
			return diag.Errorf(diag.IncompleteSection, s.section, it.line,
				"section %s started before END %s", strings.ToUpper(it.text), s.section)
		}
	}
	s.warn(diag.MalformedRecord, "", it.line, "unexpected %s outside an entry of %s", it.ev, s.section)
	return nil
}

func (s *scan) entryStart(it item) error {
	if s.ent != nil {
		s.warn(diag.MalformedRecord, entryName(s.ent), s.ent.line, "entry not terminated by ';', skipped")
	}
	s.ent = &entry{line: it.line}
	return nil
}

func (s *scan) entryCollect(it item) error {
	if s.ent == nil {
		return s.stray(it)
	}
	s.ent.items = append(s.ent.items, it)
	return nil
}

func entryName(e *entry) string {
	if len(e.items) > 0 && e.items[0].ev == evWord {
		return e.items[0].text
	}
	return ""
}

// placement finds "+ <placement keyword> ( x y ) [orient]" in an entry.
func (s *scan) placement(items []item) (pt geom.Point, orient string, found bool) {
	for i := 0; i+2 < len(items); i++ {
		if items[i].ev != evPlus || items[i+1].ev != evWord || !s.x.cfg.isPlacement(items[i+1].text) {
			continue
		}
		if items[i+2].ev != evTuple {
			continue
		}
		p, ok := parsePoint(items[i+2].args)
		if !ok {
			continue
		}
		if i+3 < len(items) && items[i+3].ev == evWord {
			orient = items[i+3].text
		}
		return p, orient, true
	}
	return geom.Point{}, "", false
}

func (s *scan) componentFinish(it item) error {
	e := s.ent
	s.ent = nil
	if e == nil {
		return nil
	}
	if len(e.items) < 2 || e.items[0].ev != evWord || e.items[1].ev != evWord {
		s.warn(diag.MalformedRecord, entryName(e), e.line, "component entry without name and cell")
		return nil
	}
	name, cell := e.items[0].text, e.items[1].text

	w, h, ok := s.lookupMacro(cell)
	if !ok {
		return diag.Errorf(diag.MissingReference, name, e.line,
			"cell %q is not defined in the macro library", cell)
	}

	raw, orientName, found := s.placement(e.items[2:])
	if !found {
		s.warn(diag.MalformedRecord, name, e.line, "component has no complete placement, skipped")
		return nil
	}

	orient := model.North
	if orientName != "" {
		o, err := model.ParseOrientation(orientName)
		if err != nil {
			s.warn(diag.MalformedRecord, name, e.line, "unknown orientation %q, using N", orientName)
		} else {
			orient = o
		}
	}

	sc := s.scale()
	pos := geom.Point{X: raw.X / sc, Y: raw.Y / sc}
	if _, err := s.m.AddGate(name, cell, pos, w, h, orient); err != nil {
		s.warn(diag.MalformedRecord, name, e.line, "%v, skipped", err)
	}
	return nil
}

func (s *scan) lookupMacro(cell string) (float64, float64, bool) {
	if s.x.macros == nil {
		return 0, 0, false
	}
	return s.x.macros.Size(cell)
}

func (s *scan) pinFinish(it item) error {
	e := s.ent
	s.ent = nil
	if e == nil {
		return nil
	}
	name := entryName(e)
	if name == "" {
		s.warn(diag.MalformedRecord, "", e.line, "pin entry without a name")
		return nil
	}

	raw, _, found := s.placement(e.items[1:])
	if !found {
		s.dropped[name] = true
		s.warn(diag.MissingReference, name, e.line, "pin has no placement, dropped")
		return nil
	}

	sc := s.scale()
	if _, err := s.m.AddPin(name, geom.Point{X: raw.X / sc, Y: raw.Y / sc}, true); err != nil {
		s.warn(diag.MalformedRecord, name, e.line, "%v, skipped", err)
	}
	return nil
}

// Nets

func (s *scan) netStart(it item) error {
	s.net = &pendingNet{line: it.line}
	s.expectName = true
	s.expectClause = false
	s.clause = ""
	s.rt = route{}
	s.state = stateNetDetail
	return nil
}

func (s *scan) netRestart(it item) error {
	s.warn(diag.MalformedRecord, s.net.name, s.net.line, "net entry not terminated by ';', skipped")
	return s.netStart(it)
}

func (s *scan) netCut(it item) error {
	s.warn(diag.MalformedRecord, s.net.name, s.net.line, "net entry not terminated by ';' before END %s, skipped", it.text)
	s.net = nil
	return s.sectionEnd(it)
}

func (s *scan) netWord(it item) error {
	switch {
	case s.expectName:
		s.expectName = false
		s.net.name = it.text
	case s.expectClause:
		return s.clauseWord(it)
	}
	return nil
}

func (s *scan) clauseStart(item) error {
	s.expectClause = true
	return nil
}

// clauseWord handles the keyword after '+'. Routing keywords enter
// stateRoute, anything else is a clause whose contents are skipped.
func (s *scan) clauseWord(it item) error {
	s.expectClause = false
	kw := strings.ToUpper(it.text)
	switch kw {
	case "ROUTED", "FIXED", "COVER", "NOSHIELD":
		s.clause = ""
		s.rt = route{expectLayer: true}
		s.state = stateRoute
		return nil
	}
	if !s.x.cfg.isSkip(kw) {
		s.x.logger.Debug("skipping net clause", "net", s.net.name, "clause", kw, "line", it.line)
	}
	s.clause = kw
	s.state = stateNetDetail
	return nil
}

func (s *scan) netTuple(it item) error {
	if s.expectName {
		s.expectName = false
		s.warn(diag.MalformedRecord, "", it.line, "net entry without a name")
	}
	if s.clause != "" {
		return nil
	}
	if len(it.args) < 2 {
		s.warn(diag.MalformedRecord, s.net.name, it.line, "connection %v needs an instance and a port", it.args)
		return nil
	}

	inst, port := it.args[0], it.args[1]
	switch {
	case inst == "*":
		// Wildcard connections belong to special nets.
	case strings.EqualFold(inst, "PIN"):
		s.net.pins = append(s.net.pins, port)
	default:
		g, ok := s.m.Gate(inst)
		if !ok {
			s.warn(diag.MissingReference, s.net.name, it.line, "net references unknown component %q", inst)
			return nil
		}
		s.net.gates = append(s.net.gates, model.Conn{Gate: g.ID, Port: port})
	}
	return nil
}

func (s *scan) routeWord(it item) error {
	if s.expectClause {
		return s.clauseWord(it)
	}
	if s.rt.expectLayer {
		s.rt.expectLayer = false
		s.rt.layer = it.text
		s.rt.havePrev = false
		return nil
	}
	switch strings.ToUpper(it.text) {
	case "NEW":
		s.rt.expectLayer = true
	case "RECT":
		s.rt.skipTuple = true
	case "VIRTUAL":
		s.rt.virtual = true
	}
	// Via names, STYLE, MASK, TAPER and their arguments carry no length.
	return nil
}

// routePoint adds the Manhattan distance from the previous point of the
// current path. A '*' repeats the previous point's coordinate. A VIRTUAL
// point restarts the path there.
func (s *scan) routePoint(it item) error {
	if s.rt.skipTuple {
		s.rt.skipTuple = false
		return nil
	}
	if len(it.args) < 2 {
		s.warn(diag.MalformedRecord, s.net.name, it.line, "route point %v needs two coordinates", it.args)
		return nil
	}

	var pt geom.Point
	var err error
	if pt.X, err = s.routeCoord(it.args[0], s.rt.prev.X); err != nil {
		s.warn(diag.MalformedRecord, s.net.name, it.line, "route point %v: %v", it.args, err)
		return nil
	}
	if pt.Y, err = s.routeCoord(it.args[1], s.rt.prev.Y); err != nil {
		s.warn(diag.MalformedRecord, s.net.name, it.line, "route point %v: %v", it.args, err)
		return nil
	}

	if s.rt.havePrev && !s.rt.virtual {
		s.net.length += math.Abs(pt.X-s.rt.prev.X) + math.Abs(pt.Y-s.rt.prev.Y)
	}
	s.rt.prev = pt
	s.rt.havePrev = true
	s.rt.virtual = false
	return nil
}

func (s *scan) routeCoord(tok string, prev float64) (float64, error) {
	if tok == "*" {
		if !s.rt.havePrev {
			return 0, fmt.Errorf("'*' in the first point of a path")
		}
		return prev, nil
	}
	return strconv.ParseFloat(tok, 64)
}

// netFinish commits the accumulated net to the model.
func (s *scan) netFinish(it item) error {
	pn := s.net
	s.net = nil
	s.state = stateNets
	if pn == nil || pn.name == "" {
		s.warn(diag.MalformedRecord, "", it.line, "net entry without a name, skipped")
		return nil
	}

	n, err := s.m.AddNet(pn.name)
	if err != nil {
		s.warn(diag.MalformedRecord, pn.name, pn.line, "%v, skipped", err)
		return nil
	}
	for _, c := range pn.gates {
		s.m.ConnectGate(n, s.m.Gates[c.Gate], c.Port)
	}
	for _, name := range pn.pins {
		p, ok := s.m.Pin(name)
		if !ok {
			// Keep the reference so the unplaced-pin correction can see it.
			if p, err = s.m.AddPin(name, geom.Point{}, false); err != nil {
				continue
			}
			if !s.dropped[name] {
				s.warn(diag.MissingReference, pn.name, pn.line, "net references undeclared pin %q", name)
			}
		}
		s.m.ConnectPin(n, p)
	}
	n.Length = pn.length / s.scale()
	return nil
}

// parsePoint reads "( x y ... )" ignoring anything after y.
func parsePoint(args []string) (geom.Point, bool) {
	if len(args) < 2 {
		return geom.Point{}, false
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return geom.Point{}, false
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return geom.Point{}, false
	}
	return geom.Point{X: x, Y: y}, true
}
