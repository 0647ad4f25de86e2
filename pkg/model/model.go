// Package model is the in-memory physical design: gates, pins, nets and
// spatial clusters.
//
// Entities live in arenas owned by Model and refer to each other through
// integer handles (GateID, NetID, PinID, cluster id) instead of pointers, so
// the bipartite gate/net graph has no reference cycles and traversals never
// go through name lookups. Names are unique per entity kind and never change
// after creation; geometric and derived fields are filled in by later passes.
package model

import (
	"fmt"
	"sort"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/geom"
)

// GateID indexes Model.Gates.
type GateID int

// NetID indexes Model.Nets.
type NetID int

// PinID indexes Model.Pins.
type PinID int

// NoCluster marks a gate that has not been assigned yet.
const NoCluster = 0

// Gate is a placed standard-cell instance.
type Gate struct {
	ID      GateID
	Name    string
	Cell    string     // standard-cell (macro) name
	Pos     geom.Point // lower-left corner
	Width   float64    // placed width (already swapped for rotated orientations)
	Height  float64    // placed height
	Orient  Orientation
	Layer   int // die index for 3D partitioning, 0 by default
	Cluster int // 1-based cluster id, NoCluster until clustering runs
	Nets    []NetID
}

// Area returns Width * Height.
func (g *Gate) Area() float64 { return g.Width * g.Height }

// Rect returns the footprint of the gate.
func (g *Gate) Rect() geom.Rect { return geom.RectWH(g.Pos, g.Width, g.Height) }

// Pin is a top-level I/O pin of the design.
type Pin struct {
	ID     PinID
	Name   string
	Pos    geom.Point
	Placed bool // false when no placement clause was found
	Nets   []NetID
}

// Conn records which port of a member gate a net attaches to.
type Conn struct {
	Gate GateID
	Port string
}

// Net is a set of electrically connected gates and pins.
type Net struct {
	ID     NetID
	Name   string
	Length float64 // routed wirelength, model units
	Gates  []GateID
	Pins   []PinID
	Conns  []Conn

	Box   geom.Rect // bounding box of member gates and placed pins
	HPL   float64   // half-perimeter length of Box
	Is3D  bool      // member gates span more than one layer
	HPL3D float64   // estimated post-partition HPL

	gateSet map[GateID]struct{}
	pinSet  map[PinID]struct{}
}

// Fanout returns the number of member gates.
func (n *Net) Fanout() int { return len(n.Gates) }

// HasGate reports whether g is a member of the net.
func (n *Net) HasGate(g GateID) bool {
	_, ok := n.gateSet[g]
	return ok
}

// Quality holds clustering-quality scores. It is only present once the
// quality analysis has run.
type Quality struct {
	Cohesion   float64 // mean Manhattan distance of members to the centroid
	Separation float64 // distance from the centroid to the nearest other centroid
	Score      float64 // (Separation - Cohesion) / max(Separation, Cohesion)
}

// Cluster is a rectangular spatial partition and the gates located inside it.
type Cluster struct {
	ID      int
	Origin  geom.Point
	Width   float64
	Height  float64
	Area    float64
	Gates   map[string]GateID
	Quality *Quality
}

// Rect returns the cluster rectangle.
func (c *Cluster) Rect() geom.Rect { return geom.RectWH(c.Origin, c.Width, c.Height) }

// Size returns the number of member gates.
func (c *Cluster) Size() int { return len(c.Gates) }

// Model is the physical design.
type Model struct {
	Design  string
	Units   float64   // database units per model unit used during extraction
	DieArea geom.Rect // empty when the record carries no die area

	Gates    []*Gate
	Nets     []*Net
	Pins     []*Pin
	Clusters []*Cluster

	gateByName map[string]GateID
	netByName  map[string]NetID
	pinByName  map[string]PinID
}

// New creates an empty model.
func New(design string) *Model {
	return &Model{
		Design:     design,
		Units:      1,
		DieArea:    geom.NewRect(),
		gateByName: make(map[string]GateID),
		netByName:  make(map[string]NetID),
		pinByName:  make(map[string]PinID),
	}
}

// AddGate creates a gate. Gate names are unique.
func (m *Model) AddGate(name, cell string, pos geom.Point, w, h float64, o Orientation) (*Gate, error) {
	if _, dup := m.gateByName[name]; dup {
		return nil, fmt.Errorf("duplicate gate %q", name)
	}
	if o.Rotated() {
		w, h = h, w
	}
	g := &Gate{
		ID:     GateID(len(m.Gates)),
		Name:   name,
		Cell:   cell,
		Pos:    pos,
		Width:  w,
		Height: h,
		Orient: o,
	}
	m.Gates = append(m.Gates, g)
	m.gateByName[name] = g.ID
	return g, nil
}

// AddPin creates a top-level pin. Pin names are unique.
func (m *Model) AddPin(name string, pos geom.Point, placed bool) (*Pin, error) {
	if _, dup := m.pinByName[name]; dup {
		return nil, fmt.Errorf("duplicate pin %q", name)
	}
	p := &Pin{
		ID:     PinID(len(m.Pins)),
		Name:   name,
		Pos:    pos,
		Placed: placed,
	}
	m.Pins = append(m.Pins, p)
	m.pinByName[name] = p.ID
	return p, nil
}

// AddNet creates a net. Net names are unique.
func (m *Model) AddNet(name string) (*Net, error) {
	if _, dup := m.netByName[name]; dup {
		return nil, fmt.Errorf("duplicate net %q", name)
	}
	n := &Net{
		ID:      NetID(len(m.Nets)),
		Name:    name,
		Box:     geom.NewRect(),
		gateSet: make(map[GateID]struct{}),
		pinSet:  make(map[PinID]struct{}),
	}
	m.Nets = append(m.Nets, n)
	m.netByName[name] = n.ID
	return n, nil
}

// ConnectGate makes g a member of n. Repeated connections of the same gate
// only add the port to Conns; membership stays duplicate-free.
func (m *Model) ConnectGate(n *Net, g *Gate, port string) {
	n.Conns = append(n.Conns, Conn{Gate: g.ID, Port: port})
	if _, ok := n.gateSet[g.ID]; ok {
		return
	}
	n.gateSet[g.ID] = struct{}{}
	n.Gates = append(n.Gates, g.ID)
	g.Nets = append(g.Nets, n.ID)
}

// ConnectPin makes p a member of n.
func (m *Model) ConnectPin(n *Net, p *Pin) {
	if _, ok := n.pinSet[p.ID]; ok {
		return
	}
	n.pinSet[p.ID] = struct{}{}
	n.Pins = append(n.Pins, p.ID)
	p.Nets = append(p.Nets, n.ID)
}

// Gate returns the gate with the given name.
func (m *Model) Gate(name string) (*Gate, bool) {
	id, ok := m.gateByName[name]
	if !ok {
		return nil, false
	}
	return m.Gates[id], true
}

// Net returns the net with the given name.
func (m *Model) Net(name string) (*Net, bool) {
	id, ok := m.netByName[name]
	if !ok {
		return nil, false
	}
	return m.Nets[id], true
}

// Pin returns the pin with the given name.
func (m *Model) Pin(name string) (*Pin, bool) {
	id, ok := m.pinByName[name]
	if !ok {
		return nil, false
	}
	return m.Pins[id], true
}

// Cluster returns the cluster with the given 1-based id.
func (m *Model) Cluster(id int) (*Cluster, bool) {
	if id < 1 || id > len(m.Clusters) {
		return nil, false
	}
	return m.Clusters[id-1], true
}

// GateNames returns every gate name in sorted order.
func (m *Model) GateNames() []string {
	names := make([]string, 0, len(m.Gates))
	for _, g := range m.Gates {
		names = append(names, g.Name)
	}
	sort.Strings(names)
	return names
}

// Bounds returns the design rectangle: the die area when the record carried
// one, otherwise the extent of all gate footprints.
func (m *Model) Bounds() geom.Rect {
	if !m.DieArea.IsEmpty() {
		return m.DieArea
	}
	r := geom.NewRect()
	for _, g := range m.Gates {
		r.ExpandRect(g.Rect())
	}
	return r
}

// TotalLength returns the sum of all routed net lengths.
func (m *Model) TotalLength() float64 {
	total := 0.0
	for _, n := range m.Nets {
		total += n.Length
	}
	return total
}

// ResetClusters drops every cluster and clears gate membership.
func (m *Model) ResetClusters() {
	m.Clusters = nil
	for _, g := range m.Gates {
		g.Cluster = NoCluster
	}
}

// AddCluster appends a cluster with the next id.
func (m *Model) AddCluster(origin geom.Point, w, h float64) *Cluster {
	c := &Cluster{
		ID:     len(m.Clusters) + 1,
		Origin: origin,
		Width:  w,
		Height: h,
		Area:   w * h,
		Gates:  make(map[string]GateID),
	}
	m.Clusters = append(m.Clusters, c)
	return c
}

// Assign puts g into cluster c, removing it from any previous cluster so a
// gate never belongs to two clusters.
func (m *Model) Assign(g *Gate, c *Cluster) {
	if prev, ok := m.Cluster(g.Cluster); ok {
		delete(prev.Gates, g.Name)
	}
	g.Cluster = c.ID
	c.Gates[g.Name] = g.ID
}
