package model

import (
	"sort"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/diag"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/geom"
)

// PortLocator resolves a port of a standard cell to its offset inside the
// unplaced macro, together with the macro's unrotated size.
type PortLocator interface {
	Port(cell, port string) (offset geom.Point, w, h float64, ok bool)
}

// PortPosition returns the absolute position of a gate port. Without a
// locator, or when the port is unknown, the gate's lower-left corner is used.
func (m *Model) PortPosition(g *Gate, port string, loc PortLocator) geom.Point {
	if loc == nil || port == "" {
		return g.Pos
	}
	off, w, h, ok := loc.Port(g.Cell, port)
	if !ok {
		return g.Pos
	}
	local := g.Orient.Transform(off, w, h)
	return geom.Point{X: g.Pos.X + local.X, Y: g.Pos.Y + local.Y}
}

// ComputeNetBoxes sets Box and HPL of every net from its member gates and
// placed pins. With a nil locator a gate contributes its lower-left corner,
// otherwise the position of each connected port.
func (m *Model) ComputeNetBoxes(loc PortLocator) {
	for _, n := range m.Nets {
		box := geom.NewRect()
		if loc == nil {
			for _, gid := range n.Gates {
				box.Expand(m.Gates[gid].Pos)
			}
		} else {
			for _, c := range n.Conns {
				box.Expand(m.PortPosition(m.Gates[c.Gate], c.Port, loc))
			}
		}
		for _, pid := range n.Pins {
			if p := m.Pins[pid]; p.Placed {
				box.Expand(p.Pos)
			}
		}
		n.Box = box
		n.HPL = box.HalfPerimeter()
	}
}

// ApplyLayers commits a per-gate layer assignment and refreshes Net.Is3D.
// Gates missing from the assignment keep their current layer; names that do
// not match any gate are reported as MissingReference diagnostics.
func (m *Model) ApplyLayers(layers map[string]int, dc *diag.Collector) {
	names := make([]string, 0, len(layers))
	for name := range layers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		layer := layers[name]
		g, ok := m.Gate(name)
		if !ok {
			if dc != nil {
				dc.Warn(diag.MissingReference, name, 0, "layer assignment for unknown gate")
			}
			continue
		}
		g.Layer = layer
	}
	m.UpdateIs3D()
}

// UpdateIs3D recomputes the Is3D flag of every net.
func (m *Model) UpdateIs3D() {
	for _, n := range m.Nets {
		n.Is3D = false
		if len(n.Gates) == 0 {
			continue
		}
		first := m.Gates[n.Gates[0]].Layer
		for _, gid := range n.Gates[1:] {
			if m.Gates[gid].Layer != first {
				n.Is3D = true
				break
			}
		}
	}
}
