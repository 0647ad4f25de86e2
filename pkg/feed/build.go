package feed

import (
	"github.com/OpenTraceLab/OpenTrace3D/pkg/diag"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/geom"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/model"
)

// BuildModel assembles a model from the coordinate, size and summary feeds
// when no placement record is available.
//
// Gates are created in size-feed order; the position comes from the first
// coordinate record of the gate. Gates without coordinates are skipped and
// gates without a size get zero size, both with a MissingReference
// diagnostic. Nets are created in coordinate-feed order and take their
// length from the summary feed.
func BuildModel(design string, coords []GateCoord, sizes []GateSize, summaries []NetSummary, dc *diag.Collector) *model.Model {
	if dc == nil {
		dc = diag.NewCollector(nil)
	}
	m := model.New(design)

	pos := make(map[string]geom.Point, len(sizes))
	for _, c := range coords {
		if _, ok := pos[c.Gate]; !ok {
			pos[c.Gate] = geom.Point{X: c.X, Y: c.Y}
		}
	}

	for _, s := range sizes {
		p, ok := pos[s.Gate]
		if !ok {
			dc.Warn(diag.MissingReference, s.Gate, 0, "gate has a size but no coordinates, skipped")
			continue
		}
		if _, err := m.AddGate(s.Gate, "", p, s.Width, s.Height, model.North); err != nil {
			dc.Warn(diag.MalformedRecord, s.Gate, 0, "%v", err)
		}
	}

	for _, c := range coords {
		g, ok := m.Gate(c.Gate)
		if !ok {
			if _, err := m.AddGate(c.Gate, "", pos[c.Gate], 0, 0, model.North); err != nil {
				continue
			}
			g, _ = m.Gate(c.Gate)
			dc.Warn(diag.MissingReference, c.Gate, 0, "gate has coordinates but no size, using zero size")
		}
		n, ok := m.Net(c.Net)
		if !ok {
			n, _ = m.AddNet(c.Net)
		}
		m.ConnectGate(n, g, "")
	}

	summarized := make(map[string]bool, len(summaries))
	for _, s := range summaries {
		n, ok := m.Net(s.Net)
		if !ok {
			// Nets without gates still carry wirelength.
			n, _ = m.AddNet(s.Net)
		}
		n.Length = s.Length
		summarized[s.Net] = true
	}
	for _, n := range m.Nets {
		if !summarized[n.Name] {
			dc.Warn(diag.MissingReference, n.Name, 0, "net has no summary record, length 0")
		}
	}

	m.ComputeNetBoxes(nil)
	return m
}

// CoordsOf lists every gate-net association of m in net order.
func CoordsOf(m *model.Model) []GateCoord {
	var out []GateCoord
	for _, n := range m.Nets {
		for _, id := range n.Gates {
			g := m.Gates[id]
			out = append(out, GateCoord{Net: n.Name, Gate: g.Name, X: g.Pos.X, Y: g.Pos.Y})
		}
	}
	return out
}

// SizesOf lists the placed size of every gate of m.
func SizesOf(m *model.Model) []GateSize {
	out := make([]GateSize, len(m.Gates))
	for i, g := range m.Gates {
		out[i] = GateSize{Gate: g.Name, Width: g.Width, Height: g.Height}
	}
	return out
}

// SummariesOf lists every net of m with its connection count and length.
func SummariesOf(m *model.Model) []NetSummary {
	out := make([]NetSummary, len(m.Nets))
	for i, n := range m.Nets {
		out[i] = NetSummary{Net: n.Name, Pins: len(n.Conns) + len(n.Pins), Length: n.Length}
	}
	return out
}

// HPLOf lists the box and HPL of every net of m that has a box.
func HPLOf(m *model.Model) []HPLRecord {
	var out []HPLRecord
	for _, n := range m.Nets {
		if n.Box.IsEmpty() {
			continue
		}
		out = append(out, HPLRecord{Net: n.Name, HPL: n.HPL, Box: n.Box})
	}
	return out
}

// LayersOf returns the layer of every gate of m.
func LayersOf(m *model.Model) map[string]int {
	out := make(map[string]int, len(m.Gates))
	for _, g := range m.Gates {
		out[g.Name] = g.Layer
	}
	return out
}

// ApplyHPL overrides net boxes and HPL values with external records.
// Records for unknown nets are reported and ignored.
func ApplyHPL(m *model.Model, recs []HPLRecord, dc *diag.Collector) {
	if dc == nil {
		dc = diag.NewCollector(nil)
	}
	for _, r := range recs {
		n, ok := m.Net(r.Net)
		if !ok {
			dc.Warn(diag.MissingReference, r.Net, 0, "HPL record for unknown net")
			continue
		}
		n.Box = r.Box
		n.HPL = r.HPL
	}
}
