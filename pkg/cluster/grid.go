// Package cluster partitions the gates of a model into rectangular spatial
// clusters and scores the result.
//
// Partition tiles the design rectangle with an area-balanced grid whose
// cells keep the design's aspect ratio. The last column and the last row are
// widened to the design edge, so the tiles always cover the whole design and
// only the far tiles are irregular.
package cluster

import (
	"fmt"
	"math"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/diag"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/geom"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/model"
)

// boundsEps is the tolerance used when checking a tile against the design.
const boundsEps = 1e-9

// Grid describes the tiling chosen by Partition.
type Grid struct {
	Bounds     geom.Rect
	Cols, Rows int
	CellWidth  float64 // nominal tile width before widening
	CellHeight float64
}

// Clusters returns Cols * Rows.
func (g Grid) Clusters() int { return g.Cols * g.Rows }

// Tile returns the rectangle of the tile with the given 1-based id. Inner
// edges are shared exactly by neighbouring tiles, and the far edges are the
// design edges.
func (g Grid) Tile(id int) geom.Rect {
	col, row := (id-1)%g.Cols, (id-1)/g.Cols
	return geom.Rect{
		Min: geom.Point{X: g.xAt(col), Y: g.yAt(row)},
		Max: geom.Point{X: g.xAt(col + 1), Y: g.yAt(row + 1)},
	}
}

func (g Grid) xAt(col int) float64 {
	if col >= g.Cols {
		return g.Bounds.Max.X
	}
	return g.Bounds.Min.X + float64(col)*g.CellWidth
}

func (g Grid) yAt(row int) float64 {
	if row >= g.Rows {
		return g.Bounds.Max.Y
	}
	return g.Bounds.Min.Y + float64(row)*g.CellHeight
}

// locate returns the 1-based id of the tile containing p, which must lie
// inside Bounds.
func (g Grid) locate(p geom.Point) int {
	col := int(math.Floor((p.X - g.Bounds.Min.X) / g.CellWidth))
	row := int(math.Floor((p.Y - g.Bounds.Min.Y) / g.CellHeight))
	col = max(0, min(col, g.Cols-1))
	row = max(0, min(row, g.Rows-1))
	return row*g.Cols + col + 1
}

// Partition replaces the clusters of m with a grid of about k tiles and
// assigns every gate to exactly one of them by its lower-left corner.
//
// Tiles are numbered from 1, left to right and bottom to top. Fewer than k
// tiles are created when the aspect-preserving tile size does not divide the
// design evenly. A corner on a shared edge belongs to the first tile in that
// order. Gates outside the design rectangle go to the nearest tile and are
// reported.
func Partition(m *model.Model, k int, dc *diag.Collector) (Grid, error) {
	if k < 1 {
		return Grid{}, fmt.Errorf("cluster count must be at least 1, got %d", k)
	}
	if dc == nil {
		dc = diag.NewCollector(nil)
	}

	bounds := m.Bounds()
	w, h := bounds.Width(), bounds.Height()
	if bounds.IsEmpty() || w <= 0 || h <= 0 {
		return Grid{}, fmt.Errorf("design %q has no area to partition", m.Design)
	}

	area := w * h / float64(k)
	aspect := w / h
	g := Grid{
		Bounds:     bounds,
		CellWidth:  math.Sqrt(aspect * area),
		CellHeight: math.Sqrt(area / aspect),
	}
	g.Cols = max(1, int(math.Floor(w/g.CellWidth+boundsEps)))
	g.Rows = max(1, int(math.Floor(h/g.CellHeight+boundsEps)))

	m.ResetClusters()
	for id := 1; id <= g.Clusters(); id++ {
		r := g.Tile(id)
		c := m.AddCluster(r.Min, r.Max.X-r.Min.X, r.Max.Y-r.Min.Y)
		checkTile(c, bounds, dc)
	}

	assign(m, g, dc)
	return g, nil
}

func checkTile(c *model.Cluster, bounds geom.Rect, dc *diag.Collector) {
	entity := fmt.Sprintf("cluster %d", c.ID)
	if c.Area <= 0 {
		dc.Warn(diag.NumericAnomaly, entity, 0, "cluster has zero area (%gx%g)", c.Width, c.Height)
	}
	if !bounds.ContainsRect(c.Rect(), boundsEps) {
		dc.Warn(diag.NumericAnomaly, entity, 0, "cluster %v extends beyond design bounds %v", c.Rect(), bounds)
	}
}

// assign runs the elimination sweep: each tile takes the remaining gates it
// contains, and those gates are not tested against later tiles.
func assign(m *model.Model, g Grid, dc *diag.Collector) {
	pool := make([]*model.Gate, len(m.Gates))
	copy(pool, m.Gates)

	for _, c := range m.Clusters {
		r := g.Tile(c.ID)
		rest := pool[:0]
		for _, gate := range pool {
			if r.Contains(gate.Pos) {
				m.Assign(gate, c)
				continue
			}
			rest = append(rest, gate)
		}
		pool = rest
		if len(pool) == 0 {
			return
		}
	}

	for _, gate := range pool {
		id := g.locate(g.Bounds.Clamp(gate.Pos))
		c, _ := m.Cluster(id)
		dc.Warn(diag.MissingReference, gate.Name, 0,
			"gate at %v lies outside the design, assigned to cluster %d", gate.Pos, id)
		m.Assign(gate, c)
	}
}
