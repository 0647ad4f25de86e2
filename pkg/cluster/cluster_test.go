package cluster

import (
	"context"
	"fmt"
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/diag"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/geom"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/model"
)

func newCollector() *diag.Collector {
	return diag.NewCollector(log.New(io.Discard))
}

func newModel(t *testing.T, die geom.Rect, pts ...geom.Point) *model.Model {
	t.Helper()
	m := model.New("test")
	m.DieArea = die
	for i, p := range pts {
		if _, err := m.AddGate(fmt.Sprintf("g%d", i), "INV", p, 1, 1, model.North); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func square(size float64) geom.Rect {
	return geom.Rect{Max: geom.Point{X: size, Y: size}}
}

func TestPartitionTwoByTwo(t *testing.T) {
	m := newModel(t, square(100),
		geom.Point{X: 10, Y: 10},
		geom.Point{X: 60, Y: 10},
		geom.Point{X: 10, Y: 60},
		geom.Point{X: 60, Y: 60},
		geom.Point{X: 50, Y: 50}, // shared corner of all four tiles
	)

	g, err := Partition(m, 4, newCollector())
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	if g.Cols != 2 || g.Rows != 2 {
		t.Fatalf("Expected a 2x2 grid, got %dx%d", g.Cols, g.Rows)
	}

	wantOrigins := []geom.Point{{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 0, Y: 50}, {X: 50, Y: 50}}
	for i, c := range m.Clusters {
		if c.ID != i+1 {
			t.Errorf("cluster %d has id %d", i, c.ID)
		}
		if c.Origin != wantOrigins[i] || c.Width != 50 || c.Height != 50 {
			t.Errorf("cluster %d: origin %v size %gx%g", c.ID, c.Origin, c.Width, c.Height)
		}
	}

	wantCluster := []int{1, 2, 3, 4, 1}
	for i, gate := range m.Gates {
		if gate.Cluster != wantCluster[i] {
			t.Errorf("%s: expected cluster %d, got %d", gate.Name, wantCluster[i], gate.Cluster)
		}
	}
}

// Every gate ends up in exactly one cluster and the tiles cover the design
// without gaps or overlaps.
func TestPartitionInvariant(t *testing.T) {
	designs := []geom.Rect{
		square(100),
		{Min: geom.Point{X: -20, Y: 5}, Max: geom.Point{X: 180, Y: 55}},
		{Max: geom.Point{X: 33.3, Y: 97.1}},
	}

	for di, die := range designs {
		var pts []geom.Point
		for i := 0; i <= 20; i++ {
			for j := 0; j <= 20; j++ {
				pts = append(pts, die.Clamp(geom.Point{
					X: die.Min.X + die.Width()*float64(i)/20,
					Y: die.Min.Y + die.Height()*float64(j)/20,
				}))
			}
		}

		for k := 1; k <= 12; k++ {
			t.Run(fmt.Sprintf("design%d/k%d", di, k), func(t *testing.T) {
				m := newModel(t, die, pts...)
				dc := newCollector()
				g, err := Partition(m, k, dc)
				if err != nil {
					t.Fatalf("Partition failed: %v", err)
				}
				if len(m.Clusters) != g.Clusters() || len(m.Clusters) > k {
					t.Errorf("Expected at most %d clusters, got %d", k, len(m.Clusters))
				}
				if dc.Len() != 0 {
					t.Errorf("unexpected diagnostics: %v", dc.All())
				}

				members := 0
				for _, c := range m.Clusters {
					members += c.Size()
					for name := range c.Gates {
						gate, _ := m.Gate(name)
						if gate.Cluster != c.ID {
							t.Errorf("%s listed in cluster %d but points to %d", name, c.ID, gate.Cluster)
						}
					}
				}
				if members != len(m.Gates) {
					t.Errorf("Expected %d members in total, got %d", len(m.Gates), members)
				}
				for _, gate := range m.Gates {
					if gate.Cluster == model.NoCluster {
						t.Errorf("%s is unassigned", gate.Name)
					}
				}

				covered := 0.0
				for i, a := range m.Clusters {
					covered += a.Area
					if !die.ContainsRect(a.Rect(), 1e-9) {
						t.Errorf("cluster %d %v leaves the design", a.ID, a.Rect())
					}
					for _, b := range m.Clusters[i+1:] {
						if ov := overlap(a.Rect(), b.Rect()); ov > 1e-9 {
							t.Errorf("clusters %d and %d overlap by %g", a.ID, b.ID, ov)
						}
					}
				}
				if math.Abs(covered-die.Area()) > 1e-6*die.Area() {
					t.Errorf("Expected coverage %g, got %g", die.Area(), covered)
				}
			})
		}
	}
}

func overlap(a, b geom.Rect) float64 {
	w := math.Min(a.Max.X, b.Max.X) - math.Max(a.Min.X, b.Min.X)
	h := math.Min(a.Max.Y, b.Max.Y) - math.Max(a.Min.Y, b.Min.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

func TestPartitionFewerTiles(t *testing.T) {
	m := newModel(t, square(100), geom.Point{X: 99, Y: 99})
	g, err := Partition(m, 3, newCollector())
	if err != nil {
		t.Fatal(err)
	}
	if g.Clusters() != 1 {
		t.Errorf("Expected the 3-way split of a square to collapse to 1 tile, got %d", g.Clusters())
	}
}

func TestPartitionOutsideGate(t *testing.T) {
	m := newModel(t, square(100), geom.Point{X: 10, Y: 10}, geom.Point{X: 120, Y: -5})
	dc := newCollector()
	if _, err := Partition(m, 4, dc); err != nil {
		t.Fatal(err)
	}
	stray, _ := m.Gate("g1")
	if stray.Cluster != 2 {
		t.Errorf("Expected outside gate in cluster 2, got %d", stray.Cluster)
	}
	if dc.Count(diag.MissingReference) != 1 {
		t.Errorf("Expected one diagnostic, got %v", dc.All())
	}
}

func TestPartitionErrors(t *testing.T) {
	tests := []struct {
		name string
		m    *model.Model
		k    int
	}{
		{"zero clusters", newModel(t, square(10), geom.Point{}), 0},
		{"empty design", model.New("empty"), 4},
		{"flat design", newModel(t, geom.Rect{Max: geom.Point{X: 10}}), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Partition(tt.m, tt.k, newCollector()); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestPartitionRepeatable(t *testing.T) {
	m := newModel(t, square(100), geom.Point{X: 10, Y: 10}, geom.Point{X: 90, Y: 90})
	if _, err := Partition(m, 4, newCollector()); err != nil {
		t.Fatal(err)
	}
	if _, err := Partition(m, 1, newCollector()); err != nil {
		t.Fatal(err)
	}
	if len(m.Clusters) != 1 || m.Clusters[0].Size() != 2 {
		t.Errorf("Expected one cluster with both gates after re-partitioning, got %d clusters", len(m.Clusters))
	}
}

func TestQuality(t *testing.T) {
	m := newModel(t, square(100),
		geom.Point{X: 0, Y: 0},
		geom.Point{X: 20, Y: 0},
		geom.Point{X: 60, Y: 0},
		geom.Point{X: 80, Y: 0},
	)
	if _, err := Partition(m, 4, newCollector()); err != nil {
		t.Fatal(err)
	}

	mean := Quality(m)
	want := (60.0 - 10.0) / 60.0
	if math.Abs(mean-want) > 1e-9 {
		t.Errorf("Expected mean score %g, got %g", want, mean)
	}

	for _, id := range []int{1, 2} {
		c, _ := m.Cluster(id)
		if c.Quality == nil {
			t.Fatalf("cluster %d has no quality", id)
		}
		if c.Quality.Cohesion != 10 || c.Quality.Separation != 60 {
			t.Errorf("cluster %d: %+v", id, *c.Quality)
		}
	}
	for _, id := range []int{3, 4} {
		c, _ := m.Cluster(id)
		if c.Quality != nil {
			t.Errorf("empty cluster %d should have no quality", id)
		}
	}
}

func TestQualitySingleCluster(t *testing.T) {
	m := newModel(t, square(10), geom.Point{X: 1, Y: 1}, geom.Point{X: 3, Y: 1})
	if _, err := Partition(m, 1, newCollector()); err != nil {
		t.Fatal(err)
	}
	Quality(m)
	q := m.Clusters[0].Quality
	if q == nil || q.Separation != 0 || q.Cohesion != 1 || q.Score != -1 {
		t.Errorf("Unexpected quality %+v", q)
	}
}

func TestNeighborDistances(t *testing.T) {
	var pts []geom.Point
	for i := 0; i < 97; i++ {
		pts = append(pts, geom.Point{X: float64((i * 37) % 101), Y: float64((i * 53) % 89)})
	}
	m := newModel(t, square(200), pts...)

	want := make([]float64, len(pts))
	for i, p := range pts {
		best := math.Inf(1)
		for j, q := range pts {
			if i != j {
				best = math.Min(best, p.Distance(q))
			}
		}
		want[i] = best
	}

	for _, workers := range []int{0, 1, 3, 8, 500} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			got, err := NeighborDistances(context.Background(), m, workers)
			if err != nil {
				t.Fatal(err)
			}
			for i := range want {
				if math.Abs(got[i]-want[i]) > 1e-9 {
					t.Errorf("gate %d: expected %g, got %g", i, want[i], got[i])
				}
			}
		})
	}
}

func TestNeighborDistancesSmall(t *testing.T) {
	got, err := NeighborDistances(context.Background(), model.New("empty"), 4)
	if err != nil || len(got) != 0 {
		t.Errorf("empty model: %v %v", got, err)
	}

	m := newModel(t, square(10), geom.Point{X: 1, Y: 1})
	got, err = NeighborDistances(context.Background(), m, 4)
	if err != nil || len(got) != 1 || got[0] != 0 {
		t.Errorf("single gate: %v %v", got, err)
	}
}
