package model

import (
	"io"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/diag"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/geom"
)

func buildTriangle(t *testing.T) *Model {
	t.Helper()
	m := New("tri")
	pts := []geom.Point{{0, 0}, {5, 0}, {5, 5}}
	n, err := m.AddNet("n1")
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range pts {
		g, err := m.AddGate(string(rune('a'+i)), "INV", p, 1, 2, North)
		if err != nil {
			t.Fatal(err)
		}
		m.ConnectGate(n, g, "A")
	}
	return m
}

func TestAddGateDuplicate(t *testing.T) {
	m := New("d")
	if _, err := m.AddGate("u1", "INV", geom.Point{}, 1, 1, North); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddGate("u1", "INV", geom.Point{}, 1, 1, North); err == nil {
		t.Error("duplicate gate should fail")
	}
}

func TestRotatedGateSwapsSize(t *testing.T) {
	m := New("d")
	g, _ := m.AddGate("u1", "NAND", geom.Point{}, 2, 3, East)
	if g.Width != 3 || g.Height != 2 {
		t.Errorf("rotated gate size = %v x %v, want 3 x 2", g.Width, g.Height)
	}
}

func TestConnectGateNoDuplicates(t *testing.T) {
	m := New("d")
	g, _ := m.AddGate("u1", "INV", geom.Point{}, 1, 1, North)
	n, _ := m.AddNet("n")

	m.ConnectGate(n, g, "A")
	m.ConnectGate(n, g, "B")

	if n.Fanout() != 1 {
		t.Errorf("Fanout() = %d, want 1", n.Fanout())
	}
	if len(n.Conns) != 2 {
		t.Errorf("Conns = %d, want 2", len(n.Conns))
	}
	if len(g.Nets) != 1 {
		t.Errorf("gate nets = %d, want 1", len(g.Nets))
	}
	if !n.HasGate(g.ID) {
		t.Error("HasGate should be true")
	}
}

func TestComputeNetBoxes(t *testing.T) {
	m := buildTriangle(t)
	m.ComputeNetBoxes(nil)

	n, _ := m.Net("n1")
	if n.HPL != 10 {
		t.Errorf("HPL = %v, want 10", n.HPL)
	}
	if n.Box.Min != (geom.Point{}) || n.Box.Max != (geom.Point{X: 5, Y: 5}) {
		t.Errorf("Box = %+v", n.Box)
	}
}

type fixedLocator struct{}

func (fixedLocator) Port(cell, port string) (geom.Point, float64, float64, bool) {
	if port == "A" {
		return geom.Point{X: 0.5, Y: 1}, 1, 2, true
	}
	return geom.Point{}, 0, 0, false
}

func TestComputeNetBoxesWithPorts(t *testing.T) {
	m := buildTriangle(t)
	m.ComputeNetBoxes(fixedLocator{})

	n, _ := m.Net("n1")
	if n.Box.Min != (geom.Point{X: 0.5, Y: 1}) || n.Box.Max != (geom.Point{X: 5.5, Y: 6}) {
		t.Errorf("Box = %+v", n.Box)
	}
}

func TestApplyLayers(t *testing.T) {
	m := buildTriangle(t)
	dc := diag.NewCollector(nil)

	m.ApplyLayers(map[string]int{"a": 0, "b": 0, "c": 0}, dc)
	n, _ := m.Net("n1")
	if n.Is3D {
		t.Error("single-layer net flagged 3D")
	}

	m.ApplyLayers(map[string]int{"c": 1, "ghost": 1}, dc)
	if !n.Is3D {
		t.Error("net spanning two layers should be 3D")
	}
	if dc.Count(diag.MissingReference) != 1 {
		t.Errorf("MissingReference count = %d, want 1", dc.Count(diag.MissingReference))
	}
}

func TestApplyLayersReportsInNameOrder(t *testing.T) {
	m := buildTriangle(t)
	dc := diag.NewCollector(log.New(io.Discard))

	m.ApplyLayers(map[string]int{"zeta": 1, "a": 1, "beta": 0, "alpha": 1, "omega": 0}, dc)

	var got []string
	for _, d := range dc.All() {
		got = append(got, d.Entity)
	}
	want := []string{"alpha", "beta", "omega", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected warnings for %v, got %v", want, got)
	}
}

func TestAssignMovesGate(t *testing.T) {
	m := buildTriangle(t)
	c1 := m.AddCluster(geom.Point{}, 5, 5)
	c2 := m.AddCluster(geom.Point{X: 5}, 5, 5)
	g, _ := m.Gate("a")

	m.Assign(g, c1)
	m.Assign(g, c2)

	if c1.Size() != 0 || c2.Size() != 1 {
		t.Errorf("sizes = %d, %d; want 0, 1", c1.Size(), c2.Size())
	}
	if g.Cluster != c2.ID {
		t.Errorf("gate cluster = %d, want %d", g.Cluster, c2.ID)
	}
}

func TestOrientationTransform(t *testing.T) {
	local := geom.Point{X: 1, Y: 0}
	const w, h = 4, 2

	tests := []struct {
		o    Orientation
		want geom.Point
	}{
		{North, geom.Point{X: 1, Y: 0}},
		{South, geom.Point{X: 3, Y: 2}},
		{West, geom.Point{X: 2, Y: 1}},
		{East, geom.Point{X: 0, Y: 3}},
		{FlipNorth, geom.Point{X: 3, Y: 0}},
		{FlipSouth, geom.Point{X: 1, Y: 2}},
		{FlipWest, geom.Point{X: 0, Y: 1}},
		{FlipEast, geom.Point{X: 2, Y: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.o.String(), func(t *testing.T) {
			if got := tt.o.Transform(local, w, h); got != tt.want {
				t.Errorf("Transform = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseOrientation(t *testing.T) {
	for _, s := range []string{"N", "s", "FW", "fe"} {
		if _, err := ParseOrientation(s); err != nil {
			t.Errorf("ParseOrientation(%q) error: %v", s, err)
		}
	}
	if _, err := ParseOrientation("R90"); err == nil {
		t.Error("expected error for R90")
	}
}
