package connectivity

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/geom"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/model"
)

// build creates one gate per entry of clusters (value = cluster id) and the
// given nets (lists of gate indices).
func build(t *testing.T, nClusters int, clusters []int, nets [][]int, lengths []float64) *model.Model {
	t.Helper()
	m := model.New("test")
	for i := 0; i < nClusters; i++ {
		m.AddCluster(geom.Point{X: float64(i) * 10}, 10, 10)
	}
	for i, cid := range clusters {
		g, err := m.AddGate(fmt.Sprintf("g%d", i), "INV", geom.Point{X: float64(cid) * 10}, 1, 1, model.North)
		if err != nil {
			t.Fatal(err)
		}
		c, _ := m.Cluster(cid)
		m.Assign(g, c)
	}
	for i, members := range nets {
		n, err := m.AddNet(fmt.Sprintf("n%d", i))
		if err != nil {
			t.Fatal(err)
		}
		for _, gi := range members {
			m.ConnectGate(n, m.Gates[gi], "A")
		}
		if i < len(lengths) {
			n.Length = lengths[i]
		}
	}
	return m
}

func TestClassifyThreeGateNet(t *testing.T) {
	m := build(t, 2, []int{1, 1, 2}, [][]int{{0, 1, 2}}, []float64{7})

	for _, mode := range []Mode{Exact, Approximate} {
		t.Run(mode.String(), func(t *testing.T) {
			res, err := Classify(m, mode)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(res.Inter, []string{"n0"}) {
				t.Errorf("Expected n0 in the inter registry once, got %v", res.Inter)
			}
			for _, id := range []int{1, 2} {
				cc, _ := res.Cluster(id)
				if !reflect.DeepEqual(cc.Nets, []string{"n0"}) || cc.Unique != 1 {
					t.Errorf("cluster %d registry %v unique %d", id, cc.Nets, cc.Unique)
				}
				if cc.Raw != 2 {
					t.Errorf("cluster %d: expected 2 raw connections, got %d", id, cc.Raw)
				}
			}

			c1, _ := res.Cluster(1)
			c2, _ := res.Cluster(2)
			switch mode {
			case Exact:
				if c1.To[2] != 2 || c2.To[1] != 2 {
					t.Errorf("matrix: c1->2=%d c2->1=%d", c1.To[2], c2.To[1])
				}
				if c1.UniqueTo[2] != 1 || c2.UniqueTo[1] != 1 {
					t.Errorf("unique matrix: c1->2=%d c2->1=%d", c1.UniqueTo[2], c2.UniqueTo[1])
				}
			case Approximate:
				if c1.To[0] != 2 || c2.To[0] != 2 || len(c1.To) != 1 {
					t.Errorf("approximate destinations: %v %v", c1.To, c2.To)
				}
			}
			if res.Wirelength.Inter != 7 {
				t.Errorf("Expected inter wirelength 7, got %g", res.Wirelength.Inter)
			}
		})
	}
}

func TestClassifyNetClasses(t *testing.T) {
	m := build(t, 3, []int{1, 1, 2, 3},
		[][]int{
			{},        // n0: no gates
			{0},       // n1: single gate
			{0, 1},    // n2: intra
			{1, 2},    // n3: inter
			{0, 2, 3}, // n4: three clusters
			{1, 1},    // n5: duplicate connection, one gate
		},
		nil,
	)

	res, err := Classify(m, Exact)
	if err != nil {
		t.Fatal(err)
	}
	want := []Class{Unclassified, Unclassified, Intra, Inter, Inter, Unclassified}
	if !reflect.DeepEqual(res.Classes, want) {
		t.Errorf("Expected classes %v, got %v", want, res.Classes)
	}
	if !reflect.DeepEqual(res.Inter, []string{"n3", "n4"}) {
		t.Errorf("Unexpected inter registry %v", res.Inter)
	}
	if !reflect.DeepEqual(res.Intra, []string{"n2"}) {
		t.Errorf("Unexpected intra registry %v", res.Intra)
	}

	c1, _ := res.Cluster(1)
	// n3: g1 -> g2; n4: g0 -> g2, g0 -> g3
	if c1.Raw != 3 || c1.Unique != 2 || c1.To[2] != 2 || c1.To[3] != 1 || c1.UniqueTo[2] != 2 {
		t.Errorf("cluster 1: %+v", c1)
	}
}

// Every net falls in exactly one class, lengths are conserved, and both
// modes agree on raw and unique counts.
func TestClassifyProperties(t *testing.T) {
	const gates = 60
	clusters := make([]int, gates)
	for i := range clusters {
		clusters[i] = 1 + (i*7)%5
	}
	var nets [][]int
	var lengths []float64
	for i := 0; i < 40; i++ {
		fanout := i % 6
		var members []int
		for j := 0; j < fanout; j++ {
			members = append(members, (i*13+j*17)%gates)
		}
		nets = append(nets, members)
		lengths = append(lengths, 0.1*float64(i*i))
	}
	m := build(t, 5, clusters, nets, lengths)

	exact, err := Classify(m, Exact)
	if err != nil {
		t.Fatal(err)
	}
	approx, err := Classify(m, Approximate)
	if err != nil {
		t.Fatal(err)
	}

	for _, res := range []*Result{exact, approx} {
		if got := len(res.Inter) + len(res.Intra) + len(res.Unclassified); got != len(m.Nets) {
			t.Errorf("%s: %d nets classified, want %d", res.Mode, got, len(m.Nets))
		}
		multi := 0
		for _, n := range m.Nets {
			if n.Fanout() >= 2 {
				multi++
			}
		}
		if len(res.Inter) > multi {
			t.Errorf("%s: %d inter nets but only %d nets with fanout >= 2", res.Mode, len(res.Inter), multi)
		}
		wl := res.Wirelength
		if math.Abs(wl.Intra+wl.Inter+wl.Unclassified-m.TotalLength()) > 1e-9 || math.Abs(wl.Total-m.TotalLength()) > 1e-9 {
			t.Errorf("%s: wirelength not conserved: %+v vs %g", res.Mode, wl, m.TotalLength())
		}
	}

	for i := range exact.Clusters {
		e, a := exact.Clusters[i], approx.Clusters[i]
		if e.Raw != a.Raw || e.Unique != a.Unique || !reflect.DeepEqual(e.Nets, a.Nets) {
			t.Errorf("cluster %d: exact %d/%d, approx %d/%d", e.ID, e.Raw, e.Unique, a.Raw, a.Unique)
		}
		for _, name := range e.Nets {
			count := 0
			for _, other := range e.Nets {
				if other == name {
					count++
				}
			}
			if count != 1 {
				t.Errorf("cluster %d lists %s %d times", e.ID, name, count)
			}
		}
	}
}

func TestClassifyUnclustered(t *testing.T) {
	m := model.New("raw")
	if _, err := m.AddGate("g", "INV", geom.Point{}, 1, 1, model.North); err != nil {
		t.Fatal(err)
	}
	if _, err := Classify(m, Exact); err == nil {
		t.Error("Expected an error for an unclustered model")
	}

	m.AddCluster(geom.Point{}, 1, 1)
	if _, err := Classify(m, Exact); err == nil {
		t.Error("Expected an error for an unassigned gate")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"exact", Exact, false},
		{"", Exact, false},
		{"APPROX", Approximate, false},
		{"approximate", Approximate, false},
		{"fast", Exact, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
