// Package connectivity classifies nets as intra-cluster or inter-cluster and
// counts the connections that leave each cluster.
//
// Two modes are available. Exact mode resolves the destination cluster of
// every crossing gate pair and fills a source x destination matrix; its
// cost is bounded by the sum of squared fanouts. Approximate mode only
// counts how many endpoints of a net lie outside the source cluster and
// books them all against the synthetic destination 0, in time linear in the
// fanout. Both modes produce the same per-cluster raw totals and the same
// de-duplicated net registries.
package connectivity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/model"
)

// Mode selects how connections are counted.
type Mode int

const (
	Exact Mode = iota
	Approximate
)

func (m Mode) String() string {
	switch m {
	case Exact:
		return "exact"
	case Approximate:
		return "approx"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "exact", "approx" and "approximate".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "exact", "":
		return Exact, nil
	case "approx", "approximate":
		return Approximate, nil
	}
	return Exact, fmt.Errorf("unknown connectivity mode %q", s)
}

// Class is the classification of one net.
type Class int

const (
	Unclassified Class = iota // fewer than two member gates
	Intra                     // all member gates in one cluster
	Inter                     // member gates in two or more clusters
)

func (c Class) String() string {
	switch c {
	case Intra:
		return "intra"
	case Inter:
		return "inter"
	}
	return "unclassified"
}

// Of classifies a single net. It stops at the first member gate found in a
// different cluster than the first one.
func Of(m *model.Model, n *model.Net) Class {
	if n.Fanout() < 2 {
		return Unclassified
	}
	first := m.Gates[n.Gates[0]].Cluster
	for _, id := range n.Gates[1:] {
		if m.Gates[id].Cluster != first {
			return Inter
		}
	}
	return Intra
}

// ClusterCounts holds the connections leaving one cluster.
type ClusterCounts struct {
	ID int `json:"id" bson:"id"`

	// Raw counts crossing endpoints: for every member gate of an
	// inter-cluster net inside this cluster, the number of the net's gates
	// in other clusters.
	Raw int `json:"raw" bson:"raw"`

	// Unique counts inter-cluster nets touching this cluster, each once.
	Unique int `json:"unique" bson:"unique"`

	// To maps a destination cluster to its raw count. Approximate mode
	// books everything against destination 0.
	To map[int]int `json:"to,omitempty" bson:"-"`

	// UniqueTo maps a destination cluster to the number of distinct nets
	// reaching it. Exact mode only.
	UniqueTo map[int]int `json:"unique_to,omitempty" bson:"-"`

	// Nets is the registry of inter-cluster nets touching this cluster,
	// sorted by name.
	Nets []string `json:"nets,omitempty" bson:"nets,omitempty"`
}

// Wirelength aggregates routed net length by class.
type Wirelength struct {
	Intra        float64 `json:"intra" bson:"intra"`
	Inter        float64 `json:"inter" bson:"inter"`
	Unclassified float64 `json:"unclassified" bson:"unclassified"`
	Total        float64 `json:"total" bson:"total"`
}

// Result is the outcome of Classify.
type Result struct {
	Mode     Mode
	Clusters []ClusterCounts // indexed by cluster id - 1
	Classes  []Class         // indexed by model.NetID

	Inter        []string // global registry of inter-cluster nets, sorted
	Intra        []string
	Unclassified []string

	Wirelength Wirelength
}

// Cluster returns the counts of the cluster with the given 1-based id.
func (r *Result) Cluster(id int) (ClusterCounts, bool) {
	if id < 1 || id > len(r.Clusters) {
		return ClusterCounts{}, false
	}
	return r.Clusters[id-1], true
}

// Classify walks every net of a clustered model.
// Every gate must already belong to a cluster.
func Classify(m *model.Model, mode Mode) (*Result, error) {
	if len(m.Clusters) == 0 && len(m.Gates) > 0 {
		return nil, fmt.Errorf("model %q has not been clustered", m.Design)
	}
	for _, g := range m.Gates {
		if _, ok := m.Cluster(g.Cluster); !ok {
			return nil, fmt.Errorf("gate %q has no cluster", g.Name)
		}
	}

	res := &Result{
		Mode:     mode,
		Clusters: make([]ClusterCounts, len(m.Clusters)),
		Classes:  make([]Class, len(m.Nets)),
	}
	for i, c := range m.Clusters {
		res.Clusters[i] = ClusterCounts{ID: c.ID, To: make(map[int]int)}
		if mode == Exact {
			res.Clusters[i].UniqueTo = make(map[int]int)
		}
	}

	for _, n := range m.Nets {
		class := Of(m, n)
		res.Classes[n.ID] = class
		res.Wirelength.Total += n.Length

		switch class {
		case Unclassified:
			res.Unclassified = append(res.Unclassified, n.Name)
			res.Wirelength.Unclassified += n.Length
			continue
		case Intra:
			res.Intra = append(res.Intra, n.Name)
			res.Wirelength.Intra += n.Length
			continue
		}

		res.Inter = append(res.Inter, n.Name)
		res.Wirelength.Inter += n.Length
		if mode == Exact {
			res.countExact(m, n)
		} else {
			res.countApprox(m, n)
		}
	}

	sort.Strings(res.Inter)
	sort.Strings(res.Intra)
	sort.Strings(res.Unclassified)
	for i := range res.Clusters {
		sort.Strings(res.Clusters[i].Nets)
	}
	return res, nil
}

// countExact visits every ordered pair of member gates.
func (r *Result) countExact(m *model.Model, n *model.Net) {
	type pair struct{ src, dst int }
	seenSrc := make(map[int]bool)
	seenPair := make(map[pair]bool)

	for _, a := range n.Gates {
		src := m.Gates[a].Cluster
		cc := &r.Clusters[src-1]
		for _, b := range n.Gates {
			dst := m.Gates[b].Cluster
			if dst == src {
				continue
			}
			cc.Raw++
			cc.To[dst]++
			if p := (pair{src, dst}); !seenPair[p] {
				seenPair[p] = true
				cc.UniqueTo[dst]++
			}
		}
		if !seenSrc[src] {
			seenSrc[src] = true
			cc.Unique++
			cc.Nets = append(cc.Nets, n.Name)
		}
	}
}

// countApprox counts members per cluster once and derives the external
// endpoints of every gate from the fanout.
func (r *Result) countApprox(m *model.Model, n *model.Net) {
	members := make(map[int]int)
	for _, id := range n.Gates {
		members[m.Gates[id].Cluster]++
	}

	for src, count := range members {
		cc := &r.Clusters[src-1]
		external := count * (n.Fanout() - count)
		cc.Raw += external
		cc.To[0] += external
		cc.Unique++
		cc.Nets = append(cc.Nets, n.Name)
	}
}
