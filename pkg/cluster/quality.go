package cluster

import (
	"math"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/geom"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/model"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/spatial"
)

// Centroid returns the mean lower-left corner of the cluster's gates.
func Centroid(m *model.Model, c *model.Cluster) (geom.Point, bool) {
	if c.Size() == 0 {
		return geom.Point{}, false
	}
	var sum geom.Point
	for _, id := range c.Gates {
		p := m.Gates[id].Pos
		sum.X += p.X
		sum.Y += p.Y
	}
	n := float64(c.Size())
	return geom.Point{X: sum.X / n, Y: sum.Y / n}, true
}

// Quality scores every non-empty cluster and stores the result in
// Cluster.Quality. It returns the mean score.
//
// Cohesion is the mean Manhattan distance of the members to the centroid.
// Separation is the Euclidean distance from the centroid to the nearest
// other centroid. Score is (Separation - Cohesion) / max(Separation, Cohesion),
// in [-1, 1]; higher is better.
func Quality(m *model.Model) float64 {
	centroids := make(map[int]geom.Point, len(m.Clusters))
	entries := make([]spatial.Entry, 0, len(m.Clusters))
	for _, c := range m.Clusters {
		c.Quality = nil
		if p, ok := Centroid(m, c); ok {
			centroids[c.ID] = p
			entries = append(entries, spatial.Entry{Point: p, ID: c.ID})
		}
	}
	tree := spatial.Build(entries)

	total := 0.0
	for _, c := range m.Clusters {
		centre, ok := centroids[c.ID]
		if !ok {
			continue
		}

		coh := 0.0
		for _, id := range c.Gates {
			coh += m.Gates[id].Pos.Manhattan(centre)
		}
		coh /= float64(c.Size())

		sep := 0.0
		if _, d, ok := tree.NearestFunc(centre, func(e spatial.Entry) bool { return e.ID != c.ID }); ok {
			sep = d
		}

		q := &model.Quality{Cohesion: coh, Separation: sep}
		if denom := math.Max(sep, coh); denom > 0 {
			q.Score = (sep - coh) / denom
		}
		c.Quality = q
		total += q.Score
	}

	if len(centroids) == 0 {
		return 0
	}
	return total / float64(len(centroids))
}
