// Package report condenses a pipeline result into a self-contained run
// report that can be printed, stored and compared across runs.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/diag"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/hpl"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/pipeline"
)

// Report is one analysis run.
type Report struct {
	ID        string    `json:"id" bson:"_id"`
	Design    string    `json:"design" bson:"design"`
	Source    string    `json:"source,omitempty" bson:"source,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	Gates int `json:"gates" bson:"gates"`
	Nets  int `json:"nets" bson:"nets"`
	Pins  int `json:"pins" bson:"pins"`

	Mode     string    `json:"mode" bson:"mode"`
	Grid     [2]int    `json:"grid" bson:"grid"` // columns, rows
	Quality  float64   `json:"quality" bson:"quality"`
	Clusters []Cluster `json:"clusters" bson:"clusters"`

	Connectivity Connectivity            `json:"connectivity" bson:"connectivity"`
	Wirelength   connectivity.Wirelength `json:"wirelength" bson:"wirelength"`

	Gains        []hpl.NetGain     `json:"gains,omitempty" bson:"gains,omitempty"`
	Distribution *hpl.Distribution `json:"distribution,omitempty" bson:"distribution,omitempty"`
	Negative     int               `json:"negative,omitempty" bson:"negative,omitempty"`

	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty" bson:"diagnostics,omitempty"`
}

// Cluster is the per-cluster part of a report.
type Cluster struct {
	ID         int     `json:"id" bson:"id"`
	Gates      int     `json:"gates" bson:"gates"`
	Area       float64 `json:"area" bson:"area"`
	Raw        int     `json:"raw" bson:"raw"`
	Unique     int     `json:"unique" bson:"unique"`
	Cohesion   float64 `json:"cohesion,omitempty" bson:"cohesion,omitempty"`
	Separation float64 `json:"separation,omitempty" bson:"separation,omitempty"`
	Score      float64 `json:"score,omitempty" bson:"score,omitempty"`
}

// Connectivity counts de-duplicated nets per class.
type Connectivity struct {
	Inter        int `json:"inter" bson:"inter"`
	Intra        int `json:"intra" bson:"intra"`
	Unclassified int `json:"unclassified" bson:"unclassified"`
}

// Summary is the listing view of a report.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Design    string    `json:"design" bson:"design"`
	Source    string    `json:"source,omitempty" bson:"source,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Clusters  int       `json:"clusters" bson:"clusters"`
}

// New builds a report with a fresh run id.
func New(res *pipeline.Result) *Report {
	m := res.Model
	r := &Report{
		ID:        uuid.NewString(),
		Design:    m.Design,
		Source:    res.Source,
		CreatedAt: time.Now().UTC(),
		Gates:     len(m.Gates),
		Nets:      len(m.Nets),
		Pins:      len(m.Pins),
		Grid:      [2]int{res.Grid.Cols, res.Grid.Rows},
		Quality:   res.Quality,
	}

	var counts []connectivity.ClusterCounts
	if conn := res.Connectivity; conn != nil {
		r.Mode = conn.Mode.String()
		r.Connectivity = Connectivity{
			Inter:        len(conn.Inter),
			Intra:        len(conn.Intra),
			Unclassified: len(conn.Unclassified),
		}
		r.Wirelength = conn.Wirelength
		counts = conn.Clusters
	}

	for i, c := range m.Clusters {
		rc := Cluster{ID: c.ID, Gates: c.Size(), Area: c.Area}
		if i < len(counts) {
			rc.Raw = counts[i].Raw
			rc.Unique = counts[i].Unique
		}
		if q := c.Quality; q != nil {
			rc.Cohesion = q.Cohesion
			rc.Separation = q.Separation
			rc.Score = q.Score
		}
		r.Clusters = append(r.Clusters, rc)
	}

	if g := res.Gains; g != nil {
		r.Gains = g.Nets
		dist := g.Distribution
		r.Distribution = &dist
		r.Negative = g.Negative
	}

	r.Diagnostics = res.Diagnostics
	return r
}

// Summary returns the listing view of r.
func (r *Report) Summary() Summary {
	return Summary{
		ID:        r.ID,
		Design:    r.Design,
		Source:    r.Source,
		CreatedAt: r.CreatedAt,
		Clusters:  len(r.Clusters),
	}
}

// ValidID reports whether id has the run id format.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
