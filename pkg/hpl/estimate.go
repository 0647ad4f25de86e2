// Package hpl estimates the half-perimeter wirelength of nets after the
// gates have been split over two stacked dies.
//
// The estimate starts from the net's 2D bounding-box area. Gates that sit
// strictly inside the box but on the other die leave a void, so their area
// is subtracted. For a net on one die the estimated HPL is the signed square
// root of the remaining area. A net spanning both dies gets one remaining
// area per die (each ignoring the gates of the other die) and the estimate is
// the sum of both roots plus a fixed inter-die overhead.
package hpl

import (
	"fmt"
	"math"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/diag"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/model"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/spatial"
)

// Config tunes the estimator.
type Config struct {
	// Overhead is added to the estimate of every net spanning both dies.
	Overhead float64
}

// NetGain is the estimate for one net.
type NetGain struct {
	Net       string  `json:"net" bson:"net"`
	HPL       float64 `json:"hpl" bson:"hpl"`
	Estimated float64 `json:"estimated" bson:"estimated"`
	Gain      float64 `json:"gain" bson:"gain"` // (HPL - Estimated) / HPL
	Is3D      bool    `json:"is_3d" bson:"is_3d"`
}

// Result is the outcome of Estimate.
type Result struct {
	Nets         []NetGain
	Distribution Distribution
	Negative     int // nets whose estimate fell below zero
}

// Estimator computes 3D HPL estimates.
type Estimator struct {
	cfg Config
	dc  *diag.Collector
}

// NewEstimator creates an estimator reporting anomalies to dc.
func NewEstimator(cfg Config, dc *diag.Collector) *Estimator {
	if dc == nil {
		dc = diag.NewCollector(nil)
	}
	return &Estimator{cfg: cfg, dc: dc}
}

// Estimate fills Net.HPL3D for every net with a positive HPL and returns
// the per-net gains in net order. Net boxes, HPL values and gate layers must
// already be set.
func (e *Estimator) Estimate(m *model.Model) (*Result, error) {
	m.UpdateIs3D()
	for _, g := range m.Gates {
		if g.Layer != 0 && g.Layer != 1 {
			return nil, fmt.Errorf("gate %q is on layer %d, only 0 and 1 are supported", g.Name, g.Layer)
		}
	}

	entries := make([]spatial.Entry, len(m.Gates))
	for i, g := range m.Gates {
		entries[i] = spatial.Entry{Point: g.Pos, ID: int(g.ID)}
	}
	index := spatial.Build(entries)

	res := &Result{}
	for _, n := range m.Nets {
		if n.HPL <= 0 || n.Fanout() == 0 {
			continue
		}

		est := e.estimate(m, index, n)
		n.HPL3D = est
		ng := NetGain{
			Net:       n.Name,
			HPL:       n.HPL,
			Estimated: est,
			Gain:      (n.HPL - est) / n.HPL,
			Is3D:      n.Is3D,
		}
		if est < 0 {
			res.Negative++
			e.dc.Warn(diag.NumericAnomaly, n.Name, 0,
				"estimated 3D HPL %.4g is negative (2D HPL %.4g)", est, n.HPL)
		}
		res.Nets = append(res.Nets, ng)
	}

	gains := make([]float64, len(res.Nets))
	for i, ng := range res.Nets {
		gains[i] = ng.Gain
	}
	dist, err := Summarize(gains)
	if err != nil {
		return nil, err
	}
	res.Distribution = dist
	return res, nil
}

// estimate returns the 3D HPL of one net.
func (e *Estimator) estimate(m *model.Model, index *spatial.Tree, n *model.Net) float64 {
	// void[l] is the area of gates on layer l strictly inside the box.
	var void [2]float64
	index.Within(n.Box, func(en spatial.Entry) {
		g := m.Gates[en.ID]
		if n.Box.ContainsOpen(g.Pos) {
			void[g.Layer] += g.Area()
		}
	})

	area := n.Box.Area()
	if !n.Is3D {
		layer := m.Gates[n.Gates[0]].Layer
		return signedSqrt(area - void[1-layer])
	}
	return signedSqrt(area-void[1]) + signedSqrt(area-void[0]) + e.cfg.Overhead
}

func signedSqrt(v float64) float64 {
	if v < 0 {
		return -math.Sqrt(-v)
	}
	return math.Sqrt(v)
}
