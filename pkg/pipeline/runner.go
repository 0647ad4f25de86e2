package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/cluster"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/def"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/diag"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/feed"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/hpl"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/model"
)

// Macros is the standard-cell library view the pipeline needs: macro sizes
// for extraction and pin offsets for pin-accurate net boxes.
type Macros interface {
	def.Macros
	model.PortLocator
}

// Runner executes the pipeline. It keeps no state between runs, so one
// Runner may serve several goroutines.
type Runner struct {
	Macros Macros
	Config *Config
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cfg means DefaultConfig and a nil
// logger means log.Default().
func NewRunner(macros Macros, cfg *Config, logger *log.Logger) *Runner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Macros: macros, Config: cfg, Logger: logger}
}

// Run executes every stage on in.
func (r *Runner) Run(ctx context.Context, in Input) (*Result, error) {
	if err := r.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	dc := diag.NewCollector(r.Logger)
	res := &Result{Source: in.Name}

	// Stage 1: Extract
	start := time.Now()
	m, err := r.Extract(ctx, in, dc)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	res.Model = m
	res.Stats.ExtractTime = time.Since(start)
	res.Stats.Gates = len(m.Gates)
	res.Stats.Nets = len(m.Nets)
	res.Stats.Pins = len(m.Pins)

	r.Logger.Info("extracted design",
		"design", m.Design,
		"gates", len(m.Gates),
		"nets", len(m.Nets),
		"duration", res.Stats.ExtractTime)

	// Stage 2: Cluster
	start = time.Now()
	grid, err := cluster.Partition(m, r.Config.Clusters, dc)
	if err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}
	res.Grid = grid
	res.Quality = cluster.Quality(m)
	if r.Config.Workers > 0 {
		dists, err := cluster.NeighborDistances(ctx, m, r.Config.Workers)
		if err != nil {
			return nil, fmt.Errorf("neighbour distances: %w", err)
		}
		if res.Spacing, err = hpl.Summarize(dists); err != nil {
			return nil, fmt.Errorf("neighbour distances: %w", err)
		}
	}
	res.Stats.ClusterTime = time.Since(start)

	r.Logger.Info("partitioned gates",
		"clusters", grid.Clusters(),
		"grid", fmt.Sprintf("%dx%d", grid.Cols, grid.Rows),
		"quality", res.Quality,
		"duration", res.Stats.ClusterTime)

	// Stage 3: Classify
	start = time.Now()
	conn, err := connectivity.Classify(m, r.Config.Mode)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	res.Connectivity = conn
	res.Stats.ClassifyTime = time.Since(start)

	r.Logger.Info("classified nets",
		"mode", r.Config.Mode,
		"inter", len(conn.Inter),
		"intra", len(conn.Intra),
		"duration", res.Stats.ClassifyTime)

	// Stage 4: Estimate
	if in.Layers != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start = time.Now()
		m.ApplyLayers(in.Layers, dc)
		gains, err := hpl.NewEstimator(r.Config.HPL, dc).Estimate(m)
		if err != nil {
			return nil, fmt.Errorf("estimate: %w", err)
		}
		res.Gains = gains
		res.Stats.EstimateTime = time.Since(start)

		r.Logger.Info("estimated 3D wirelength",
			"nets", len(gains.Nets),
			"mean_gain", gains.Distribution.Mean,
			"negative", gains.Negative,
			"duration", res.Stats.EstimateTime)
	}

	res.Diagnostics = dc.All()
	return res, nil
}

// Extract builds the model of in and computes its net boxes. External HPL
// records, when present, override the computed boxes.
func (r *Runner) Extract(ctx context.Context, in Input, dc *diag.Collector) (*model.Model, error) {
	if dc == nil {
		dc = diag.NewCollector(r.Logger)
	}
	for _, d := range in.Diagnostics {
		dc.Record(d)
	}

	var m *model.Model
	switch {
	case in.DEF != nil && in.Model != nil:
		return nil, errors.New("input has both a DEF record and a model")
	case in.Model != nil:
		m = in.Model
	case in.DEF != nil:
		var macros def.Macros
		if r.Macros != nil {
			macros = r.Macros
		}
		x := def.NewExtractor(macros, r.Config.Extract, r.Logger)
		var err error
		m, err = x.Extract(ctx, in.DEF)
		for _, d := range x.Diagnostics() {
			dc.Record(d)
		}
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("input has neither a DEF record nor a model")
	}

	var loc model.PortLocator
	if r.Config.PinAccurate && r.Macros != nil {
		loc = r.Macros
	}
	m.ComputeNetBoxes(loc)
	if len(in.HPL) > 0 {
		feed.ApplyHPL(m, in.HPL, dc)
	}
	return m, nil
}
