// Package pipeline runs the analysis stages in order:
//
//  1. Extract: build the physical model from a DEF record (or take a model
//     built from feeds) and compute net boxes
//  2. Cluster: partition the gates and score the clusters
//  3. Classify: count intra- and inter-cluster connections
//  4. Estimate: commit a layer assignment and estimate the 3D HPL gain
//
// Each stage only starts after the previous one finished; the estimate stage
// is skipped when no layer assignment is given.
//
// # Usage
//
//	runner := pipeline.NewRunner(macros, cfg, logger)
//	res, err := runner.Run(ctx, pipeline.Input{Name: "top.def", DEF: f})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Connectivity.Wirelength.Inter)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/cluster"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/def"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/diag"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/feed"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/hpl"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/model"
)

const (
	// DefaultClusters is the default number of requested clusters.
	DefaultClusters = 16

	// DefaultWorkers is the default number of nearest-neighbour workers.
	DefaultWorkers = 4
)

// Config holds the settings of every stage.
type Config struct {
	Extract *def.Config

	// Clusters is the requested cluster count k.
	Clusters int

	// Mode selects exact or approximate connection counting.
	Mode connectivity.Mode

	// PinAccurate computes net boxes from macro pin positions instead of
	// gate corners when the macro pin is known.
	PinAccurate bool

	// Workers bounds the nearest-neighbour spacing computation. Zero skips it.
	Workers int

	HPL hpl.Config
}

// DefaultConfig returns the settings used by the CLI without a config file.
func DefaultConfig() *Config {
	return &Config{
		Extract:  def.DefaultConfig(),
		Clusters: DefaultClusters,
		Mode:     connectivity.Exact,
		Workers:  DefaultWorkers,
	}
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	if c.Extract == nil {
		c.Extract = def.DefaultConfig()
	}
	if err := c.Extract.Validate(); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if c.Clusters < 1 {
		return fmt.Errorf("cluster count must be at least 1, got %d", c.Clusters)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.HPL.Overhead < 0 {
		return fmt.Errorf("hpl overhead must not be negative, got %g", c.HPL.Overhead)
	}
	return nil
}

// Input is one design to analyse. Exactly one of DEF and Model is set.
type Input struct {
	// Name identifies the source in logs and reports.
	Name string

	// DEF is the placement record.
	DEF io.Reader

	// Model is a model built elsewhere, for example from feeds.
	Model *model.Model

	// Layers is an optional gate → layer assignment. Without it the
	// estimate stage is skipped.
	Layers map[string]int

	// HPL optionally overrides the computed net boxes and HPL values.
	HPL []feed.HPLRecord

	// Diagnostics raised while reading the inputs. They are carried into
	// the result without being logged again.
	Diagnostics []diag.Diagnostic
}

// Result holds the outputs of every stage.
type Result struct {
	Source string
	Model  *model.Model
	Grid   cluster.Grid

	// Quality is the mean cluster score.
	Quality float64

	Connectivity *connectivity.Result

	// Gains is nil when the estimate stage was skipped.
	Gains *hpl.Result

	// Spacing summarizes the distance from each gate to its nearest
	// neighbour. Zero when Workers is zero.
	Spacing hpl.Distribution

	Diagnostics []diag.Diagnostic
	Stats       Stats
}

// Stats contains timing and size information.
type Stats struct {
	Gates        int
	Nets         int
	Pins         int
	ExtractTime  time.Duration
	ClusterTime  time.Duration
	ClassifyTime time.Duration
	EstimateTime time.Duration
}
