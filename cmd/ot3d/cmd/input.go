package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/diag"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/feed"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/lef"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/pipeline"
)

var (
	// Flags shared by the analysis commands
	lefPaths     []string
	feedsIn      string
	clusterCount int
	modeName     string
	layersPath   string
	hplPath      string
	overhead     float64
	pinAccurate  bool
	outDir       string
)

func addInputFlags(c *cobra.Command) {
	c.Flags().StringSliceVarP(&lefPaths, "lef", "l", nil, "LEF cell library (repeatable)")
	c.Flags().StringVar(&feedsIn, "from-feeds", "", "build the design from the coordinate/size/summary feeds in this directory instead of a DEF record")
	c.Flags().BoolVar(&pinAccurate, "pin-accurate", false, "compute net boxes from macro pin positions")
	c.Flags().StringVar(&hplPath, "hpl", "", "external HPL feed overriding the computed net boxes")
}

func addClusterFlags(c *cobra.Command) {
	c.Flags().IntVarP(&clusterCount, "clusters", "k", pipeline.DefaultClusters, "requested number of clusters")
	c.Flags().StringVar(&modeName, "mode", "exact", "connection counting mode (exact, approx)")
}

func addLayerFlags(c *cobra.Command) {
	c.Flags().StringVar(&layersPath, "layers", "", "gate layer assignment (gate,layer records or a (partition ...) file)")
	c.Flags().Float64Var(&overhead, "overhead", 0, "wirelength added to every net spanning both dies")
}

func addOutputFlag(c *cobra.Command) {
	c.Flags().StringVarP(&outDir, "out", "o", "", "write result feeds into this directory")
}

// pipelineConfig merges the configuration file with the flags the user set.
func pipelineConfig(cmd *cobra.Command) (*pipeline.Config, error) {
	p := cfg.Pipeline()
	flags := cmd.Flags()
	if flags.Changed("clusters") {
		p.Clusters = clusterCount
	}
	if flags.Changed("mode") {
		mode, err := connectivity.ParseMode(modeName)
		if err != nil {
			return nil, err
		}
		p.Mode = mode
	}
	if flags.Changed("overhead") {
		p.HPL.Overhead = overhead
	}
	if flags.Changed("pin-accurate") {
		p.PinAccurate = pinAccurate
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// newRunner loads the cell library and builds a pipeline runner.
func newRunner(ctx context.Context, cmd *cobra.Command) (*pipeline.Runner, error) {
	p, err := pipelineConfig(cmd)
	if err != nil {
		return nil, err
	}
	if len(lefPaths) == 0 {
		return pipeline.NewRunner(nil, p, logger), nil
	}

	c, err := cfg.OpenCache(ctx)
	if err != nil {
		logger.Warn("macro cache unavailable, parsing without it", "err", err)
		c = nil
	} else {
		defer c.Close()
	}

	macros, err := lef.LoadMacroTable(ctx, c, logger, lefPaths...)
	if err != nil {
		return nil, err
	}
	logger.Debug("cell library loaded", "macros", len(macros))
	return pipeline.NewRunner(macros, p, logger), nil
}

// loadInput opens the design named by args or --from-feeds, plus the
// optional layer and HPL feeds. The returned close func must be called.
func loadInput(args []string, wantLayers bool) (pipeline.Input, func(), error) {
	in := pipeline.Input{}
	closer := func() {}
	opts := cfg.FeedOptions()
	opts.Diag = diag.NewCollector(logger)

	switch {
	case feedsIn != "" && len(args) > 0:
		return in, closer, errors.New("give either a DEF record or --from-feeds, not both")
	case feedsIn != "":
		m, err := feed.ReadModel(feedsIn, designName(filepath.Clean(feedsIn)), opts)
		if err != nil {
			return in, closer, fmt.Errorf("read feeds: %w", err)
		}
		in.Name = feedsIn
		in.Model = m
	case len(args) > 0:
		if len(lefPaths) == 0 {
			return in, closer, errors.New("at least one --lef library is required to extract a DEF record")
		}
		f, err := os.Open(args[0])
		if err != nil {
			return in, closer, err
		}
		in.Name = args[0]
		in.DEF = f
		closer = func() { f.Close() }
	default:
		return in, closer, errors.New("a DEF record or --from-feeds is required")
	}

	if wantLayers && layersPath != "" {
		layers, err := feed.ReadLayersFile(layersPath, opts)
		if err != nil {
			closer()
			return in, func() {}, fmt.Errorf("read layers: %w", err)
		}
		in.Layers = layers
	}
	if hplPath != "" {
		recs, err := feed.ReadHPLFile(hplPath, opts)
		if err != nil {
			closer()
			return in, func() {}, fmt.Errorf("read HPL feed: %w", err)
		}
		in.HPL = recs
	}
	in.Diagnostics = opts.Diag.All()
	return in, closer, nil
}

// designName strips directories and extensions from a source name.
func designName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
