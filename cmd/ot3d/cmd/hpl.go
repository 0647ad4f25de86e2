package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTrace3D/internal/ui"
)

var hplCmd = &cobra.Command{
	Use:   "hpl [def_file]",
	Short: "Estimate the HPL gain of a two-die partition",
	Long: `Commit a gate layer assignment and estimate, for every net, the half-perimeter
length after the design is split over two stacked dies.

The layer file holds "gate,layer" records with layer 0 or 1, or a
(partition (gate "name" layer) ...) s-expression.

Examples:
  ot3d hpl top.def --lef cells.lef --layers part.csv
  ot3d hpl top.def --lef cells.lef --layers part.sexp --hpl net_hpl.csv --overhead 2 --out gains/`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHPL,
}

func init() {
	rootCmd.AddCommand(hplCmd)
	addInputFlags(hplCmd)
	addClusterFlags(hplCmd)
	addLayerFlags(hplCmd)
	addOutputFlag(hplCmd)
	hplCmd.MarkFlagRequired("layers")
}

func runHPL(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	runner, err := newRunner(ctx, cmd)
	if err != nil {
		return err
	}
	in, done, err := loadInput(args, true)
	if err != nil {
		return err
	}
	defer done()

	res, err := runner.Run(ctx, in)
	if err != nil {
		return err
	}

	p := ui.New(cmd.OutOrStdout())
	printModel(p, res.Model)
	printGains(p, res.Gains)
	printDiagnostics(p, len(res.Diagnostics))

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		if err := writeGainFeeds(outDir, res.Gains, cfg.FeedOptions()); err != nil {
			return err
		}
		p.Success("gain feeds written to %s", outDir)
	}
	return nil
}
