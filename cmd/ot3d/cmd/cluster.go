package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTrace3D/internal/ui"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster [def_file]",
	Short: "Partition gates into clusters and count inter-cluster connections",
	Long: `Tile the design with about k clusters, assign every gate to the tile holding
its lower-left corner, and classify every net as intra- or inter-cluster.

Exact mode resolves the destination cluster of every crossing connection.
Approximate mode only counts connections leaving each cluster and is linear
in the net fanout.

Examples:
  ot3d cluster top.def --lef cells.lef -k 16
  ot3d cluster --from-feeds out/ -k 64 --mode approx --out clusters/`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCluster,
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	addInputFlags(clusterCmd)
	addClusterFlags(clusterCmd)
	addOutputFlag(clusterCmd)
}

func runCluster(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	runner, err := newRunner(ctx, cmd)
	if err != nil {
		return err
	}
	in, done, err := loadInput(args, false)
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
	printClusters(p, res)
	printDiagnostics(p, len(res.Diagnostics))

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		if err := writeClusterFeeds(outDir, res.Connectivity, cfg.FeedOptions()); err != nil {
			return err
		}
		p.Success("cluster feeds written to %s", outDir)
	}
	return nil
}
