package cmd

import (
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTrace3D/internal/ui"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/diag"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/feed"
)

var extractFeedsOut string

var extractCmd = &cobra.Command{
	Use:   "extract [def_file]",
	Short: "Extract the physical model of a design",
	Long: `Read a DEF record (or a set of feeds) and print a summary of the extracted
model. With --feeds the gate coordinate, gate size, net summary and net HPL
feeds are written so later runs can start from them.

Examples:
  ot3d extract top.def --lef cells.lef
  ot3d extract top.def --lef tech.lef --lef cells.lef --feeds out/`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	addInputFlags(extractCmd)
	extractCmd.Flags().StringVar(&extractFeedsOut, "feeds", "", "write the extracted feeds into this directory")
}

func runExtract(cmd *cobra.Command, args []string) error {
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

	dc := diag.NewCollector(logger)
	m, err := runner.Extract(ctx, in, dc)
	if err != nil {
		return err
	}

	p := ui.New(cmd.OutOrStdout())
	printModel(p, m)
	printDiagnostics(p, dc.Len())

	if extractFeedsOut != "" {
		if err := feed.WriteModel(extractFeedsOut, m, cfg.FeedOptions()); err != nil {
			return err
		}
		p.Success("feeds written to %s", extractFeedsOut)
	}
	return nil
}
