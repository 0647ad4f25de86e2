package cmd

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTrace3D/internal/ui"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/report"
)

var (
	runSave bool
	runJSON bool
)

var runCmd = &cobra.Command{
	Use:   "run [def_file]",
	Short: "Run extraction, clustering, classification and HPL estimation",
	Long: `Run the whole analysis and print a report. The HPL estimate runs only when
--layers is given. With --save the report is stored in the configured store
and can be inspected later with "ot3d report".

Examples:
  ot3d run top.def --lef cells.lef -k 16 --layers part.csv --save
  ot3d run --from-feeds out/ --layers part.csv --json > report.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addInputFlags(runCmd)
	addClusterFlags(runCmd)
	addLayerFlags(runCmd)
	addOutputFlag(runCmd)
	runCmd.Flags().BoolVar(&runSave, "save", false, "store the report")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the report as JSON")
}

func runRun(cmd *cobra.Command, args []string) error {
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
	rep := report.New(res)

	if runSave {
		s, err := cfg.OpenStore(ctx)
		if err != nil {
			return err
		}
		if s == nil {
			return errors.New("--save needs a store backend, set [store] backend in the config")
		}
		defer s.Close()
		if err := s.Save(ctx, rep); err != nil {
			return err
		}
		logger.Info("report saved", "id", rep.ID)
	}

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		opts := cfg.FeedOptions()
		if err := writeClusterFeeds(outDir, res.Connectivity, opts); err != nil {
			return err
		}
		if res.Gains != nil {
			if err := writeGainFeeds(outDir, res.Gains, opts); err != nil {
				return err
			}
		}
	}

	if runJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	p := ui.New(cmd.OutOrStdout())
	printModel(p, res.Model)
	printClusters(p, res)
	if res.Gains != nil {
		printGains(p, res.Gains)
	}
	printDiagnostics(p, len(res.Diagnostics))
	if runSave {
		p.Success("report %s saved", rep.ID)
	}
	return nil
}
