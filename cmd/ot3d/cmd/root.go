package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTrace3D/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Set by PersistentPreRunE
	logger *log.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ot3d",
	Short: "OpenTrace3D - placement clustering and 3D wirelength analysis",
	Long: `OpenTrace3D (ot3d) reads a placed and routed DEF record together with its
LEF cell library, partitions the gates into spatial clusters, classifies nets
as intra- or inter-cluster and estimates the wirelength gain of splitting the
design over two stacked dies.

Examples:
  ot3d extract top.def --lef cells.lef --feeds out/     # Extract and write feeds
  ot3d cluster top.def --lef cells.lef -k 16            # Cluster connectivity
  ot3d hpl top.def --lef cells.lef --layers part.csv    # 3D HPL gain
  ot3d run top.def --lef cells.lef --layers part.csv --save
  ot3d report list                                      # Stored runs`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "configuration file (default ~/.config/ot3d/ot3d.toml)")
}

func setup(cmd *cobra.Command, args []string) error {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger = newLogger(cmd.ErrOrStderr(), level)

	var err error
	if cfg, err = config.Load(configPath); err != nil {
		return err
	}
	logger.Debug("configuration loaded",
		"clusters", cfg.Cluster.Count,
		"mode", cfg.Cluster.Mode,
		"cache", cfg.Cache.Backend,
		"store", cfg.Store.Backend)
	return nil
}

// newLogger writes diagnostics to w with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}
