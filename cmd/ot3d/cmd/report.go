package cmd

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTrace3D/internal/ui"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect stored run reports",
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports, newest first",
	Args:  cobra.NoArgs,
	RunE:  runReportList,
}

var reportShowCmd = &cobra.Command{
	Use:   "show <report_id>",
	Short: "Print a stored report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportShow,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)
}

func openStore(cmd *cobra.Command) (store.Store, error) {
	s, err := cfg.OpenStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New("no report store configured, set [store] backend in the config")
	}
	return s, nil
}

func runReportList(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := s.List(cmd.Context())
	if err != nil {
		return err
	}

	p := ui.New(cmd.OutOrStdout())
	if len(list) == 0 {
		p.Detail("no stored reports")
		return nil
	}
	rows := make([][]string, len(list))
	for i, r := range list {
		rows[i] = []string{r.ID, r.Design, r.CreatedAt.Local().Format("2006-01-02 15:04"), ui.FormatValue(r.Clusters), r.Source}
	}
	p.Table([]string{"id", "design", "created", "clusters", "source"}, rows)
	return nil
}

func runReportShow(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	rep, err := s.Load(cmd.Context(), args[0])
	if errors.Is(err, store.ErrNotFound) {
		return errors.New("no report with id " + args[0])
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
