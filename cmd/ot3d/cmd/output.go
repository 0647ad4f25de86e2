package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/OpenTraceLab/OpenTrace3D/internal/ui"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/feed"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/hpl"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/model"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/pipeline"
)

func printModel(p *ui.Printer, m *model.Model) {
	p.Title("Design %s", m.Design)
	p.KV("gates", len(m.Gates))
	p.KV("nets", len(m.Nets))
	p.KV("pins", len(m.Pins))
	if b := m.Bounds(); !b.IsEmpty() {
		p.KV("bounds", fmt.Sprintf("(%s %s) (%s %s)",
			ui.FormatFloat(b.Min.X), ui.FormatFloat(b.Min.Y),
			ui.FormatFloat(b.Max.X), ui.FormatFloat(b.Max.Y)))
	}
	p.KV("wirelength", m.TotalLength())
	p.Blank()
}

func printClusters(p *ui.Printer, res *pipeline.Result) {
	conn := res.Connectivity
	p.Title("Clusters %dx%d (%s mode)", res.Grid.Cols, res.Grid.Rows, conn.Mode)

	rows := make([][]string, 0, len(res.Model.Clusters))
	for _, c := range res.Model.Clusters {
		counts, _ := conn.Cluster(c.ID)
		score := "-"
		if c.Quality != nil {
			score = ui.FormatFloat(c.Quality.Score)
		}
		rows = append(rows, []string{
			strconv.Itoa(c.ID),
			strconv.Itoa(c.Size()),
			strconv.Itoa(counts.Raw),
			strconv.Itoa(counts.Unique),
			score,
		})
	}
	p.Table([]string{"cluster", "gates", "raw", "unique", "score"}, rows)
	p.KV("quality", res.Quality)
	if res.Spacing.Count > 0 {
		p.KV("spacing", fmt.Sprintf("median %s, max %s",
			ui.FormatFloat(res.Spacing.Median), ui.FormatFloat(res.Spacing.Max)))
	}
	p.Blank()

	p.Title("Connectivity")
	p.KV("inter nets", len(conn.Inter))
	p.KV("intra nets", len(conn.Intra))
	p.KV("unclassified", len(conn.Unclassified))
	printWirelength(p, conn.Wirelength)
	p.Blank()
}

func printWirelength(p *ui.Printer, wl connectivity.Wirelength) {
	p.KV("inter length", wl.Inter)
	p.KV("intra length", wl.Intra)
	if wl.Total > 0 {
		p.KV("inter share", fmt.Sprintf("%.1f%%", 100*wl.Inter/wl.Total))
	}
}

func printGains(p *ui.Printer, g *hpl.Result) {
	d := g.Distribution
	p.Title("3D HPL gain (%d nets)", d.Count)
	p.Table([]string{"min", "q1", "median", "q3", "max", "mean", "stddev"}, [][]string{{
		ui.FormatFloat(d.Min), ui.FormatFloat(d.Q1), ui.FormatFloat(d.Median),
		ui.FormatFloat(d.Q3), ui.FormatFloat(d.Max), ui.FormatFloat(d.Mean),
		ui.FormatFloat(d.StdDev),
	}})
	if g.Negative > 0 {
		p.Warning("%d nets have a negative estimate", g.Negative)
	}
	p.Blank()
}

func printDiagnostics(p *ui.Printer, n int) {
	if n > 0 {
		p.Warning("%d records skipped or flagged, see the log above", n)
	}
}

// writeClusterFeeds writes the per-cluster counts, matrix, connectivity and
// wirelength feeds.
func writeClusterFeeds(dir string, conn *connectivity.Result, opts feed.Options) error {
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{feed.ClusterFile, func(w io.Writer) error { return feed.WriteClusterCounts(w, conn.Clusters, opts) }},
		{feed.MatrixFile, func(w io.Writer) error { return feed.WriteClusterMatrix(w, conn.Clusters, opts) }},
		{feed.ConnectivityFile, func(w io.Writer) error { return feed.WriteConnectivity(w, conn, opts) }},
		{feed.WirelengthFile, func(w io.Writer) error { return feed.WriteWirelength(w, conn.Wirelength, opts) }},
	}
	for _, f := range files {
		if err := feed.WriteFile(filepath.Join(dir, f.name), f.write); err != nil {
			return err
		}
	}
	return nil
}

// writeGainFeeds writes the per-net gains and their distribution.
func writeGainFeeds(dir string, g *hpl.Result, opts feed.Options) error {
	if err := feed.WriteFile(filepath.Join(dir, feed.GainsFile), func(w io.Writer) error {
		return feed.WriteGains(w, g.Nets, opts)
	}); err != nil {
		return err
	}
	return feed.WriteFile(filepath.Join(dir, feed.DistributionFile), func(w io.Writer) error {
		return feed.WriteDistribution(w, g.Distribution, opts)
	})
}
