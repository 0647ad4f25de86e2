package feed

import (
	"io"
	"sort"
	"strconv"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/hpl"
)

// WriteGateCoords writes the gate coordinate feed.
func WriteGateCoords(w io.Writer, recs []GateCoord, opts Options) error {
	out := newWriter(w, opts)
	for _, r := range recs {
		if err := out.row(r.Net, r.Gate, formatFloat(r.X), formatFloat(r.Y)); err != nil {
			return err
		}
	}
	return out.flush()
}

// WriteGateSizes writes the gate size feed with its header.
func WriteGateSizes(w io.Writer, recs []GateSize, opts Options) error {
	out := newWriter(w, opts)
	if err := out.row("gate", "width", "height"); err != nil {
		return err
	}
	for _, r := range recs {
		if err := out.row(r.Gate, formatFloat(r.Width), formatFloat(r.Height)); err != nil {
			return err
		}
	}
	return out.flush()
}

// WriteNetSummaries writes the net summary feed with its header.
func WriteNetSummaries(w io.Writer, recs []NetSummary, opts Options) error {
	out := newWriter(w, opts)
	if err := out.row("net", "pins", "length"); err != nil {
		return err
	}
	for _, r := range recs {
		if err := out.row(r.Net, strconv.Itoa(r.Pins), formatFloat(r.Length)); err != nil {
			return err
		}
	}
	return out.flush()
}

// WriteLayers writes a "gate,layer" feed sorted by gate name.
func WriteLayers(w io.Writer, layers map[string]int, opts Options) error {
	names := make([]string, 0, len(layers))
	for name := range layers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := newWriter(w, opts)
	for _, name := range names {
		if err := out.row(name, strconv.Itoa(layers[name])); err != nil {
			return err
		}
	}
	return out.flush()
}

// WriteHPL writes the HPL feed.
func WriteHPL(w io.Writer, recs []HPLRecord, opts Options) error {
	out := newWriter(w, opts)
	for _, r := range recs {
		err := out.row(r.Net, formatFloat(r.HPL),
			formatFloat(r.Box.Min.X), formatFloat(r.Box.Min.Y),
			formatFloat(r.Box.Max.X), formatFloat(r.Box.Max.Y))
		if err != nil {
			return err
		}
	}
	return out.flush()
}

// WriteClusterCounts writes one "cluster,count,unique" record per cluster.
func WriteClusterCounts(w io.Writer, clusters []connectivity.ClusterCounts, opts Options) error {
	out := newWriter(w, opts)
	if err := out.row("cluster", "count", "unique"); err != nil {
		return err
	}
	for _, c := range clusters {
		if err := out.row(strconv.Itoa(c.ID), strconv.Itoa(c.Raw), strconv.Itoa(c.Unique)); err != nil {
			return err
		}
	}
	return out.flush()
}

// WriteClusterMatrix writes "source,destination,count,unique" records for
// every non-zero matrix cell, ordered by source then destination.
func WriteClusterMatrix(w io.Writer, clusters []connectivity.ClusterCounts, opts Options) error {
	out := newWriter(w, opts)
	if err := out.row("source", "destination", "count", "unique"); err != nil {
		return err
	}
	for _, c := range clusters {
		dsts := make([]int, 0, len(c.To))
		for d := range c.To {
			dsts = append(dsts, d)
		}
		sort.Ints(dsts)
		for _, d := range dsts {
			err := out.row(strconv.Itoa(c.ID), strconv.Itoa(d), strconv.Itoa(c.To[d]), strconv.Itoa(c.UniqueTo[d]))
			if err != nil {
				return err
			}
		}
	}
	return out.flush()
}

// WriteConnectivity writes the de-duplicated net counts per class.
func WriteConnectivity(w io.Writer, res *connectivity.Result, opts Options) error {
	out := newWriter(w, opts)
	rows := [][]string{
		{"class", "nets"},
		{"inter", strconv.Itoa(len(res.Inter))},
		{"intra", strconv.Itoa(len(res.Intra))},
		{"unclassified", strconv.Itoa(len(res.Unclassified))},
	}
	for _, r := range rows {
		if err := out.row(r...); err != nil {
			return err
		}
	}
	return out.flush()
}

// WriteWirelength writes the wirelength summary by class.
func WriteWirelength(w io.Writer, wl connectivity.Wirelength, opts Options) error {
	out := newWriter(w, opts)
	rows := [][]string{
		{"class", "length"},
		{"inter", formatFloat(wl.Inter)},
		{"intra", formatFloat(wl.Intra)},
		{"unclassified", formatFloat(wl.Unclassified)},
		{"total", formatFloat(wl.Total)},
	}
	for _, r := range rows {
		if err := out.row(r...); err != nil {
			return err
		}
	}
	return out.flush()
}

// WriteGains writes one "net,hpl,estimated,gain" record per estimated net.
func WriteGains(w io.Writer, gains []hpl.NetGain, opts Options) error {
	out := newWriter(w, opts)
	if err := out.row("net", "hpl", "estimated", "gain"); err != nil {
		return err
	}
	for _, g := range gains {
		if err := out.row(g.Net, formatFloat(g.HPL), formatFloat(g.Estimated), formatFloat(g.Gain)); err != nil {
			return err
		}
	}
	return out.flush()
}

// WriteDistribution writes the gain distribution as "stat,value" records.
func WriteDistribution(w io.Writer, d hpl.Distribution, opts Options) error {
	out := newWriter(w, opts)
	rows := [][]string{
		{"stat", "value"},
		{"count", strconv.Itoa(d.Count)},
		{"mean", formatFloat(d.Mean)},
		{"stddev", formatFloat(d.StdDev)},
		{"min", formatFloat(d.Min)},
		{"q1", formatFloat(d.Q1)},
		{"median", formatFloat(d.Median)},
		{"q3", formatFloat(d.Q3)},
		{"max", formatFloat(d.Max)},
	}
	for _, r := range rows {
		if err := out.row(r...); err != nil {
			return err
		}
	}
	return out.flush()
}
