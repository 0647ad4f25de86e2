package feed

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/model"
)

// File names used when a set of feeds lives in one directory.
const (
	CoordsFile       = "gate_coords.csv"
	SizesFile        = "gate_sizes.csv"
	SummaryFile      = "net_summary.csv"
	HPLFile          = "net_hpl.csv"
	LayersFile       = "layers.csv"
	ClusterFile      = "cluster_counts.csv"
	MatrixFile       = "cluster_matrix.csv"
	ConnectivityFile = "connectivity.csv"
	WirelengthFile   = "wirelength.csv"
	GainsFile        = "hpl_gains.csv"
	DistributionFile = "hpl_distribution.csv"
)

// WriteFile creates path and fills it with write.
func WriteFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadFile opens path and passes it to read.
func ReadFile[T any](path string, opts Options, read func(io.Reader, Options) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	return read(f, opts)
}

// WriteModel writes the coordinate, size, summary and HPL feeds of m into
// dir, creating it if needed.
func WriteModel(dir string, m *model.Model, opts Options) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{CoordsFile, func(w io.Writer) error { return WriteGateCoords(w, CoordsOf(m), opts) }},
		{SizesFile, func(w io.Writer) error { return WriteGateSizes(w, SizesOf(m), opts) }},
		{SummaryFile, func(w io.Writer) error { return WriteNetSummaries(w, SummariesOf(m), opts) }},
		{HPLFile, func(w io.Writer) error { return WriteHPL(w, HPLOf(m), opts) }},
	}
	for _, f := range files {
		if err := WriteFile(filepath.Join(dir, f.name), f.write); err != nil {
			return err
		}
	}
	return nil
}

// ReadModel builds a model from the coordinate, size and summary feeds in
// dir. A missing summary feed leaves every net length at zero.
func ReadModel(dir, design string, opts Options) (*model.Model, error) {
	coords, err := ReadFile(filepath.Join(dir, CoordsFile), opts, ReadGateCoords)
	if err != nil {
		return nil, err
	}
	sizes, err := ReadFile(filepath.Join(dir, SizesFile), opts, ReadGateSizes)
	if err != nil {
		return nil, err
	}
	summaries, err := ReadFile(filepath.Join(dir, SummaryFile), opts, ReadNetSummaries)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return BuildModel(design, coords, sizes, summaries, opts.collector()), nil
}

// ReadLayersFile reads a layer assignment from path.
func ReadLayersFile(path string, opts Options) (map[string]int, error) {
	return ReadFile(path, opts, ReadLayers)
}

// ReadHPLFile reads an HPL feed from path.
func ReadHPLFile(path string, opts Options) ([]HPLRecord, error) {
	return ReadFile(path, opts, ReadHPL)
}
