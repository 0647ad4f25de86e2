package feed

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/diag"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/geom"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/sexp"
)

// GateCoord is one gate-net association: net, gate, x, y.
type GateCoord struct {
	Net  string
	Gate string
	X, Y float64
}

// GateSize is one gate: name, width, height.
type GateSize struct {
	Gate          string
	Width, Height float64
}

// NetSummary is one net: name, pin count, length.
type NetSummary struct {
	Net    string
	Pins   int
	Length float64
}

// HPLRecord is one net: name, HPL, box min corner, box max corner.
type HPLRecord struct {
	Net string
	HPL float64
	Box geom.Rect
}

// ReadGateCoords reads the gate coordinate feed.
func ReadGateCoords(r io.Reader, opts Options) ([]GateCoord, error) {
	var out []GateCoord
	err := readRecords(r, opts, false, "coords", func(rec []string) error {
		if err := fieldCount(rec, 4); err != nil {
			return err
		}
		v, err := parseFloats(rec[2], rec[3])
		if err != nil {
			return err
		}
		out = append(out, GateCoord{Net: rec[0], Gate: rec[1], X: v[0], Y: v[1]})
		return nil
	})
	return out, err
}

// ReadGateSizes reads the gate size feed (with header).
func ReadGateSizes(r io.Reader, opts Options) ([]GateSize, error) {
	var out []GateSize
	err := readRecords(r, opts, true, "sizes", func(rec []string) error {
		if err := fieldCount(rec, 3); err != nil {
			return err
		}
		v, err := parseFloats(rec[1], rec[2])
		if err != nil {
			return err
		}
		if v[0] < 0 || v[1] < 0 {
			return fmt.Errorf("gate %s has a negative size", rec[0])
		}
		out = append(out, GateSize{Gate: rec[0], Width: v[0], Height: v[1]})
		return nil
	})
	return out, err
}

// ReadNetSummaries reads the net summary feed (with header).
func ReadNetSummaries(r io.Reader, opts Options) ([]NetSummary, error) {
	var out []NetSummary
	err := readRecords(r, opts, true, "summary", func(rec []string) error {
		if err := fieldCount(rec, 3); err != nil {
			return err
		}
		pins, err := strconv.Atoi(rec[1])
		if err != nil || pins < 0 {
			return fmt.Errorf("invalid pin count %q", rec[1])
		}
		v, err := parseFloats(rec[2])
		if err != nil {
			return err
		}
		if v[0] < 0 {
			return fmt.Errorf("net %s has a negative length", rec[0])
		}
		out = append(out, NetSummary{Net: rec[0], Pins: pins, Length: v[0]})
		return nil
	})
	return out, err
}

// ReadHPL reads the HPL feed.
func ReadHPL(r io.Reader, opts Options) ([]HPLRecord, error) {
	var out []HPLRecord
	err := readRecords(r, opts, false, "hpl", func(rec []string) error {
		if err := fieldCount(rec, 6); err != nil {
			return err
		}
		v, err := parseFloats(rec[1:6]...)
		if err != nil {
			return err
		}
		if v[0] < 0 {
			return fmt.Errorf("net %s has a negative HPL", rec[0])
		}
		out = append(out, HPLRecord{
			Net: rec[0],
			HPL: v[0],
			Box: geom.Rect{Min: geom.Point{X: v[1], Y: v[2]}, Max: geom.Point{X: v[3], Y: v[4]}},
		})
		return nil
	})
	return out, err
}

// ReadLayers reads a layer assignment, either as "gate,layer" records or
// as a (partition (gate name layer) ...) s-expression.
func ReadLayers(r io.Reader, opts Options) (map[string]int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read layers feed: %w", err)
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("(")) {
		return readLayerSexp(data, opts)
	}

	out := make(map[string]int)
	err = readRecords(bytes.NewReader(data), opts, false, "layers", func(rec []string) error {
		if err := fieldCount(rec, 2); err != nil {
			return err
		}
		layer, err := parseLayer(rec[1])
		if err != nil {
			return err
		}
		out[rec[0]] = layer
		return nil
	})
	return out, err
}

func readLayerSexp(data []byte, opts Options) (map[string]int, error) {
	exprs, err := sexp.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read layers feed: %w", err)
	}

	dc := opts.collector()
	out := make(map[string]int)
	for _, expr := range exprs {
		root, ok := expr.(*sexp.List)
		if !ok || root.Keyword() != "partition" {
			return nil, fmt.Errorf("read layers feed: expected (partition ...), got %s", expr)
		}
		for _, g := range root.Children("gate") {
			name, okName := g.Atom(1)
			value, okLayer := g.Atom(2)
			if !okName || !okLayer {
				dc.Warn(diag.MalformedRecord, "layers", g.Line, "expected (gate name layer), got %s", g)
				continue
			}
			layer, err := parseLayer(value)
			if err != nil {
				dc.Warn(diag.MalformedRecord, "layers", g.Line, "%v", err)
				continue
			}
			out[name] = layer
		}
	}
	return out, nil
}

func parseLayer(s string) (int, error) {
	switch s {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	}
	return 0, fmt.Errorf("layer must be 0 or 1, got %q", s)
}
