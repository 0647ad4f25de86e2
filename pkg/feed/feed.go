// Package feed reads and writes the tabular feeds exchanged with the
// surrounding flow: gate coordinates, gate sizes, net summaries, layer
// assignments and net HPL, plus the analysis outputs.
//
// Every feed has one record per entity with a fixed field order. Gate sizes
// and net summaries start with a header line; the other input feeds do not.
// Records that cannot be parsed are reported as MalformedRecord diagnostics
// and skipped.
package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/diag"
)

// Options configures readers and writers.
type Options struct {
	// Delimiter separates fields (default ',').
	Delimiter rune

	// Diag receives skipped records. Nil uses a collector on log.Default().
	Diag *diag.Collector
}

// ParseDelimiter converts a configuration string such as "," or "\t" into
// a delimiter rune.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == '"' || r == '#' || r == '\n' || r == '\r' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid feed delimiter %q", s)
	}
	return r, nil
}

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

func (o Options) collector() *diag.Collector {
	if o.Diag == nil {
		return diag.NewCollector(nil)
	}
	return o.Diag
}

// readRecords calls fn for every record of r. Records that fn rejects, or
// that the CSV layer cannot split, are reported and skipped.
func readRecords(r io.Reader, opts Options, header bool, feed string, fn func(rec []string) error) error {
	cr := csv.NewReader(r)
	cr.Comma = opts.delimiter()
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	dc := opts.collector()
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			dc.Warn(diag.MalformedRecord, feed, perr.Line, "%v", perr.Err)
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s feed: %w", feed, err)
		}

		if first {
			first = false
			if header {
				continue
			}
		}
		if err := fn(rec); err != nil {
			line, _ := cr.FieldPos(0)
			dc.Warn(diag.MalformedRecord, feed, line, "%v", err)
		}
	}
}

func fieldCount(rec []string, want int) error {
	if len(rec) < want {
		return fmt.Errorf("expected %d fields, got %d", want, len(rec))
	}
	return nil
}

func parseFloats(fields ...string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		out[i] = v
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writer wraps csv.Writer with the configured delimiter.
type writer struct {
	cw *csv.Writer
}

func newWriter(w io.Writer, opts Options) *writer {
	cw := csv.NewWriter(w)
	cw.Comma = opts.delimiter()
	return &writer{cw: cw}
}

func (w *writer) row(fields ...string) error {
	return w.cw.Write(fields)
}

func (w *writer) flush() error {
	w.cw.Flush()
	return w.cw.Error()
}
