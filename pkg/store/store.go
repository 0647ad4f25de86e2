// Package store persists run reports.
//
// Backends:
//   - FileStore: one JSON document per run in a directory, for CLI use
//   - MongoStore: a MongoDB collection shared by many runs
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/report"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("report not found")

// Store is the interface for report storage backends.
type Store interface {
	// Save stores r, replacing any report with the same id.
	Save(ctx context.Context, r *report.Report) error

	// Load returns the report with the given id, or ErrNotFound.
	Load(ctx context.Context, id string) (*report.Report, error)

	// List returns every stored report, newest first.
	List(ctx context.Context) ([]report.Summary, error)

	// Close releases backend resources.
	Close() error
}

func checkID(id string) error {
	if !report.ValidID(id) {
		return fmt.Errorf("invalid report id %q", id)
	}
	return nil
}
