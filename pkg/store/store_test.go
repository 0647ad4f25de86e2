package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/diag"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/hpl"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/report"
)

func sampleReport(id string, created time.Time) *report.Report {
	return &report.Report{
		ID:         id,
		Design:     "top",
		CreatedAt:  created,
		Gates:      4,
		Mode:       "exact",
		Grid:       [2]int{2, 2},
		Clusters:   []report.Cluster{{ID: 1, Gates: 2}, {ID: 2, Gates: 2}},
		Wirelength: connectivity.Wirelength{Inter: 3, Intra: 1, Total: 4},
		Gains:      []hpl.NetGain{{Net: "a", HPL: 2, Estimated: 1, Gain: 0.5}},
		Diagnostics: []diag.Diagnostic{
			{Kind: diag.MissingReference, Entity: "u9", Message: "unknown gate"},
		},
	}
}

const (
	idA = "11111111-1111-4111-8111-111111111111"
	idB = "22222222-2222-4222-8222-222222222222"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.Save(ctx, sampleReport(idA, t0)); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, sampleReport(idB, t0.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(ctx, idA)
	if err != nil {
		t.Fatal(err)
	}
	if got.Design != "top" || !got.CreatedAt.Equal(t0) || got.Wirelength.Total != 4 || len(got.Gains) != 1 {
		t.Errorf("Unexpected report %+v", got)
	}
	if got.Diagnostics[0].Kind != diag.MissingReference {
		t.Errorf("Diagnostic kind lost: %+v", got.Diagnostics)
	}

	// Stray files are ignored.
	os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0o644)
	os.WriteFile(filepath.Join(dir, idA+".tmp"), []byte("{"), 0o644)

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != idB || list[1].ID != idA || list[0].Clusters != 2 {
		t.Errorf("Unexpected listing %+v", list)
	}

	if _, err := s.Load(ctx, "33333333-3333-4333-8333-333333333333"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := s.Load(ctx, "../"+idA); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Expected an invalid id error, got %v", err)
	}
	if err := s.Save(ctx, sampleReport("bad id", t0)); err == nil {
		t.Error("Expected Save to reject an invalid id")
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	r := sampleReport(idA, time.Now().UTC())
	s.Save(ctx, r)
	r.Design = "renamed"
	if err := s.Save(ctx, r); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(ctx, idA)
	if err != nil {
		t.Fatal(err)
	}
	if got.Design != "renamed" {
		t.Errorf("Expected the second save to win, got %q", got.Design)
	}
	if list, _ := s.List(ctx); len(list) != 1 {
		t.Errorf("Expected one report, got %d", len(list))
	}
}

func TestMongoConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     MongoConfig
		wantDB  string
		wantErr bool
	}{
		{name: "defaults", cfg: MongoConfig{URI: "mongodb://localhost:27017"}, wantDB: "ot3d"},
		{name: "explicit", cfg: MongoConfig{URI: "mongodb://db", Database: "flow"}, wantDB: "flow"},
		{name: "missing uri", cfg: MongoConfig{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("validate() error = %v", err)
			}
			if !tt.wantErr && (tt.cfg.Database != tt.wantDB || tt.cfg.Collection != "reports") {
				t.Errorf("Unexpected config %+v", tt.cfg)
			}
		})
	}

	if _, err := NewMongoStore(context.Background(), MongoConfig{}); err == nil {
		t.Error("Expected NewMongoStore to reject an empty URI")
	}
}

func TestReportBSON(t *testing.T) {
	r := sampleReport(idA, time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC))
	data, err := bson.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}

	var raw bson.M
	if err := bson.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["_id"] != idA {
		t.Errorf("Expected the run id as _id, got %v", raw["_id"])
	}

	var back report.Report
	if err := bson.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.ID != idA || !back.CreatedAt.Equal(r.CreatedAt) || back.Gains[0].Gain != 0.5 || back.Grid != r.Grid {
		t.Errorf("Unexpected decoded report %+v", back)
	}
}

func TestListPipeline(t *testing.T) {
	p := listPipeline()
	if len(p) != 2 || p[0][0].Key != "$sort" || p[1][0].Key != "$project" {
		t.Fatalf("Unexpected pipeline %v", p)
	}
	if f := idFilter(idA); f[0].Key != "_id" || f[0].Value != idA {
		t.Errorf("Unexpected filter %v", f)
	}
}
