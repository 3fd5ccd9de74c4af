package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"userperf/internal/model"
	"userperf/internal/store"
)

const seedYAML = `
projects:
  - name: Production Team
    spreadsheet: https://docs.google.com/spreadsheets/d/prod-123/edit
    category: production
    custom_sheets: "QC 1, Production"
  - name: Login Sheet
    spreadsheet: hour-456
    category: hourly
  - name: Broken
    spreadsheet: x
    category: weekly
`

func TestLoadSeedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), SeedFileName)
	if err := os.WriteFile(path, []byte(seedYAML), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []CreateInput{
		{Name: "Production Team", Spreadsheet: "https://docs.google.com/spreadsheets/d/prod-123/edit", Category: model.CategoryProduction, CustomSheets: "QC 1, Production"},
		{Name: "Login Sheet", Spreadsheet: "hour-456", Category: model.CategoryHourly},
		{Name: "Broken", Spreadsheet: "x", Category: model.Category("weekly")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("seed mismatch (-want +got):\n%s", diff)
	}

	missing, err := LoadSeedFile(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil || missing != nil {
		t.Fatalf("missing file got=%v err=%v", missing, err)
	}
}

func TestManager_SeedOnlyWhenEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), SeedFileName)
	if err := os.WriteFile(path, []byte(seedYAML), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	inputs, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	m := newTestManager(t, store.NewMemoryStore())
	n, err := m.Seed(ctx, inputs)
	if err != nil || n != 2 {
		t.Fatalf("seed got=%d err=%v want=2", n, err)
	}
	list := m.List()
	if list[0].SpreadsheetID != "prod-123" || list[1].Category != model.CategoryHourly {
		t.Fatalf("unexpected seeded projects: %+v", list)
	}

	n, err = m.Seed(ctx, inputs)
	if err != nil || n != 0 || m.Count() != 2 {
		t.Fatalf("second seed got=%d count=%d err=%v", n, m.Count(), err)
	}
}
