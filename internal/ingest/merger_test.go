package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"userperf/internal/model"
)

type projectMap map[string]model.Project

func (m projectMap) Get(id string) (model.Project, bool) {
	p, ok := m[id]
	return p, ok
}

type fakeFetcher struct {
	mu      sync.Mutex
	csv     map[string]string
	fail    map[string]bool
	block   map[string]chan struct{}
	started map[string]chan struct{}
}

func (f *fakeFetcher) FetchMetadata(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeFetcher) FetchCSV(ctx context.Context, id, sheet string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := id + "/" + sheet
	f.mu.Lock()
	started := f.started[key]
	block := f.block[key]
	f.mu.Unlock()
	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	if f.fail[key] {
		return "", errors.New("status 500")
	}
	return f.csv[key], nil
}

func testProjects() projectMap {
	return projectMap{
		"p1": {ID: "p1", Name: "Alpha", SpreadsheetID: "doc1", Category: model.CategoryProduction},
		"p2": {ID: "p2", Name: "Beta", SpreadsheetID: "doc2", Category: model.CategoryHourly},
	}
}

func TestMerge_StampsProvenanceAndNormalizesDates(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{csv: map[string]string{
		"doc1/Production": "Annotator Name,Work Date,Frame ID\nAlice,10/15/2025,F1\nBob,NIL,F2\n",
		"doc2/15th OCT Login": "S.No,Name,Code\n1,Carol,E1\n",
	}}
	m := NewMerger(f, testProjects(), 2, zap.NewNop())

	rows, ok := m.Merge(context.Background(), []model.SheetRef{
		{ProjectID: "p1", SheetName: "Production"},
		{ProjectID: "p2", SheetName: "15th OCT Login"},
	})
	if !ok {
		t.Fatalf("expected publish")
	}
	if len(rows) != 3 {
		t.Fatalf("rows got=%d want=3", len(rows))
	}
	if got := rows[0].Row.Text("Work Date"); got != "2025/10/15" {
		t.Fatalf("date got=%q want=2025/10/15", got)
	}
	if !rows[1].Row.Get("Work Date").IsEmpty() {
		t.Fatalf("sentinel date should be empty: %+v", rows[1].Row.Get("Work Date"))
	}
	want := model.Provenance{ProjectID: "p2", ProjectName: "Beta", Category: model.CategoryHourly, SheetName: "15th OCT Login"}
	if rows[2].Provenance != want {
		t.Fatalf("provenance got=%+v want=%+v", rows[2].Provenance, want)
	}
	if rows[2].Row.Has("__projectCategory") || rows[2].Row.Len() != 3 {
		t.Fatalf("row should only carry sheet columns: %v", rows[2].Row.Headers())
	}

	snap, gen := m.Published().Snapshot()
	if len(snap) != 3 || gen != 1 {
		t.Fatalf("snapshot got=%d gen=%d", len(snap), gen)
	}
}

func TestMerge_FailuresContributeZeroRows(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{
		csv:  map[string]string{"doc1/QC": "Frame ID\nF1\nF2\n"},
		fail: map[string]bool{"doc1/Broken": true},
	}
	m := NewMerger(f, testProjects(), 0, nil)

	rows, ok := m.Merge(context.Background(), []model.SheetRef{
		{ProjectID: "p1", SheetName: "Broken"},
		{ProjectID: "p1", SheetName: "QC"},
		{ProjectID: "missing", SheetName: "QC"},
	})
	if !ok || len(rows) != 2 {
		t.Fatalf("got rows=%d ok=%v want=2,true", len(rows), ok)
	}
}

func TestMerge_CancelledContextDoesNotPublish(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{csv: map[string]string{"doc1/QC": "Frame ID\nF1\n"}}
	m := NewMerger(f, testProjects(), 2, zap.NewNop())

	refs := []model.SheetRef{{ProjectID: "p1", SheetName: "QC"}}
	if _, ok := m.Merge(context.Background(), refs); !ok {
		t.Fatalf("first merge should publish")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rows, ok := m.Merge(ctx, refs)
	if ok || len(rows) != 0 {
		t.Fatalf("cancelled merge got rows=%d ok=%v want=0,false", len(rows), ok)
	}
	snap, gen := m.Published().Snapshot()
	if len(snap) != 1 || gen != 1 {
		t.Fatalf("published set should survive, got rows=%d gen=%d", len(snap), gen)
	}
	if m.Loading() {
		t.Fatalf("no merge should be in flight")
	}
}

func TestMerge_EmptySelectionPublishesEmpty(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{csv: map[string]string{"doc1/QC": "Frame ID\nF1\n"}}
	m := NewMerger(f, testProjects(), 1, zap.NewNop())

	if _, ok := m.Merge(context.Background(), []model.SheetRef{{ProjectID: "p1", SheetName: "QC"}}); !ok {
		t.Fatalf("first merge should publish")
	}
	rows, ok := m.Merge(context.Background(), nil)
	if !ok || len(rows) != 0 {
		t.Fatalf("empty merge got rows=%d ok=%v", len(rows), ok)
	}
	snap, gen := m.Published().Snapshot()
	if len(snap) != 0 || gen != 2 {
		t.Fatalf("snapshot got=%d gen=%d", len(snap), gen)
	}
}

func TestMerge_StaleResultNeverOverwritesNewer(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	f := &fakeFetcher{
		csv: map[string]string{
			"doc1/Slow QC": "Frame ID\nA1\nA2\nA3\n",
			"doc1/Fast QC": "Frame ID\nB1\n",
		},
		block:   map[string]chan struct{}{"doc1/Slow QC": release},
		started: map[string]chan struct{}{"doc1/Slow QC": started},
	}
	m := NewMerger(f, testProjects(), 4, zap.NewNop())

	type result struct {
		rows model.RowSet
		ok   bool
	}
	done := make(chan result, 1)
	go func() {
		rows, ok := m.Merge(context.Background(), []model.SheetRef{{ProjectID: "p1", SheetName: "Slow QC"}})
		done <- result{rows, ok}
	}()
	<-started

	if !m.Loading() {
		t.Fatalf("expected merge in flight")
	}
	rowsB, okB := m.Merge(context.Background(), []model.SheetRef{{ProjectID: "p1", SheetName: "Fast QC"}})
	if !okB || len(rowsB) != 1 {
		t.Fatalf("merge B got rows=%d ok=%v", len(rowsB), okB)
	}

	close(release)
	a := <-done
	if a.ok {
		t.Fatalf("stale merge A must not publish")
	}
	if len(a.rows) != 3 {
		t.Fatalf("merge A still completes with its rows, got=%d", len(a.rows))
	}

	snap, gen := m.Published().Snapshot()
	if len(snap) != 1 || snap[0].Row.Text("Frame ID") != "B1" {
		t.Fatalf("published set should be B's, got=%d rows", len(snap))
	}
	if gen != 2 {
		t.Fatalf("published generation got=%d want=2", gen)
	}
}
