package parser

import (
	"testing"

	"userperf/internal/model"
)

func TestSheetRecognizer_CategoryKeywords(t *testing.T) {
	t.Parallel()

	r := NewSheetRecognizer()
	expect := []struct {
		sheet    string
		category model.Category
		want     bool
	}{
		{"Production Oct", model.CategoryProduction, true},
		{"Internal QC", model.CategoryProduction, true},
		{"qc-round-2", model.CategoryProduction, true},
		{"Summary", model.CategoryProduction, false},
		{"15th OCT Login", model.CategoryHourly, true},
		{"Attendance Nov", model.CategoryHourly, true},
		{"Production", model.CategoryHourly, false},
		{"__hidden_qc", model.CategoryProduction, false},
		{"", model.CategoryProduction, false},
	}

	for _, tc := range expect {
		res := r.Recognize(tc.sheet, tc.category)
		if res.Matched != tc.want {
			t.Fatalf("sheet %q category %s: got=%v want=%v", tc.sheet, tc.category, res.Matched, tc.want)
		}
	}
}

func TestSheetRecognizer_FilterKeepsOrderAndDedups(t *testing.T) {
	t.Parallel()

	got := NewSheetRecognizer().Filter([]string{"QC B", "Other", "Production A", "QC B"}, model.CategoryProduction)
	if len(got) != 2 || got[0] != "QC B" || got[1] != "Production A" {
		t.Fatalf("unexpected filter result: %v", got)
	}
	if !NewSheetRecognizer().Recognize("LOGIN 1", model.CategoryHourly).Matched {
		t.Fatalf("expected hourly match")
	}
}
