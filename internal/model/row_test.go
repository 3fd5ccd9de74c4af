package model

import "testing"

func TestParseNumber_Lenient(t *testing.T) {
	t.Parallel()

	cases := map[string]float64{
		"":       0,
		"abc":    0,
		"12":     12,
		" 7.5 ":  7.5,
		"12abc":  12,
		"-3":     -3,
		"5.5.5":  5.5,
		"NaN":    0,
		"Inf":    0,
		"1e3":    1000,
		"nil":    0,
		"8 hrs":  8,
		"-":      0,
		"+4":     4,
		".5":     0.5,
	}
	for in, want := range cases {
		if got := ParseNumber(in); got != want {
			t.Fatalf("ParseNumber(%q) got=%v want=%v", in, got, want)
		}
	}
}

func TestParseValue_Kinds(t *testing.T) {
	t.Parallel()

	if v := ParseValue(""); v.Kind != KindEmpty {
		t.Fatalf("empty kind=%v", v.Kind)
	}
	if v := ParseValue("001"); v.Kind != KindNumber || v.String() != "001" || v.Float() != 1 {
		t.Fatalf("numeric text mismatch: %+v", v)
	}
	if v := ParseValue("F1"); v.Kind != KindString || v.Float() != 0 {
		t.Fatalf("string kind mismatch: %+v", v)
	}
	if v := ParseValue("NaN"); v.Kind != KindString {
		t.Fatalf("NaN should stay text: %+v", v)
	}
	if got := NumberValue(2.5).String(); got != "2.5" {
		t.Fatalf("number render got=%s", got)
	}
}

func TestRow_KeepsHeaderOrder(t *testing.T) {
	t.Parallel()

	r := NewRow()
	r.Set("b", StringValue("1"))
	r.Set("a", StringValue("2"))
	r.Set("b", StringValue("3"))

	hs := r.Headers()
	if len(hs) != 2 || hs[0] != "b" || hs[1] != "a" {
		t.Fatalf("unexpected headers: %v", hs)
	}
	if r.Text("b") != "3" {
		t.Fatalf("overwrite failed: %s", r.Text("b"))
	}
	if h, v := r.At(1); h != "a" || v.String() != "2" {
		t.Fatalf("At(1) got=%s,%s", h, v.String())
	}
	if r.TextAt(5) != "" {
		t.Fatalf("out of range should be empty")
	}
	if r.Text("") != "" || r.Text("missing") != "" {
		t.Fatalf("missing column should be empty")
	}
}

func TestRowSet_HeadersUnionAndFilter(t *testing.T) {
	t.Parallel()

	r1 := NewRow()
	r1.Set("x", StringValue("1"))
	r2 := NewRow()
	r2.Set("y", StringValue("2"))
	r2.Set("x", StringValue("3"))

	set := RowSet{
		{Provenance: Provenance{Category: CategoryProduction}, Row: r1},
		{Provenance: Provenance{Category: CategoryHourly}, Row: r2},
	}
	hs := set.Headers()
	if len(hs) != 2 || hs[0] != "x" || hs[1] != "y" {
		t.Fatalf("unexpected union: %v", hs)
	}
	if n := len(set.Filter(CategoryHourly)); n != 1 {
		t.Fatalf("filter hourly got=%d", n)
	}
}

func TestSheetRef_RoundTrip(t *testing.T) {
	t.Parallel()

	ref := SheetRef{ProjectID: "p1", SheetName: "15th OCT | login"}
	got, ok := ParseSheetRefID(ref.ID())
	if !ok || got != ref {
		t.Fatalf("round trip mismatch: %+v ok=%v", got, ok)
	}
	if _, ok := ParseSheetRefID("no-separator"); ok {
		t.Fatalf("expected invalid id")
	}
}

func TestProject_CustomSheetNames(t *testing.T) {
	t.Parallel()

	p := Project{CustomSheets: " QC 1, ,Production ,"}
	names := p.CustomSheetNames()
	if len(names) != 2 || names[0] != "QC 1" || names[1] != "Production" {
		t.Fatalf("unexpected names: %v", names)
	}
	if !CategoryHourly.Valid() || Category("weekly").Valid() {
		t.Fatalf("category validity mismatch")
	}
}
