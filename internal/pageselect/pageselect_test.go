package pageselect

import (
	"reflect"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		pageCount int
		want      Selection
	}{
		{"all literal", "all", 3, Selection{0, 1, 2}},
		{"all uppercase", "ALL", 2, Selection{0, 1}},
		{"empty spec", "", 3, Selection{0, 1, 2}},
		{"single page", "5", 10, Selection{4}},
		{"closed range", "2-5", 10, Selection{1, 2, 3, 4}},
		{"open range", "2-", 5, Selection{1, 2, 3, 4}},
		{"comma list", "1,3,5", 10, Selection{0, 2, 4}},
		{"mixed", "1-3,7,9-11", 20, Selection{0, 1, 2, 6, 8, 9, 10}},
		{"spaces tolerated", "1, 3-5, 8", 10, Selection{0, 2, 3, 4, 7}},
		{"duplicates removed", "3,1,3,1", 10, Selection{0, 2}},
		{"out of range dropped", "1,50", 5, Selection{0}},
		{"range clipped", "2-15", 5, Selection{1, 2, 3, 4}},
		{"all out of range falls back", "50,60", 5, Selection{0, 1, 2, 3, 4}},
		{"malformed falls back", "invalid", 3, Selection{0, 1, 2}},
		{"zero page falls back", "0", 3, Selection{0, 1, 2}},
		{"reversed range falls back", "5-2", 3, Selection{0, 1, 2}},
		{"degenerate range", "5-5", 10, Selection{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.spec, tt.pageCount, nil)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve(%q, %d) = %v, want %v", tt.spec, tt.pageCount, got, tt.want)
			}
		})
	}
}

func TestResolve_AlwaysAscendingSubsequence(t *testing.T) {
	specs := []string{"all", "1,3,5", "9-2,4", "2-,1", "7,7,7", "1-100"}
	for _, spec := range specs {
		sel := Resolve(spec, 12, nil)
		for i, p := range sel {
			if p < 0 || p >= 12 {
				t.Errorf("spec %q: index %d out of [0,12)", spec, p)
			}
			if i > 0 && sel[i] <= sel[i-1] {
				t.Errorf("spec %q: not strictly ascending at %d: %v", spec, i, sel)
			}
		}
	}
}

func TestSelection_Contiguous(t *testing.T) {
	if !(Selection{2, 3, 4}).Contiguous() {
		t.Error("2,3,4 should be contiguous")
	}
	if (Selection{0, 2, 3}).Contiguous() {
		t.Error("0,2,3 should not be contiguous")
	}
	if !(Selection{}).Contiguous() {
		t.Error("empty selection is trivially contiguous")
	}
}

func TestSelection_BoundingRun(t *testing.T) {
	got := (Selection{1, 4, 6}).BoundingRun()
	want := Selection{1, 2, 3, 4, 5, 6}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if (Selection{}).BoundingRun() != nil {
		t.Error("empty selection should have nil bounding run")
	}
}

func TestResolve_ZeroPageCount(t *testing.T) {
	if got := Resolve("all", 0, nil); got != nil {
		t.Errorf("expected nil for empty document, got %v", got)
	}
}
