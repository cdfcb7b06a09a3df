package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// empty -> default
		{"", 10, 10},
		// valid ints
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// invalid -> default (no trim)
		{"x", 5, 5},
		{" 42", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestPage(t *testing.T) {
	cases := []struct {
		page, size   string
		wantP, wantS int
	}{
		{"", "", 1, 20},
		{"0", "0", 1, 1},
		{"-3", "500", 1, 100},
		{"4", "25", 4, 25},
		{"x", "y", 1, 20},
	}
	for _, tc := range cases {
		p, s := Page(tc.page, tc.size, 20, 100)
		if p != tc.wantP || s != tc.wantS {
			t.Fatalf("Page(%q,%q) = (%d,%d); want (%d,%d)", tc.page, tc.size, p, s, tc.wantP, tc.wantS)
		}
	}
}

func TestTotalPages(t *testing.T) {
	if got := TotalPages(0, 20); got != 0 {
		t.Fatalf("TotalPages(0,20) = %d", got)
	}
	if got := TotalPages(41, 20); got != 3 {
		t.Fatalf("TotalPages(41,20) = %d", got)
	}
	if got := TotalPages(10, 0); got != 0 {
		t.Fatalf("TotalPages(10,0) = %d", got)
	}
}
