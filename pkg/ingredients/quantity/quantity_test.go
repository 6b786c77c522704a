package quantity

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestToNumberForms(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"2", 2},
		{"12", 12},
		{"1/2", 0.5},
		{"3/4", 0.75},
		{"½", 0.5},
		{"¾", 0.75},
		{"⅓", 1.0 / 3},
		{"⅛", 0.125},
		{"1⁄2", 0.5},
		{"1½", 1.5},
		{"1 ½", 1.5},
		{"1 1/2", 1.5},
		{"2 1/2", 2.5},
		{"2 3⁄4", 2.75},
		{"1.5", 1.5},
		{".25", 0.25},
		{" 3 ", 3},
		{"4 large", 4},
	}
	for _, tc := range cases {
		got, ok := ToNumber(tc.in)
		if !ok {
			t.Errorf("ToNumber(%q) not recognized", tc.in)
			continue
		}
		if !approx(got, tc.want) {
			t.Errorf("ToNumber(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestToNumberUnrecognized(t *testing.T) {
	for _, in := range []string{"", "a pinch", "few", "1/0", "/2"} {
		if v, ok := ToNumber(in); ok {
			t.Errorf("ToNumber(%q) = %v, want unrecognized", in, v)
		}
	}
}

func TestToNumberPrecedence(t *testing.T) {
	// The plain fraction wins over the bare integer that prefixes it.
	if v, _ := ToNumber("1/2"); !approx(v, 0.5) {
		t.Errorf("1/2 parsed as %v", v)
	}
	// The mixed number wins over the bare integer.
	if v, _ := ToNumber("3 1/3"); !approx(v, 3+1.0/3) {
		t.Errorf("3 1/3 parsed as %v", v)
	}
}

func TestAverage(t *testing.T) {
	if v, err := Average(nil); err != nil || v != 1 {
		t.Errorf("Average(nil) = %v, %v; want 1", v, err)
	}
	if v, err := Average([]string{}); err != nil || v != 1 {
		t.Errorf("Average([]) = %v, %v; want 1", v, err)
	}
	if v, err := Average([]string{"1", "3"}); err != nil || v != 2 {
		t.Errorf("Average([1 3]) = %v, %v; want 2", v, err)
	}
	if v, err := Average([]string{" 1/2 ", "1 1/2"}); err != nil || !approx(v, 1) {
		t.Errorf("Average = %v, %v; want 1", v, err)
	}
}

func TestAverageUnrecognized(t *testing.T) {
	_, err := Average([]string{"2", "some"})
	if !errors.Is(err, ErrUnrecognized) {
		t.Fatalf("expected ErrUnrecognized, got %v", err)
	}
}

func TestCandidates(t *testing.T) {
	cases := map[string][]string{
		"1-2":      {"1", "2"},
		"1 - 2":    {"1", "2"},
		"2 to 3":   {"2", "3"},
		"1 or 2":   {"1", "2"},
		"1–2":      {"1", "2"},
		"2 1/2":    {"2 1/2"},
		"":         nil,
		"3-":       {"3"},
		"tomatoes": {"tomatoes"},
	}
	for in, want := range cases {
		got := Candidates(in)
		if len(got) != len(want) {
			t.Errorf("Candidates(%q) = %q, want %q", in, got, want)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Candidates(%q) = %q, want %q", in, got, want)
				break
			}
		}
	}
}

func TestParseRange(t *testing.T) {
	v, err := Parse("1-2")
	if err != nil || v != 1.5 {
		t.Errorf("Parse(1-2) = %v, %v", v, err)
	}
	v, err = Parse("")
	if err != nil || v != 1 {
		t.Errorf("Parse(\"\") = %v, %v", v, err)
	}
}

func TestIsQuantity(t *testing.T) {
	yes := []string{"2", "1/2", "1 1/2", "½", "1-2", "2 to 3", "1.5"}
	no := []string{"", "2large", "14-ounce", "cup", "1/0", "to"}
	for _, in := range yes {
		if !IsQuantity(in) {
			t.Errorf("IsQuantity(%q) = false", in)
		}
	}
	for _, in := range no {
		if IsQuantity(in) {
			t.Errorf("IsQuantity(%q) = true", in)
		}
	}
}
