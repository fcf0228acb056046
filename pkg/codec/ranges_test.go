package codec

import (
	"testing"
)

func collectRanges(t *testing.T, list string, max int) []int {
	t.Helper()
	var out []int
	if err := ParseRanges(list, max, func(n int) error {
		out = append(out, n)
		return nil
	}); err != nil {
		t.Fatalf("ParseRanges(%q): %v", list, err)
	}
	return out
}

func TestParseRanges(t *testing.T) {
	t.Run("Singles And Ranges", func(t *testing.T) {
		got := collectRanges(t, "1-3,5,7-9", 100)
		want := []int{1, 2, 3, 5, 7, 8, 9}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("got %v, want %v", got, want)
			}
		}
	})

	t.Run("Empty List", func(t *testing.T) {
		if got := collectRanges(t, "-", 100); len(got) != 0 {
			t.Errorf("expected no members for \"-\", got %v", got)
		}
	})

	t.Run("Out Of Range", func(t *testing.T) {
		err := ParseRanges("5,101", 100, func(int) error { return nil })
		if err == nil {
			t.Error("expected error for member above max")
		}
	})

	t.Run("Zero Rejected", func(t *testing.T) {
		err := ParseRanges("0", 100, func(int) error { return nil })
		if err == nil {
			t.Error("expected error for member 0")
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, list := range []string{"", "a", "3-", "-7,9", "1,,2"} {
			if err := ParseRanges(list, 100, func(int) error { return nil }); err == nil {
				t.Errorf("ParseRanges(%q): expected error", list)
			}
		}
	})
}

func TestFormatRanges(t *testing.T) {
	cases := []struct {
		in   []int
		want string
	}{
		{nil, "-"},
		{[]int{4}, "4"},
		{[]int{1, 2, 3}, "1-3"},
		{[]int{1, 2, 3, 5, 7, 8, 9}, "1-3,5,7-9"},
		{[]int{10, 12}, "10,12"},
	}
	for _, c := range cases {
		if got := FormatRanges(c.in); got != c.want {
			t.Errorf("FormatRanges(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRangesRoundTrip(t *testing.T) {
	lists := []string{"-", "1", "1-3,5,7-9", "1-100"}
	for _, list := range lists {
		members := collectRanges(t, list, 1000)
		if got := FormatRanges(members); got != list {
			t.Errorf("round trip of %q produced %q", list, got)
		}
	}
}
