package tones

import (
	"bytes"
	"strings"
	"testing"
)

func TestToneIndex(t *testing.T) {
	t.Run("Exact Tones", func(t *testing.T) {
		cases := []struct {
			in   string
			want int
		}{
			{"67.0", 0},
			{"100.0", 12},
			{"100", 12},
			{"123.0", 18},
			{"254.1", 49},
		}
		for _, c := range cases {
			got, ok := ToneIndex(c.in)
			if !ok {
				t.Errorf("ToneIndex(%q): expected success", c.in)
				continue
			}
			if got != c.want {
				t.Errorf("ToneIndex(%q) = %d, want %d", c.in, got, c.want)
			}
		}
	})

	t.Run("Rounding To Tenths", func(t *testing.T) {
		// 88.45 rounds half away from zero to 88.5.
		got, ok := ToneIndex("88.45")
		if !ok || CTCSS[got] != 885 {
			t.Errorf("ToneIndex(88.45) = %d, %v; want index of 88.5", got, ok)
		}
	})

	t.Run("Below Lowest Tone", func(t *testing.T) {
		if _, ok := ToneIndex("66.9"); ok {
			t.Error("ToneIndex(66.9): expected failure below 67.0")
		}
	})

	t.Run("Unsupported Tone", func(t *testing.T) {
		if _, ok := ToneIndex("101.0"); ok {
			t.Error("ToneIndex(101.0): expected failure, not in tone set")
		}
	})

	t.Run("Not A Number", func(t *testing.T) {
		if _, ok := ToneIndex("-"); ok {
			t.Error("ToneIndex(-): expected failure")
		}
	})
}

func TestDCSIndex(t *testing.T) {
	t.Run("First And Last", func(t *testing.T) {
		if got, ok := DCSIndex("D023"); !ok || got != 0 {
			t.Errorf("DCSIndex(D023) = %d, %v; want 0, true", got, ok)
		}
		if got, ok := DCSIndex("d754"); !ok || got != len(DCS)-1 {
			t.Errorf("DCSIndex(d754) = %d, %v; want last index", got, ok)
		}
	})

	t.Run("Unknown Code", func(t *testing.T) {
		if _, ok := DCSIndex("D024"); ok {
			t.Error("DCSIndex(D024): expected failure")
		}
	})

	t.Run("Missing Prefix", func(t *testing.T) {
		if _, ok := DCSIndex("023"); ok {
			t.Error("DCSIndex(023): expected failure without D prefix")
		}
	})
}

func TestStringSpellings(t *testing.T) {
	if got := ToneString(1000); got != "100.0" {
		t.Errorf("ToneString(1000) = %q, want 100.0", got)
	}
	if got := DCSString(23); got != "D023" {
		t.Errorf("DCSString(23) = %q, want D023", got)
	}
}

func TestPrintReference(t *testing.T) {
	var buf bytes.Buffer
	PrintReference(&buf)

	out := buf.String()
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if !strings.HasPrefix(line, "#") {
			t.Errorf("reference line not a comment: %q", line)
		}
	}
	if !strings.Contains(out, "100.0") {
		t.Error("reference should list the 100.0 Hz tone")
	}
	if !strings.Contains(out, "D754") {
		t.Error("reference should list the D754 code")
	}
}
