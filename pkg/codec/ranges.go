package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRanges walks a bank channel list: comma-separated 1-based channel
// numbers or inclusive N-M ranges, e.g. "1-3,5,7-9". A lone "-" is an
// empty bank. fn is called once per channel number, in list order.
func ParseRanges(list string, max int, fn func(cnum int) error) error {
	if list == "-" {
		return nil
	}
	for _, item := range strings.Split(list, ",") {
		lo, hi, isRange := strings.Cut(item, "-")
		first, err := parseChannelNum(lo, max)
		if err != nil {
			return fmt.Errorf("wrong channel list %q: %w", list, err)
		}
		last := first
		if isRange {
			last, err = parseChannelNum(hi, max)
			if err != nil {
				return fmt.Errorf("wrong channel list %q: %w", list, err)
			}
		}
		for c := first; c <= last; c++ {
			if err := fn(c); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseChannelNum(s string, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("bad channel number %q", s)
	}
	if n < 1 || n > max {
		return 0, fmt.Errorf("channel number %d out of range 1-%d", n, max)
	}
	return n, nil
}

// FormatRanges renders an ascending list of 1-based channel numbers in
// the compressed form ParseRanges reads: consecutive runs collapse into
// N-M ranges. An empty list renders as "-".
func FormatRanges(nums []int) string {
	if len(nums) == 0 {
		return "-"
	}

	var sb strings.Builder
	last := -1
	inRange := false
	for _, cnum := range nums {
		if cnum == last+1 {
			inRange = true
		} else {
			if inRange {
				fmt.Fprintf(&sb, "-%d", last)
				inRange = false
			}
			if last >= 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "%d", cnum)
		}
		last = cnum
	}
	if inRange {
		fmt.Fprintf(&sb, "-%d", last)
	}
	return sb.String()
}
