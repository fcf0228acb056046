// Package tones holds the CTCSS tone and DCS code tables shared by all
// supported radios, with lookups from their text spellings.
package tones

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CTCSS tones in tenths of Hertz, in radio index order.
var CTCSS = []int{
	670, 693, 719, 744, 770, 797, 825, 854, 885, 915,
	948, 974, 1000, 1035, 1072, 1109, 1148, 1188, 1230, 1273,
	1318, 1365, 1413, 1462, 1514, 1567, 1598, 1622, 1655, 1679,
	1713, 1738, 1773, 1799, 1835, 1862, 1899, 1928, 1966, 1995,
	2035, 2065, 2107, 2181, 2257, 2291, 2336, 2418, 2503, 2541,
}

// DCS codes in radio index order.
var DCS = []int{
	23, 25, 26, 31, 32, 36, 43, 47, 51, 53,
	54, 65, 71, 72, 73, 74, 114, 115, 116, 122,
	125, 131, 132, 134, 143, 145, 152, 155, 156, 162,
	165, 172, 174, 205, 212, 223, 225, 226, 243, 244,
	245, 246, 251, 252, 255, 261, 263, 265, 266, 271,
	274, 306, 311, 315, 325, 331, 332, 343, 346, 351,
	356, 364, 365, 371, 411, 412, 413, 423, 431, 432,
	445, 446, 452, 454, 455, 462, 464, 465, 466, 503,
	506, 516, 523, 526, 532, 546, 565, 606, 612, 624,
	627, 631, 632, 654, 662, 664, 703, 712, 723, 731,
	732, 734, 743, 754,
}

// DefaultTone is the index written when no tone is selected (100.0 Hz).
const DefaultTone = 12

// ToneIndex parses a CTCSS tone spelled "nnn.n" and returns its table
// index. The radio supports only the fixed tone set, so anything that
// does not match an entry exactly fails.
func ToneIndex(s string) (int, bool) {
	hz, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return -1, false
	}

	// Round to tenths of Hz, half away from zero.
	val := iround(hz * 10.0)
	if val < 670 {
		return -1, false
	}
	for i, t := range CTCSS {
		if t == val {
			return i, true
		}
	}
	return -1, false
}

// DCSIndex parses a DCS code spelled "Dnnn" and returns its table index.
func DCSIndex(s string) (int, bool) {
	if len(s) < 2 || (s[0] != 'D' && s[0] != 'd') {
		return -1, false
	}
	val, err := strconv.ParseUint(s[1:], 10, 32)
	if err != nil {
		return -1, false
	}
	for i, c := range DCS {
		if c == int(val) {
			return i, true
		}
	}
	return -1, false
}

// iround rounds half away from zero.
func iround(x float64) int {
	if x >= 0 {
		return int(x + 0.5)
	}
	return -int(-x + 0.5)
}

// PrintReference writes the CTCSS/DCS reference tables as a comment
// block, for verbose configuration listings.
func PrintReference(w io.Writer) {
	fmt.Fprintf(w, "\n# Supported CTCSS tones in Hz:\n")
	for i, t := range CTCSS {
		if i%10 == 0 {
			fmt.Fprintf(w, "#  ")
		}
		fmt.Fprintf(w, " %5.1f", float64(t)/10.0)
		if i%10 == 9 || i == len(CTCSS)-1 {
			fmt.Fprintf(w, "\n")
		}
	}
	fmt.Fprintf(w, "# Supported DCS codes:\n")
	for i, c := range DCS {
		if i%13 == 0 {
			fmt.Fprintf(w, "#  ")
		}
		fmt.Fprintf(w, " D%03d", c)
		if i%13 == 12 || i == len(DCS)-1 {
			fmt.Fprintf(w, "\n")
		}
	}
}

// String spellings used by the table printers.

// ToneString renders a tone table value (tenths of Hz) as "nnn.n".
func ToneString(tenths int) string {
	return strings.TrimSpace(fmt.Sprintf("%5.1f", float64(tenths)/10.0))
}

// DCSString renders a DCS code as "Dnnn".
func DCSString(code int) string {
	return fmt.Sprintf("D%03d", code)
}
