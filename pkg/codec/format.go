package codec

import "fmt"

// FormatOffset renders the transmit column: "+0" for exact simplex, a
// signed offset in MHz while the delta fits the offset field, otherwise
// the absolute transmit frequency. canTransmit gates the whole column;
// a model with no gating passes true.
func FormatOffset(rxHz, txHz int, canTransmit bool) string {
	delta := txHz - rxHz

	switch {
	case !canTransmit:
		return " -      "
	case delta == 0:
		return "+0      "
	case delta > 0 && delta/50000 <= 255:
		if delta%1000000 == 0 {
			return fmt.Sprintf("+%-7d", delta/1000000)
		}
		return fmt.Sprintf("+%-7.3f", float64(delta)/1000000.0)
	case delta < 0 && -delta/50000 <= 255:
		delta = -delta
		if delta%1000000 == 0 {
			return fmt.Sprintf("-%-7d", delta/1000000)
		}
		return fmt.Sprintf("-%-7.3f", float64(delta)/1000000.0)
	default:
		// Cross band.
		return fmt.Sprintf(" %-7.4f", float64(txHz)/1000000.0)
	}
}

// FormatSquelch renders one squelch column: the CTCSS tone in Hz when
// set, else the DCS code, else "-". A negative tone value marks reverse
// tone squelch and keeps its sign.
func FormatSquelch(ctcs, dcs int) string {
	switch {
	case ctcs != 0:
		return fmt.Sprintf("%5.1f", float64(ctcs)/10.0)
	case dcs > 0:
		return fmt.Sprintf("D%03d", dcs)
	default:
		return "   - "
	}
}
