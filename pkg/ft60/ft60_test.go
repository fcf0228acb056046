package ft60

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dougsko/yaesutool/pkg/codec"
)

func TestFrequencyCodec(t *testing.T) {
	t.Run("Round Trip", func(t *testing.T) {
		for _, hz := range []int{146940000, 446000000, 108000000, 999990000} {
			var bcd [3]byte
			hzToFreq(hz, bcd[:])
			if got := freqToHz(bcd[:]); got != hz {
				t.Errorf("round trip of %d Hz produced %d", hz, got)
			}
		}
	})

	t.Run("2500 Hz Steps", func(t *testing.T) {
		// The two spare high bits of the first byte add multiples of
		// 2.5 kHz on top of the 10 kHz BCD digits.
		for _, hz := range []int{446125000, 146942500, 162547500} {
			var bcd [3]byte
			hzToFreq(hz, bcd[:])
			if got := freqToHz(bcd[:]); got != hz {
				t.Errorf("round trip of %d Hz produced %d", hz, got)
			}
		}
		var bcd [3]byte
		hzToFreq(446125000, bcd[:])
		if bcd[0]>>6 != 2 {
			t.Errorf("high bits = %d, want 2 for a 5 kHz remainder", bcd[0]>>6)
		}
	})
}

func TestNameTable(t *testing.T) {
	radio := New()

	t.Run("Round Trip", func(t *testing.T) {
		cases := []struct {
			in   string
			want string
		}{
			{"KD8ABC", "KD8ABC"},
			{"ab", "AB"},
			{"A B", "A_B"},
			{"-", ""},
			{"", ""},
		}
		for i, c := range cases {
			radio.encodeName(i, c.in)
			if got := radio.decodeName(i); got != c.want {
				t.Errorf("name %q decoded as %q, want %q", c.in, got, c.want)
			}
		}
	})

	t.Run("Valid And Used Bits", func(t *testing.T) {
		radio.encodeName(10, "CALL")
		nm := radio.nameEntry(10)
		if !nm.valid() || !nm.used() {
			t.Error("stored name should be marked valid and used")
		}
		nm.setUsed(false)
		if got := radio.decodeName(10); got != "" {
			t.Errorf("name without the used bit decoded as %q", got)
		}
	})

	t.Run("Unknown Character", func(t *testing.T) {
		if got := encodeChar('{'); got != charOpenBox {
			t.Errorf("encodeChar('{') = %d, want open box", got)
		}
	})
}

func TestScanTable(t *testing.T) {
	radio := New()
	// Neighbors share a byte, four channels per byte.
	want := []int{scanSkip, scanNormal, scanPreferential, scanSkip,
		scanNormal, scanSkip, scanNormal, scanPreferential}
	for i, scan := range want {
		radio.setScanMode(i, scan)
	}
	for i, scan := range want {
		if got := radio.scanMode(i); got != scan {
			t.Errorf("channel %d scan = %d, want %d", i, got, scan)
		}
	}
}

func TestEncodeSquelch(t *testing.T) {
	cases := []struct {
		rx, tx string
		mode   int
	}{
		{"-", "-", squelchOff},
		{"-", "100.0", squelchTone},
		{"100.0", "100.0", squelchTSQL},
		{"-100.0", "100.0", squelchTSQLRev},
		{"D023", "D023", squelchDTCS},
		{"-", "D023", squelchDCS},
		{"D023", "100.0", squelchToneDCS},
		{"100.0", "D023", squelchDCSTSQL},
	}
	for _, c := range cases {
		mode, _, _, err := encodeSquelch(c.rx, c.tx)
		if err != nil {
			t.Errorf("encodeSquelch(%q, %q): %v", c.rx, c.tx, err)
			continue
		}
		if mode != c.mode {
			t.Errorf("encodeSquelch(%q, %q) = mode %d, want %d", c.rx, c.tx, mode, c.mode)
		}
	}

	if _, _, _, err := encodeSquelch("-", "101.0"); err == nil {
		t.Error("expected error for unsupported tone")
	}
	if _, _, _, err := encodeSquelch("D024", "-"); err == nil {
		t.Error("expected error for unsupported DCS code")
	}
}

const sampleConfig = `Radio: Yaesu FT-60R

Channel Name    Receive  Transmit R-Squel T-Squel Power Modulation Scan
    1   CALL    446.0000 -        -       -       Low   Narrow     -
   12   REPTR   146.9400 -0.600   -       100.0   High  Wide       +
   13   RVRS    146.5200 -        -88.5   88.5    High  Wide       Only
   14   DIGI    446.1250 -        D023    D023    High  Wide       +
   20   XBAND   146.5200 446.000  -       -       High  Wide       +

Bank    Channels
   1    1,12-14

Home    Receive  Transmit R-Squel T-Squel Power Modulation
  144   146.5200 -        -       -       High  Wide
  250   250.0000 -        -       -       Low   AM
  350   350.0000 -        -       -       Low   Wide
  430   446.0000 -        -       -       High  Wide
  850   850.0000 -        -       -       Low   Wide

PMS     Lower    Upper
    3   144.0000 148.0000
`

func parseSample(t *testing.T, text string) *Radio {
	t.Helper()
	radio := New()
	rejected, err := codec.ParseConfig(strings.NewReader(text), radio)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if len(rejected) != 0 {
		t.Fatalf("rejected rows: %v", rejected)
	}
	return radio
}

func TestParseConfig(t *testing.T) {
	radio := parseSample(t, sampleConfig)

	t.Run("Repeater Channel", func(t *testing.T) {
		ch := radio.decodeChannel(11, offChannels)
		if ch.RxHz != 146940000 {
			t.Errorf("RxHz = %d, want 146940000", ch.RxHz)
		}
		if ch.TxHz != 146340000 {
			t.Errorf("TxHz = %d, want 146340000 from the -0.600 offset", ch.TxHz)
		}
		rec := radio.record(offChannels, 11)
		if rec.duplex() != duplexNeg || rec.offset() != 12 {
			t.Errorf("duplex/offset = %d/%d, want minus duplex with 12 steps of 50 kHz",
				rec.duplex(), rec.offset())
		}
		if ch.TxCTCS != 1000 || ch.RxCTCS != 0 {
			t.Errorf("squelch = rx %d tx %d, want tx-only 100.0", ch.RxCTCS, ch.TxCTCS)
		}
		if ch.Name != "REPTR" {
			t.Errorf("Name = %q, want REPTR", ch.Name)
		}
	})

	t.Run("Reverse Tone Squelch", func(t *testing.T) {
		ch := radio.decodeChannel(12, offChannels)
		if ch.RxCTCS != -885 || ch.TxCTCS != 885 {
			t.Errorf("squelch = rx %d tx %d, want -885/885", ch.RxCTCS, ch.TxCTCS)
		}
		if ch.Scan != scanPreferential {
			t.Errorf("Scan = %d, want preferential", ch.Scan)
		}
	})

	t.Run("DCS Both Directions", func(t *testing.T) {
		ch := radio.decodeChannel(13, offChannels)
		if ch.RxDCS != 23 || ch.TxDCS != 23 {
			t.Errorf("DCS = rx %d tx %d, want 23/23", ch.RxDCS, ch.TxDCS)
		}
		if ch.RxHz != 446125000 {
			t.Errorf("RxHz = %d, want 446125000", ch.RxHz)
		}
	})

	t.Run("Cross Band", func(t *testing.T) {
		ch := radio.decodeChannel(19, offChannels)
		if ch.TxHz != 446000000 {
			t.Errorf("TxHz = %d, want 446000000", ch.TxHz)
		}
		rec := radio.record(offChannels, 19)
		if rec.duplex() != duplexCross {
			t.Errorf("duplex = %d, want cross", rec.duplex())
		}
	})

	t.Run("Record Defaults", func(t *testing.T) {
		rec := radio.record(offChannels, 0)
		if rec.step() != step12_5 {
			t.Errorf("step = %d, want 12.5 kHz above 400 MHz", rec.step())
		}
		if rec[10] != 15 {
			t.Errorf("spare byte 10 = %d, want 15", rec[10])
		}
		vhf := radio.record(offChannels, 11)
		if vhf.step() != step5 {
			t.Errorf("step = %d, want 5 kHz below 400 MHz", vhf.step())
		}
	})

	t.Run("Unused Channels Stay Empty", func(t *testing.T) {
		for _, i := range []int{1, 14, NumChannels - 1} {
			if ch := radio.decodeChannel(i, offChannels); ch.RxHz != 0 {
				t.Errorf("channel %d decoded RxHz %d, want 0", i+1, ch.RxHz)
			}
		}
	})

	t.Run("Bank Bitmap", func(t *testing.T) {
		if !radio.haveBanks() {
			t.Fatal("banks should be in use")
		}
		members := radio.bankMembers(0)
		want := []int{1, 12, 13, 14}
		if len(members) != len(want) {
			t.Fatalf("bank 1 members = %v, want %v", members, want)
		}
		for i := range want {
			if members[i] != want[i] {
				t.Fatalf("bank 1 members = %v, want %v", members, want)
			}
		}
		if got := radio.bankMembers(1); got != nil {
			t.Errorf("bank 2 should be empty, got %v", got)
		}
	})

	t.Run("Home Channels", func(t *testing.T) {
		slot, ok := homeSlot("430")
		if !ok {
			t.Fatal("band 430 should map to a home slot")
		}
		ch := radio.decodeChannel(slot, offHome)
		if ch.RxHz != 446000000 {
			t.Errorf("home 430 RxHz = %d, want 446000000", ch.RxHz)
		}
		am := radio.decodeChannel(1, offHome)
		if !am.IsAM {
			t.Error("home 250 should be AM")
		}
		if _, ok := homeSlot("900"); ok {
			t.Error("band 900 should not map to a home slot")
		}
	})

	t.Run("PMS Pair", func(t *testing.T) {
		lower := radio.decodeChannel(4, offPMS)
		upper := radio.decodeChannel(5, offPMS)
		if lower.RxHz != 144000000 || upper.RxHz != 148000000 {
			t.Errorf("PMS 3 = %d/%d, want 144000000/148000000", lower.RxHz, upper.RxHz)
		}
		if ch := radio.decodeChannel(0, offPMS); ch.RxHz != 0 {
			t.Errorf("PMS 1 should be empty, got %d", ch.RxHz)
		}
	})
}

func TestParsePower(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"High", powerHigh},
		{"Mid", powerMid},
		{"Low", powerLow},
		{"-", powerLow},
	}
	for _, c := range cases {
		got, err := parsePower(c.in)
		if err != nil || got != c.want {
			t.Errorf("parsePower(%q) = %d, %v; want %d", c.in, got, err, c.want)
		}
	}
	if _, err := parsePower("Max"); err == nil {
		t.Error("expected error for unknown power level")
	}
}

func TestPrintConfig(t *testing.T) {
	radio := parseSample(t, sampleConfig)

	var buf bytes.Buffer
	radio.PrintConfig(&buf, false)
	out := buf.String()

	for _, want := range []string{
		"Radio: Yaesu FT-60R",
		"REPTR",
		"-0.600",
		"-88.5",
		"D023",
		"1,12-14",
		"144.0000 148.0000",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	t.Run("Round Trip", func(t *testing.T) {
		again := New()
		rejected, err := codec.ParseConfig(strings.NewReader(out), again)
		if err != nil {
			t.Fatalf("reparse: %v", err)
		}
		if len(rejected) != 0 {
			t.Fatalf("reparse rejected rows: %v", rejected)
		}
		var buf2 bytes.Buffer
		again.PrintConfig(&buf2, false)
		if buf2.String() != out {
			t.Errorf("print-parse-print is not stable:\n--- first\n%s--- second\n%s", out, buf2.String())
		}
	})

	t.Run("Verbose Comments", func(t *testing.T) {
		var vbuf bytes.Buffer
		radio.PrintConfig(&vbuf, true)
		if !strings.Contains(vbuf.String(), "# Table of preprogrammed channels.") {
			t.Error("verbose output missing channel table comment")
		}
	})
}

func TestChannels(t *testing.T) {
	radio := parseSample(t, sampleConfig)
	channels := radio.Channels()
	if len(channels) != 5 {
		t.Fatalf("got %d channels, want 5", len(channels))
	}
	if channels[1].Index != 12 || channels[1].Name != "REPTR" {
		t.Errorf("channel = %+v", channels[1])
	}
	if channels[1].TxMHz != 146.34 {
		t.Errorf("TxMHz = %v, want 146.34", channels[1].TxMHz)
	}
}

func TestValidFrequency(t *testing.T) {
	for _, mhz := range []float64{108, 146.52, 520.99, 700, 999} {
		if !validFrequency(mhz) {
			t.Errorf("validFrequency(%v) = false", mhz)
		}
	}
	for _, mhz := range []float64{107.9, 521, 699, 1000, 0} {
		if validFrequency(mhz) {
			t.Errorf("validFrequency(%v) = true", mhz)
		}
	}
}
