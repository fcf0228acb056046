// Package ft60 implements the memory image codec for the Yaesu FT-60R.
//
// The image is 28616 bytes plus a trailing checksum byte. Memory
// channels are 16-byte bit-packed records; names live in a separate
// 8-byte-entry table with their own valid/used bits; scan modes sit in
// a 2-bit-per-channel side table; bank membership is a bitmap.
package ft60

import (
	"fmt"

	"github.com/dougsko/yaesutool/pkg/codec"
	"github.com/dougsko/yaesutool/pkg/tones"
)

const (
	// NumChannels is the number of regular memory channels.
	NumChannels = 1000
	// NumBanks is the number of memory banks.
	NumBanks = 10
	// NumPMS is the number of programmable memory scan pairs.
	NumPMS = 50

	// MemSize is the image payload size, excluding the checksum byte.
	MemSize = 0x6fc8

	magic = "AH017$"

	recordSize = 16
	nameSize   = 8

	offVFO      = 0x0048
	offHome     = 0x01c8
	offChannels = 0x0248
	offPMS      = 0x40c8
	offNames    = 0x4708
	offBanks    = 0x69c8 // 10 banks, one bit per channel
	offScan     = 0x6ec8 // two bits per channel

	bankSize = 0x80
)

// charset is the 65-symbol name alphabet; index 36 is space, index 64
// the open-box placeholder for unknown characters.
const charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ !`o$%&'()*+,-./|;/=>?@[~]^__"
const (
	charSpace   = 36
	charOpenBox = 64
)

// Duplex direction of the repeater offset.
const (
	duplexSimplex = 0
	duplexNeg     = 2
	duplexPos     = 3
	duplexCross   = 4
)

// CTCSS/DCS squelch mode. The FT-60 also combines tone and DCS across
// the two directions.
const (
	squelchOff     = 0
	squelchTone    = 1
	squelchTSQL    = 2
	squelchTSQLRev = 3
	squelchDTCS    = 4
	squelchDCS     = 5 // transmit-only DCS
	squelchToneDCS = 6 // transmit tone, receive DCS
	squelchDCSTSQL = 7 // transmit DCS, receive tone
)

// Transmit power codes.
const (
	powerHigh = 0
	powerMid  = 1
	powerLow  = 2
)

// Tuning step codes.
const (
	step5 = iota
	step10
	step12_5
	step15
	step20
	step25
	step50
	step100
)

// Scan modes in the side table.
const (
	scanNormal       = 0
	scanSkip         = 1
	scanPreferential = 2
)

var bandName = []string{"144", "250", "350", "430", "850"}
var powerName = []string{"High", "Med", "Low", "??"}
var scanName = []string{"+", "-", "Only", "??"}

// Radio is the FT-60 codec session.
type Radio struct {
	image *codec.Image
}

// New creates an FT-60 session with a zeroed image.
func New() *Radio {
	return &Radio{image: codec.NewImage(MemSize)}
}

// Name returns the model name used in the Radio: parameter.
func (r *Radio) Name() string { return "Yaesu FT-60R" }

// Image returns the session memory image.
func (r *Radio) Image() *codec.Image { return r.image }

// Magic returns the image identity prefix.
func (r *Radio) Magic() string { return magic }

// record is one 16-byte channel span.
type record []byte

func (r *Radio) record(base, i int) record {
	off := base + i*recordSize
	return record(r.image.Data()[off : off+recordSize])
}

func (c record) duplex() int    { return int(c[0] & 0x0f) }
func (c record) isAM() bool     { return c[0]&0x10 != 0 }
func (c record) narrow() bool   { return c[0]&0x20 != 0 }
func (c record) used() bool     { return c[0]&0x80 != 0 }
func (c record) rxfreq() []byte { return c[1:4] }
func (c record) squelch() int   { return int(c[4] & 7) }
func (c record) step() int      { return int(c[4]>>3) & 7 }
func (c record) txfreq() []byte { return c[5:8] }
func (c record) tone() int      { return int(c[8] & 0x3f) }
func (c record) power() int     { return int(c[8] >> 6) }
func (c record) dcs() int       { return int(c[9] & 0x7f) }
func (c record) offset() int    { return int(c[12]) } // 50 kHz steps

func (c record) setDuplex(v int)  { c[0] = c[0]&0xf0 | byte(v&0x0f) }
func (c record) setSquelch(v int) { c[4] = c[4]&^0x07 | byte(v&7) }
func (c record) setStep(v int)    { c[4] = c[4]&^0x38 | byte(v&7)<<3 }
func (c record) setTone(v int)    { c[8] = c[8]&0xc0 | byte(v&0x3f) }
func (c record) setPower(v int)   { c[8] = c[8]&0x3f | byte(v&3)<<6 }
func (c record) setDCS(v int)     { c[9] = c[9]&0x80 | byte(v&0x7f) }
func (c record) setOffset(v int)  { c[12] = byte(v) }

func (c record) setAM(v bool) {
	c[0] &^= 0x10
	if v {
		c[0] |= 0x10
	}
}

func (c record) setNarrow(v bool) {
	c[0] &^= 0x20
	if v {
		c[0] |= 0x20
	}
}

func (c record) setUsed(v bool) {
	c[0] &^= 0x80
	if v {
		c[0] |= 0x80
	}
}

// freqToHz unpacks a 3-byte BCD frequency: five decimal digits scale by
// 10 kHz, and the two spare high bits of the first byte add multiples
// of 2.5 kHz.
func freqToHz(bcd []byte) int {
	hz := int(bcd[0]&15)*100000000 +
		int(bcd[1]>>4&15)*10000000 +
		int(bcd[1]&15)*1000000 +
		int(bcd[2]>>4&15)*100000 +
		int(bcd[2]&15)*10000
	hz += int(bcd[0]>>6) * 2500
	return hz
}

// hzToFreq packs a frequency into 3-byte BCD, exact inverse of
// freqToHz within the 2.5 kHz quantization.
func hzToFreq(hz int, bcd []byte) {
	bcd[0] = byte(hz/2500%4)<<6 | byte(hz/100000000%10)
	bcd[1] = byte(hz/10000000%10)<<4 | byte(hz/1000000%10)
	bcd[2] = byte(hz/100000%10)<<4 | byte(hz/10000%10)
}

func iround(x float64) int {
	if x >= 0 {
		return int(x + 0.5)
	}
	return -int(-x + 0.5)
}

// nameEntry is one 8-byte span of the channel name table.
type nameEntry []byte

func (r *Radio) nameEntry(i int) nameEntry {
	off := offNames + i*nameSize
	return nameEntry(r.image.Data()[off : off+nameSize])
}

func (n nameEntry) used() bool  { return n[6]&0x80 != 0 }
func (n nameEntry) valid() bool { return n[7]&0x80 != 0 }

func (n nameEntry) setUsed(v bool) {
	n[6] &^= 0x80
	if v {
		n[6] |= 0x80
	}
}

func (n nameEntry) setValid(v bool) {
	n[7] &^= 0x80
	if v {
		n[7] |= 0x80
	}
}

// decodeName extracts a channel name from the name table. Entries not
// marked valid and used decode to the empty string. Spaces come back as
// underscores with the trailing run stripped.
func (r *Radio) decodeName(i int) string {
	nm := r.nameEntry(i)
	if !nm.valid() || !nm.used() {
		return ""
	}
	var name [6]byte
	for n := 0; n < 6; n++ {
		c := int(nm[n])
		if c < len(charset) {
			name[n] = charset[c]
		} else {
			name[n] = ' '
		}
		if name[n] == ' ' {
			name[n] = '_'
		}
	}
	end := 6
	for end > 0 && name[end-1] == '_' {
		end--
	}
	return string(name[:end])
}

// encodeChar maps ASCII to a charset index. Underscore becomes space,
// letters are uppercased, anything unknown becomes the open box.
func encodeChar(c byte) byte {
	if c == '_' {
		c = ' '
	}
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	for i := 0; i < len(charset); i++ {
		if charset[i] == c {
			return byte(i)
		}
	}
	return charOpenBox
}

// encodeName stores a channel name. Empty or "-" clears the entry.
func (r *Radio) encodeName(i int, name string) {
	nm := r.nameEntry(i)
	if name == "" || name == "-" {
		nm.setValid(false)
		nm.setUsed(false)
		for n := 0; n < 6; n++ {
			nm[n] = 0xff
		}
		return
	}
	nm.setValid(true)
	nm.setUsed(true)
	n := 0
	for ; n < 6 && n < len(name); n++ {
		nm[n] = encodeChar(name[n])
	}
	for ; n < 6; n++ {
		nm[n] = charSpace
	}
}

// scanMode reads the 2-bit scan field for a channel; channel 0 owns the
// high bits of its byte.
func (r *Radio) scanMode(i int) int {
	shift := (3 - i&3) * 2
	return int(r.image.Data()[offScan+i/4]>>shift) & 3
}

func (r *Radio) setScanMode(i, scan int) {
	p := &r.image.Data()[offScan+i/4]
	shift := (3 - i&3) * 2
	*p &^= 3 << shift
	*p |= byte(scan << shift)
}

// encodeSquelch classifies the receive and transmit squelch specs and
// combines them per the radio's precedence: receive DCS wins, then
// transmit DCS, then tones. A leading "-" on a numeric receive tone
// selects reverse tone squelch.
func encodeSquelch(rx, tx string) (mode, tone, dcs int, err error) {
	rxTone, txTone, rxDCS, txDCS := -1, -1, -1, -1
	rxRev := false

	switch {
	case len(rx) > 0 && (rx[0] == 'D' || rx[0] == 'd'):
		idx, ok := tones.DCSIndex(rx)
		if !ok {
			return 0, 0, 0, fmt.Errorf("unsupported DCS code %q", rx)
		}
		rxDCS = idx
	case len(rx) > 0 && rx[0] >= '0' && rx[0] <= '9':
		idx, ok := tones.ToneIndex(rx)
		if !ok {
			return 0, 0, 0, fmt.Errorf("unsupported tone %q", rx)
		}
		rxTone = idx
	case len(rx) > 1 && rx[0] == '-' && rx[1] >= '0' && rx[1] <= '9':
		idx, ok := tones.ToneIndex(rx[1:])
		if !ok {
			return 0, 0, 0, fmt.Errorf("unsupported tone %q", rx)
		}
		rxTone = idx
		rxRev = true
	}
	switch {
	case len(tx) > 0 && (tx[0] == 'D' || tx[0] == 'd'):
		idx, ok := tones.DCSIndex(tx)
		if !ok {
			return 0, 0, 0, fmt.Errorf("unsupported DCS code %q", tx)
		}
		txDCS = idx
	case len(tx) > 0 && tx[0] >= '0' && tx[0] <= '9':
		idx, ok := tones.ToneIndex(tx)
		if !ok {
			return 0, 0, 0, fmt.Errorf("unsupported tone %q", tx)
		}
		txTone = idx
	}

	tone = tones.DefaultTone
	dcs = 0
	if rxDCS >= 0 {
		dcs = rxDCS
		if txTone >= 0 {
			return squelchToneDCS, txTone, dcs, nil
		}
		return squelchDTCS, tone, dcs, nil
	}
	if txDCS >= 0 {
		dcs = txDCS
		if rxTone >= 0 {
			return squelchDCSTSQL, rxTone, dcs, nil
		}
		return squelchDCS, tone, dcs, nil
	}
	if txTone >= 0 {
		tone = txTone
		switch {
		case rxTone < 0:
			return squelchTone, tone, dcs, nil
		case rxRev:
			return squelchTSQLRev, tone, dcs, nil
		default:
			return squelchTSQL, tone, dcs, nil
		}
	}
	return squelchOff, tone, dcs, nil
}

// Channel is a fully decoded channel, home, VFO or PMS record.
type Channel struct {
	RxHz   int
	TxHz   int
	RxCTCS int // tenths of Hz, negative for reverse tone squelch
	TxCTCS int
	RxDCS  int
	TxDCS  int
	Power  int
	Wide   bool
	IsAM   bool
	Scan   int
	Step   int
	Name   string
}

// decodeChannel extracts a record from the given table. Memory and PMS
// records with the used flag clear decode to the zero Channel.
func (r *Radio) decodeChannel(i, base int) Channel {
	ch := r.record(base, i)

	if !ch.used() && (base == offChannels || base == offPMS) {
		return Channel{}
	}

	var out Channel
	if base == offChannels {
		out.Name = r.decodeName(i)
	}

	out.RxHz = freqToHz(ch.rxfreq())
	out.TxHz = out.RxHz
	switch ch.duplex() {
	case duplexNeg:
		out.TxHz -= ch.offset() * 50000
	case duplexPos:
		out.TxHz += ch.offset() * 50000
	case duplexCross:
		out.TxHz = freqToHz(ch.txfreq())
	}

	switch ch.squelch() {
	case squelchTone:
		out.TxCTCS = tones.CTCSS[ch.tone()]
	case squelchTSQL:
		out.TxCTCS = tones.CTCSS[ch.tone()]
		out.RxCTCS = tones.CTCSS[ch.tone()]
	case squelchTSQLRev:
		out.TxCTCS = tones.CTCSS[ch.tone()]
		out.RxCTCS = -tones.CTCSS[ch.tone()]
	case squelchDTCS:
		out.TxDCS = tones.DCS[ch.dcs()]
		out.RxDCS = tones.DCS[ch.dcs()]
	case squelchDCS:
		out.TxDCS = tones.DCS[ch.dcs()]
	case squelchToneDCS:
		out.TxCTCS = tones.CTCSS[ch.tone()]
		out.RxDCS = tones.DCS[ch.dcs()]
	case squelchDCSTSQL:
		out.TxDCS = tones.DCS[ch.dcs()]
		out.RxCTCS = tones.CTCSS[ch.tone()]
	}

	out.Power = ch.power()
	out.Wide = !ch.narrow()
	out.IsAM = ch.isAM()
	out.Scan = r.scanMode(i)
	out.Step = ch.step()
	return out
}

// fillRecord writes the fields every record kind shares. The offset
// field counts 50 kHz steps; a delta that does not fit stores the
// absolute transmit frequency instead.
func fillRecord(ch record, rxMHz, txMHz float64, mode, tone, dcs, power int, wide, isAM bool) {
	hzToFreq(iround(rxMHz*1000000.0), ch.rxfreq())

	offsetMHz := txMHz - rxMHz
	ch.setOffset(0)
	ch.txfreq()[0], ch.txfreq()[1], ch.txfreq()[2] = 0, 0, 0
	switch {
	case offsetMHz == 0:
		ch.setDuplex(duplexSimplex)
	case offsetMHz > 0 && offsetMHz < 256*0.05:
		ch.setDuplex(duplexPos)
		ch.setOffset(iround(offsetMHz / 0.05))
	case offsetMHz < 0 && offsetMHz > -256*0.05:
		ch.setDuplex(duplexNeg)
		ch.setOffset(iround(-offsetMHz / 0.05))
	default:
		ch.setDuplex(duplexCross)
		hzToFreq(iround(txMHz*1000000.0), ch.txfreq())
	}
	ch.setUsed(rxMHz > 0)
	ch.setSquelch(mode)
	ch.setTone(tone)
	ch.setDCS(dcs)
	ch.setPower(power)
	ch.setNarrow(!wide)
	ch.setAM(isAM)
	if rxMHz >= 400 {
		ch.setStep(step12_5)
		ch[4] = ch[4]&0x3f | 1<<6
	} else {
		ch.setStep(step5)
		ch[4] &= 0x3f
	}
	ch[0] &^= 0x40
	ch[9] &= 0x7f
	ch[10] = 15
	ch[11] = 0
	ch[13], ch[14], ch[15] = 0, 0, 0
}

// setupChannel writes a memory channel, its scan mode and its name.
func (r *Radio) setupChannel(i int, name string, rxMHz, txMHz float64, mode, tone, dcs, power int, wide, isAM bool, scan int) {
	ch := r.record(offChannels, i)
	fillRecord(ch, rxMHz, txMHz, mode, tone, dcs, power, wide, isAM)
	r.setScanMode(i, scan)
	r.encodeName(i, name)
}

// homeSlot maps a band name to its home record index.
func homeSlot(band string) (int, bool) {
	for i, name := range bandName {
		if name == band {
			return i, true
		}
	}
	return 0, false
}

// setupHome writes the home channel of a band.
func (r *Radio) setupHome(slot int, rxMHz, txMHz float64, mode, tone, dcs, power int, wide, isAM bool) {
	ch := r.record(offHome, slot)
	fillRecord(ch, rxMHz, txMHz, mode, tone, dcs, power, wide, isAM)
}

// setupPMS writes one PMS pair; a zero lower bound clears the pair.
func (r *Radio) setupPMS(i int, lowerMHz, upperMHz float64) {
	lo := r.record(offPMS, i*2)
	hi := r.record(offPMS, i*2+1)
	if lowerMHz == 0 {
		lo.setUsed(false)
		hi.setUsed(false)
		return
	}
	hzToFreq(iround(lowerMHz*1000000.0), lo.rxfreq())
	lo.setUsed(true)
	hzToFreq(iround(upperMHz*1000000.0), hi.rxfreq())
	hi.setUsed(true)
}

// bank returns the membership bitmap of a bank.
func (r *Radio) bank(b int) []byte {
	off := offBanks + b*bankSize
	return r.image.Data()[off : off+bankSize]
}

// addToBank sets the membership bit of a 0-based channel index. The
// bitmap covers every channel; there is no capacity limit.
func (r *Radio) addToBank(bank, chanIndex int) {
	r.bank(bank)[chanIndex/8] |= 1 << (chanIndex & 7)
}

// bankMembers lists a bank's 1-based channel numbers.
func (r *Radio) bankMembers(b int) []int {
	data := r.bank(b)
	var members []int
	for n := 0; n < NumChannels; n++ {
		if data[n/8]&(1<<(n&7)) != 0 {
			members = append(members, n+1)
		}
	}
	return members
}

// haveBanks reports whether any bank has members.
func (r *Radio) haveBanks() bool {
	for b := 0; b < NumBanks; b++ {
		data := r.bank(b)
		for _, v := range data[:NumChannels/8] {
			if v != 0 {
				return true
			}
		}
	}
	return false
}

// clearChannels erases the whole channel table, names and scan flags.
func (r *Radio) clearChannels() {
	for i := 0; i < NumChannels; i++ {
		r.setupChannel(i, "", 0, 0, squelchOff, tones.DefaultTone, 0, powerHigh, true, false, scanNormal)
	}
}

// clearPMS erases the PMS table.
func (r *Radio) clearPMS() {
	for i := 0; i < NumPMS; i++ {
		r.setupPMS(i, 0, 0)
	}
}

// clearBanks erases all bank bitmaps.
func (r *Radio) clearBanks() {
	data := r.image.Data()
	for i := offBanks; i < offBanks+NumBanks*bankSize; i++ {
		data[i] = 0
	}
}

// validFrequency reports whether the receiver covers a frequency.
func validFrequency(mhz float64) bool {
	m := int(mhz)
	if m >= 108 && m <= 520 {
		return true
	}
	if m >= 700 && m <= 999 {
		return true
	}
	return false
}
