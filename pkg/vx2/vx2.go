// Package vx2 implements the memory image codec for the Yaesu VX-2R
// and VX-2E handhelds.
//
// The image is 32594 bytes plus a trailing checksum byte. Memory
// channels are 18-byte bit-packed records; validity and scan flags live
// in a separate nibble table; bank membership is an explicit big-endian
// index list of up to 100 entries per bank.
package vx2

import (
	"fmt"

	"github.com/dougsko/yaesutool/pkg/codec"
	"github.com/dougsko/yaesutool/pkg/tones"
)

const (
	// NumChannels is the number of regular memory channels.
	NumChannels = 1000
	// NumBanks is the number of memory banks.
	NumBanks = 20
	// NumPMS is the number of programmable memory scan pairs.
	NumPMS = 50
	// NumBands is the number of home/VFO band slots (1-11 in text form).
	NumBands = 11

	// MemSize is the image payload size, excluding the checksum byte.
	MemSize = 32594

	magic = "AH015$"

	recordSize = 18

	offBankUse1  = 0x005a // 0xffff while all banks are unused
	offBankUse2  = 0x00da
	offBankCount = 0x016a // per bank: big-endian member count minus one, 0xffff when empty
	offHome      = 0x03d2 // 12 home channels
	offVFO       = 0x04e2 // 12 VFO channels
	offBanks     = 0x05c2 // 20 banks, 100 big-endian channel indices each
	offFlags     = 0x1562 // four flag bits per channel
	offChannels  = 0x17c2 // 1000 memory channels
	offPMS       = 0x5e12 // 50 programmable memory scan pairs
)

const (
	bankSlots = 100
	bankSize  = bankSlots * 2
)

// charset is the 42-symbol name alphabet; index 36 is space.
const charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ +-/[]"
const charSpace = 36

// Duplex direction of the repeater offset.
const (
	duplexSimplex = 0
	duplexNeg     = 1
	duplexPos     = 2
	duplexCross   = 3
)

// CTCSS/DCS squelch mode.
const (
	squelchOff  = 0
	squelchTone = 1
	squelchTSQL = 2
	squelchDTCS = 3
)

// Transmit power codes. The radio stores two spellings of each level.
const (
	powerHigh = 0
	powerLow  = 3
)

// Modulation codes.
const (
	modFM = iota
	modAM
	modWFM
	modAuto
	modNFM // stored as FM with the narrow flag set
)

// Tuning step codes for VFO and Home channels.
const (
	step5 = iota
	step10
	step12_5
	step15
	step20
	step25
	step50
	step100
	step9 // MW band
)

// Scan modes derived from the flag nibble.
const (
	scanNormal       = 0
	scanSkip         = 1
	scanPreferential = 2
)

// Per-channel flag bits, stored four per channel in the flag table.
const (
	flagUnmasked = 1
	flagValid    = 2
	flagSkip     = 4
	flagPSkip    = 8
)

var powerName = []string{"High", "Low", "High", "Low"}
var scanName = []string{"+", "-", "Only", "??"}
var modName = []string{"FM", "AM", "WFM", "Auto", "NFM"}
var stepName = []string{"5", "10", "12.5", "15", "20", "25", "50", "100", "9"}

// Radio is the VX-2 codec session.
type Radio struct {
	image *codec.Image
}

// New creates a VX-2 session with a zeroed image.
func New() *Radio {
	return &Radio{image: codec.NewImage(MemSize)}
}

// Name returns the model name used in the Radio: parameter.
func (r *Radio) Name() string { return "Yaesu VX-2" }

// Image returns the session memory image.
func (r *Radio) Image() *codec.Image { return r.image }

// Magic returns the image identity prefix.
func (r *Radio) Magic() string { return magic }

// record is one 18-byte channel span. Field extraction is explicit
// masked arithmetic; the layout must not depend on compiler bit fields.
type record []byte

func (r *Radio) record(base, i int) record {
	off := base + i*recordSize
	return record(r.image.Data()[off : off+recordSize])
}

func (c record) narrow() bool    { return c[0]&0x20 != 0 }
func (c record) step() int       { return int(c[1] & 0x0f) }
func (c record) duplex() int     { return int(c[1]>>4) & 3 }
func (c record) amfm() int       { return int(c[1] >> 6) }
func (c record) rxfreq() []byte  { return c[2:5] }
func (c record) squelch() int    { return int(c[5] & 3) }
func (c record) power() int      { return int(c[5] >> 6) }
func (c record) name() []byte    { return c[6:12] }
func (c record) offset() []byte  { return c[12:15] }
func (c record) tone() int       { return int(c[15] & 0x3f) }
func (c record) dcs() int        { return int(c[16] & 0x7f) }

func (c record) setNarrow(v bool) {
	c[0] &^= 0x20
	if v {
		c[0] |= 0x20
	}
}

func (c record) setStep(v int)    { c[1] = c[1]&0xf0 | byte(v&0x0f) }
func (c record) setDuplex(v int)  { c[1] = c[1]&^0x30 | byte(v&3)<<4 }
func (c record) setAmFm(v int)    { c[1] = c[1]&0x3f | byte(v&3)<<6 }
func (c record) setSquelch(v int) { c[5] = c[5]&^0x03 | byte(v&3) }
func (c record) setPower(v int)   { c[5] = c[5]&0x3f | byte(v&3)<<6 }
func (c record) setTone(v int)    { c[15] = c[15]&0xc0 | byte(v&0x3f) }
func (c record) setDCS(v int)     { c[16] = c[16]&0x80 | byte(v&0x7f) }

// bandCode returns the undocumented byte-0 low nibble the radio keeps
// per band; re-uploaded images fail to tune without it.
func bandCode(rxMHz float64) byte {
	switch {
	case rxMHz < 1.8:
		return 2
	case rxMHz < 88:
		return 0
	default:
		return 5
	}
}

// freqToHz unpacks a 3-byte BCD frequency. Six decimal digits scale by
// 1 kHz; a last digit of 2 or 7 carries an extra 500 Hz.
func freqToHz(bcd []byte) int {
	a := int(bcd[0] >> 4)
	b := int(bcd[0] & 15)
	c := int(bcd[1] >> 4)
	d := int(bcd[1] & 15)
	e := int(bcd[2] >> 4)
	f := int(bcd[2] & 15)
	hz := (((((a*10+b)*10+c)*10+d)*10+e)*10 + f) * 1000

	if f == 2 || f == 7 {
		hz += 500
	}
	return hz
}

// hzToFreq packs a frequency into 3-byte BCD. Zero means unset and is
// stored as the 0xff sentinel.
func hzToFreq(hz int, bcd []byte) {
	if hz == 0 {
		bcd[0], bcd[1], bcd[2] = 0xff, 0xff, 0xff
		return
	}
	bcd[0] = byte(hz/100000000%10)<<4 | byte(hz/10000000%10)
	bcd[1] = byte(hz/1000000%10)<<4 | byte(hz/100000%10)
	bcd[2] = byte(hz/10000%10)<<4 | byte(hz/1000%10)
}

func iround(x float64) int {
	if x >= 0 {
		return int(x + 0.5)
	}
	return -int(-x + 0.5)
}

// flags returns the 4-bit flag nibble for a channel. PMS entries follow
// the 1000 regular channels in the flag table.
func (r *Radio) flags(i int) int {
	f := int(r.image.Data()[offFlags+i/2])
	if i&1 != 0 {
		f >>= 4
	}
	return f & 0xf
}

func (r *Radio) setFlags(i, flags int) {
	p := &r.image.Data()[offFlags+i/2]
	shift := (i & 1) * 4
	*p &^= 0xf << shift
	*p |= byte(flags << shift)
}

// decodeName extracts a channel name. A lead byte outside the charset
// leaves the name empty. Spaces come back as underscores with the
// trailing run stripped.
func decodeName(internal []byte) string {
	if int(internal[0]&0x7f) >= len(charset) {
		return ""
	}
	var name [6]byte
	for n := 0; n < 6; n++ {
		c := int(internal[n] & 0x7f)
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
// letters are uppercased, anything unknown becomes space.
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
	return charSpace
}

// encodeName stores a channel name. Empty or "-" clears it to spaces.
// The display bit on the lead byte is set for non-blank names.
func encodeName(internal []byte, name string) {
	if name == "" || name == "-" {
		name = "      "
	}
	n := 0
	for ; n < 6 && n < len(name); n++ {
		internal[n] = encodeChar(name[n])
	}
	for ; n < 6; n++ {
		internal[n] = charSpace
	}
	if internal[0] != charSpace {
		internal[0] |= 0x80
	}
}

// encodeSquelch classifies the receive and transmit squelch specs and
// combines them into the mode the radio stores. The VX-2 knows tone,
// tone squelch and DCS; DCS is keyed off the transmit column only.
func encodeSquelch(rx, tx string) (mode, tone, dcs int, err error) {
	rxTone, txTone, txDCS := -1, -1, -1

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
	if len(rx) > 0 && rx[0] >= '0' && rx[0] <= '9' {
		idx, ok := tones.ToneIndex(rx)
		if !ok {
			return 0, 0, 0, fmt.Errorf("unsupported tone %q", rx)
		}
		rxTone = idx
	}

	tone = tones.DefaultTone
	dcs = 0
	switch {
	case txDCS >= 0:
		return squelchDTCS, tone, txDCS, nil
	case txTone >= 0 && rxTone >= 0:
		return squelchTSQL, txTone, dcs, nil
	case txTone >= 0:
		return squelchTone, txTone, dcs, nil
	default:
		return squelchOff, tone, dcs, nil
	}
}

// Channel is a fully decoded channel, home, VFO or PMS record.
type Channel struct {
	RxHz   int
	TxHz   int
	RxCTCS int // tenths of Hz, 0 when off
	TxCTCS int
	RxDCS  int // code, 0 when off
	TxDCS  int
	Power  int
	Scan   int
	AmFm   int
	Step   int
	Name   string
}

// decodeChannel extracts a record from the given table. Memory and PMS
// records with the valid flag clear decode to the zero Channel.
func (r *Radio) decodeChannel(i, base int) Channel {
	ch := r.record(base, i)

	if base == offChannels || base == offPMS {
		fi := i
		if base == offPMS {
			fi += NumChannels
		}
		if r.flags(fi)&flagValid == 0 {
			return Channel{}
		}
	}

	var out Channel
	if base == offChannels {
		out.Name = decodeName(ch.name())
	}

	out.RxHz = freqToHz(ch.rxfreq())
	out.TxHz = out.RxHz
	switch ch.duplex() {
	case duplexNeg:
		out.TxHz -= freqToHz(ch.offset())
	case duplexPos:
		out.TxHz += freqToHz(ch.offset())
	case duplexCross:
		out.TxHz = freqToHz(ch.offset())
	}

	switch ch.squelch() {
	case squelchTone:
		out.TxCTCS = tones.CTCSS[ch.tone()]
	case squelchTSQL:
		out.TxCTCS = tones.CTCSS[ch.tone()]
		out.RxCTCS = tones.CTCSS[ch.tone()]
	case squelchDTCS:
		out.TxDCS = tones.DCS[ch.dcs()]
		out.RxDCS = tones.DCS[ch.dcs()]
	}

	out.Power = ch.power()
	out.Step = ch.step()
	if ch.narrow() {
		out.AmFm = modNFM
	} else {
		out.AmFm = ch.amfm()
	}
	if base == offChannels || base == offPMS {
		fi := i
		if base == offPMS {
			fi += NumChannels
		}
		switch f := r.flags(fi); {
		case f&flagPSkip != 0:
			out.Scan = scanPreferential
		case f&flagSkip != 0:
			out.Scan = scanSkip
		}
	}
	return out
}

// fillRecord writes the fields every record kind shares: frequency pair
// with derived duplex, squelch, and the spare bytes the radio expects.
func fillRecord(ch record, rxMHz, txMHz float64, mode, tone, dcs, power, amfm, step int) {
	hzToFreq(iround(rxMHz*1000000.0), ch.rxfreq())

	offsetKHz := iround((txMHz - rxMHz) * 1000.0)
	ch.offset()[0], ch.offset()[1], ch.offset()[2] = 0, 0, 0
	switch {
	case offsetKHz == 0:
		ch.setDuplex(duplexSimplex)
	case offsetKHz > 0 && offsetKHz < 100000:
		ch.setDuplex(duplexPos)
		hzToFreq(offsetKHz*1000, ch.offset())
	case offsetKHz < 0 && -offsetKHz < 100000:
		ch.setDuplex(duplexNeg)
		hzToFreq(-offsetKHz*1000, ch.offset())
	default:
		ch.setDuplex(duplexCross)
		hzToFreq(iround(txMHz*1000000.0), ch.offset())
	}
	ch.setSquelch(mode)
	ch.setTone(tone)
	ch.setDCS(dcs)
	ch.setPower(power)
	ch.setNarrow(amfm == modNFM)
	ch.setAmFm(amfm)
	ch.setStep(step)
	ch[0] = ch[0]&0x20 | bandCode(rxMHz) // clears clk and the spare bits
	ch[5] &= 0xc3
	ch[15] &= 0x3f
	ch[16] &= 0x7f
	ch[17] = 0
}

// setupChannel writes a memory channel and its flag nibble.
func (r *Radio) setupChannel(i int, name string, rxMHz, txMHz float64, mode, tone, dcs, power, scan, amfm int) {
	ch := r.record(offChannels, i)
	fillRecord(ch, rxMHz, txMHz, mode, tone, dcs, power, amfm, step12_5)
	encodeName(ch.name(), name)

	flags := flagValid | flagUnmasked
	switch scan {
	case scanSkip:
		flags |= flagSkip
	case scanPreferential:
		flags |= flagPSkip
	}
	r.setFlags(i, flags)
}

// bandSlot maps a 1-11 text band number to its record index; internal
// slot 4 is unused by the radio.
func bandSlot(band int) int {
	if band <= 4 {
		return band - 1
	}
	return band
}

// setupHome writes a home channel for a band.
func (r *Radio) setupHome(band int, rxMHz, txMHz float64, mode, tone, dcs, power, amfm, step int) {
	ch := r.record(offHome, bandSlot(band))
	fillRecord(ch, rxMHz, txMHz, mode, tone, dcs, power, amfm, step)
	encodeName(ch.name(), "      ")
}

// setupVFO writes a VFO channel for a band.
func (r *Radio) setupVFO(band int, rxMHz, txMHz float64, mode, tone, dcs, power, amfm, step int) {
	ch := r.record(offVFO, bandSlot(band))
	fillRecord(ch, rxMHz, txMHz, mode, tone, dcs, power, amfm, step)
	encodeName(ch.name(), "      ")
}

// setupPMS writes one PMS bound and marks it valid.
func (r *Radio) setupPMS(i int, mhz float64) {
	ch := r.record(offPMS, i)
	fillRecord(ch, mhz, mhz, squelchOff, 0, 0, powerHigh, modFM, step12_5)
	ch.setTone(0)
	encodeName(ch.name(), "      ")
	r.setFlags(NumChannels+i, flagValid|flagUnmasked)
}

// bank returns the explicit member list backing store of a bank.
func (r *Radio) bank(b int) []byte {
	off := offBanks + b*bankSize
	return r.image.Data()[off : off+bankSize]
}

// addToBank appends a 0-based channel index to the first free slot of a
// bank. Overflow past the 100 fixed slots is fatal: dropping members
// silently would corrupt the remaining list.
func (r *Radio) addToBank(bank, chanIndex int) error {
	data := r.bank(bank)
	for n := 0; n < bankSlots; n++ {
		if data[n*2] == 0xff && data[n*2+1] == 0xff {
			data[n*2] = byte(chanIndex >> 8)
			data[n*2+1] = byte(chanIndex)
			return nil
		}
	}
	return fmt.Errorf("bank %d: %w", bank+1, codec.ErrBankCapacity)
}

// bankMembers lists a bank's 1-based channel numbers, or nil for an
// unused bank.
func (r *Radio) bankMembers(b int) []int {
	data := r.image.Data()
	count := int(data[offBankCount+b*2])<<8 | int(data[offBankCount+b*2+1])
	if count >= bankSlots {
		return nil
	}
	list := r.bank(b)
	members := make([]int, 0, count+1)
	for n := 0; n <= count; n++ {
		members = append(members, 1+(int(list[n*2])<<8|int(list[n*2+1])))
	}
	return members
}

// setBankCount stores the member count (minus one) and clears the
// banks-unused markers.
func (r *Radio) setBankCount(b, nchan int) {
	data := r.image.Data()
	data[offBankCount+b*2] = byte((nchan - 1) >> 8)
	data[offBankCount+b*2+1] = byte(nchan - 1)
	if nchan > 0 {
		data[offBankUse1], data[offBankUse1+1] = 0, 0
		data[offBankUse2], data[offBankUse2+1] = 0, 0
	}
}

// banksInUse reports whether any bank has members.
func (r *Radio) banksInUse() bool {
	data := r.image.Data()
	return !(data[offBankUse1] == 0xff && data[offBankUse1+1] == 0xff &&
		data[offBankUse2] == 0xff && data[offBankUse2+1] == 0xff)
}

// clearChannels erases the whole channel table and its flags.
func (r *Radio) clearChannels() {
	data := r.image.Data()
	for i := offChannels; i < offChannels+NumChannels*recordSize; i++ {
		data[i] = 0xff
	}
	for i := 0; i < NumChannels/2; i++ {
		data[offFlags+i] = 0
	}
}

// clearPMS erases the PMS table and its flags.
func (r *Radio) clearPMS() {
	data := r.image.Data()
	for i := offPMS; i < offPMS+NumPMS*2*recordSize; i++ {
		data[i] = 0xff
	}
	for i := 0; i < NumPMS; i++ {
		data[offFlags+NumChannels/2+i] = 0
	}
}

// clearBanks erases all bank lists and restores the unused markers.
func (r *Radio) clearBanks() {
	data := r.image.Data()
	for i := offBanks; i < offBanks+NumBanks*bankSize; i++ {
		data[i] = 0xff
	}
	for i := 0; i < NumBanks*2; i++ {
		data[offBankCount+i] = 0xff
	}
	data[offBankUse1], data[offBankUse1+1] = 0xff, 0xff
	data[offBankUse2], data[offBankUse2+1] = 0xff, 0xff
}

// validFrequency reports whether the receiver covers a frequency.
func validFrequency(mhz float64) bool {
	return mhz >= 0.5 && mhz <= 999
}
