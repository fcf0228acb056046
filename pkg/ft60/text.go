package ft60

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dougsko/yaesutool/pkg/codec"
	"github.com/dougsko/yaesutool/pkg/tones"
)

// ParseHeader matches a table header line by case-insensitive prefix.
// The FT-60 has no VFO table in the text format.
func (r *Radio) ParseHeader(line string) codec.Table {
	switch {
	case codec.HeaderMatches(line, "Channel"):
		return codec.TableChannel
	case codec.HeaderMatches(line, "Home"):
		return codec.TableHome
	case codec.HeaderMatches(line, "PMS"):
		return codec.TablePMS
	case codec.HeaderMatches(line, "Bank"):
		return codec.TableBank
	}
	return codec.TableNone
}

// ParseRow applies one data row of the given table.
func (r *Radio) ParseRow(table codec.Table, firstRow bool, line string) error {
	switch table {
	case codec.TableChannel:
		return r.parseChannel(firstRow, line)
	case codec.TableHome:
		return r.parseHome(line)
	case codec.TablePMS:
		return r.parsePMS(firstRow, line)
	case codec.TableBank:
		return r.parseBanks(firstRow, line)
	}
	return fmt.Errorf("unknown table %v", table)
}

// ParseParameter applies a scalar parameter line.
func (r *Radio) ParseParameter(name, value string) error {
	if strings.EqualFold(name, "Radio") {
		if !strings.EqualFold(value, r.Name()) {
			return fmt.Errorf("bad value for %s: %s", name, value)
		}
		return nil
	}
	return fmt.Errorf("unknown parameter: %s = %s", name, value)
}

// parseFrequencyPair reads the receive frequency and the transmit
// column, which is either "-" (simplex), a signed offset added to the
// receive frequency, or an absolute transmit frequency.
func parseFrequencyPair(rxStr, offStr string) (rxMHz, txMHz float64, err error) {
	rxMHz, err = strconv.ParseFloat(rxStr, 64)
	if err != nil || !validFrequency(rxMHz) {
		return 0, 0, fmt.Errorf("bad receive frequency %q", rxStr)
	}
	if offStr == "-" {
		return rxMHz, rxMHz, nil
	}
	txMHz, err = strconv.ParseFloat(offStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad transmit frequency %q", offStr)
	}
	if offStr[0] == '-' || offStr[0] == '+' {
		txMHz += rxMHz
	}
	if !validFrequency(txMHz) {
		return 0, 0, fmt.Errorf("bad transmit frequency %q", offStr)
	}
	return rxMHz, txMHz, nil
}

func parsePower(s string) (int, error) {
	switch {
	case strings.EqualFold(s, "High"):
		return powerHigh, nil
	case strings.EqualFold(s, "Mid"):
		return powerMid, nil
	case strings.EqualFold(s, "Low") || s == "-":
		return powerLow, nil
	}
	return 0, fmt.Errorf("bad power level %q", s)
}

func parseModulation(s string) (wide, isAM bool, err error) {
	switch {
	case strings.EqualFold(s, "Wide"):
		return true, false, nil
	case strings.EqualFold(s, "Narrow"):
		return false, false, nil
	case strings.EqualFold(s, "AM"):
		return true, true, nil
	}
	return false, false, fmt.Errorf("bad modulation %q", s)
}

func parseScan(s string) (int, error) {
	switch {
	case s[0] == '+':
		return scanNormal, nil
	case s[0] == '-':
		return scanSkip, nil
	case strings.EqualFold(s, "Only"):
		return scanPreferential, nil
	}
	return 0, fmt.Errorf("bad scan flag %q", s)
}

// parseChannel handles one memory channel row:
// number, name, rx, tx/offset, rx squelch, tx squelch, power,
// modulation, scan.
func (r *Radio) parseChannel(firstRow bool, line string) error {
	f, err := codec.Fields(line, 9)
	if err != nil {
		return err
	}
	num, err := strconv.Atoi(f[0])
	if err != nil || num < 1 || num > NumChannels {
		return fmt.Errorf("bad channel number %q", f[0])
	}
	rxMHz, txMHz, err := parseFrequencyPair(f[2], f[3])
	if err != nil {
		return err
	}
	mode, tone, dcs, err := encodeSquelch(f[4], f[5])
	if err != nil {
		return err
	}
	power, err := parsePower(f[6])
	if err != nil {
		return err
	}
	wide, isAM, err := parseModulation(f[7])
	if err != nil {
		return err
	}
	scan, err := parseScan(f[8])
	if err != nil {
		return err
	}

	if firstRow {
		r.clearChannels()
	}
	r.setupChannel(num-1, f[1], rxMHz, txMHz, mode, tone, dcs, power, wide, isAM, scan)
	return nil
}

// parseHome handles one home channel row:
// band, rx, tx/offset, rx squelch, tx squelch, power, modulation.
func (r *Radio) parseHome(line string) error {
	f, err := codec.Fields(line, 7)
	if err != nil {
		return err
	}
	slot, ok := homeSlot(f[0])
	if !ok {
		return fmt.Errorf("bad band name %q", f[0])
	}
	rxMHz, txMHz, err := parseFrequencyPair(f[1], f[2])
	if err != nil {
		return err
	}
	mode, tone, dcs, err := encodeSquelch(f[3], f[4])
	if err != nil {
		return err
	}
	power, err := parsePower(f[5])
	if err != nil {
		return err
	}
	wide, isAM, err := parseModulation(f[6])
	if err != nil {
		return err
	}

	r.setupHome(slot, rxMHz, txMHz, mode, tone, dcs, power, wide, isAM)
	return nil
}

// parsePMS handles one scan sub-band row: number, lower, upper.
func (r *Radio) parsePMS(firstRow bool, line string) error {
	f, err := codec.Fields(line, 3)
	if err != nil {
		return err
	}
	num, err := strconv.Atoi(f[0])
	if err != nil || num < 1 || num > NumPMS {
		return fmt.Errorf("bad PMS number %q", f[0])
	}
	lower, err := strconv.ParseFloat(f[1], 64)
	if err != nil || !validFrequency(lower) {
		return fmt.Errorf("bad lower frequency %q", f[1])
	}
	upper, err := strconv.ParseFloat(f[2], 64)
	if err != nil || !validFrequency(upper) {
		return fmt.Errorf("bad upper frequency %q", f[2])
	}

	if firstRow {
		r.clearPMS()
	}
	r.setupPMS(num-1, lower, upper)
	return nil
}

// parseBanks handles one bank row: number, channel list. The bitmap
// covers every channel, so unlike the slot-list models a bank cannot
// overflow.
func (r *Radio) parseBanks(firstRow bool, line string) error {
	f, err := codec.Fields(line, 2)
	if err != nil {
		return err
	}
	num, err := strconv.Atoi(f[0])
	if err != nil || num < 1 || num > NumBanks {
		return fmt.Errorf("bad bank number %q", f[0])
	}

	var members []int
	if err := codec.ParseRanges(f[1], NumChannels, func(cnum int) error {
		members = append(members, cnum)
		return nil
	}); err != nil {
		return err
	}

	if firstRow {
		r.clearBanks()
	}
	for _, cnum := range members {
		r.addToBank(num-1, cnum-1)
	}
	return nil
}

// PrintConfig writes the full text configuration.
func (r *Radio) PrintConfig(w io.Writer, verbose bool) {
	fmt.Fprintf(w, "Radio: %s\n", r.Name())

	fmt.Fprintf(w, "\n")
	if verbose {
		fmt.Fprintf(w, "# Table of preprogrammed channels.\n")
		fmt.Fprintf(w, "# 1) Channel number: 1-%d\n", NumChannels)
		fmt.Fprintf(w, "# 2) Name: up to 6 characters, no spaces\n")
		fmt.Fprintf(w, "# 3) Receive frequency in MHz\n")
		fmt.Fprintf(w, "# 4) Transmit frequency or +/- offset in MHz\n")
		fmt.Fprintf(w, "# 5) Squelch tone for receive, or '-' to disable\n")
		fmt.Fprintf(w, "# 6) Squelch tone for transmit, or '-' to disable\n")
		fmt.Fprintf(w, "# 7) Transmit power: High, Mid, Low\n")
		fmt.Fprintf(w, "# 8) Modulation: Wide, Narrow, AM\n")
		fmt.Fprintf(w, "# 9) Scan mode: +, -, Only\n")
		fmt.Fprintf(w, "#\n")
	}
	fmt.Fprintf(w, "Channel Name    Receive  Transmit R-Squel T-Squel Power Modulation Scan\n")
	for i := 0; i < NumChannels; i++ {
		ch := r.decodeChannel(i, offChannels)
		if ch.RxHz == 0 {
			// Channel is disabled.
			continue
		}
		name := ch.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%5d   %-7s %8.4f ", i+1, name, float64(ch.RxHz)/1000000.0)
		fmt.Fprintf(w, "%s %s   %s", codec.FormatOffset(ch.RxHz, ch.TxHz, true),
			codec.FormatSquelch(ch.RxCTCS, ch.RxDCS), codec.FormatSquelch(ch.TxCTCS, ch.TxDCS))
		fmt.Fprintf(w, "   %-4s  %-10s %s\n", powerName[ch.Power], modulationName(ch), scanName[ch.Scan])
	}
	if verbose {
		tones.PrintReference(w)
	}

	if r.haveBanks() {
		fmt.Fprintf(w, "\n")
		if verbose {
			fmt.Fprintf(w, "# Table of channel banks.\n")
			fmt.Fprintf(w, "# 1) Bank number: 1-%d\n", NumBanks)
			fmt.Fprintf(w, "# 2) List of channels: numbers and ranges (N-M) separated by comma\n")
			fmt.Fprintf(w, "#\n")
		}
		fmt.Fprintf(w, "Bank    Channels\n")
		for i := 0; i < NumBanks; i++ {
			if members := r.bankMembers(i); members != nil {
				fmt.Fprintf(w, "%4d    %s\n", i+1, codec.FormatRanges(members))
			}
		}
	}

	fmt.Fprintf(w, "\n")
	if verbose {
		fmt.Fprintf(w, "# Table of home frequencies.\n")
		fmt.Fprintf(w, "# 1) Band: %s\n", strings.Join(bandName, ", "))
		fmt.Fprintf(w, "# 2) Receive frequency in MHz\n")
		fmt.Fprintf(w, "# 3) Transmit frequency or +/- offset in MHz\n")
		fmt.Fprintf(w, "# 4) Squelch tone for receive, or '-' to disable\n")
		fmt.Fprintf(w, "# 5) Squelch tone for transmit, or '-' to disable\n")
		fmt.Fprintf(w, "# 6) Transmit power: High, Mid, Low\n")
		fmt.Fprintf(w, "# 7) Modulation: Wide, Narrow, AM\n")
		fmt.Fprintf(w, "#\n")
	}
	fmt.Fprintf(w, "Home    Receive  Transmit R-Squel T-Squel Power Modulation\n")
	for i := 0; i < len(bandName); i++ {
		ch := r.decodeChannel(i, offHome)
		fmt.Fprintf(w, "%5s   %8.4f ", bandName[i], float64(ch.RxHz)/1000000.0)
		fmt.Fprintf(w, "%s %s   %s", codec.FormatOffset(ch.RxHz, ch.TxHz, true),
			codec.FormatSquelch(ch.RxCTCS, ch.RxDCS), codec.FormatSquelch(ch.TxCTCS, ch.TxDCS))
		fmt.Fprintf(w, "   %-4s  %s\n", powerName[ch.Power], modulationName(ch))
	}

	fmt.Fprintf(w, "\n")
	if verbose {
		fmt.Fprintf(w, "# Programmable memory scan: list of sub-band limits.\n")
		fmt.Fprintf(w, "# 1) PMS pair number: 1-%d\n", NumPMS)
		fmt.Fprintf(w, "# 2) Lower frequency in MHz\n")
		fmt.Fprintf(w, "# 3) Upper frequency in MHz\n")
		fmt.Fprintf(w, "#\n")
	}
	fmt.Fprintf(w, "PMS     Lower    Upper\n")
	for i := 0; i < NumPMS; i++ {
		lower := r.decodeChannel(i*2, offPMS)
		upper := r.decodeChannel(i*2+1, offPMS)
		if lower.RxHz == 0 && upper.RxHz == 0 {
			continue
		}
		fmt.Fprintf(w, "%5d   ", i+1)
		if lower.RxHz == 0 {
			fmt.Fprintf(w, "-       ")
		} else {
			fmt.Fprintf(w, "%8.4f", float64(lower.RxHz)/1000000.0)
		}
		if upper.RxHz == 0 {
			fmt.Fprintf(w, " -\n")
		} else {
			fmt.Fprintf(w, " %8.4f\n", float64(upper.RxHz)/1000000.0)
		}
	}
}

func modulationName(ch Channel) string {
	switch {
	case ch.IsAM:
		return "AM"
	case ch.Wide:
		return "Wide"
	default:
		return "Narrow"
	}
}

// Channels returns the used memory channels in display form.
func (r *Radio) Channels() []codec.ChannelInfo {
	var out []codec.ChannelInfo
	for i := 0; i < NumChannels; i++ {
		ch := r.decodeChannel(i, offChannels)
		if ch.RxHz == 0 {
			continue
		}
		out = append(out, codec.ChannelInfo{
			Index:      i + 1,
			Name:       ch.Name,
			RxMHz:      float64(ch.RxHz) / 1000000.0,
			TxMHz:      float64(ch.TxHz) / 1000000.0,
			RxSquelch:  strings.TrimSpace(codec.FormatSquelch(ch.RxCTCS, ch.RxDCS)),
			TxSquelch:  strings.TrimSpace(codec.FormatSquelch(ch.TxCTCS, ch.TxDCS)),
			Power:      powerName[ch.Power],
			Modulation: modulationName(ch),
			Scan:       scanName[ch.Scan],
		})
	}
	return out
}
