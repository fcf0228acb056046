package codec

import (
	"errors"
	"io"
)

// Table identifies one of the text configuration tables.
type Table int

const (
	TableNone Table = iota
	TableChannel
	TableHome
	TableVFO
	TablePMS
	TableBank
)

// String returns the table header name.
func (t Table) String() string {
	switch t {
	case TableChannel:
		return "Channel"
	case TableHome:
		return "Home"
	case TableVFO:
		return "VFO"
	case TablePMS:
		return "PMS"
	case TableBank:
		return "Bank"
	default:
		return "None"
	}
}

// Sentinel errors shared by the model codecs and the transport.
var (
	// ErrChecksum reports an image whose stored checksum byte does not
	// match the computed sum.
	ErrChecksum = errors.New("bad checksum")

	// ErrBankCapacity reports a bank given more members than its fixed
	// backing store holds. It is fatal to the whole parse: silently
	// truncating would corrupt later bank membership.
	ErrBankCapacity = errors.New("too many channels in bank")
)

// ChannelInfo is a display-ready memory channel, shared by the HTTP
// daemon and anything else that wants decoded records without knowing
// the model's bit layout. Frequencies are in MHz, squelch columns in
// their text spellings.
type ChannelInfo struct {
	Index      int     `json:"index"`
	Name       string  `json:"name,omitempty"`
	RxMHz      float64 `json:"rx_mhz"`
	TxMHz      float64 `json:"tx_mhz"`
	RxSquelch  string  `json:"rx_squelch"`
	TxSquelch  string  `json:"tx_squelch"`
	Power      string  `json:"power"`
	Modulation string  `json:"modulation"`
	Scan       string  `json:"scan"`
}

// Radio is the codec capability surface implemented once per supported
// model. Implementations own their Image and perform no I/O beyond it.
type Radio interface {
	// Name returns the model name as spelled in the Radio: parameter.
	Name() string

	// Image returns the session memory image.
	Image() *Image

	// Magic returns the identity prefix stored at offset 0 of a dump.
	Magic() string

	// ParseHeader matches a table header line, case-insensitively, by
	// prefix. TableNone means the line is not a header this model knows.
	ParseHeader(line string) Table

	// ParseRow applies one data row to the image. firstRow is set until
	// the first row of the table parses cleanly; the implementation
	// must bulk-clear the table's backing store exactly then. A row
	// either fully applies or returns an error without partial writes.
	ParseRow(table Table, firstRow bool, line string) error

	// ParseParameter applies a scalar "Name: value" line.
	ParseParameter(name, value string) error

	// PrintConfig writes the full text configuration. Verbose mode adds
	// comment blocks describing each table.
	PrintConfig(w io.Writer, verbose bool)

	// Channels returns the used memory channels in display form,
	// 1-based and in index order.
	Channels() []ChannelInfo
}
