package codec

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

// scriptRadio records every ParseRow/ParseParameter call so the driver
// state machine can be checked without a real model codec.
type scriptRadio struct {
	image  *Image
	rows   []string
	params []string
	fail   map[string]error
}

func newScriptRadio() *scriptRadio {
	return &scriptRadio{image: NewImage(64), fail: map[string]error{}}
}

func (s *scriptRadio) Name() string  { return "Test Radio" }
func (s *scriptRadio) Image() *Image { return s.image }
func (s *scriptRadio) Magic() string { return "TEST0$" }

func (s *scriptRadio) ParseHeader(line string) Table {
	switch {
	case HeaderMatches(line, "Channel"):
		return TableChannel
	case HeaderMatches(line, "Bank"):
		return TableBank
	}
	return TableNone
}

func (s *scriptRadio) ParseRow(table Table, firstRow bool, line string) error {
	if err, ok := s.fail[line]; ok {
		return err
	}
	s.rows = append(s.rows, fmt.Sprintf("%v/%v/%s", table, firstRow, line))
	return nil
}

func (s *scriptRadio) ParseParameter(name, value string) error {
	if err, ok := s.fail[name]; ok {
		return err
	}
	s.params = append(s.params, name+"="+value)
	return nil
}

func (s *scriptRadio) PrintConfig(w io.Writer, verbose bool) {}
func (s *scriptRadio) Channels() []ChannelInfo               { return nil }

func TestParseConfig(t *testing.T) {
	t.Run("Table State Machine", func(t *testing.T) {
		radio := newScriptRadio()
		input := `Radio: Test Radio

# comment
Channel Name Receive
  row1
  row2

row3 is noise outside any table: x
Bank Channels
  list1
`
		rejected, err := ParseConfig(strings.NewReader(input), radio)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(rejected) != 0 {
			t.Fatalf("Expected no rejected rows, got %v", rejected)
		}

		wantRows := []string{
			"Channel/true/row1",
			"Channel/false/row2",
			"Bank/true/list1",
		}
		if len(radio.rows) != len(wantRows) {
			t.Fatalf("rows = %v, want %v", radio.rows, wantRows)
		}
		for i := range wantRows {
			if radio.rows[i] != wantRows[i] {
				t.Errorf("row %d = %q, want %q", i, radio.rows[i], wantRows[i])
			}
		}

		// "row3 is noise outside any table: x" splits on the colon and
		// lands in ParseParameter.
		if len(radio.params) != 2 {
			t.Fatalf("params = %v, want Radio and the noise line", radio.params)
		}
		if radio.params[0] != "Radio=Test Radio" {
			t.Errorf("param 0 = %q", radio.params[0])
		}
	})

	t.Run("First Row Repeats After Error", func(t *testing.T) {
		radio := newScriptRadio()
		radio.fail["bad"] = errors.New("rejected")
		input := "Channel Name\nbad\ngood\n"

		rejected, err := ParseConfig(strings.NewReader(input), radio)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(rejected) != 1 {
			t.Fatalf("Expected 1 rejected row, got %v", rejected)
		}
		// The first successful row still counts as the first row, so
		// the bulk clear happens exactly once.
		if len(radio.rows) != 1 || radio.rows[0] != "Channel/true/good" {
			t.Errorf("rows = %v, want [Channel/true/good]", radio.rows)
		}
	})

	t.Run("Bank Capacity Is Fatal", func(t *testing.T) {
		radio := newScriptRadio()
		radio.fail["overflow"] = fmt.Errorf("bank 1: %w", ErrBankCapacity)
		input := "Bank Channels\noverflow\nnever\n"

		_, err := ParseConfig(strings.NewReader(input), radio)
		if !errors.Is(err, ErrBankCapacity) {
			t.Fatalf("Expected bank capacity error, got: %v", err)
		}
		if len(radio.rows) != 0 {
			t.Errorf("no rows should apply after a fatal error, got %v", radio.rows)
		}
	})

	t.Run("Unrecognized Line Is Collected", func(t *testing.T) {
		radio := newScriptRadio()
		rejected, err := ParseConfig(strings.NewReader("no colon here\n"), radio)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(rejected) != 1 || rejected[0].Line != 1 {
			t.Fatalf("Expected line 1 rejected, got %v", rejected)
		}
	})
}

func TestFormatOffset(t *testing.T) {
	cases := []struct {
		rx, tx      int
		canTransmit bool
		want        string
	}{
		{146940000, 146940000, true, "+0      "},
		{146940000, 146340000, true, "-0.600  "},
		{146940000, 147540000, true, "+0.600  "},
		{430000000, 435000000, true, "+5      "},
		{146940000, 446940000, true, " 446.9400"},
		{146940000, 146340000, false, " -      "},
	}
	for _, c := range cases {
		if got := FormatOffset(c.rx, c.tx, c.canTransmit); got != c.want {
			t.Errorf("FormatOffset(%d, %d, %v) = %q, want %q", c.rx, c.tx, c.canTransmit, got, c.want)
		}
	}
}

func TestFormatSquelch(t *testing.T) {
	cases := []struct {
		ctcs, dcs int
		want      string
	}{
		{0, 0, "   - "},
		{1000, 0, "100.0"},
		{885, 0, " 88.5"},
		{0, 23, "D023"},
	}
	for _, c := range cases {
		if got := FormatSquelch(c.ctcs, c.dcs); got != c.want {
			t.Errorf("FormatSquelch(%d, %d) = %q, want %q", c.ctcs, c.dcs, got, c.want)
		}
	}
}

func TestImageChecksum(t *testing.T) {
	img := NewImage(4)
	copy(img.Data(), []byte{1, 2, 3, 250})
	img.UpdateChecksum()

	if got := img.Data()[4]; got != 0 {
		t.Errorf("checksum = %d, want 0 (256 truncated)", got)
	}
	if err := img.VerifyChecksum(); err != nil {
		t.Errorf("VerifyChecksum: %v", err)
	}

	img.Data()[0]++
	if err := img.VerifyChecksum(); !errors.Is(err, ErrChecksum) {
		t.Errorf("expected ErrChecksum, got %v", err)
	}
}
