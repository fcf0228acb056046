package clone

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.bug.st/serial"
)

// scriptPort is an in-memory serial.Port whose reads are scripted.
// A nil read step models one read timeout.
type scriptPort struct {
	reads [][]byte
}

func (p *scriptPort) Read(buf []byte) (int, error) {
	if len(p.reads) == 0 {
		return 0, nil
	}
	step := p.reads[0]
	p.reads = p.reads[1:]
	if step == nil {
		return 0, nil
	}
	return copy(buf, step), nil
}

func (p *scriptPort) Write(buf []byte) (int, error)        { return len(buf), nil }
func (p *scriptPort) Close() error                         { return nil }
func (p *scriptPort) Drain() error                         { return nil }
func (p *scriptPort) ResetInputBuffer() error              { return nil }
func (p *scriptPort) ResetOutputBuffer() error             { return nil }
func (p *scriptPort) SetMode(mode *serial.Mode) error      { return nil }
func (p *scriptPort) SetDTR(dtr bool) error                { return nil }
func (p *scriptPort) SetRTS(rts bool) error                { return nil }
func (p *scriptPort) SetReadTimeout(t time.Duration) error { return nil }
func (p *scriptPort) Break(d time.Duration) error          { return nil }
func (p *scriptPort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}

func TestWaitForBlock(t *testing.T) {
	t.Run("Gives Up After Retry Limit", func(t *testing.T) {
		s := &Session{port: &scriptPort{}}
		s.SetHandshakeRetries(3)

		err := s.waitForBlock(context.Background(), 0, make([]byte, 8), false)
		if err == nil {
			t.Fatal("Expected an error after the retry limit, got nil")
		}
		if !strings.Contains(err.Error(), "after 3 attempts") {
			t.Errorf("Expected the attempt count in the error, got: %v", err)
		}
	})

	t.Run("Succeeds Within Retry Limit", func(t *testing.T) {
		block := []byte{0x41, 0x48, 0x30, 0x31, 0x37, 0x24, 0x00, 0x00}
		s := &Session{port: &scriptPort{reads: [][]byte{nil, nil, block}}}
		s.SetHandshakeRetries(5)

		buf := make([]byte, len(block))
		if err := s.waitForBlock(context.Background(), 0, buf, false); err != nil {
			t.Fatalf("Expected the block within 5 attempts, got: %v", err)
		}
		if string(buf) != string(block) {
			t.Errorf("Block = % x, want % x", buf, block)
		}
	})

	t.Run("Unbounded Wait Stops On Cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s := &Session{port: &scriptPort{}}
		err := s.waitForBlock(ctx, 0, make([]byte, 8), false)
		if err != context.Canceled {
			t.Errorf("Expected context.Canceled, got: %v", err)
		}
	})
}
