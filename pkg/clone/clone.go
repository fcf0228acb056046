// Package clone moves memory images over the radio's clone-mode serial
// protocol. Both models send the image as a short handshake block
// followed by the bulk data and a trailing checksum byte; they differ
// in block sizes, acknowledge rules and pacing.
package clone

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/dougsko/yaesutool/pkg/logging"
	"github.com/dougsko/yaesutool/pkg/verbose"
)

const ack = 0x06

// chunkSize is the largest span moved in one serial transaction.
const chunkSize = 64

// ProgressFunc reports transfer progress in bytes.
type ProgressFunc func(transferred, total int)

// Session is an open clone-mode serial connection.
type Session struct {
	port        serial.Port
	readTimeout time.Duration
	progress    ProgressFunc

	// handshakeRetries bounds the wait for the opening block; zero
	// waits until the context expires.
	handshakeRetries int
}

// Open opens the serial port in 8N1 at the model's clone baud rate.
func Open(device string, baud int, readTimeout time.Duration) (*Session, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	logging.Infof("clone", "opened %s at %d baud", device, baud)
	return &Session{port: port, readTimeout: readTimeout}, nil
}

// Close releases the serial port.
func (s *Session) Close() error {
	return s.port.Close()
}

// OnProgress installs a transfer progress callback.
func (s *Session) OnProgress(fn ProgressFunc) {
	s.progress = fn
}

// SetHandshakeRetries bounds how many read timeouts waitForBlock
// tolerates before giving up. Each attempt lasts one read timeout.
func (s *Session) SetHandshakeRetries(n int) {
	s.handshakeRetries = n
}

func (s *Session) report(transferred, total int) {
	if s.progress != nil {
		s.progress(transferred, total)
	}
}

// readFull collects exactly len(buf) bytes or fails on a read timeout.
func (s *Session) readFull(ctx context.Context, buf []byte) error {
	got := 0
	for got < len(buf) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.port.Read(buf[got:])
		if err != nil {
			return fmt.Errorf("serial read: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("serial read: timeout after %d of %d bytes", got, len(buf))
		}
		got += n
	}
	return nil
}

// drain discards pending input before a transfer starts.
func (s *Session) drain() {
	s.port.ResetInputBuffer()
}

// sendAck sends an acknowledge byte and waits for the radio's.
func (s *Session) sendAck(ctx context.Context, start int) error {
	if _, err := s.port.Write([]byte{ack}); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	var reply [1]byte
	if err := s.readFull(ctx, reply[:]); err != nil {
		return fmt.Errorf("no acknowledge after block 0x%04x: %w", start, err)
	}
	if reply[0] != ack {
		return fmt.Errorf("bad acknowledge after block 0x%04x: %02x", start, reply[0])
	}
	return nil
}

// readBlock receives one logical block, in chunks of up to 64 bytes.
// needAck acknowledges each chunk, which the VX-2 wants only for its
// short handshake blocks.
func (s *Session) readBlock(ctx context.Context, start int, data []byte, needAck bool) error {
	for len(data) > 0 {
		nbytes := len(data)
		if nbytes > chunkSize {
			nbytes = chunkSize
		}
		if err := s.readFull(ctx, data[:nbytes]); err != nil {
			return fmt.Errorf("reading block 0x%04x: %w", start, err)
		}
		verbose.Dump("recv", data[:nbytes])
		if needAck {
			if err := s.sendAck(ctx, start); err != nil {
				return err
			}
		}
		logging.Debugf("clone", "read 0x%04x: %d bytes", start, nbytes)
		start += nbytes
		data = data[nbytes:]
	}
	return nil
}

// writeBlock sends one logical block and consumes the radio's echo,
// chunk by chunk. chunkDelay paces consecutive chunks.
func (s *Session) writeBlock(ctx context.Context, start int, data []byte, needAck bool, chunkDelay time.Duration) error {
	echo := make([]byte, chunkSize)
	first := true
	for len(data) > 0 {
		if !first && chunkDelay > 0 {
			time.Sleep(chunkDelay)
		}
		first = false

		nbytes := len(data)
		if nbytes > chunkSize {
			nbytes = chunkSize
		}
		if _, err := s.port.Write(data[:nbytes]); err != nil {
			return fmt.Errorf("serial write: %w", err)
		}
		verbose.Dump("send", data[:nbytes])
		// The clone cable loops TX back to RX.
		if err := s.readFull(ctx, echo[:nbytes]); err != nil {
			return fmt.Errorf("echo for block 0x%04x: %w", start, err)
		}
		if needAck {
			var reply [1]byte
			if err := s.readFull(ctx, reply[:]); err != nil {
				return fmt.Errorf("no acknowledge after block 0x%04x: %w", start, err)
			}
			if reply[0] != ack {
				return fmt.Errorf("bad acknowledge after block 0x%04x: %02x", start, reply[0])
			}
		}
		logging.Debugf("clone", "write 0x%04x: %d bytes", start, nbytes)
		start += nbytes
		data = data[nbytes:]
	}
	return nil
}

// waitForBlock retries the opening block until the radio starts to
// send or the context expires. The user triggers the transfer on the
// radio side, so the first read can fail for a long time.
func (s *Session) waitForBlock(ctx context.Context, start int, data []byte, needAck bool) error {
	attempts := 0
	for {
		err := s.readBlock(ctx, start, data, needAck)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		attempts++
		if s.handshakeRetries > 0 && attempts >= s.handshakeRetries {
			return fmt.Errorf("no data from the radio after %d attempts: %w", attempts, err)
		}
		logging.Debugf("clone", "waiting for data: %v", err)
	}
}
