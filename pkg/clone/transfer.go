package clone

import (
	"context"
	"time"

	"github.com/dougsko/yaesutool/pkg/codec"
	"github.com/dougsko/yaesutool/pkg/logging"
)

// Protocol describes one model's clone-mode framing: the baud rate,
// the handshake blocks sent before the bulk data, and whether the bulk
// transfer acknowledges each chunk.
type Protocol struct {
	Name string
	Baud int

	// Handshake block sizes at the start of the image. Each is a
	// separate acknowledged block.
	handshake []int

	// bulkAck acknowledges every bulk chunk; the VX-2 skips this.
	bulkAck bool

	// Pacing between upload blocks and chunks.
	blockDelay time.Duration
	chunkDelay time.Duration
	doneDelay  time.Duration
}

// FT60 sends an 8-byte opening block, then the image in acknowledged
// 64-byte blocks, then the checksum byte.
var FT60 = Protocol{
	Name:      "ft-60",
	Baud:      9600,
	handshake: []int{8},
	bulkAck:   true,
}

// VX2 sends two short acknowledged handshake blocks, then the rest of
// the image as one unacknowledged stream that needs pacing.
var VX2 = Protocol{
	Name:       "vx-2",
	Baud:       19200,
	handshake:  []int{10, 8},
	bulkAck:    false,
	blockDelay: 500 * time.Millisecond,
	chunkDelay: 60 * time.Millisecond,
	doneDelay:  200 * time.Millisecond,
}

func (p *Protocol) bulkStart() int {
	start := 0
	for _, n := range p.handshake {
		start += n
	}
	return start
}

// Download receives the full image from the radio. The first handshake
// block is awaited until the user starts the transfer on the radio.
// The stored checksum is verified before the image is accepted.
func (p *Protocol) Download(ctx context.Context, s *Session, img *codec.Image) error {
	data := img.Data()
	total := len(data)
	s.drain()

	addr := 0
	for i, n := range p.handshake {
		var err error
		if i == 0 {
			err = s.waitForBlock(ctx, addr, data[addr:addr+n], true)
		} else {
			err = s.readBlock(ctx, addr, data[addr:addr+n], true)
		}
		if err != nil {
			return err
		}
		addr += n
		s.report(addr, total)
	}

	if p.bulkAck {
		// Acknowledged 64-byte blocks, then the checksum byte.
		for ; addr < img.Size(); addr += chunkSize {
			if err := s.readBlock(ctx, addr, data[addr:addr+chunkSize], true); err != nil {
				return err
			}
			s.report(addr+chunkSize, total)
		}
		if err := s.readBlock(ctx, img.Size(), data[img.Size():], true); err != nil {
			return err
		}
	} else {
		if err := s.readBlock(ctx, addr, data[addr:], false); err != nil {
			return err
		}
	}
	s.report(total, total)

	if err := img.VerifyChecksum(); err != nil {
		return err
	}
	logging.Infof("clone", "downloaded %d bytes, checksum %02x", img.Size(), data[img.Size()])
	return nil
}

// Upload sends the full image to the radio, recomputing the checksum
// byte first.
func (p *Protocol) Upload(ctx context.Context, s *Session, img *codec.Image) error {
	img.UpdateChecksum()
	data := img.Data()
	total := len(data)
	s.drain()

	addr := 0
	for i, n := range p.handshake {
		if i > 0 && p.blockDelay > 0 {
			time.Sleep(p.blockDelay)
		}
		if err := s.writeBlock(ctx, addr, data[addr:addr+n], true, 0); err != nil {
			return err
		}
		addr += n
		s.report(addr, total)
	}

	if p.bulkAck {
		for ; addr < img.Size(); addr += chunkSize {
			if err := s.writeBlock(ctx, addr, data[addr:addr+chunkSize], true, 0); err != nil {
				return err
			}
			s.report(addr+chunkSize, total)
		}
		if err := s.writeBlock(ctx, img.Size(), data[img.Size():], true, 0); err != nil {
			return err
		}
	} else {
		if p.blockDelay > 0 {
			time.Sleep(p.blockDelay)
		}
		if err := s.writeBlock(ctx, addr, data[addr:], false, p.chunkDelay); err != nil {
			return err
		}
	}
	s.report(total, total)

	if p.doneDelay > 0 {
		time.Sleep(p.doneDelay)
	}
	logging.Infof("clone", "uploaded %d bytes, checksum %02x", img.Size(), data[img.Size()])
	return nil
}
