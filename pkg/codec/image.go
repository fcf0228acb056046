// Package codec holds the model-independent pieces of the memory image
// codec: the image session buffer, the per-model radio interface, the
// text table parse driver and the shared display formatting.
package codec

import (
	"fmt"
	"os"
)

// Image is a radio memory dump owned by one clone session. The buffer
// holds the full device image plus a trailing 8-bit checksum byte.
type Image struct {
	data []byte
}

// NewImage allocates an image of the given payload size. One extra byte
// is reserved for the checksum.
func NewImage(size int) *Image {
	return &Image{data: make([]byte, size+1)}
}

// Data returns the raw buffer including the checksum byte.
func (im *Image) Data() []byte {
	return im.data
}

// Size returns the payload size, excluding the checksum byte.
func (im *Image) Size() int {
	return len(im.data) - 1
}

// Sum computes the 8-bit checksum: the unsigned sum of all payload
// bytes, truncated to one byte.
func (im *Image) Sum() byte {
	var sum int
	for _, b := range im.data[:im.Size()] {
		sum += int(b)
	}
	return byte(sum)
}

// UpdateChecksum recomputes the checksum into the final byte.
func (im *Image) UpdateChecksum() {
	im.data[im.Size()] = im.Sum()
}

// VerifyChecksum checks the stored checksum byte against the payload.
func (im *Image) VerifyChecksum() error {
	want := im.data[im.Size()]
	if got := im.Sum(); got != want {
		return fmt.Errorf("%w: computed %02x, stored %02x", ErrChecksum, got, want)
	}
	return nil
}

// HasMagic reports whether the image starts with the given identity
// string.
func (im *Image) HasMagic(magic string) bool {
	if len(im.data) < len(magic) {
		return false
	}
	return string(im.data[:len(magic)]) == magic
}

// Load reads an image from a file. The file may carry the trailing
// checksum byte or not; when it is absent the checksum is recomputed.
func (im *Image) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	switch len(data) {
	case len(im.data):
		copy(im.data, data)
	case im.Size():
		copy(im.data, data)
		im.UpdateChecksum()
	default:
		return fmt.Errorf("image %s: wrong size %d bytes, want %d", path, len(data), im.Size())
	}
	return nil
}

// Save writes the image, checksum included, to a file.
func (im *Image) Save(path string) error {
	im.UpdateChecksum()
	if err := os.WriteFile(path, im.data, 0644); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}
