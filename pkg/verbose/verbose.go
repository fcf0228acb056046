// Package verbose provides opt-in byte-level tracing of clone-mode
// serial traffic.
package verbose

import (
	"fmt"
	"log"
	"strings"
)

var enabled bool

// SetEnabled sets the global serial trace flag
func SetEnabled(enable bool) {
	enabled = enable
}

// IsEnabled returns whether serial tracing is enabled
func IsEnabled() bool {
	return enabled
}

// Printf prints a trace message if serial tracing is enabled
func Printf(format string, args ...interface{}) {
	if enabled {
		log.Printf("[SERIAL] "+format, args...)
	}
}

// Dump prints a hex dump of one serial transaction if tracing is
// enabled. dir is a short direction tag such as "send" or "recv".
func Dump(dir string, data []byte) {
	if !enabled {
		return
	}
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		var hex strings.Builder
		for _, b := range data[off:end] {
			fmt.Fprintf(&hex, " %02x", b)
		}
		log.Printf("[SERIAL] %s %04x:%s", dir, off, hex.String())
	}
}
