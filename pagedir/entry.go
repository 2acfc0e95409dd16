package pagedir

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"

	"github.com/keks/flashfs"
)

// On-media layout. The region starts with the magic header; directory
// entries are packed right after it, all within the first page:
//
//	offset   size  field
//	0        4     magic "FTAB"
//	H        1     BOF sentinel
//	H+1      W     name, space-padded
//	H+1+W    4     size, big-endian (erased until close)
//	H+5+W    4     content address, big-endian
//	H+9+W    1     EOF sentinel
//
// where H = len(magic) and W = the configured name width.
var magic = []byte("FTAB")

const (
	bofMarker = 0x02
	eofMarker = 0x03

	namePad = ' '
)

// sizeErased is the size field before close: the bytes are left in their
// erased all-ones state so the close-time write stays a 1→0 transition.
// It decodes as size 0.
const sizeErased = 0xFFFFFFFF

// entryWidth is the fixed record width for a given name width.
func entryWidth(nameWidth int) uint32 {
	return uint32(1 + nameWidth + 4 + 4 + 1)
}

// entry is a decoded directory record plus its own directory offset,
// which List callers don't need but the allocator and Close do.
type entry struct {
	flashfs.Entry
	off uint32
}

// sizeFieldOff is the offset of the size field within an entry.
func sizeFieldOff(nameWidth int) uint32 {
	return uint32(1 + nameWidth)
}

// encodeName pads name to width with spaces. Callers have already
// checked the length.
func encodeName(name string, width int) []byte {
	buf := make([]byte, width)
	copy(buf, name)
	for i := len(name); i < width; i++ {
		buf[i] = namePad
	}
	return buf
}

// decodeEntry parses one record. buf holds the full entryWidth bytes,
// BOF included; the caller has already matched the BOF byte.
func decodeEntry(buf []byte, nameWidth int) (flashfs.Entry, error) {
	if buf[len(buf)-1] != eofMarker {
		return flashfs.Entry{}, errors.Wrap(flashfs.ErrCorruptEntry, "missing EOF sentinel")
	}

	name := strings.TrimRight(string(buf[1:1+nameWidth]), string(namePad))

	size := binary.BigEndian.Uint32(buf[1+nameWidth:])
	if size == sizeErased {
		// never finalized; a crash between create and close leaves this
		size = 0
	} else if size&(1<<31) != 0 {
		return flashfs.Entry{}, errors.Wrapf(flashfs.ErrCorruptEntry, "size field out of range: %#x", size)
	}

	addr := binary.BigEndian.Uint32(buf[5+nameWidth:])
	if addr&(1<<31) != 0 {
		return flashfs.Entry{}, errors.Wrapf(flashfs.ErrCorruptEntry, "address field out of range: %#x", addr)
	}

	return flashfs.Entry{Name: name, Size: size, Addr: addr}, nil
}
