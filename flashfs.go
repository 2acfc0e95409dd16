package flashfs // import "github.com/keks/flashfs"

import (
	"io"
)

// Basic Types

// ReadWriterAt is both a ReaderAt and a WriterAt.
type ReadWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

// Device Layer

// Device is byte-addressable, page-erasable storage. Addresses are
// absolute device addresses.
//
// ErasePage resets the page containing addr to all-ones. After an erase,
// writes may only clear bits (1→0); rewriting a byte with different bits
// set is undefined on real flash, and the table layout never relies on it.
type Device interface {
	ReadWriterAt
	ErasePage(addr int64) error
}

// Directory Layer

// Entry is one directory record: a name, the file's content length in
// bytes, and the absolute address of the first content byte.
type Entry struct {
	Name string
	Size uint32
	Addr uint32
}
