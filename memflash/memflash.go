// Package memflash simulates NOR-style flash in memory: pages erase to
// all-ones, and writes can only clear bits. It backs the pagedir tests
// and works as a RAM-backed region for applications.
package memflash

import (
	"io"

	"github.com/pkg/errors"
)

// Device is a simulated flash chip.
type Device struct {
	buf      []byte
	pageSize int
}

// New returns a fully erased device of size bytes with the given erase
// page size. size must be a nonzero multiple of pageSize.
func New(size, pageSize int) (*Device, error) {
	if pageSize <= 0 || size <= 0 || size%pageSize != 0 {
		return nil, errors.Errorf("memflash: size %d is not a multiple of page size %d", size, pageSize)
	}

	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0xFF
	}
	return &Device{buf: buf, pageSize: pageSize}, nil
}

// Size returns the device size in bytes.
func (d *Device) Size() int { return len(d.buf) }

// PageSize returns the erase page size in bytes.
func (d *Device) PageSize() int { return d.pageSize }

func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(d.buf)) {
		return 0, io.EOF
	}

	n := copy(p, d.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt ANDs p into the existing bytes: bits transition 1→0 only, as
// on real flash. Restoring a bit takes an ErasePage.
func (d *Device) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(d.buf)) {
		return 0, io.EOF
	}
	if off+int64(len(p)) > int64(len(d.buf)) {
		return 0, io.ErrShortWrite
	}

	for i, b := range p {
		d.buf[off+int64(i)] &= b
	}
	return len(p), nil
}

// ErasePage resets the page containing addr to all-ones.
func (d *Device) ErasePage(addr int64) error {
	if addr < 0 || addr >= int64(len(d.buf)) {
		return errors.Errorf("memflash: erase address %#x out of range", addr)
	}

	start := addr - addr%int64(d.pageSize)
	for i := start; i < start+int64(d.pageSize); i++ {
		d.buf[i] = 0xFF
	}
	return nil
}
