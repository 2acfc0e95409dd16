package pagedir

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/keks/flashfs"
)

type accessMode uint8

const (
	modeRead accessMode = iota
	modeWrite
)

// File is a cursor over one directory entry's content span. The mode is
// fixed at open; read handles read and seek, write handles write and
// skip. After Close every operation fails with ErrClosed.
type File struct {
	r *Region

	name   string
	size   uint32 // entry size; meaningful in read mode only
	addr   uint32
	dirOff uint32

	mode   accessMode
	cursor int64 // absolute device address
	closed bool
}

// Name returns the file's directory name.
func (f *File) Name() string { return f.name }

// Size returns the recorded content length for read handles, and the
// number of bytes written so far for write handles.
func (f *File) Size() uint32 {
	if f.mode == modeWrite {
		return uint32(f.cursor - int64(f.addr))
	}
	return f.size
}

func (f *File) check(mode accessMode) error {
	if f.closed {
		return flashfs.ErrClosed
	}
	if f.mode != mode {
		return errors.Wrapf(flashfs.ErrModeMismatch, "%q", f.name)
	}
	return nil
}

// Seek positions the cursor off bytes from the start of the content.
// Read mode only; off must lie in [0, size]. It returns the new position
// relative to content start.
func (f *File) Seek(off int64) (int64, error) {
	if err := f.check(modeRead); err != nil {
		return 0, err
	}
	if off < 0 || off > int64(f.size) {
		return 0, errors.Wrapf(flashfs.ErrWrongSeek, "%d not in [0, %d]", off, f.size)
	}
	f.cursor = int64(f.addr) + off
	return off, nil
}

// Skip advances the write cursor by n bytes without writing, to reserve
// space that will be filled later. Skipped bytes read back erased until
// written. Write mode only; n must not be negative and must not push the
// cursor past the region end.
func (f *File) Skip(n int64) error {
	if err := f.check(modeWrite); err != nil {
		return err
	}
	if n < 0 {
		return errors.Wrapf(flashfs.ErrWrongSeek, "negative skip %d", n)
	}
	if f.cursor+n > int64(f.r.end()) {
		return errors.Wrapf(flashfs.ErrInsufficientSpace, "skip %d at %#x", n, f.cursor)
	}
	f.cursor += n
	return nil
}

// Read fills p from the cursor, bounded by the recorded size, and
// advances the cursor. At end of content it returns (0, io.EOF). Read
// mode only.
func (f *File) Read(p []byte) (int, error) {
	if err := f.check(modeRead); err != nil {
		return 0, err
	}

	avail := int64(f.size) - (f.cursor - int64(f.addr))
	if avail <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > avail {
		p = p[:avail]
	}

	n, err := f.r.dev.ReadAt(p, f.cursor)
	f.cursor += int64(n)
	if err != nil {
		return n, errors.Wrap(err, "pagedir: read content")
	}
	return n, nil
}

// Write writes p at the cursor and advances it. Write mode only; fails
// with ErrInsufficientSpace if the write would run past the region end.
func (f *File) Write(p []byte) (int, error) {
	if err := f.check(modeWrite); err != nil {
		return 0, err
	}
	if f.cursor+int64(len(p)) > int64(f.r.end()) {
		return 0, errors.Wrapf(flashfs.ErrInsufficientSpace, "write %d at %#x", len(p), f.cursor)
	}

	n, err := f.r.dev.WriteAt(p, f.cursor)
	f.cursor += int64(n)
	if err != nil {
		return n, errors.Wrap(err, "pagedir: write content")
	}
	return n, nil
}

// WriteString writes the bytes of s.
func (f *File) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

// WriteByte writes the single byte c.
func (f *File) WriteByte(c byte) error {
	_, err := f.Write([]byte{c})
	return err
}

// Close finalizes the handle. In read mode it only marks the handle
// closed. In write mode it writes the final size into the entry's size
// field, the single in-place update the layout permits, exactly once
// per handle.
func (f *File) Close() error {
	if f.closed {
		return flashfs.ErrClosed
	}
	f.closed = true

	if f.mode == modeRead {
		return nil
	}

	final := uint32(f.cursor - int64(f.addr))
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, final)
	if _, err := f.r.dev.WriteAt(buf, int64(f.dirOff+sizeFieldOff(f.r.nameWidth))); err != nil {
		return errors.Wrapf(err, "pagedir: finalize size of %q", f.name)
	}
	f.r.log.V(1).Info("closed file", "name", f.name, "size", final)
	return nil
}

// DefaultChunkSize is the Pipe chunk size when none is given.
const DefaultChunkSize = 32

// Pipe copies the remaining content to dst in chunkSize-byte steps
// (DefaultChunkSize if chunkSize <= 0), checking ctx between chunks so a
// long file doesn't monopolize the caller's loop and can be cancelled.
// A destination write error aborts the remaining chunks. Read mode only.
// It returns the number of bytes copied.
func (f *File) Pipe(ctx context.Context, dst io.Writer, chunkSize int) (int64, error) {
	if err := f.check(modeRead); err != nil {
		return 0, err
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var total int64
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, err := f.Read(buf)
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}

		w, err := dst.Write(buf[:n])
		total += int64(w)
		if err != nil {
			return total, errors.Wrap(err, "pagedir: pipe destination")
		}
		if w < n {
			return total, io.ErrShortWrite
		}
	}
}
