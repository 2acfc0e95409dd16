package pagedir

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"

	"github.com/keks/flashfs"
)

// pages is the number of whole pages size occupies, rounded up.
func (r *Region) pages(size uint32) uint32 {
	return (size + r.pageSize - 1) / r.pageSize
}

// create appends a directory entry for name and returns a write handle
// positioned at the new file's content address.
//
// The entry is written without its size field: those bytes stay erased
// until Close performs the single size write. A crash in between leaves
// an entry that lists with size 0.
func (r *Region) create(name string) (*File, error) {
	ents, err := r.scan()
	if err != nil {
		return nil, err
	}

	for _, e := range ents {
		if strings.EqualFold(e.Name, name) {
			return nil, errors.Wrapf(flashfs.ErrFileExists, "%q", name)
		}
	}
	if len(name) > r.nameWidth {
		return nil, errors.Wrapf(flashfs.ErrNameTooLong, "%q exceeds %d bytes", name, r.nameWidth)
	}

	width := entryWidth(r.nameWidth)

	// next directory slot: right after the previous entry's EOF byte,
	// or right after the header for the first entry
	dirOff := r.base + uint32(len(magic))
	if n := len(ents); n > 0 {
		dirOff = ents[n-1].off + width
	}
	if dirOff+width > r.base+r.pageSize {
		return nil, errors.Wrapf(flashfs.ErrDirectoryFull, "%q", name)
	}

	// next content address: the first page boundary past the previous
	// file's reserved pages, or the first page after the directory
	addr := r.base + r.pageSize
	if n := len(ents); n > 0 {
		last := ents[n-1]
		addr = last.Addr + r.pages(last.Size)*r.pageSize
	}
	if addr >= r.end() {
		return nil, errors.Wrapf(flashfs.ErrRegionFull, "%q", name)
	}

	// two writes so the size bytes between them are never touched
	head := make([]byte, 1+r.nameWidth)
	head[0] = bofMarker
	copy(head[1:], encodeName(name, r.nameWidth))
	if _, err := r.dev.WriteAt(head, int64(dirOff)); err != nil {
		return nil, errors.Wrap(err, "pagedir: write entry")
	}

	tail := make([]byte, 5)
	binary.BigEndian.PutUint32(tail, addr)
	tail[4] = eofMarker
	if _, err := r.dev.WriteAt(tail, int64(dirOff+5+uint32(r.nameWidth))); err != nil {
		return nil, errors.Wrap(err, "pagedir: write entry")
	}

	r.log.V(1).Info("created file", "name", name, "mode", "w", "addr", addr, "dirOff", dirOff)

	return &File{
		r:      r,
		name:   name,
		addr:   addr,
		dirOff: dirOff,
		mode:   modeWrite,
		cursor: int64(addr),
	}, nil
}
