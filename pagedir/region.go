// Package pagedir implements a minimal persistent file table over a fixed
// region of byte-addressable, page-erasable storage. Files are created and
// appended once, then read back; there is no delete, rename or rewrite.
//
// The first page of the region holds a magic header followed by fixed-width
// directory entries. Content starts at the next page boundary; every file
// reserves whole pages.
package pagedir

import (
	"strings"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/keks/flashfs"
)

// Defaults for Config fields left zero.
const (
	DefaultPageSize  = 4096
	DefaultNameWidth = 16
)

// Config describes one region. Regions are plain values owned by the
// caller; several regions over distinct devices (or distinct windows of
// one device) can coexist.
type Config struct {
	// Base is the absolute device address of the region start.
	Base uint32

	// Length is the region length in bytes; must be a nonzero multiple
	// of PageSize and large enough for the directory page plus at least
	// one content page.
	Length uint32

	// PageSize is the device's erase page size. Defaults to 4096.
	PageSize uint32

	// NameWidth is the fixed name field width, 16 or 32. Defaults to 16.
	NameWidth int

	// Log receives per-operation detail at V(1). Defaults to a discard
	// logger.
	Log logr.Logger
}

// Region is a file table over one device region.
//
// All operations are synchronous and single-context: the caller must not
// interleave OpenFile("w") calls, because each allocation is computed from
// a fresh directory scan.
type Region struct {
	dev flashfs.Device
	log logr.Logger

	base      uint32
	length    uint32
	pageSize  uint32
	nameWidth int
}

// New validates cfg and binds a Region to dev. It touches no storage.
func New(dev flashfs.Device, cfg Config) (*Region, error) {
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.NameWidth == 0 {
		cfg.NameWidth = DefaultNameWidth
	}
	if cfg.Log.GetSink() == nil {
		cfg.Log = logr.Discard()
	}

	if cfg.NameWidth != 16 && cfg.NameWidth != 32 {
		return nil, errors.Errorf("pagedir: name width must be 16 or 32, got %d", cfg.NameWidth)
	}
	if cfg.Length == 0 || cfg.Length%cfg.PageSize != 0 {
		return nil, errors.Errorf("pagedir: region length %d is not a multiple of page size %d", cfg.Length, cfg.PageSize)
	}
	if cfg.Length < 2*cfg.PageSize {
		return nil, errors.Errorf("pagedir: region length %d leaves no content page", cfg.Length)
	}
	if uint32(len(magic))+entryWidth(cfg.NameWidth) > cfg.PageSize {
		return nil, errors.Errorf("pagedir: page size %d cannot hold the header and one entry", cfg.PageSize)
	}

	return &Region{
		dev:       dev,
		log:       cfg.Log,
		base:      cfg.Base,
		length:    cfg.Length,
		pageSize:  cfg.PageSize,
		nameWidth: cfg.NameWidth,
	}, nil
}

// end is the first address past the region.
func (r *Region) end() uint32 { return r.base + r.length }

// Check reads the magic bytes at the region base and reports whether they
// match. The error reports device I/O failure only.
func (r *Region) Check() (bool, error) {
	buf := make([]byte, len(magic))
	if _, err := r.dev.ReadAt(buf, int64(r.base)); err != nil {
		return false, errors.Wrap(err, "pagedir: read header")
	}
	for i := range magic {
		if buf[i] != magic[i] {
			return false, nil
		}
	}
	return true, nil
}

// Prepare writes the magic header and reports whether it took. On media
// that was never erased the write may not take; Prepare then returns
// false without rolling anything back.
func (r *Region) Prepare() (bool, error) {
	if _, err := r.dev.WriteAt(magic, int64(r.base)); err != nil {
		return false, errors.Wrap(err, "pagedir: write header")
	}
	r.log.V(1).Info("prepared region", "base", r.base)
	return r.Check()
}

// Format erases every page in the region and prepares it. This is the
// only operation that reclaims directory slots or content space; it
// destroys all entries.
func (r *Region) Format() (bool, error) {
	for addr := r.base; addr < r.end(); addr += r.pageSize {
		if err := r.dev.ErasePage(int64(addr)); err != nil {
			return false, errors.Wrapf(err, "pagedir: erase page at %#x", addr)
		}
	}
	r.log.V(1).Info("formatted region", "base", r.base, "length", r.length)
	return r.Prepare()
}

// scan walks the directory table and returns the decoded entries with
// their directory offsets, in creation order.
func (r *Region) scan() ([]entry, error) {
	ok, err := r.Check()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, flashfs.ErrNotInitialized
	}

	width := entryWidth(r.nameWidth)
	var ents []entry

	b := make([]byte, 1)
	buf := make([]byte, width)
	for off := r.base + uint32(len(magic)); ; off += width {
		if off+width > r.base+r.pageSize {
			// entries live in the first page only; whatever follows is
			// content, not a record
			return ents, nil
		}
		if _, err := r.dev.ReadAt(b, int64(off)); err != nil {
			return nil, errors.Wrapf(err, "pagedir: read entry marker at %#x", off)
		}
		if b[0] != bofMarker {
			// no deletion exists, so a missing BOF always means the
			// table ends here
			return ents, nil
		}

		if _, err := r.dev.ReadAt(buf, int64(off)); err != nil {
			return nil, errors.Wrapf(err, "pagedir: read entry at %#x", off)
		}
		ent, err := decodeEntry(buf, r.nameWidth)
		if err != nil {
			return nil, errors.Wrapf(err, "entry %d at %#x", len(ents), off)
		}
		ents = append(ents, entry{Entry: ent, off: off})
	}
}

// List returns all directory entries in creation order. It fails with
// ErrNotInitialized before Prepare/Format, and with ErrCorruptEntry if
// any entry is malformed; a single corrupt entry aborts the whole
// listing.
func (r *Region) List() ([]flashfs.Entry, error) {
	ents, err := r.scan()
	if err != nil {
		return nil, err
	}
	out := make([]flashfs.Entry, len(ents))
	for i, e := range ents {
		out[i] = e.Entry
	}
	return out, nil
}

// Exists reports whether name is in the directory. Names compare
// case-insensitively.
func (r *Region) Exists(name string) (bool, error) {
	ents, err := r.scan()
	if err != nil {
		return false, err
	}
	for _, e := range ents {
		if strings.EqualFold(e.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// OpenFile opens name for reading (mode "r") or creates it for writing
// (mode "w"). The returned handle is bound to that mode for its lifetime.
func (r *Region) OpenFile(name, mode string) (*File, error) {
	switch mode {
	case "r":
		return r.openRead(name)
	case "w":
		return r.create(name)
	default:
		return nil, errors.Wrapf(flashfs.ErrInvalidMode, "%q", mode)
	}
}

func (r *Region) openRead(name string) (*File, error) {
	ents, err := r.scan()
	if err != nil {
		return nil, err
	}
	for _, e := range ents {
		if strings.EqualFold(e.Name, name) {
			r.log.V(1).Info("opened file", "name", e.Name, "mode", "r", "size", e.Size, "addr", e.Addr)
			return &File{
				r:      r,
				name:   e.Name,
				size:   e.Size,
				addr:   e.Addr,
				dirOff: e.off,
				mode:   modeRead,
				cursor: int64(e.Addr),
			}, nil
		}
	}
	return nil, errors.Wrapf(flashfs.ErrFileNotFound, "%q", name)
}
