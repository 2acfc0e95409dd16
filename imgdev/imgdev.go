// Package imgdev exposes a flash image file as a flashfs.Device. The
// filesystem is abstracted through afero, so tests run on a MemMapFs and
// tools on the real OS.
//
// An image is a plain dump: writes go through unchanged, and ErasePage
// rewrites the page with 0xFF. The 1→0 bit discipline is the physics of
// real flash, not a property an image file needs to enforce.
package imgdev

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Device is an image-file flash device.
type Device struct {
	f        afero.File
	size     int64
	pageSize int64
}

// Create writes a fully erased (all-0xFF) image of size bytes at path,
// truncating any existing file.
func Create(fs afero.Fs, path string, size, pageSize int64) (*Device, error) {
	if pageSize <= 0 || size <= 0 || size%pageSize != 0 {
		return nil, errors.Errorf("imgdev: size %d is not a multiple of page size %d", size, pageSize)
	}

	f, err := fs.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "imgdev: create image")
	}

	page := erasedPage(pageSize)
	for off := int64(0); off < size; off += pageSize {
		if _, err := f.WriteAt(page, off); err != nil {
			f.Close()
			return nil, errors.Wrap(err, "imgdev: blank image")
		}
	}

	return &Device{f: f, size: size, pageSize: pageSize}, nil
}

// Open maps an existing image at path. The image size must be a multiple
// of pageSize.
func Open(fs afero.Fs, path string, pageSize int64) (*Device, error) {
	if pageSize <= 0 {
		return nil, errors.Errorf("imgdev: invalid page size %d", pageSize)
	}

	f, err := fs.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrap(err, "imgdev: open image")
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "imgdev: stat image")
	}
	if fi.Size() == 0 || fi.Size()%pageSize != 0 {
		f.Close()
		return nil, errors.Errorf("imgdev: image size %d is not a multiple of page size %d", fi.Size(), pageSize)
	}

	return &Device{f: f, size: fi.Size(), pageSize: pageSize}, nil
}

// Size returns the image size in bytes.
func (d *Device) Size() int64 { return d.size }

func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	return d.f.ReadAt(p, off)
}

func (d *Device) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > d.size {
		return 0, errors.Errorf("imgdev: write at %#x runs past image end", off)
	}
	return d.f.WriteAt(p, off)
}

// ErasePage rewrites the page containing addr with 0xFF.
func (d *Device) ErasePage(addr int64) error {
	if addr < 0 || addr >= d.size {
		return errors.Errorf("imgdev: erase address %#x out of range", addr)
	}

	start := addr - addr%d.pageSize
	_, err := d.f.WriteAt(erasedPage(d.pageSize), start)
	return errors.Wrap(err, "imgdev: erase page")
}

// Close closes the underlying image file.
func (d *Device) Close() error {
	return d.f.Close()
}

func erasedPage(pageSize int64) []byte {
	page := make([]byte, pageSize)
	for i := range page {
		page[i] = 0xFF
	}
	return page
}
