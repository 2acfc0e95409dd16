package imgdev

import (
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/keks/flashfs/pagedir"
)

func TestCreateBlanksImage(t *testing.T) {
	fs := afero.NewMemMapFs()

	d, err := Create(fs, "fs.img", 1024, 256)
	require.NoError(t, err)
	require.Equal(t, int64(1024), d.Size())

	buf := make([]byte, 1024)
	_, err = d.ReadAt(buf, 0)
	require.NoError(t, err)
	for i, b := range buf {
		require.Equal(t, byte(0xFF), b, "byte %d", i)
	}
	require.NoError(t, d.Close())
}

func TestCreateValidation(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := Create(fs, "fs.img", 300, 256)
	require.Error(t, err)
	_, err = Create(fs, "fs.img", 0, 256)
	require.Error(t, err)
	_, err = Create(fs, "fs.img", 512, 0)
	require.Error(t, err)
}

func TestOpenExisting(t *testing.T) {
	fs := afero.NewMemMapFs()

	d, err := Create(fs, "fs.img", 1024, 256)
	require.NoError(t, err)
	_, err = d.WriteAt([]byte("mark"), 100)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = Open(fs, "fs.img", 256)
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = d.ReadAt(buf, 100)
	require.NoError(t, err)
	require.Equal(t, []byte("mark"), buf)
	require.NoError(t, d.Close())

	_, err = Open(fs, "missing.img", 256)
	require.Error(t, err)
	_, err = Open(fs, "fs.img", 300)
	require.Error(t, err)
}

func TestErasePage(t *testing.T) {
	fs := afero.NewMemMapFs()

	d, err := Create(fs, "fs.img", 512, 256)
	require.NoError(t, err)

	_, err = d.WriteAt([]byte{0, 0}, 255)
	require.NoError(t, err)
	require.NoError(t, d.ErasePage(0))

	buf := make([]byte, 2)
	_, err = d.ReadAt(buf, 255)
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF, 0x00}, buf)

	require.Error(t, d.ErasePage(512))
}

func TestWriteBounds(t *testing.T) {
	fs := afero.NewMemMapFs()

	d, err := Create(fs, "fs.img", 512, 256)
	require.NoError(t, err)

	_, err = d.WriteAt([]byte{0}, 512)
	require.Error(t, err)
	_, err = d.WriteAt(make([]byte, 4), 510)
	require.Error(t, err)
}

// the image device should carry a full file-table round trip
func TestRegionRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()

	d, err := Create(fs, "fs.img", 16*4096, 4096)
	require.NoError(t, err)

	r, err := pagedir.New(d, pagedir.Config{Length: 16 * 4096})
	require.NoError(t, err)

	ok, err := r.Format()
	require.NoError(t, err)
	require.True(t, ok)

	w, err := r.OpenFile("hello.txt", "w")
	require.NoError(t, err)
	_, err = w.WriteString("hello from an image")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, d.Close())

	// reopen the image cold and read back
	d, err = Open(fs, "fs.img", 4096)
	require.NoError(t, err)
	defer d.Close()

	r, err = pagedir.New(d, pagedir.Config{Length: 16 * 4096})
	require.NoError(t, err)

	f, err := r.OpenFile("HELLO.TXT", "r")
	require.NoError(t, err)
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "hello from an image", string(got))
}
