package pagedir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/keks/flashfs"
	"github.com/keks/flashfs/memflash"
)

func newTestRegion(t *testing.T, cfg Config) (*Region, *memflash.Device) {
	t.Helper()

	if cfg.PageSize == 0 {
		cfg.PageSize = 4096
	}
	if cfg.Length == 0 {
		cfg.Length = 16 * cfg.PageSize
	}

	dev, err := memflash.New(int(cfg.Base+cfg.Length), int(cfg.PageSize))
	require.NoError(t, err)

	r, err := New(dev, cfg)
	require.NoError(t, err)

	return r, dev
}

type op interface {
	Do(*testing.T, *Region)
}

type formatOp struct {
	expOK bool
}

func (op formatOp) Do(t *testing.T, r *Region) {
	ok, err := r.Format()
	require.NoError(t, err)
	require.Equal(t, op.expOK, ok)
}

type listOp struct {
	exp    []flashfs.Entry
	expErr error
}

func (op listOp) Do(t *testing.T, r *Region) {
	ents, err := r.List()
	if op.expErr != nil {
		require.ErrorIs(t, err, op.expErr)
		return
	}
	require.NoError(t, err)
	if diff := cmp.Diff(op.exp, ents); diff != "" {
		t.Errorf("directory mismatch (-want +got):\n%s", diff)
	}
}

type existsOp struct {
	name string
	exp  bool
}

func (op existsOp) Do(t *testing.T, r *Region) {
	ok, err := r.Exists(op.name)
	require.NoError(t, err)
	require.Equal(t, op.exp, ok, "exists %q", op.name)
}

type openOp struct {
	f    **File
	name string
	mode string

	expErr error
}

func (op openOp) Do(t *testing.T, r *Region) {
	f, err := r.OpenFile(op.name, op.mode)
	if op.expErr != nil {
		require.ErrorIs(t, err, op.expErr)
		return
	}
	require.NoError(t, err)
	if op.f != nil {
		*op.f = f
	}
}

type writeOp struct {
	f    **File
	data []byte

	expN   int
	expErr error
}

func (op writeOp) Do(t *testing.T, r *Region) {
	n, err := (*op.f).Write(op.data)
	if op.expErr != nil {
		require.ErrorIs(t, err, op.expErr)
		return
	}
	require.NoError(t, err)
	require.Equal(t, op.expN, n)
}

type readOp struct {
	f       **File
	readLen int

	exp    []byte
	expErr error
}

func (op readOp) Do(t *testing.T, r *Region) {
	buf := make([]byte, op.readLen)
	n, err := (*op.f).Read(buf)
	if op.expErr != nil {
		require.ErrorIs(t, err, op.expErr)
		return
	}
	require.NoError(t, err)
	require.Equal(t, op.exp, buf[:n])
}

type seekOp struct {
	f   **File
	off int64

	expPos int64
	expErr error
}

func (op seekOp) Do(t *testing.T, r *Region) {
	pos, err := (*op.f).Seek(op.off)
	if op.expErr != nil {
		require.ErrorIs(t, err, op.expErr)
		return
	}
	require.NoError(t, err)
	require.Equal(t, op.expPos, pos)
}

type skipOp struct {
	f **File
	n int64

	expErr error
}

func (op skipOp) Do(t *testing.T, r *Region) {
	err := (*op.f).Skip(op.n)
	if op.expErr != nil {
		require.ErrorIs(t, err, op.expErr)
		return
	}
	require.NoError(t, err)
}

type closeOp struct {
	f **File

	expErr error
}

func (op closeOp) Do(t *testing.T, r *Region) {
	err := (*op.f).Close()
	if op.expErr != nil {
		require.ErrorIs(t, err, op.expErr)
		return
	}
	require.NoError(t, err)
}
