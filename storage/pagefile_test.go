package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arvinmehra/pagedb/config"
)

func TestCreateAppendReadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tbl")
	f, err := Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, 0, f.NumPages())

	id, err := f.AppendEmptyPage()
	require.NoError(t, err)
	require.Equal(t, PageID(0), id)
	require.Equal(t, 1, f.NumPages())

	page, err := f.ReadPage(id)
	require.NoError(t, err)
	require.Len(t, page, PageSize)
	for _, b := range page {
		require.Equal(t, byte(0), b)
	}

	page[0] = 0xAB
	require.NoError(t, f.WritePage(id, page))

	got, err := f.ReadPage(id)
	require.NoError(t, err)
	require.Equal(t, byte(0xAB), got[0])
}

func TestReadPastEOFFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tbl")
	f, err := Create(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.ReadPage(0)
	require.Error(t, err)
}

func TestEnsureCapacityGrowsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tbl")
	f, err := Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.EnsureCapacity(3))
	require.Equal(t, 3, f.NumPages())

	// Already large enough: no-op.
	require.NoError(t, f.EnsureCapacity(2))
	require.Equal(t, 3, f.NumPages())
}

func TestOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tbl")
	f, err := Create(path)
	require.NoError(t, err)
	_, err = f.AppendEmptyPage()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f2, err := Open(path, config.ModeBuffered)
	require.NoError(t, err)
	defer f2.Close()
	require.Equal(t, 1, f2.NumPages())
}

func TestDestroy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tbl")
	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, Destroy(path))
	_, err = Open(path, config.ModeBuffered)
	require.Error(t, err)
}
