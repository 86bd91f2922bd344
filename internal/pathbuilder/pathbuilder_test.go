package pathbuilder

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pepperjack/objectstore/internal/objstore"
)

const testHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b85"

func TestBuilder_Root(t *testing.T) {
	b := New("/data/hot", "/data/cold")

	hot, err := b.Root(objstore.StorageHot)
	require.NoError(t, err)
	require.Equal(t, "/data/hot", hot)

	cold, err := b.Root(objstore.StorageCold)
	require.NoError(t, err)
	require.Equal(t, "/data/cold", cold)

	_, err = b.Root(objstore.StorageClass("glacier"))
	require.Error(t, err)
}

func TestBuilder_FinalPath(t *testing.T) {
	b := New("/data/hot", "/data/cold")

	path, err := b.FinalPath(objstore.StorageHot, testHash)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/data/hot", "sha256", testHash[0:2], testHash), path)

	_, err = b.FinalPath(objstore.StorageHot, "ab")
	require.Error(t, err)
}

func TestBuilder_FinalDir(t *testing.T) {
	b := New("/data/hot", "/data/cold")

	dir, err := b.FinalDir(objstore.StorageCold, testHash)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/data/cold", "sha256", testHash[0:2]), dir)
}

func TestBuilder_TempPath_Unique(t *testing.T) {
	b := New("/data/hot", "/data/cold")

	a, err := b.TempPath(objstore.StorageHot)
	require.NoError(t, err)
	c, err := b.TempPath(objstore.StorageHot)
	require.NoError(t, err)

	require.NotEqual(t, a, c)
	require.Equal(t, filepath.Join("/data/hot", "temp"), filepath.Dir(a))
}

func TestBuilder_TempDir(t *testing.T) {
	b := New("/data/hot", "/data/cold")
	dir, err := b.TempDir(objstore.StorageHot)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/data/hot", "temp"), dir)
}
