package storage

import (
	"path/filepath"
	"testing"

	"github.com/ruteri/ra-quote-explorer/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveFactory_ArchiveFor(t *testing.T) {
	factory := NewArchiveFactory(discardLogger())
	dir := t.TempDir()

	t.Run("file", func(t *testing.T) {
		archive, err := factory.ArchiveFor("file://" + dir)
		require.NoError(t, err)
		assert.IsType(t, &FileBackend{}, archive)
	})

	t.Run("s3", func(t *testing.T) {
		archive, err := factory.ArchiveFor("s3://key:secret@quotes/prod?region=eu-west-1&endpoint=http://127.0.0.1:9000")
		require.NoError(t, err)
		backend, ok := archive.(*S3Backend)
		require.True(t, ok)
		assert.Equal(t, "s3-quotes", backend.Name())
		assert.True(t, backend.hasWriteAccess)
		assert.Equal(t, "prod", backend.prefix)
		assert.NotContains(t, backend.LocationURI(), "secret")
	})

	t.Run("ipfs", func(t *testing.T) {
		archive, err := factory.ArchiveFor("ipfs://127.0.0.1/?timeout=5s")
		require.NoError(t, err)
		assert.Equal(t, "ipfs-127.0.0.1-5001", archive.Name())
	})

	t.Run("invalid", func(t *testing.T) {
		for _, uri := range []string{"ftp://example.com", "ipfs://127.0.0.1/?timeout=soon", "s3:///prefix", "file://"} {
			_, err := factory.ArchiveFor(uri)
			assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI, uri)
		}
	})
}

func TestArchiveFactory_ArchiveForList(t *testing.T) {
	factory := NewArchiveFactory(discardLogger())

	single, err := factory.ArchiveForList("file://" + filepath.Join(t.TempDir(), "a"))
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, single)

	multi, err := factory.ArchiveForList("file://" + filepath.Join(t.TempDir(), "a") + ", file://" + filepath.Join(t.TempDir(), "b"))
	require.NoError(t, err)
	assert.IsType(t, &MultiArchive{}, multi)

	_, err = factory.ArchiveForList(" , ")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}
