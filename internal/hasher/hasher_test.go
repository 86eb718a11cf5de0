package hasher_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/raffaelramalhorosa/podcast-archiver/internal/hasher"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "media.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestHashMatchesReferenceDigest(t *testing.T) {
	sizes := []int{0, 1, hasher.ChunkSize - 1, hasher.ChunkSize, hasher.ChunkSize + 1, 10*hasher.ChunkSize + 7}

	h, err := hasher.New("")
	require.NoError(t, err)
	assert.Equal(t, hasher.SHA256, h.Algorithm())

	for _, size := range sizes {
		data := bytes.Repeat([]byte{0xAB, 0x01, 0x7F}, size/3+1)[:size]
		path := writeFile(t, data)

		got, err := h.Hash(path)
		require.NoError(t, err)

		want := sha256.Sum256(data)
		assert.Equal(t, hex.EncodeToString(want[:]), got, "size %d", size)
	}
}

func TestHashBlake3(t *testing.T) {
	data := []byte("podcast audio bytes")
	path := writeFile(t, data)

	h, err := hasher.New("BLAKE3")
	require.NoError(t, err)

	got, err := h.Hash(path)
	require.NoError(t, err)

	want := blake3.Sum256(data)
	assert.Equal(t, hex.EncodeToString(want[:]), got)
}

func TestHashIndependentOfReadSize(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 500)

	h, err := hasher.New(hasher.SHA256)
	require.NoError(t, err)

	whole, err := h.HashReader(bytes.NewReader(data))
	require.NoError(t, err)
	oneByte, err := h.HashReader(iotest.OneByteReader(bytes.NewReader(data)))
	require.NoError(t, err)
	half, err := h.HashReader(iotest.HalfReader(bytes.NewReader(data)))
	require.NoError(t, err)

	assert.Equal(t, whole, oneByte)
	assert.Equal(t, whole, half)
}

func TestHashMissingFile(t *testing.T) {
	h, err := hasher.New(hasher.SHA256)
	require.NoError(t, err)

	_, err = h.Hash(filepath.Join(t.TempDir(), "missing.mp3"))
	require.ErrorIs(t, err, hasher.ErrNotFound)
}

func TestHashDirectoryIsNotFound(t *testing.T) {
	h, err := hasher.New(hasher.SHA256)
	require.NoError(t, err)

	_, err = h.Hash(t.TempDir())
	require.ErrorIs(t, err, hasher.ErrNotFound)
}

func TestNewRejectsUnknownAlgorithm(t *testing.T) {
	_, err := hasher.New("md5")
	require.Error(t, err)
}
