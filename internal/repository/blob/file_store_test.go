package blob

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartsInvisibleUntilFinalize(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.AppendPart("room", "msg", []byte("hello ")))
	require.NoError(t, s.AppendPart("room", "msg", []byte("world")))

	_, err = s.Open("room", "msg")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Finalize("room", "msg"))

	reader, err := s.Open("room", "msg")
	require.NoError(t, err)
	defer reader.Close()
	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), content)
}

func TestAppendPreservesOrder(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	var want bytes.Buffer
	for i := 0; i < 20; i++ {
		part := bytes.Repeat([]byte{byte(i)}, 100)
		want.Write(part)
		require.NoError(t, s.AppendPart("r", "m", part))
	}
	require.NoError(t, s.Finalize("r", "m"))

	reader, err := s.Open("r", "m")
	require.NoError(t, err)
	defer reader.Close()
	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, want.Bytes(), content)
}

func TestDiscardIsIdempotent(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	// Nothing written at all.
	assert.NoError(t, s.Discard("r", "never"))

	require.NoError(t, s.AppendPart("r", "m", []byte("partial")))
	assert.NoError(t, s.Discard("r", "m"))
	assert.NoError(t, s.Discard("r", "m"))
	_, err = s.Open("r", "m")
	assert.ErrorIs(t, err, ErrNotFound)

	// Discard also removes finalized blobs.
	require.NoError(t, s.AppendPart("r", "m2", []byte("data")))
	require.NoError(t, s.Finalize("r", "m2"))
	assert.NoError(t, s.Discard("r", "m2"))
	_, err = s.Open("r", "m2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlobsKeyedByRoomAndMessage(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.AppendPart("roomA", "msg", []byte("aaa")))
	require.NoError(t, s.Finalize("roomA", "msg"))

	_, err = s.Open("roomB", "msg")
	assert.ErrorIs(t, err, ErrNotFound)
}
