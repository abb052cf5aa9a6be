package compressor

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteContainerConcatenatesInIndexOrder(t *testing.T) {
	table := NewResultTable(3)
	// Fill out of order; the writer must still emit by index.
	table.setSuccess(&CompressedBlock{Index: 2, Data: []byte("cc")})
	table.setSuccess(&CompressedBlock{Index: 0, Data: []byte("aaa")})
	table.setSuccess(&CompressedBlock{Index: 1, Data: []byte("b")})

	var buf bytes.Buffer
	n, err := WriteContainer(&buf, table)
	require.NoError(t, err)
	require.Equal(t, int64(6), n)
	require.Equal(t, "aaabcc", buf.String())
}

func TestWriteContainerEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteContainer(&buf, NewResultTable(0))
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, buf.Len())
}

func TestWriteContainerRejectsUnresolvedSlot(t *testing.T) {
	table := NewResultTable(2)
	table.setSuccess(&CompressedBlock{Index: 0, Data: []byte("a")})

	var buf bytes.Buffer
	_, err := WriteContainer(&buf, table)
	require.ErrorIs(t, err, ErrIncompleteResult)
}

func TestWriteContainerRejectsFailedSlot(t *testing.T) {
	table := NewResultTable(2)
	table.setSuccess(&CompressedBlock{Index: 0, Data: []byte("a")})
	table.setFailure(1, errors.New("boom"))

	var buf bytes.Buffer
	_, err := WriteContainer(&buf, table)
	require.ErrorIs(t, err, ErrIncompleteResult)
}

type failingWriter struct {
	after int
	n     int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.n += len(p)
	if w.n > w.after {
		return 0, errors.New("disk full")
	}
	return len(p), nil
}

func TestWriteContainerPropagatesWriteError(t *testing.T) {
	table := NewResultTable(2)
	table.setSuccess(&CompressedBlock{Index: 0, Data: []byte("aaaa")})
	table.setSuccess(&CompressedBlock{Index: 1, Data: []byte("bbbb")})

	_, err := WriteContainer(&failingWriter{after: 4}, table)
	require.Error(t, err)
	require.Contains(t, err.Error(), "block 1")
}
