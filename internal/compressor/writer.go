package compressor

import (
	"fmt"
	"io"
)

// WriteContainer serializes the compressed blocks in ascending index order
// into w, concatenated with no framing between them. The compression
// formats used here define such a concatenation as a single valid stream.
//
// Every slot must hold a successful block; callers confirm a zero failure
// count before invoking the writer, so an unresolved slot returns
// ErrIncompleteResult. Nothing is guaranteed about how much was written
// when an error is returned; the storage backends discard partial output.
func WriteContainer(w io.Writer, table *ResultTable) (int64, error) {
	var written int64

	for i := 0; i < table.Len(); i++ {
		b := table.Block(i)
		if b == nil {
			return written, fmt.Errorf("%w: index %d", ErrIncompleteResult, i)
		}

		n, err := w.Write(b.Data)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write block %d: %w", i, err)
		}
	}

	return written, nil
}
