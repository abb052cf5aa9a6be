package codec

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// gzipCodec emits one complete gzip member per block. RFC 1952 requires
// decompressors to accept concatenated members as a single stream, so the
// container is readable by plain gunzip.
type gzipCodec struct {
	level   int
	writers sync.Pool
}

func newGzipCodec(level int) (*gzipCodec, error) {
	if level == DefaultLevel {
		level = gzip.DefaultCompression
	}
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		return nil, fmt.Errorf("gzip level %d out of range [%d,%d]", level, gzip.BestSpeed, gzip.BestCompression)
	}

	c := &gzipCodec{level: level}
	c.writers.New = func() any {
		w, err := gzip.NewWriterLevel(nil, level)
		if err != nil {
			// Level was validated above.
			panic(fmt.Sprintf("gzip writer: %v", err))
		}
		return w
	}
	return c, nil
}

func (c *gzipCodec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data)/2 + 64)

	w := c.writers.Get().(*gzip.Writer)
	defer c.writers.Put(w)
	w.Reset(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close member: %w", err)
	}

	return buf.Bytes(), nil
}

func (c *gzipCodec) Type() Type        { return Gzip }
func (c *gzipCodec) Extension() string { return ".gz" }
