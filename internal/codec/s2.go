package codec

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/s2"
)

// s2Codec emits one framed s2 stream per block. The snappy framing format,
// which s2 extends, permits repeated stream identifier chunks, so
// concatenated per-block streams decode as one logical stream.
type s2Codec struct {
	better  bool
	writers sync.Pool
}

// newS2Codec maps levels onto s2's two effort modes: DefaultLevel and 1
// select the fast encoder, anything higher the better-compression encoder.
func newS2Codec(level int) (*s2Codec, error) {
	if level < 0 {
		return nil, fmt.Errorf("s2 level %d out of range", level)
	}

	c := &s2Codec{better: level > 1}
	c.writers.New = func() any {
		opts := []s2.WriterOption{s2.WriterConcurrency(1)}
		if c.better {
			opts = append(opts, s2.WriterBetterCompression())
		}
		return s2.NewWriter(nil, opts...)
	}
	return c, nil
}

func (c *s2Codec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data)/2 + 64)

	w := c.writers.Get().(*s2.Writer)
	defer c.writers.Put(w)
	w.Reset(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("s2 compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("s2 close stream: %w", err)
	}

	return buf.Bytes(), nil
}

func (c *s2Codec) Type() Type        { return S2 }
func (c *s2Codec) Extension() string { return ".s2" }
