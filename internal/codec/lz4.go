package codec

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4Codec emits one lz4 frame per block. The lz4 frame format specifies
// that concatenated frames form a valid stream; the reference lz4 tool
// decompresses them back to back.
type lz4Codec struct {
	level   lz4.CompressionLevel
	writers sync.Pool
}

// lz4Levels maps the numeric CLI level onto the library's level constants.
var lz4Levels = map[int]lz4.CompressionLevel{
	0: lz4.Fast,
	1: lz4.Level1,
	2: lz4.Level2,
	3: lz4.Level3,
	4: lz4.Level4,
	5: lz4.Level5,
	6: lz4.Level6,
	7: lz4.Level7,
	8: lz4.Level8,
	9: lz4.Level9,
}

func newLZ4Codec(level int) (*lz4Codec, error) {
	lvl, ok := lz4Levels[level]
	if !ok {
		return nil, fmt.Errorf("lz4 level %d out of range [0,9]", level)
	}

	c := &lz4Codec{level: lvl}
	c.writers.New = func() any {
		return lz4.NewWriter(nil)
	}
	return c, nil
}

func (c *lz4Codec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data)/2 + 64)

	w := c.writers.Get().(*lz4.Writer)
	defer c.writers.Put(w)
	w.Reset(&buf)
	if err := w.Apply(lz4.CompressionLevelOption(c.level), lz4.ConcurrencyOption(1)); err != nil {
		return nil, fmt.Errorf("lz4 options: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 close frame: %w", err)
	}

	return buf.Bytes(), nil
}

func (c *lz4Codec) Type() Type        { return LZ4 }
func (c *lz4Codec) Extension() string { return ".lz4" }
